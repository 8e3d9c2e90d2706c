package table

type Phase int

const (
	Lobby Phase = iota
	Round1Betting
	Exchange
	Round2Betting
	Showdown
	Closed
)

var phaseNames = map[Phase]string{
	Lobby:         "lobby",
	Round1Betting: "round1_betting",
	Exchange:      "exchange",
	Round2Betting: "round2_betting",
	Showdown:      "showdown",
	Closed:        "closed",
}

func (p Phase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return "unknown"
}

func (p Phase) IsBetting() bool {
	return p == Round1Betting || p == Round2Betting
}
