package websocket

// 服务端 -> 玩家
type OutgoingMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// 玩家 -> 服务端；From 由服务端按连接身份填充，客户端填的值会被覆盖
type IncomingMessage struct {
	From  string `json:"from"`
	Event string `json:"event"`
	Data  any    `json:"data"`
}

const (
	EventActionRequest  = "action_request"
	EventDiscardRequest = "discard_request"
	EventActionReply    = "action_reply"
	EventDiscardReply   = "discard_reply"
	EventError          = "error"
)

// replyPayload action_reply / discard_reply 的 data 部分
type replyPayload struct {
	Request   string `json:"request"`
	Action    string `json:"action,omitempty"`
	Amount    int64  `json:"amount,omitempty"`
	Positions []int  `json:"positions,omitempty"`
	Text      string `json:"text,omitempty"`
}
