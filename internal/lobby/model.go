package lobby

import "time"

// CreateRequest 在频道（key）上开一局
type CreateRequest struct {
	Key string `json:"key" binding:"required"`
}

type CreateResponse struct {
	SessionID string `json:"sessionId"`
	Key       string `json:"key"`
}

// Record 一局结束后的归档
type Record struct {
	SessionID   string    `json:"sessionId"`
	Key         string    `json:"key"`
	Players     []string  `json:"players"`
	Winners     []string  `json:"winners,omitempty"`
	Pot         int64     `json:"pot"`
	Share       int64     `json:"share"`
	Remainder   int64     `json:"remainder"`
	Uncontested bool      `json:"uncontested"`
	Aborted     bool      `json:"aborted"`
	Reason      string    `json:"reason,omitempty"`
	FinishedAt  time.Time `json:"finishedAt"`
}
