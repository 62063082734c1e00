package dto

import (
	"time"

	"github.com/google/uuid"
)

// SendMessageRequest carries the user's message. Empty or whitespace-only
// text is accepted here and treated as a no-op downstream, not rejected.
type SendMessageRequest struct {
	Text string `json:"text"`
}

type ChatTurnDTO struct {
	Id        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatStateResponse is the full observable state of the conversation. The
// presentation layer renders from this snapshot and nothing else.
type ChatStateResponse struct {
	Turns          []ChatTurnDTO `json:"turns"`
	ActiveChatId   string        `json:"active_chat_id"`
	Busy           bool          `json:"busy"`
	ResumeUploaded bool          `json:"resume_uploaded"`
}

type SessionSummaryResponse struct {
	Id          int64     `json:"id"`
	Title       string    `json:"title"`
	Messages    int       `json:"messages"`
	LastUpdated time.Time `json:"last_updated"`
}
