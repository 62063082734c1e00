package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatTurn is one message of a conversation. Turns are immutable once created
// and are only ever appended; whole sessions are deleted, never single turns.
type ChatTurn struct {
	Id        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	CreatedAt time.Time `json:"created_at"`
}
