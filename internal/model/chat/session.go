package chat

import "time"

// Session captures a transient anonymous conversation.
type Session struct {
	ID          string    `json:"id"`
	PersonaID   string    `json:"personaId"`
	LastEmotion string    `json:"lastEmotion,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
