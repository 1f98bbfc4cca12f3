package chat

import (
	"context"
	"errors"

	"github.com/zhouzirui/luma/backend/internal/model/chat"
)

var (
	ErrPersonaRequired = errors.New("persona id is required")
	ErrSessionNotFound = errors.New("session not found")
)

// Store owns conversation sessions, their transcripts and the per-session
// last-emotion slot.
type Store interface {
	// CreateSession provisions an anonymous session bound to a persona.
	CreateSession(ctx context.Context, personaID string) (chat.Session, error)
	GetSession(ctx context.Context, sessionID string) (chat.Session, error)
	// SaveMessage appends a message to the session history.
	SaveMessage(ctx context.Context, message chat.Message) error
	// LoadTranscript returns stored messages in insertion order.
	LoadTranscript(ctx context.Context, sessionID string) ([]chat.Message, error)
	// LastEmotion returns the last non-neutral emotion, empty when unset.
	LastEmotion(ctx context.Context, sessionID string) (string, error)
	SetLastEmotion(ctx context.Context, sessionID, emotion string) error
	// EndSession drops the session together with its context and transcript.
	EndSession(ctx context.Context, sessionID string) error
	Close() error
}
