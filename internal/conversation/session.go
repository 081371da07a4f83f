// Package conversation holds chat sessions: the ordered message log of one
// conversation plus the résumé most recently found in it.
package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"jobmate/brain-service/internal/records"
)

// ErrSessionNotFound is returned for unknown, ended or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// Session is one conversation. It is passed explicitly to the chat handler
// and saved back to its Store after every turn.
type Session struct {
	ID       string            `json:"id"`
	Messages []*schema.Message `json:"messages"`
	// LastResume is overwritten by every résumé lookup, cleared when the
	// lookup fails or finds nothing.
	LastResume *records.ResumeRef `json:"lastResume,omitempty"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

// New returns an empty session with a fresh id.
func New() *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		Messages:  []*schema.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AppendUser appends a user turn to the log.
func (s *Session) AppendUser(text string) {
	s.Messages = append(s.Messages, schema.UserMessage(text))
	s.UpdatedAt = time.Now().UTC()
}

// AppendAssistant appends a bot turn to the log.
func (s *Session) AppendAssistant(text string) {
	s.Messages = append(s.Messages, schema.AssistantMessage(text, nil))
	s.UpdatedAt = time.Now().UTC()
}

// Store persists sessions between turns.
type Store interface {
	Create(ctx context.Context) (*Session, error)
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	// End discards the session and its log.
	End(ctx context.Context, id string) error
}
