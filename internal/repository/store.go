package repository

import (
	"context"

	"github.com/personachat/personachat/internal/domain"
)

// PreviewLength caps the most-recent-message preview carried by session
// summaries.
const PreviewLength = 100

// SessionStore owns the lifetime of chat sessions and their messages. No
// other component persists or mutates them; the chat pipeline only appends
// through this interface.
//
// Implementations must serialize AppendMessage calls for the same session
// (appends for different sessions may run concurrently) and apply each
// append atomically.
type SessionStore interface {
	// CreateSession starts a new session, capturing the client metadata
	// once.
	CreateSession(ctx context.Context, ip, userAgent string) (*domain.ChatSession, error)

	// AppendMessage appends to the session's transcript and advances
	// last_message_at. Returns domain.ErrSessionNotFound for unknown ids.
	// The message's ID and CreatedAt are assigned by the store when unset.
	AppendMessage(ctx context.Context, sessionID string, msg *domain.ChatMessage) error

	// GetSession returns the session with its full transcript, or
	// domain.ErrSessionNotFound.
	GetSession(ctx context.Context, id string) (*domain.ChatSession, error)

	// ListSessions returns one page of summaries ordered by
	// last_message_at descending, plus the total session count.
	ListSessions(ctx context.Context, page, pageSize int) ([]domain.SessionSummary, int, error)

	// DeleteSession removes the session and all its messages atomically.
	// Deleting an absent session returns domain.ErrSessionNotFound; the
	// HTTP layer maps that to 404.
	DeleteSession(ctx context.Context, id string) error
}

// makePreview trims a message body down to summary size.
func makePreview(content string) string {
	runes := []rune(content)
	if len(runes) <= PreviewLength {
		return content
	}
	return string(runes[:PreviewLength]) + "…"
}
