package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/personachat/personachat/internal/domain"
)

// MemoryStore is an in-memory SessionStore for tests and ephemeral
// deployments. A single lock guards the maps; appends never block on I/O,
// so cross-session contention is negligible.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.ChatSession
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*domain.ChatSession),
	}
}

// CreateSession starts a new session with the client metadata.
func (s *MemoryStore) CreateSession(_ context.Context, ip, userAgent string) (*domain.ChatSession, error) {
	now := time.Now().UTC()
	session := &domain.ChatSession{
		ID:            uuid.New().String(),
		IPAddress:     ip,
		UserAgent:     userAgent,
		StartedAt:     now,
		LastMessageAt: now,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return cloneSession(session), nil
}

// AppendMessage appends a message and advances LastMessageAt.
func (s *MemoryStore) AppendMessage(_ context.Context, sessionID string, msg *domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	msg.SessionID = sessionID

	session.Messages = append(session.Messages, *msg)
	if msg.CreatedAt.After(session.LastMessageAt) {
		session.LastMessageAt = msg.CreatedAt
	}
	return nil
}

// GetSession retrieves a session with its full transcript.
func (s *MemoryStore) GetSession(_ context.Context, id string) (*domain.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return cloneSession(session), nil
}

// ListSessions returns a page of summaries, most recently active first.
func (s *MemoryStore) ListSessions(_ context.Context, page, pageSize int) ([]domain.SessionSummary, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	s.mu.RLock()
	summaries := make([]domain.SessionSummary, 0, len(s.sessions))
	for _, session := range s.sessions {
		summary := domain.SessionSummary{
			ID:            session.ID,
			IPAddress:     session.IPAddress,
			UserAgent:     session.UserAgent,
			StartedAt:     session.StartedAt,
			LastMessageAt: session.LastMessageAt,
			MessageCount:  len(session.Messages),
		}
		if n := len(session.Messages); n > 0 {
			summary.Preview = makePreview(session.Messages[n-1].Content)
		}
		summaries = append(summaries, summary)
	}
	s.mu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].LastMessageAt.Equal(summaries[j].LastMessageAt) {
			return summaries[i].LastMessageAt.After(summaries[j].LastMessageAt)
		}
		return summaries[i].ID < summaries[j].ID
	})

	total := len(summaries)
	start := (page - 1) * pageSize
	if start >= total {
		return []domain.SessionSummary{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return summaries[start:end], total, nil
}

// DeleteSession removes the session and its messages.
func (s *MemoryStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

func cloneSession(session *domain.ChatSession) *domain.ChatSession {
	cloned := *session
	cloned.Messages = append([]domain.ChatMessage(nil), session.Messages...)
	return &cloned
}
