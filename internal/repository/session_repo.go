package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/personachat/personachat/internal/domain"
)

// SessionRepository is the SQLite-backed SessionStore.
type SessionRepository struct {
	db *DB

	// Per-session write locks: appends to the same session are
	// serialized, appends to different sessions proceed in parallel.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{
		db:    db,
		locks: make(map[string]*sync.Mutex),
	}
}

func (r *SessionRepository) sessionLock(id string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[id] = lock
	}
	return lock
}

func (r *SessionRepository) dropLock(id string) {
	r.mu.Lock()
	delete(r.locks, id)
	r.mu.Unlock()
}

// CreateSession starts a new session with the client metadata.
func (r *SessionRepository) CreateSession(ctx context.Context, ip, userAgent string) (*domain.ChatSession, error) {
	now := time.Now().UTC()
	session := &domain.ChatSession{
		ID:            uuid.New().String(),
		IPAddress:     ip,
		UserAgent:     userAgent,
		StartedAt:     now,
		LastMessageAt: now,
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, ip_address, user_agent, started_at, last_message_at)
		VALUES (?, ?, ?, ?, ?)
	`, session.ID, session.IPAddress, session.UserAgent, session.StartedAt, session.LastMessageAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// AppendMessage appends a message and advances last_message_at in one
// transaction.
func (r *SessionRepository) AppendMessage(ctx context.Context, sessionID string, msg *domain.ChatMessage) error {
	lock := r.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, sessionID).Scan(&exists)
	if err == sql.ErrNoRows {
		return domain.ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up session: %w", err)
	}

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	msg.SessionID = sessionID

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (id, session_id, role, content, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.SessionID, msg.Role, msg.Content, msg.Source, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE sessions SET last_message_at = ? WHERE id = ?
	`, msg.CreatedAt, sessionID)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	return tx.Commit()
}

// GetSession retrieves a session with its full transcript.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	session := &domain.ChatSession{}
	var ip, ua sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT id, ip_address, user_agent, started_at, last_message_at
		FROM sessions WHERE id = ?
	`, id).Scan(&session.ID, &ip, &ua, &session.StartedAt, &session.LastMessageAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	session.IPAddress = ip.String
	session.UserAgent = ua.String

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, source, created_at
		FROM messages WHERE session_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		msg := domain.ChatMessage{}
		var source sql.NullString
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role,
			&msg.Content, &source, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Source = source.String
		session.Messages = append(session.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return session, nil
}

// ListSessions returns a page of summaries, most recently active first.
func (r *SessionRepository) ListSessions(ctx context.Context, page, pageSize int) ([]domain.SessionSummary, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.ip_address, s.user_agent, s.started_at, s.last_message_at,
			(SELECT COUNT(*) FROM messages m WHERE m.session_id = s.id),
			COALESCE((SELECT m.content FROM messages m WHERE m.session_id = s.id
				ORDER BY m.created_at DESC, m.rowid DESC LIMIT 1), '')
		FROM sessions s
		ORDER BY s.last_message_at DESC, s.id
		LIMIT ? OFFSET ?
	`, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	summaries := make([]domain.SessionSummary, 0, pageSize)
	for rows.Next() {
		var s domain.SessionSummary
		var ip, ua sql.NullString
		var preview string
		if err := rows.Scan(&s.ID, &ip, &ua, &s.StartedAt, &s.LastMessageAt,
			&s.MessageCount, &preview); err != nil {
			return nil, 0, fmt.Errorf("failed to scan session: %w", err)
		}
		s.IPAddress = ip.String
		s.UserAgent = ua.String
		s.Preview = makePreview(preview)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return summaries, total, nil
}

// DeleteSession removes the session and its messages atomically.
func (r *SessionRepository) DeleteSession(ctx context.Context, id string) error {
	lock := r.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrSessionNotFound
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	r.dropLock(id)
	return nil
}
