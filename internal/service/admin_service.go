package service

import (
	"context"

	"github.com/personachat/personachat/internal/domain"
	"github.com/personachat/personachat/internal/repository"
	"go.uber.org/zap"
)

// AdminService is the read/delete surface over the session store consumed
// by the admin history viewer. Appends are not exposed here.
type AdminService struct {
	store  repository.SessionStore
	logger *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(store repository.SessionStore, logger *zap.Logger) *AdminService {
	return &AdminService{store: store, logger: logger}
}

// ListSessions returns a page of session summaries, most recently active
// first.
func (s *AdminService) ListSessions(ctx context.Context, page, pageSize int) (*domain.SessionListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	summaries, total, err := s.store.ListSessions(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}

	return &domain.SessionListResponse{
		Sessions:   summaries,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// GetSession returns the full transcript of one session.
func (s *AdminService) GetSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	return s.store.GetSession(ctx, id)
}

// DeleteSession removes a session and all its messages.
func (s *AdminService) DeleteSession(ctx context.Context, id string) error {
	if err := s.store.DeleteSession(ctx, id); err != nil {
		return err
	}
	s.logger.Info("session deleted", zap.String("session_id", id))
	return nil
}
