package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/personachat/personachat/internal/domain"
	"github.com/personachat/personachat/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedSessions(t *testing.T, store repository.SessionStore, n int) []string {
	t.Helper()
	ctx := context.Background()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		session, err := store.CreateSession(ctx, "", "")
		require.NoError(t, err)
		require.NoError(t, store.AppendMessage(ctx, session.ID, &domain.ChatMessage{
			Role: domain.RoleUser, Content: fmt.Sprintf("q%d", i),
		}))
		ids = append(ids, session.ID)
	}
	return ids
}

func TestAdminListTotalPages(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewAdminService(store, zap.NewNop())
	seedSessions(t, store, 25)

	resp, err := svc.ListSessions(context.Background(), 2, 20)
	require.NoError(t, err)
	assert.Equal(t, 25, resp.Total)
	assert.Equal(t, 2, resp.TotalPages)
	assert.Len(t, resp.Sessions, 5)
	assert.Equal(t, 2, resp.Page)
}

func TestAdminListClampsArguments(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewAdminService(store, zap.NewNop())
	seedSessions(t, store, 3)

	resp, err := svc.ListSessions(context.Background(), 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.PageSize)
	assert.Len(t, resp.Sessions, 3)
}

func TestAdminDeleteReportsAbsent(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewAdminService(store, zap.NewNop())
	ids := seedSessions(t, store, 1)

	require.NoError(t, svc.DeleteSession(context.Background(), ids[0]))
	assert.ErrorIs(t, svc.DeleteSession(context.Background(), ids[0]), domain.ErrSessionNotFound)

	_, err := svc.GetSession(context.Background(), ids[0])
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
