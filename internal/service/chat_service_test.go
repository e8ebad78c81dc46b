package service

import (
	"context"
	"testing"

	"github.com/personachat/personachat/internal/config"
	"github.com/personachat/personachat/internal/domain"
	"github.com/personachat/personachat/internal/knowledge"
	"github.com/personachat/personachat/internal/llm"
	"github.com/personachat/personachat/internal/prompt"
	"github.com/personachat/personachat/internal/repository"
	"github.com/personachat/personachat/internal/retriever"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGenerator struct {
	reply      string
	err        error
	calls      int
	lastPrompt prompt.Prompt
}

func (g *stubGenerator) Generate(_ context.Context, p prompt.Prompt) (string, error) {
	g.calls++
	g.lastPrompt = p
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Persona: domain.PersonaConfig{
			Name:         "Dev",
			Instructions: "You answer questions about the portfolio owner.",
			QuickResponses: []domain.QuickResponse{
				{Patterns: []string{"contact", "email"}, Reply: "You can reach me through the contact form."},
			},
		},
		Chat: config.ChatConfig{
			TopK:             5,
			HistoryWindow:    10,
			PromptBudget:     8000,
			MaxMessageLength: 2000,
		},
	}
}

func testRetriever() Retriever {
	store := knowledge.NewStore([]domain.KnowledgeSnippet{
		{ID: "ai", Text: "Built an AI chatbot with retrieval augmented generation.", Tags: []string{"ai", "projects"}},
		{ID: "bio", Text: "Backend engineer working mostly in Go.", Tags: []string{"background"}},
	})
	return retriever.NewLexical(store)
}

func newChatService(gen llm.Generator) (*ChatService, repository.SessionStore) {
	store := repository.NewMemoryStore()
	svc := NewChatService(testConfig(), store, testRetriever(), gen, zap.NewNop())
	return svc, store
}

func TestChatCreatesSessionAndPersistsTurns(t *testing.T) {
	gen := &stubGenerator{reply: "I built an AI chatbot."}
	svc, store := newChatService(gen)
	ctx := context.Background()

	resp, err := svc.Chat(ctx, &domain.ChatRequest{Message: "What AI projects have you built?"},
		"203.0.113.7", "Mozilla/5.0")
	require.NoError(t, err)

	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "I built an AI chatbot.", resp.Reply)
	assert.Equal(t, domain.SourceRAG, resp.Source)

	_, total, err := store.ListSessions(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	session, err := store.GetSession(ctx, resp.SessionID)
	require.NoError(t, err)
	require.Len(t, session.Messages, 2)
	assert.Equal(t, domain.RoleUser, session.Messages[0].Role)
	assert.Equal(t, "What AI projects have you built?", session.Messages[0].Content)
	assert.Equal(t, domain.RoleAssistant, session.Messages[1].Role)
	assert.Equal(t, domain.SourceRAG, session.Messages[1].Source)
	assert.Equal(t, "203.0.113.7", session.IPAddress)
	assert.Equal(t, "Mozilla/5.0", session.UserAgent)
}

func TestChatContinuesExistingSession(t *testing.T) {
	gen := &stubGenerator{reply: "reply"}
	svc, store := newChatService(gen)
	ctx := context.Background()

	first, err := svc.Chat(ctx, &domain.ChatRequest{Message: "tell me about your AI projects"}, "", "")
	require.NoError(t, err)

	second, err := svc.Chat(ctx, &domain.ChatRequest{
		SessionID: first.SessionID,
		Message:   "anything with go?",
	}, "", "")
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)

	session, err := store.GetSession(ctx, first.SessionID)
	require.NoError(t, err)
	assert.Len(t, session.Messages, 4)

	// The second call saw the first exchange as history
	require.Len(t, gen.lastPrompt.History, 2)
	assert.Equal(t, "tell me about your AI projects", gen.lastPrompt.History[0].Content)
	assert.Equal(t, "anything with go?", gen.lastPrompt.UserMessage)
}

func TestChatUnknownSessionStartsFresh(t *testing.T) {
	gen := &stubGenerator{reply: "reply"}
	svc, _ := newChatService(gen)

	resp, err := svc.Chat(context.Background(), &domain.ChatRequest{
		SessionID: "gone-after-reset",
		Message:   "hello ai",
	}, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, "gone-after-reset", resp.SessionID)
	assert.NotEmpty(t, resp.Reply)
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	gen := &stubGenerator{reply: "reply"}
	svc, store := newChatService(gen)
	ctx := context.Background()

	_, err := svc.Chat(ctx, &domain.ChatRequest{Message: "   "}, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Zero(t, gen.calls, "no generation call for invalid input")

	_, total, err := store.ListSessions(ctx, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total, "no session created for invalid input")
}

func TestChatRejectsOversizedMessage(t *testing.T) {
	gen := &stubGenerator{reply: "reply"}
	svc, _ := newChatService(gen)

	big := make([]byte, 3000)
	for i := range big {
		big[i] = 'a'
	}
	_, err := svc.Chat(context.Background(), &domain.ChatRequest{Message: string(big)}, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Zero(t, gen.calls)
}

func TestChatFallsBackToQuickResponse(t *testing.T) {
	gen := &stubGenerator{err: &llm.GenerationError{Kind: llm.KindRateLimited}}
	svc, store := newChatService(gen)
	ctx := context.Background()

	resp, err := svc.Chat(ctx, &domain.ChatRequest{Message: "How do I contact you?"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, "You can reach me through the contact form.", resp.Reply)
	assert.Equal(t, domain.SourceQuickResponse, resp.Source)

	// Both turns are persisted even on the fallback path
	session, err := store.GetSession(ctx, resp.SessionID)
	require.NoError(t, err)
	require.Len(t, session.Messages, 2)
	assert.Equal(t, domain.SourceQuickResponse, session.Messages[1].Source)
}

func TestChatGenericFallback(t *testing.T) {
	gen := &stubGenerator{err: &llm.GenerationError{Kind: llm.KindUnavailable}}
	svc, _ := newChatService(gen)

	resp, err := svc.Chat(context.Background(), &domain.ChatRequest{Message: "what is your favourite project"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, fallbackReply, resp.Reply)
	assert.Equal(t, domain.SourceFallback, resp.Source)
}

func TestChatSurfacesInvalidRequest(t *testing.T) {
	gen := &stubGenerator{err: &llm.GenerationError{Kind: llm.KindInvalidRequest}}
	svc, store := newChatService(gen)
	ctx := context.Background()

	_, err := svc.Chat(ctx, &domain.ChatRequest{Message: "hello ai"}, "", "")
	require.Error(t, err)
	assert.Equal(t, llm.KindInvalidRequest, llm.AsGenerationError(err).Kind)

	_, total, err := store.ListSessions(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total, "session exists but no turns were persisted")
}

func TestChatWithoutGenerator(t *testing.T) {
	svc, _ := newChatService(nil)

	resp, err := svc.Chat(context.Background(), &domain.ChatRequest{Message: "what's your email?"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceQuickResponse, resp.Source)
}

func TestChatPromptCarriesContext(t *testing.T) {
	gen := &stubGenerator{reply: "reply"}
	svc, _ := newChatService(gen)

	_, err := svc.Chat(context.Background(), &domain.ChatRequest{Message: "tell me about your ai projects"}, "", "")
	require.NoError(t, err)
	require.NotEmpty(t, gen.lastPrompt.Context)
	assert.Contains(t, gen.lastPrompt.Context[0], "AI chatbot")
}
