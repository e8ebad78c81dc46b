package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/personachat/personachat/internal/config"
	"github.com/personachat/personachat/internal/domain"
	"github.com/personachat/personachat/internal/llm"
	"github.com/personachat/personachat/internal/prompt"
	"github.com/personachat/personachat/internal/repository"
	"go.uber.org/zap"
)

// fallbackReply is returned when generation is unavailable and no quick
// response matches.
const fallbackReply = "Sorry, I can't answer that right now. Please try again in a moment."

// Retriever returns snippets relevant to a query. An unreachable retrieval
// backend is reported as an error; the chat pipeline then proceeds with
// empty context instead of failing the request.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]domain.KnowledgeSnippet, error)
}

// ChatService orchestrates the pipeline for one user message: resolve
// session, retrieve, assemble, generate, persist, respond. It performs no
// retries of its own; those live in the LLM client wrapper.
type ChatService struct {
	cfg       *config.Config
	store     repository.SessionStore
	retriever Retriever
	assembler *prompt.Assembler
	generator llm.Generator
	logger    *zap.Logger
}

// NewChatService creates a new chat service. generator may be nil when no
// LLM endpoint is configured; the service then answers from the
// quick-response table only.
func NewChatService(
	cfg *config.Config,
	store repository.SessionStore,
	retriever Retriever,
	generator llm.Generator,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		cfg:       cfg,
		store:     store,
		retriever: retriever,
		assembler: prompt.NewAssembler(cfg.Chat.HistoryWindow, cfg.Chat.PromptBudget),
		generator: generator,
		logger:    logger,
	}
}

// Chat handles one incoming user message.
func (s *ChatService) Chat(ctx context.Context, req *domain.ChatRequest, clientIP, userAgent string) (*domain.ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is empty", domain.ErrInvalidRequest)
	}
	if max := s.cfg.Chat.MaxMessageLength; max > 0 && len(message) > max {
		return nil, fmt.Errorf("%w: message exceeds %d characters", domain.ErrInvalidRequest, max)
	}

	session, err := s.resolveSession(ctx, req.SessionID, clientIP, userAgent)
	if err != nil {
		return nil, err
	}

	snippets, err := s.retriever.Retrieve(ctx, message, s.cfg.Chat.TopK)
	if err != nil {
		// Retrieval being down degrades the answer, not the request
		s.logger.Warn("retrieval unavailable, continuing without context",
			zap.String("session_id", session.ID), zap.Error(err))
		snippets = nil
	}

	p := s.assembler.Assemble(s.cfg.Persona, snippets, session.Messages, message)

	reply, source, err := s.generate(ctx, p, len(snippets) > 0, message)
	if err != nil {
		return nil, err
	}

	userMsg := &domain.ChatMessage{Role: domain.RoleUser, Content: message}
	if err := s.store.AppendMessage(ctx, session.ID, userMsg); err != nil {
		return nil, fmt.Errorf("failed to persist user message: %w", err)
	}
	assistantMsg := &domain.ChatMessage{Role: domain.RoleAssistant, Content: reply, Source: source}
	if err := s.store.AppendMessage(ctx, session.ID, assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to persist reply: %w", err)
	}

	return &domain.ChatResponse{
		SessionID: session.ID,
		Reply:     reply,
		Source:    source,
	}, nil
}

// resolveSession loads the caller's session, or creates a fresh one when
// no id was supplied or the id is unknown (keeps chat usable after a
// storage reset).
func (s *ChatService) resolveSession(ctx context.Context, sessionID, clientIP, userAgent string) (*domain.ChatSession, error) {
	if sessionID != "" {
		session, err := s.store.GetSession(ctx, sessionID)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
		s.logger.Info("unknown session id, starting fresh", zap.String("session_id", sessionID))
	}

	session, err := s.store.CreateSession(ctx, clientIP, userAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// generate calls the model and picks the fallback path when it fails.
// Returns the reply text and its source tag.
func (s *ChatService) generate(ctx context.Context, p prompt.Prompt, hasContext bool, message string) (string, string, error) {
	if s.generator != nil {
		genCtx := ctx
		if s.cfg.Chat.RequestTimeout > 0 {
			var cancel context.CancelFunc
			genCtx, cancel = context.WithTimeout(ctx, s.cfg.Chat.RequestTimeout)
			defer cancel()
		}

		reply, err := s.generator.Generate(genCtx, p)
		if err == nil {
			if hasContext {
				return reply, domain.SourceRAG, nil
			}
			return reply, domain.SourceLLM, nil
		}

		genErr := llm.AsGenerationError(err)
		if genErr.Kind == llm.KindInvalidRequest {
			// Misconfiguration, not load: surface instead of masking
			return "", "", genErr
		}
		s.logger.Warn("generation failed after retries, falling back",
			zap.String("kind", genErr.Kind.String()), zap.Error(genErr))
	}

	if reply, ok := s.cfg.Persona.MatchQuickResponse(message); ok {
		return reply, domain.SourceQuickResponse, nil
	}
	return fallbackReply, domain.SourceFallback, nil
}
