package domain

import "time"

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Source tags recorded on assistant messages, describing which path
// produced the reply.
const (
	SourceRAG           = "rag"
	SourceLLM           = "llm"
	SourceQuickResponse = "quick-response"
	SourceFallback      = "fallback"
)

// ChatSession represents one visitor conversation
type ChatSession struct {
	ID            string        `json:"id"`
	IPAddress     string        `json:"ip_address,omitempty"`
	UserAgent     string        `json:"user_agent,omitempty"`
	StartedAt     time.Time     `json:"started_at"`
	LastMessageAt time.Time     `json:"last_message_at"`
	Messages      []ChatMessage `json:"messages,omitempty"`
}

// ChatMessage represents a single turn within a session. Messages are
// created once and never mutated; they are removed only when the whole
// session is deleted.
type ChatMessage struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"` // user, assistant
	Content   string    `json:"content"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionSummary is the admin list view of a session: message bodies are
// omitted, only a count and a preview of the latest message are carried.
type SessionSummary struct {
	ID            string    `json:"id"`
	IPAddress     string    `json:"ip_address,omitempty"`
	UserAgent     string    `json:"user_agent,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	LastMessageAt time.Time `json:"last_message_at"`
	MessageCount  int       `json:"message_count"`
	Preview       string    `json:"preview,omitempty"`
}

// ChatRequest is the request to send a chat message
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message" binding:"required"`
}

// ChatResponse is the response from a chat message
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Source    string `json:"source"`
}

// SessionListResponse is the paginated admin view over stored sessions
type SessionListResponse struct {
	Sessions   []SessionSummary `json:"sessions"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}
