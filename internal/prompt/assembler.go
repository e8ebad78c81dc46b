// Package prompt builds model-ready prompts from persona, retrieved
// context and conversation history.
package prompt

import (
	"fmt"
	"strings"

	"github.com/personachat/personachat/internal/domain"
)

const (
	// DefaultHistoryWindow caps how many recent messages are fed back to
	// the model.
	DefaultHistoryWindow = 10

	// DefaultBudget caps the assembled prompt size in characters.
	DefaultBudget = 8000
)

// Prompt is the assembled model input. Instructions and the user message
// are always present in full; context and history may have been trimmed
// to fit the budget.
type Prompt struct {
	Instructions string
	Context      []string
	History      []domain.ChatMessage
	UserMessage  string
}

// Size returns the character count the budget is measured against.
func (p Prompt) Size() int {
	n := len(p.Instructions) + len(p.UserMessage)
	for _, c := range p.Context {
		n += len(c)
	}
	for _, m := range p.History {
		n += len(m.Content)
	}
	return n
}

// System renders the instructions plus delimited context snippets as a
// single system message.
func (p Prompt) System() string {
	if len(p.Context) == 0 {
		return p.Instructions
	}

	var sb strings.Builder
	sb.WriteString(p.Instructions)
	sb.WriteString("\n\nBackground facts:\n")
	for _, c := range p.Context {
		sb.WriteString("---\n")
		sb.WriteString(c)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Assembler deterministically merges persona instructions, retrieved
// snippets, a bounded history window and the new user message. It has no
// side effects and no internal state beyond its limits.
type Assembler struct {
	historyWindow int
	budget        int
}

// NewAssembler creates an assembler. Non-positive limits fall back to the
// package defaults.
func NewAssembler(historyWindow, budget int) *Assembler {
	if historyWindow <= 0 {
		historyWindow = DefaultHistoryWindow
	}
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Assembler{historyWindow: historyWindow, budget: budget}
}

// Assemble builds the prompt. When the budget is exceeded, the oldest
// history entries are dropped first, then the oldest context snippets.
// The user's current message and the persona instructions are never
// truncated.
func (a *Assembler) Assemble(
	persona domain.PersonaConfig,
	context []domain.KnowledgeSnippet,
	history []domain.ChatMessage,
	userMessage string,
) Prompt {
	if len(history) > a.historyWindow {
		history = history[len(history)-a.historyWindow:]
	}

	rendered := make([]string, len(context))
	for i, snippet := range context {
		rendered[i] = renderSnippet(snippet)
	}

	p := Prompt{
		Instructions: persona.Instructions,
		Context:      rendered,
		History:      append([]domain.ChatMessage(nil), history...),
		UserMessage:  userMessage,
	}

	for p.Size() > a.budget && len(p.History) > 0 {
		p.History = p.History[1:]
	}
	for p.Size() > a.budget && len(p.Context) > 0 {
		p.Context = p.Context[1:]
	}

	return p
}

func renderSnippet(s domain.KnowledgeSnippet) string {
	if s.ID == "" {
		return s.Text
	}
	return fmt.Sprintf("[%s] %s", s.ID, s.Text)
}
