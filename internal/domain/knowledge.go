package domain

// KnowledgeSnippet is an immutable unit of persona/background text used
// for retrieval. Snippets are loaded once at process start and never
// mutated.
type KnowledgeSnippet struct {
	ID   string   `json:"id"`
	Text string   `json:"text"`
	Tags []string `json:"tags,omitempty"`
}
