package knowledge

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/personachat/personachat/internal/domain"
)

// Store holds the fixed set of persona background snippets available for
// retrieval. It is populated once at startup and read-only afterwards, so
// it is shared across concurrent requests without locking.
type Store struct {
	snippets []domain.KnowledgeSnippet
}

// NewStore creates a store over the given snippets, preserving their order.
func NewStore(snippets []domain.KnowledgeSnippet) *Store {
	return &Store{snippets: snippets}
}

// LoadStore reads snippets from a JSON file. A missing file yields an empty
// store rather than an error: the chat pipeline treats "no context" as a
// valid outcome.
func LoadStore(path string) (*Store, error) {
	if path == "" {
		return NewStore(nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewStore(nil), nil
		}
		return nil, fmt.Errorf("failed to read knowledge file: %w", err)
	}

	var snippets []domain.KnowledgeSnippet
	if err := json.Unmarshal(data, &snippets); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge file: %w", err)
	}

	return NewStore(snippets), nil
}

// Snippets returns the stored snippets in insertion order. Callers must not
// mutate the returned slice.
func (s *Store) Snippets() []domain.KnowledgeSnippet {
	return s.snippets
}

// Len returns the number of stored snippets
func (s *Store) Len() int {
	return len(s.snippets)
}
