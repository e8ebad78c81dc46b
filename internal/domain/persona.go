package domain

import "strings"

// PersonaConfig holds the static persona loaded at startup: the system
// instructions sent with every prompt and a small table of canned replies
// used when generation is unavailable.
type PersonaConfig struct {
	Name           string          `json:"name" mapstructure:"name"`
	Instructions   string          `json:"instructions" mapstructure:"instructions"`
	QuickResponses []QuickResponse `json:"quick_responses" mapstructure:"quick_responses"`
}

// QuickResponse maps message patterns to a canned reply
type QuickResponse struct {
	Patterns []string `json:"patterns" mapstructure:"patterns"`
	Reply    string   `json:"reply" mapstructure:"reply"`
}

// MatchQuickResponse returns the canned reply for the first quick-response
// entry whose pattern occurs in the message (case-insensitive substring).
// Table order decides between competing matches.
func (p PersonaConfig) MatchQuickResponse(message string) (string, bool) {
	msg := strings.ToLower(message)
	for _, qr := range p.QuickResponses {
		for _, pattern := range qr.Patterns {
			if pattern == "" {
				continue
			}
			if strings.Contains(msg, strings.ToLower(pattern)) {
				return qr.Reply, true
			}
		}
	}
	return "", false
}
