package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sentinelpharma/grounder/internal/model"
)

// allowedProviders gates whether a generation call is attempted at all.
// Anything outside the list degrades to the deterministic fallback.
var allowedProviders = map[string]bool{
	"openai":    true,
	"anthropic": true,
	"ollama":    true,
}

const fallbackItems = 3

// Narrator turns validated evidence into a narrative strictly bounded by
// that evidence. It never returns an error: a missing, disallowed, or
// failing provider degrades to a deterministic concatenation of the
// leading claims, and an empty evidence list yields the fixed refusal.
type Narrator struct {
	provider Provider
	config   Config
}

// NewNarrator creates a narrator. A nil provider is valid and means every
// narrative comes from the deterministic fallback.
func NewNarrator(provider Provider, config Config) *Narrator {
	return &Narrator{provider: provider, config: config}
}

// ProviderName returns the active provider's name, or "" when disabled
func (n *Narrator) ProviderName() string {
	if n.provider == nil {
		return ""
	}
	return n.provider.Name()
}

// Narrate produces the narrative for the given evidence
func (n *Narrator) Narrate(ctx context.Context, evidence []*model.EvidenceRecord) string {
	if len(evidence) == 0 {
		// No generation call is made for empty evidence
		return RefusalMessage
	}

	if n.provider == nil || !allowedProviders[strings.ToLower(n.provider.Name())] {
		return fallbackNarrative(evidence)
	}

	resp, err := n.provider.Generate(ctx, GenerateRequest{
		Prompt:      BuildGroundedPrompt(evidence),
		System:      systemInstruction,
		Model:       n.config.Model,
		Temperature: 0.1,
		MaxTokens:   n.config.MaxTokens,
	})
	if err != nil {
		return fallbackNarrative(evidence)
	}

	text := strings.TrimSpace(resp.Text)
	if text == AbstainSentinel {
		return RefusalMessage
	}
	if text == "" {
		return fallbackNarrative(evidence)
	}
	return text
}

// fallbackNarrative concatenates the leading claims, each annotated with
// its claim id, so the output stays traceable without any generation call
func fallbackNarrative(evidence []*model.EvidenceRecord) string {
	top := evidence
	if len(top) > fallbackItems {
		top = top[:fallbackItems]
	}

	parts := make([]string, 0, len(top))
	for _, ev := range top {
		parts = append(parts, fmt.Sprintf("%s (%s)", ev.ClaimText, ev.ClaimID))
	}
	return strings.Join(parts, " ")
}
