package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sentinelpharma/grounder/internal/model"
)

// Provider defines the interface for text-generation providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate produces text for the given request
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// GenerateRequest is the single operation the narrator consumes
type GenerateRequest struct {
	// Prompt is the user-facing generation prompt
	Prompt string

	// System is the system instruction bounding the generation
	System string

	// Model is the specific model to use (provider-specific)
	Model string

	// Temperature controls sampling randomness
	Temperature float64

	// MaxTokens limits the response length
	MaxTokens int
}

// GenerateResponse contains the provider's output
type GenerateResponse struct {
	// Text is the generated text
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds generation provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Model:     "",
		Timeout:   30,
		MaxTokens: 600,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(mc model.LLMConfig, httpCfg model.HTTPConfig) Config {
	return Config{
		Provider:   mc.Provider,
		Model:      mc.Model,
		APIKey:     mc.APIKey,
		BaseURL:    mc.BaseURL,
		Timeout:    mc.Timeout,
		MaxTokens:  mc.MaxTokens,
		HTTPProxy:  httpCfg.HTTPProxy,
		HTTPSProxy: httpCfg.HTTPSProxy,
		NoProxy:    httpCfg.NoProxy,
	}
}

const (
	// AbstainSentinel is the token the model must return verbatim when the
	// supplied evidence cannot support a narrative
	AbstainSentinel = "ABSTAIN_UNVERIFIED"

	// RefusalMessage is the fixed string returned in place of a narrative
	RefusalMessage = "Insufficient verified evidence available right now."

	// systemInstruction bounds every generation call
	systemInstruction = "You are a strict evidence-grounded pharmaceutical analyst."

	// maxPromptItems caps how much evidence goes into the prompt
	maxPromptItems = 12
)

// BuildGroundedPrompt constructs the generation prompt from the first
// maxPromptItems evidence records. Only claim id, source name, claim text
// and snippet are exposed to the model.
func BuildGroundedPrompt(evidence []*model.EvidenceRecord) string {
	items := evidence
	if len(items) > maxPromptItems {
		items = items[:maxPromptItems]
	}

	var sb strings.Builder
	sb.WriteString("Use ONLY the evidence below. ")
	sb.WriteString("Do not invent facts. ")
	sb.WriteString(fmt.Sprintf("If evidence is insufficient, return exactly: %s.\n\n", AbstainSentinel))
	sb.WriteString("Evidence:\n")
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("- [%s] (%s) %s | snippet: %s\n", item.ClaimID, item.Source.Name, item.ClaimText, item.Retrieval.Snippet))
	}
	sb.WriteString("\nReturn a concise summary with claim IDs in parentheses.")

	return sb.String()
}
