// Package llm wraps the Gemini generation service. Every call runs under a
// fixed timeout ceiling with a bounded retry, and keys are validated for
// shape before any network call is made. API keys are per-user (stored in
// the api_keys table), so a short-lived client is created per call.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Key shape constraints for Google AI Studio keys.
const (
	keyPrefix    = "AIza"
	keyMinLength = 30
)

// Generator is the contract the assistant service depends on. Satisfied by
// *Gemini in production and by stubs in tests.
type Generator interface {
	Generate(ctx context.Context, apiKey, prompt string) (string, error)
	Classify(ctx context.Context, apiKey, prompt string) (bool, error)
}

// Gemini calls the Gemini API with per-call API keys.
type Gemini struct {
	model      string
	timeout    time.Duration
	maxRetries int
}

// New creates a Gemini caller for the given model. timeout is the fixed
// ceiling on a single call; maxRetries bounds additional attempts after the
// first failure.
func New(model string, timeout time.Duration, maxRetries int) *Gemini {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Gemini{model: model, timeout: timeout, maxRetries: maxRetries}
}

// ValidateKeyFormat checks an API key's shape without calling the service.
// Returns a user-facing description of the problem, or "" when the shape
// is acceptable.
func ValidateKeyFormat(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "API key is required"
	}
	if !strings.HasPrefix(key, keyPrefix) {
		return fmt.Sprintf("invalid API key format: key should start with %q", keyPrefix)
	}
	if len(key) < keyMinLength {
		return "API key appears too short"
	}
	return ""
}

// Generate sends a single-prompt generation request and returns the first
// candidate's text. Retries transient failures up to maxRetries times.
func (g *Gemini) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	if msg := ValidateKeyFormat(apiKey); msg != "" {
		return "", fmt.Errorf("gemini: %s", msg)
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		text, err := g.generateOnce(ctx, apiKey, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("gemini generate after %d attempts: %w", g.maxRetries+1, lastErr)
}

// Classify asks a yes/no question of the model. Any answer other than a
// literal "true" -- including call failures -- is reported as false, so
// callers fail toward the cheaper path.
func (g *Gemini) Classify(ctx context.Context, apiKey, prompt string) (bool, error) {
	text, err := g.generateOnce(ctx, apiKey, prompt)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(text), "true"), nil
}

// generateOnce performs one generation call under the configured timeout.
func (g *Gemini) generateOnce(ctx context.Context, apiKey, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, option.WithAPIKey(strings.TrimSpace(apiKey)))
	if err != nil {
		return "", fmt.Errorf("creating gemini client: %w", err)
	}
	defer client.Close()

	resp, err := client.GenerativeModel(g.model).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}

// Probe verifies that a key actually works by issuing a minimal generation
// call. Used by the API key setup flow before persisting a key.
func (g *Gemini) Probe(ctx context.Context, apiKey string) error {
	if msg := ValidateKeyFormat(apiKey); msg != "" {
		return fmt.Errorf("gemini: %s", msg)
	}
	_, err := g.generateOnce(ctx, apiKey, "Reply with the single word: ok")
	return err
}

var _ Generator = (*Gemini)(nil)
