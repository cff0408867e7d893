// Package vision adapts hosted and local multimodal models to domain.VisionModel.
package vision

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/organicai/scanner/internal/domain"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"

	// DefaultMaxTokens bounds the length of the model reply
	DefaultMaxTokens = 1000
)

// Options configures a vision model client
type Options struct {
	Provider  string
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	// Timeout bounds one completion; zero leaves it to the transport
	Timeout time.Duration
	// PerMinute caps outgoing completions; zero disables the limiter
	PerMinute int
}

// New builds the model client for opts.Provider
func New(ctx context.Context, opts Options) (domain.VisionModel, error) {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}

	var model domain.VisionModel
	var err error
	switch opts.Provider {
	case ProviderOpenAI, "":
		model = NewOpenAIModel(opts)
	case ProviderGemini:
		model, err = NewGeminiModel(ctx, opts)
	case ProviderOllama:
		model, err = NewOllamaModel(opts)
	default:
		return nil, fmt.Errorf("unknown vision provider: %s", opts.Provider)
	}
	if err != nil {
		return nil, err
	}

	if opts.PerMinute > 0 {
		model = Limit(model, opts.PerMinute)
	}
	return model, nil
}

// limitedModel throttles completions with a token bucket
type limitedModel struct {
	next    domain.VisionModel
	limiter *rate.Limiter
}

// Limit wraps model so at most perMinute completions start per minute
func Limit(model domain.VisionModel, perMinute int) domain.VisionModel {
	return &limitedModel{
		next:    model,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

func (m *limitedModel) Complete(ctx context.Context, prompt, imageURL string) (string, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %v", domain.ErrUpstream, err)
	}
	return m.next.Complete(ctx, prompt, imageURL)
}

// withTimeout applies the optional per-completion timeout
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
