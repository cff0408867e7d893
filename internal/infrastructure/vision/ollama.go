package vision

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
	"github.com/rs/zerolog/log"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llava"
)

// OllamaModel sends the image to a local Ollama server.
type OllamaModel struct {
	client  *api.Client
	fetcher *imageFetcher
	model   string
	opts    Options
}

// NewOllamaModel creates a client for the Ollama server at opts.BaseURL
func NewOllamaModel(opts Options) (*OllamaModel, error) {
	raw := opts.BaseURL
	if raw == "" {
		raw = defaultOllamaURL
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}
	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}

	model := opts.Model
	if model == "" {
		model = defaultOllamaModel
	}

	return &OllamaModel{
		client:  api.NewClient(base, http.DefaultClient),
		fetcher: newImageFetcher(),
		model:   model,
		opts:    opts,
	}, nil
}

// Complete implements domain.VisionModel
func (o *OllamaModel) Complete(ctx context.Context, prompt, imageURL string) (string, error) {
	ctx, cancel := withTimeout(ctx, o.opts.Timeout)
	defer cancel()

	data, _, err := o.fetcher.fetch(ctx, imageURL)
	if err != nil {
		return "", err
	}

	stream := false
	req := &api.ChatRequest{
		Model: o.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: prompt,
				Images:  []api.ImageData{api.ImageData(data)},
			},
		},
		Stream:  &stream,
		Options: map[string]any{"num_predict": o.opts.MaxTokens},
	}

	var content string
	err = o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content += resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat error: %w", err)
	}

	log.Debug().Str("component", "vision").Str("provider", ProviderOllama).Msg("completion received")
	return content, nil
}
