package vision

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiModel downloads the image and sends it inline to Gemini.
type GeminiModel struct {
	client  *genai.Client
	fetcher *imageFetcher
	model   string
	opts    Options
}

// NewGeminiModel creates a Gemini API client
func NewGeminiModel(ctx context.Context, opts Options) (*GeminiModel, error) {
	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = defaultGeminiModel
	}

	return &GeminiModel{client: client, fetcher: newImageFetcher(), model: model, opts: opts}, nil
}

// Complete implements domain.VisionModel
func (g *GeminiModel) Complete(ctx context.Context, prompt, imageURL string) (string, error) {
	ctx, cancel := withTimeout(ctx, g.opts.Timeout)
	defer cancel()

	data, mimeType, err := g.fetcher.fetch(ctx, imageURL)
	if err != nil {
		return "", err
	}

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(data, mimeType),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		MaxOutputTokens: int32(g.opts.MaxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response from Gemini")
	}

	log.Debug().Str("component", "vision").Str("provider", ProviderGemini).Msg("completion received")
	return result.Text(), nil
}
