package vision

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"
)

const defaultOpenAIModel = "gpt-4o"

// OpenAIModel sends the image to OpenAI by URL; the provider fetches it itself.
type OpenAIModel struct {
	client    openai.Client
	model     string
	maxTokens int64
	opts      Options
}

// NewOpenAIModel creates an OpenAI chat completion client. SDK retries are
// disabled so each analysis is exactly one upstream request.
func NewOpenAIModel(opts Options) *OpenAIModel {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	model := opts.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAIModel{
		client:    openai.NewClient(reqOpts...),
		model:     model,
		maxTokens: int64(opts.MaxTokens),
		opts:      opts,
	}
}

// Complete implements domain.VisionModel
func (o *OpenAIModel) Complete(ctx context.Context, prompt, imageURL string) (string, error) {
	ctx, cancel := withTimeout(ctx, o.opts.Timeout)
	defer cancel()

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: imageURL,
				}),
			}),
		},
		MaxTokens: openai.Int(o.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	log.Debug().
		Str("component", "vision").
		Str("provider", ProviderOpenAI).
		Int64("input_tokens", resp.Usage.PromptTokens).
		Int64("output_tokens", resp.Usage.CompletionTokens).
		Msg("completion received")

	return resp.Choices[0].Message.Content, nil
}
