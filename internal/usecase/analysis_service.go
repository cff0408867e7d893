package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/organicai/scanner/internal/domain"
	"github.com/organicai/scanner/internal/infrastructure/vision"
)

// AnalysisServiceConfig holds configuration for the analysis service
type AnalysisServiceConfig struct {
	// Prompt overrides the fixed label instruction (tests only)
	Prompt string
	// StrictParse surfaces unparseable replies as domain.ErrParse instead of
	// returning the empty product
	StrictParse bool
}

// AnalysisService is the Vision Analysis Gateway: one model completion per
// request, reply parsed into a Product.
type AnalysisService struct {
	model       domain.VisionModel
	prompt      string
	strictParse bool
}

// NewAnalysisService creates a new analysis service with dependencies
func NewAnalysisService(model domain.VisionModel, config AnalysisServiceConfig) *AnalysisService {
	prompt := config.Prompt
	if prompt == "" {
		prompt = vision.LabelPrompt
	}

	return &AnalysisService{
		model:       model,
		prompt:      prompt,
		strictParse: config.StrictParse,
	}
}

// Analyze asks the model about the image at imageURL.
// Flow: validate -> complete -> parse -> return
//
// A reply that is not valid JSON yields an empty Product and no error unless
// strict parsing is enabled.
func (s *AnalysisService) Analyze(ctx context.Context, imageURL string) (*domain.Product, error) {
	if strings.TrimSpace(imageURL) == "" {
		return nil, fmt.Errorf("%w: image URL is required", domain.ErrValidation)
	}

	reply, err := s.model.Complete(ctx, s.prompt, imageURL)
	if err != nil {
		log.Warn().Err(err).Str("image_url", imageURL).Msg("vision completion failed")
		return nil, wrapUpstream(err)
	}

	product, err := ParseProduct(reply)
	if err != nil {
		if s.strictParse {
			return nil, err
		}
		log.Warn().Err(err).Int("reply_bytes", len(reply)).Msg("model reply not parseable, returning empty product")
		product = &domain.Product{}
	}

	product.Normalize()
	return product, nil
}

// wrapUpstream tags err as an upstream failure unless it already is one
func wrapUpstream(err error) error {
	if errors.Is(err, domain.ErrUpstream) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
}
