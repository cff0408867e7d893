package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/organicai/scanner/internal/domain"
)

// MediaService is the Media Store Gateway: it validates an upload and forwards
// it to the configured media store.
type MediaService struct {
	store domain.MediaStore
}

// NewMediaService creates a new media service backed by store
func NewMediaService(store domain.MediaStore) *MediaService {
	return &MediaService{store: store}
}

// Upload stores one encoded image and returns its public URL.
// Flow: validate -> upload -> return URL
func (s *MediaService) Upload(ctx context.Context, image string) (string, error) {
	if strings.TrimSpace(image) == "" {
		return "", fmt.Errorf("%w: image is required", domain.ErrValidation)
	}

	url, err := s.store.Upload(ctx, image)
	if err != nil {
		log.Warn().Err(err).Int("payload_bytes", len(image)).Msg("media upload failed")
		return "", wrapUpstream(err)
	}

	return url, nil
}
