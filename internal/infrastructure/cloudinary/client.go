package cloudinary

import (
	"context"
	"fmt"
	"time"

	cldsdk "github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/organicai/scanner/internal/domain"
)

const (
	DefaultBaseURL = "https://api.cloudinary.com"
	DefaultFolder  = "organic-ai"

	defaultTimeout = 60 * time.Second
)

// Ensure Client implements domain.MediaStore at compile time.
var _ domain.MediaStore = (*Client)(nil)

// Options configures a Client
type Options struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
	BaseURL   string
	// PerMinute caps outgoing uploads; zero disables the limiter
	PerMinute int
	Timeout   time.Duration
}

// Client uploads images to Cloudinary through the official SDK
type Client struct {
	cld         *cldsdk.Cloudinary
	folder      string
	timeout     time.Duration
	rateLimiter *rate.Limiter
}

// NewClient creates a new Cloudinary upload client
func NewClient(opts Options) (*Client, error) {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	folder := opts.Folder
	if folder == "" {
		folder = DefaultFolder
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	conf, err := config.NewFromParams(opts.CloudName, opts.APIKey, opts.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config: %w", err)
	}
	conf.API.UploadPrefix = baseURL

	cld, err := cldsdk.NewFromConfiguration(*conf)
	if err != nil {
		return nil, fmt.Errorf("cloudinary client: %w", err)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.PerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.PerMinute)), 10)
	}

	return &Client{
		cld:         cld,
		folder:      folder,
		timeout:     timeout,
		rateLimiter: limiter,
	}, nil
}

// Upload sends one image (data URL or remote URL) to the configured folder and
// returns its secure URL. Failures are not retried.
func (c *Client) Upload(ctx context.Context, image string) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %v", domain.ErrUpstream, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.cld.Upload.Upload(ctx, image, uploader.UploadParams{
		Folder:       c.folder,
		ResourceType: "image",
	})
	if err != nil {
		log.Error().Err(err).Str("component", "cloudinary").Msg("upload request failed")
		return "", fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	if result == nil {
		return "", fmt.Errorf("%w: empty upload reply", domain.ErrUpstream)
	}

	if result.Error.Message != "" {
		log.Error().
			Str("component", "cloudinary").
			Str("message", result.Error.Message).
			Msg("upload rejected")
		return "", fmt.Errorf("%w: %s", domain.ErrUpstream, result.Error.Message)
	}

	url := result.SecureURL
	if url == "" {
		url = result.URL
	}
	if url == "" {
		return "", fmt.Errorf("%w: upload reply carried no URL", domain.ErrUpstream)
	}

	log.Debug().Str("component", "cloudinary").Str("public_id", result.PublicID).Msg("image uploaded")
	return url, nil
}
