// Package gateway is the scanner's client for the two gateway endpoints.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/organicai/scanner/internal/domain"
)

const (
	uploadPath  = "/api/upload"
	analyzePath = "/api/analyze"
)

// Client calls the gateway service over HTTP
type Client struct {
	httpClient *resty.Client
}

// NewClient creates a gateway client for baseURL. A zero timeout leaves
// requests bounded only by their context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "OrganicAI-Scanner/1.0")
	if timeout > 0 {
		httpClient.SetTimeout(timeout)
	}
	return &Client{httpClient: httpClient}
}

// Upload stores image through the media gateway and returns its URL
func (c *Client) Upload(ctx context.Context, image string) (string, error) {
	var result domain.UploadResponse
	if err := c.post(ctx, uploadPath, domain.UploadRequest{Image: image}, &result); err != nil {
		return "", err
	}
	if result.URL == "" {
		return "", fmt.Errorf("%w: upload reply carried no URL", domain.ErrUpstream)
	}
	return result.URL, nil
}

// Analyze asks the vision gateway about the image at imageURL
func (c *Client) Analyze(ctx context.Context, imageURL string) (*domain.Product, error) {
	var product domain.Product
	if err := c.post(ctx, analyzePath, domain.AnalyzeRequest{ImageURL: imageURL}, &product); err != nil {
		return nil, err
	}
	product.Normalize()
	return &product, nil
}

func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	var failure domain.ErrorResponse
	res, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		SetError(&failure).
		Post(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrUpstream, path, err)
	}

	if res.IsError() {
		log.Debug().Str("path", path).Int("status", res.StatusCode()).Str("error", failure.Error).Msg("gateway returned an error")
		if res.StatusCode() == http.StatusBadRequest {
			return fmt.Errorf("%w: %s", domain.ErrValidation, failure.Error)
		}
		return fmt.Errorf("%w: status %d: %s", domain.ErrUpstream, res.StatusCode(), failure.Error)
	}
	return nil
}
