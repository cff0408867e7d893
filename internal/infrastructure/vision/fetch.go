package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
)

// imageFetcher resolves an image reference to bytes for providers that only
// accept inline image data. Data URLs are decoded locally.
type imageFetcher struct {
	http *resty.Client
}

func newImageFetcher() *imageFetcher {
	return &imageFetcher{http: resty.New().SetHeader("User-Agent", "OrganicAI/1.0")}
}

// fetch returns the image bytes and their MIME type
func (f *imageFetcher) fetch(ctx context.Context, ref string) ([]byte, string, error) {
	if strings.HasPrefix(ref, "data:") {
		return decodeDataURL(ref)
	}

	res, err := f.http.R().SetContext(ctx).Get(ref)
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	if res.IsError() {
		return nil, "", fmt.Errorf("fetch image: status %d", res.StatusCode())
	}

	data := res.Body()
	return data, mimetype.Detect(data).String(), nil
}

// decodeDataURL splits "data:<mime>;base64,<payload>"
func decodeDataURL(ref string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, "", fmt.Errorf("unsupported data URL")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode data URL: %w", err)
	}

	mime := strings.TrimSuffix(header, ";base64")
	if mime == "" {
		mime = mimetype.Detect(data).String()
	}
	return data, mime, nil
}
