package domain

import "context"

// MediaStore defines the interface for the external object-storage provider
type MediaStore interface {
	// Upload stores an image given as a data URL or remote URL and returns its public URL
	Upload(ctx context.Context, image string) (string, error)
}

// VisionModel defines the interface for the external multimodal model
type VisionModel interface {
	// Complete sends the instruction and one image reference and returns the raw text reply
	Complete(ctx context.Context, prompt, imageURL string) (string, error)
}
