package domain

import "errors"

var (
	// ErrValidation is returned when a required request field is missing
	ErrValidation = errors.New("validation failed")

	// ErrUpstream is returned when the media provider or vision model fails
	ErrUpstream = errors.New("upstream request failed")

	// ErrParse is returned when the model reply is not valid structured data
	// (only surfaced when strict parsing is enabled)
	ErrParse = errors.New("model reply is not valid JSON")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrScanInProgress is returned when a capture arrives while a scan is still analyzing
	ErrScanInProgress = errors.New("scan already in progress")

	// ErrDeviceBusy is returned when the camera is already claimed by another handle
	ErrDeviceBusy = errors.New("capture device busy")

	// ErrNoBarcode is returned when a frame contains no supported barcode
	ErrNoBarcode = errors.New("no barcode found")
)
