// Package capture turns camera frames, barcodes and files into the opaque
// tokens a scan starts from. Each capture action yields exactly one token.
package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// Mode selects the live capture source
type Mode int

const (
	ModeCamera Mode = iota
	ModeBarcode
)

func (m Mode) String() string {
	switch m {
	case ModeCamera:
		return "camera"
	case ModeBarcode:
		return "barcode"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// DefaultFrameInterval is the pause between barcode decode attempts
const DefaultFrameInterval = 250 * time.Millisecond

const snapshotQuality = 90

// ErrWrongMode is returned when a capture action does not match the current mode
var ErrWrongMode = errors.New("capture action not available in this mode")

// Emit receives each captured token. It must not block; the decode loop
// calls it from its own goroutine.
type Emit func(token string)

// Options configures a Component
type Options struct {
	FrameInterval time.Duration
}

// Component owns the camera on behalf of the scanner view
type Component struct {
	device   Device
	decoder  Decoder
	emit     Emit
	interval time.Duration

	mu   sync.Mutex
	mode Mode
	loop *decodeLoop
}

type decodeLoop struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a component in camera mode
func New(device Device, decoder Decoder, emit Emit, opts Options) *Component {
	interval := opts.FrameInterval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Component{
		device:   device,
		decoder:  decoder,
		emit:     emit,
		interval: interval,
		mode:     ModeCamera,
	}
}

// Mode returns the current mode
func (c *Component) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Scanning reports whether a barcode decode loop currently holds the camera
func (c *Component) Scanning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loop == nil {
		return false
	}
	select {
	case <-c.loop.done:
		return false
	default:
		return true
	}
}

// SetMode switches the live source. Any running decode loop is stopped and
// its handle released before this returns. Entering barcode mode claims the
// camera and starts a new decode loop.
func (c *Component) SetMode(ctx context.Context, mode Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLoopLocked()
	c.mode = mode

	if mode != ModeBarcode {
		return nil
	}

	handle, err := c.device.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("start barcode scan: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	loop := &decodeLoop{cancel: cancel, done: make(chan struct{})}
	c.loop = loop
	go c.runDecodeLoop(loopCtx, handle, loop.done)
	return nil
}

// Snapshot grabs one frame in camera mode and emits it as a JPEG data URL
func (c *Component) Snapshot(ctx context.Context) error {
	if c.Mode() != ModeCamera {
		return ErrWrongMode
	}

	handle, err := c.device.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	frame, err := handle.Frame(ctx)
	handle.Release()
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	token, err := encodeJPEG(frame)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	c.emit(token)
	return nil
}

// CaptureFile reads the whole file at path and emits it as a data URL.
// Available in every mode; the content is not validated.
func (c *Component) CaptureFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	// Detected types may carry parameters (text/plain; charset=utf-8)
	mediaType, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	c.emit(dataURL(strings.TrimSpace(mediaType), data))
	return nil
}

// Close stops the decode loop and releases the camera
func (c *Component) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLoopLocked()
	return nil
}

func (c *Component) stopLoopLocked() {
	if c.loop == nil {
		return
	}
	c.loop.cancel()
	<-c.loop.done
	c.loop = nil
}

// runDecodeLoop polls frames until one decodes, then emits once. The handle
// is released on every exit path.
func (c *Component) runDecodeLoop(ctx context.Context, handle Handle, done chan<- struct{}) {
	defer close(done)
	defer handle.Release()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		frame, err := handle.Frame(ctx)
		switch {
		case err == nil:
			text, derr := c.decoder.Decode(frame)
			if derr == nil {
				log.Info().Str("barcode", text).Msg("barcode decoded")
				c.emit(text)
				return
			}
		case ctx.Err() != nil:
			return
		default:
			log.Debug().Err(err).Msg("frame grab failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func encodeJPEG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(snapshotQuality)); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return dataURL("image/jpeg", buf.Bytes()), nil
}

func dataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
