package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os/exec"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	// register the webp decoder with image.Decode
	_ "golang.org/x/image/webp"

	"github.com/organicai/scanner/internal/domain"
)

// ErrReleased is returned by Frame on a handle that was already released
var ErrReleased = errors.New("capture handle released")

// Device is a camera that can be claimed by one user at a time
type Device interface {
	// Acquire claims the device. It fails with domain.ErrDeviceBusy while
	// another handle is live.
	Acquire(ctx context.Context) (Handle, error)
}

// Handle is an exclusive claim on a Device
type Handle interface {
	// Frame grabs one frame from the live feed
	Frame(ctx context.Context) (image.Image, error)
	// Release gives the device back. Safe to call more than once.
	Release()
}

// exclusive is the single-holder claim shared by device implementations
type exclusive struct {
	sem *semaphore.Weighted
}

func newExclusive() exclusive {
	return exclusive{sem: semaphore.NewWeighted(1)}
}

// claim returns a release func, or ErrDeviceBusy
func (e exclusive) claim() (func(), error) {
	if !e.sem.TryAcquire(1) {
		return nil, domain.ErrDeviceBusy
	}
	var once sync.Once
	return func() { once.Do(func() { e.sem.Release(1) }) }, nil
}

// CommandDevice grabs frames by running an external command that writes one
// encoded image (jpeg, png or webp) to stdout, e.g. ffmpeg reading v4l2.
type CommandDevice struct {
	name string
	args []string
	lock exclusive
}

// NewCommandDevice parses a whitespace separated command line
func NewCommandDevice(command string) (*CommandDevice, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("camera command is empty")
	}
	return &CommandDevice{
		name: fields[0],
		args: fields[1:],
		lock: newExclusive(),
	}, nil
}

// Acquire claims the camera
func (d *CommandDevice) Acquire(ctx context.Context) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	release, err := d.lock.claim()
	if err != nil {
		return nil, err
	}
	log.Debug().Str("device", d.name).Msg("camera acquired")
	return &commandHandle{device: d, release: release}, nil
}

type commandHandle struct {
	device  *CommandDevice
	release func()

	mu       sync.Mutex
	released bool
}

func (h *commandHandle) Frame(ctx context.Context) (image.Image, error) {
	h.mu.Lock()
	released := h.released
	h.mu.Unlock()
	if released {
		return nil, ErrReleased
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, h.device.name, h.device.args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("grab frame: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	img, err := imaging.Decode(bytes.NewReader(out), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}

func (h *commandHandle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return
	}
	h.released = true
	h.release()
	log.Debug().Str("device", h.device.name).Msg("camera released")
}
