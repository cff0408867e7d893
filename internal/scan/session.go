// Package scan holds the client-side scan session: the state machine from
// capture to result or failure, and the orchestrator that drives the two
// gateway calls through it.
package scan

import (
	"fmt"
	"sync"

	"github.com/organicai/scanner/internal/domain"
)

// State is the phase of a scan session
type State int

const (
	StateIdle State = iota
	StateCaptured
	StateAnalyzing
	StateResult
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCaptured:
		return "captured"
	case StateAnalyzing:
		return "analyzing"
	case StateResult:
		return "result"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Snapshot is a copy of the session at one point in time
type Snapshot struct {
	State   State
	Raw     string          // captured token, set from Captured until reset
	URL     string          // stored image URL once the upload stage succeeded
	Product *domain.Product // set only in StateResult
	Message string          // set only in StateFailed
}

// Busy reports whether a scan is in flight
func (s Snapshot) Busy() bool {
	return s.State == StateCaptured || s.State == StateAnalyzing
}

// Session is the ephemeral state of one scan. It is safe for concurrent use;
// the UI reads it while the pipeline goroutine advances it.
type Session struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewSession returns an idle session
func NewSession() *Session {
	return &Session{}
}

// Snapshot returns a copy of the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Capture records a new capture token. A previous Result or Failed outcome is
// discarded. Captures while a scan is in flight are rejected.
func (s *Session) Capture(raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap.Busy() {
		return fmt.Errorf("%w: session is %s", domain.ErrScanInProgress, s.snap.State)
	}
	s.snap = Snapshot{State: StateCaptured, Raw: raw}
	return nil
}

// StartAnalysis moves Captured to Analyzing
func (s *Session) StartAnalysis() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap.State != StateCaptured {
		return fmt.Errorf("cannot start analysis from %s", s.snap.State)
	}
	s.snap.State = StateAnalyzing
	return nil
}

// Uploaded records the stored image URL; the session stays in Analyzing
func (s *Session) Uploaded(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap.State != StateAnalyzing {
		return fmt.Errorf("cannot record upload in %s", s.snap.State)
	}
	s.snap.URL = url
	return nil
}

// Complete moves Analyzing to Result
func (s *Session) Complete(product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap.State != StateAnalyzing {
		return fmt.Errorf("cannot complete from %s", s.snap.State)
	}
	if product == nil {
		product = &domain.Product{}
	}
	s.snap.State = StateResult
	s.snap.Product = product
	return nil
}

// Fail moves Analyzing to Failed with a user-facing message
func (s *Session) Fail(message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap.State != StateAnalyzing && s.snap.State != StateCaptured {
		return fmt.Errorf("cannot fail from %s", s.snap.State)
	}
	s.snap = Snapshot{State: StateFailed, Raw: s.snap.Raw, Message: message}
	return nil
}

// Reset returns to Idle, discarding every trace of the previous scan.
// Resetting an in-flight scan is rejected.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap.Busy() {
		return fmt.Errorf("%w: session is %s", domain.ErrScanInProgress, s.snap.State)
	}
	s.snap = Snapshot{}
	return nil
}
