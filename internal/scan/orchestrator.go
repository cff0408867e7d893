package scan

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/organicai/scanner/internal/domain"
)

// Messages shown to the user when a stage fails
const (
	MsgUploadFailed  = "Failed to upload image"
	MsgAnalyzeFailed = "Failed to analyze product"
)

// Pipeline is the pair of gateway calls a scan goes through
type Pipeline interface {
	Upload(ctx context.Context, image string) (string, error)
	Analyze(ctx context.Context, imageURL string) (*domain.Product, error)
}

// Orchestrator drives a Session through upload then analysis
type Orchestrator struct {
	session  *Session
	pipeline Pipeline
}

// NewOrchestrator creates an orchestrator with a fresh idle session
func NewOrchestrator(pipeline Pipeline) *Orchestrator {
	return &Orchestrator{
		session:  NewSession(),
		pipeline: pipeline,
	}
}

// Session exposes the underlying session for rendering
func (o *Orchestrator) Session() *Session {
	return o.session
}

// Start accepts a capture token and moves the session to Analyzing. It does
// not block; call Run to perform the gateway calls.
func (o *Orchestrator) Start(token string) error {
	if err := o.session.Capture(token); err != nil {
		return err
	}
	return o.session.StartAnalysis()
}

// Run performs upload then analysis for the started scan and returns the
// final snapshot. Analysis never starts if the upload failed.
func (o *Orchestrator) Run(ctx context.Context) Snapshot {
	snap := o.session.Snapshot()
	if snap.State != StateAnalyzing {
		return snap
	}

	url, err := o.pipeline.Upload(ctx, snap.Raw)
	if err != nil {
		log.Warn().Err(err).Msg("scan upload failed")
		_ = o.session.Fail(MsgUploadFailed)
		return o.session.Snapshot()
	}
	_ = o.session.Uploaded(url)

	product, err := o.pipeline.Analyze(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("image_url", url).Msg("scan analysis failed")
		_ = o.session.Fail(MsgAnalyzeFailed)
		return o.session.Snapshot()
	}
	_ = o.session.Complete(product)

	log.Info().Str("product", product.Name).Float64("health_score", product.HealthScore).Msg("scan complete")
	return o.session.Snapshot()
}

// Scan is Start followed by Run
func (o *Orchestrator) Scan(ctx context.Context, token string) (Snapshot, error) {
	if err := o.Start(token); err != nil {
		return o.session.Snapshot(), err
	}
	return o.Run(ctx), nil
}

// Reset returns the session to Idle
func (o *Orchestrator) Reset() error {
	return o.session.Reset()
}
