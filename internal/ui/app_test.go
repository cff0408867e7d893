package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/organicai/scanner/internal/capture"
	"github.com/organicai/scanner/internal/domain"
	"github.com/organicai/scanner/internal/scan"
)

type fakeCapturer struct {
	mode      capture.Mode
	modes     []capture.Mode
	snapshots int
	files     []string
	err       error
}

func (f *fakeCapturer) Mode() capture.Mode { return f.mode }

func (f *fakeCapturer) SetMode(ctx context.Context, mode capture.Mode) error {
	f.modes = append(f.modes, mode)
	f.mode = mode
	return f.err
}

func (f *fakeCapturer) Snapshot(ctx context.Context) error {
	f.snapshots++
	return f.err
}

func (f *fakeCapturer) CaptureFile(path string) error {
	f.files = append(f.files, path)
	return f.err
}

type fakePipeline struct {
	uploadErr error
	product   *domain.Product
	uploads   int
}

func (p *fakePipeline) Upload(ctx context.Context, image string) (string, error) {
	p.uploads++
	if p.uploadErr != nil {
		return "", p.uploadErr
	}
	return "https://cdn/x.jpg", nil
}

func (p *fakePipeline) Analyze(ctx context.Context, imageURL string) (*domain.Product, error) {
	return p.product, nil
}

func cerealX() *domain.Product {
	return &domain.Product{
		Name:        "Cereal X",
		Ingredients: []string{"sugar", "wheat"},
		HealthScore: 3,
		Alternatives: []domain.Alternative{
			{Name: "Cereal Y", Ingredients: []string{"oats"}, HealthScore: 8, Reasons: []string{"no added sugar"}},
		},
	}
}

func newTestModel(pipeline *fakePipeline) (Model, *fakeCapturer, *scan.Orchestrator) {
	capturer := &fakeCapturer{}
	o := scan.NewOrchestrator(pipeline)
	m := New(Options{Capturer: capturer, Orchestrator: o})
	return m, capturer, o
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestHealthDots(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{0, "○○○○○"},
		{1, "●○○○○"},
		{3, "●●○○○"},
		{7, "●●●●○"},
		{8, "●●●●○"},
		{10, "●●●●●"},
		{12, "●●●●●"},
		{-2, "○○○○○"},
	}
	for _, tc := range cases {
		if got := healthDots(tc.score); got != tc.want {
			t.Errorf("healthDots(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestModel_ScanToResult(t *testing.T) {
	pipeline := &fakePipeline{product: cerealX()}
	m, _, o := newTestModel(pipeline)

	m, cmd := update(t, m, tokenMsg("data:image/jpeg;base64,AAAA"))
	require.NotNil(t, cmd)
	assert.Equal(t, scan.StateAnalyzing, m.snap.State)
	assert.Contains(t, m.View(), "Analyzing product...")

	m, _ = update(t, m, runScanCmd(context.Background(), o)())

	assert.Equal(t, scan.StateResult, m.snap.State)
	view := m.View()
	assert.Contains(t, view, "Cereal X")
	assert.Contains(t, view, "sugar, wheat")
	assert.Contains(t, view, "Cereal Y")
	assert.Contains(t, view, "no added sugar")
	assert.Contains(t, view, "Why it's better:")
	assert.Contains(t, view, "Ingredients: ")
	assert.Contains(t, view, "oats")
	assert.Contains(t, view, "Scan Another")
}

func TestModel_RejectsTokenWhileAnalyzing(t *testing.T) {
	pipeline := &fakePipeline{product: cerealX()}
	m, _, _ := newTestModel(pipeline)

	m, _ = update(t, m, tokenMsg("first"))
	m, _ = update(t, m, tokenMsg("second"))

	assert.Equal(t, scan.StateAnalyzing, m.snap.State)
	assert.Equal(t, "first", m.snap.Raw)
	assert.Equal(t, "Analysis in progress", m.notice)
	assert.Zero(t, pipeline.uploads)
}

func TestModel_FailureAndTryAgain(t *testing.T) {
	pipeline := &fakePipeline{uploadErr: errors.New("network fault")}
	m, capturer, o := newTestModel(pipeline)
	capturer.mode = capture.ModeBarcode
	m.mode = capture.ModeBarcode

	m, _ = update(t, m, tokenMsg("4006381333931"))
	m, _ = update(t, m, runScanCmd(context.Background(), o)())

	require.Equal(t, scan.StateFailed, m.snap.State)
	assert.Contains(t, m.View(), scan.MsgUploadFailed)
	assert.Contains(t, m.View(), "Try Again")

	m, cmd := update(t, m, key("r"))
	assert.Equal(t, scan.Snapshot{}, m.snap)
	require.NotNil(t, cmd, "barcode mode restarts decoding after reset")

	m, _ = update(t, m, cmd())
	assert.Equal(t, []capture.Mode{capture.ModeBarcode}, capturer.modes)
	assert.Equal(t, capture.ModeBarcode, m.mode)
}

func TestModel_ResetIgnoredWhenIdle(t *testing.T) {
	m, _, _ := newTestModel(&fakePipeline{})

	m, cmd := update(t, m, key("r"))

	assert.Nil(t, cmd)
	assert.Equal(t, scan.StateIdle, m.snap.State)
}

func TestModel_ModeKeys(t *testing.T) {
	m, capturer, _ := newTestModel(&fakePipeline{})

	m, cmd := update(t, m, key("b"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.Equal(t, capture.ModeBarcode, m.mode)

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Nil(t, cmd)
	assert.Contains(t, m.notice, "camera mode")

	m, cmd = update(t, m, key("c"))
	m, _ = update(t, m, cmd())
	assert.Equal(t, capture.ModeCamera, m.mode)

	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())
	assert.Equal(t, 1, capturer.snapshots)
	assert.Equal(t, []capture.Mode{capture.ModeBarcode, capture.ModeCamera}, capturer.modes)
}

func TestModel_ModeSwitchError(t *testing.T) {
	m, capturer, _ := newTestModel(&fakePipeline{})
	capturer.err = domain.ErrDeviceBusy

	_, cmd := update(t, m, key("b"))
	m, _ = update(t, m, cmd())

	assert.Equal(t, "Camera is busy", m.notice)
}

func TestModel_FilePicker(t *testing.T) {
	m, capturer, _ := newTestModel(&fakePipeline{})

	m, _ = update(t, m, key("f"))
	require.True(t, m.picking)

	for _, r := range "label.png" {
		m, _ = update(t, m, key(string(r)))
	}
	assert.Contains(t, m.View(), "label.png")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.picking)
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())
	assert.Equal(t, []string{"label.png"}, capturer.files)

	t.Run("escape cancels", func(t *testing.T) {
		m, _ := update(t, m, key("f"))
		m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
		assert.False(t, m.picking)
		assert.Nil(t, cmd)
	})
}

func TestModel_CaptureKeysBlockedWhileAnalyzing(t *testing.T) {
	m, capturer, _ := newTestModel(&fakePipeline{})
	m, _ = update(t, m, tokenMsg("first"))

	for _, k := range []string{"b", "f"} {
		var cmd tea.Cmd
		m, cmd = update(t, m, key(k))
		assert.Nil(t, cmd, k)
	}
	assert.False(t, m.picking)
	assert.Empty(t, capturer.modes)
}

func TestTokenChannel(t *testing.T) {
	tokens, emit := TokenChannel()

	emit("one")
	emit("two") // dropped, one is still pending

	assert.Equal(t, "one", <-tokens)
	select {
	case tok := <-tokens:
		t.Fatalf("unexpected token %q", tok)
	default:
	}

	msg := waitForToken(tokens)
	emit("three")
	assert.Equal(t, tokenMsg("three"), msg())
}

func TestView_IdleHints(t *testing.T) {
	m, _, _ := newTestModel(&fakePipeline{})
	assert.True(t, strings.Contains(m.View(), "space: photo"))

	m.mode = capture.ModeBarcode
	assert.Contains(t, m.View(), "barcode")
}
