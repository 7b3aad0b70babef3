package engine

import (
	"context"
	"image"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lyzr/compressor/common/config"
	"github.com/lyzr/compressor/common/encoder"
	"github.com/lyzr/compressor/common/logger"
	"github.com/lyzr/compressor/common/models"
)

func testConfig(t *testing.T) config.CompressionConfig {
	t.Helper()
	cfg := config.Default("test").Compression
	cfg.WorkDir = t.TempDir()
	return cfg
}

func newTestJob(t *testing.T, req *models.CompressionRequest) *Job {
	t.Helper()
	ws, err := NewWorkspace(t.TempDir(), "test", logger.Discard())
	require.NoError(t, err)
	t.Cleanup(ws.Remove)
	return &Job{ID: "test", Request: req, Workspace: ws, Log: logger.Discard()}
}

// fakeImageCodec produces outputs whose size is a pure function of quality and scale
type fakeImageCodec struct {
	size    func(quality int, scale float64) int
	fail    func(call int) error
	openErr error

	mu    sync.Mutex
	calls int
}

func (f *fakeImageCodec) Open([]byte, string) (encoder.ImageSource, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &fakeImageSource{codec: f}, nil
}

func (f *fakeImageCodec) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeImageSource struct {
	codec *fakeImageCodec
}

func (s *fakeImageSource) Bounds() image.Rectangle {
	return image.Rect(0, 0, 100, 100)
}

func (s *fakeImageSource) Encode(ctx context.Context, quality int, scale float64) ([]byte, error) {
	s.codec.mu.Lock()
	s.codec.calls++
	call := s.codec.calls
	s.codec.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.codec.fail != nil {
		if err := s.codec.fail(call); err != nil {
			return nil, err
		}
	}
	return make([]byte, s.codec.size(quality, scale)), nil
}

// fakeVideoCodec writes outputs sized by a model of the options
type fakeVideoCodec struct {
	info     encoder.VideoInfo
	probeErr error
	size     func(opts encoder.VideoOptions) int64
	block    bool
	missing  bool

	mu    sync.Mutex
	calls []encoder.VideoOptions
}

func (f *fakeVideoCodec) Available() bool {
	return !f.missing
}

func (f *fakeVideoCodec) Probe(context.Context, string) (encoder.VideoInfo, error) {
	return f.info, f.probeErr
}

func (f *fakeVideoCodec) Encode(ctx context.Context, _, output string, opts encoder.VideoOptions) error {
	f.mu.Lock()
	f.calls = append(f.calls, opts)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return &encoder.ToolError{Tool: "ffmpeg", Err: ctx.Err()}
	}
	return os.WriteFile(output, make([]byte, f.size(opts)), 0o600)
}

// fakePDFCodec writes outputs sized by quality and DPI
type fakePDFCodec struct {
	images int
	size   func(opts encoder.PDFOptions) int

	mu    sync.Mutex
	calls []encoder.PDFOptions
}

func (f *fakePDFCodec) CountImages(context.Context, string) (int, error) {
	return f.images, nil
}

func (f *fakePDFCodec) Compress(_ context.Context, _, output string, opts encoder.PDFOptions) error {
	f.mu.Lock()
	f.calls = append(f.calls, opts)
	f.mu.Unlock()
	return os.WriteFile(output, make([]byte, f.size(opts)), 0o600)
}

type fakeRecorder struct {
	mu       sync.Mutex
	attempts int
	outcomes []string
}

func (r *fakeRecorder) ObserveAttempt(models.Category) {
	r.mu.Lock()
	r.attempts++
	r.mu.Unlock()
}

func (r *fakeRecorder) ObserveJob(_ models.Category, outcome string, _ float64) {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, outcome)
	r.mu.Unlock()
}
