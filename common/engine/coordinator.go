package engine

import (
	"context"
	"errors"
	"time"

	"github.com/lyzr/compressor/common/config"
	"github.com/lyzr/compressor/common/encoder"
	"github.com/lyzr/compressor/common/logger"
	"github.com/lyzr/compressor/common/models"
)

// Job outcomes reported to the recorder besides the error kinds
const (
	OutcomeSuccess   = "success"
	OutcomeUnchanged = "unchanged"
)

// Coordinator runs one strategy per request under a deadline and turns every
// outcome into a result or a typed *Error.
type Coordinator struct {
	dispatcher *Dispatcher
	cfg        config.CompressionConfig
	recorder   Recorder
	log        *logger.Logger
}

// NewCoordinator creates a coordinator. recorder may be nil.
func NewCoordinator(dispatcher *Dispatcher, cfg config.CompressionConfig, recorder Recorder, log *logger.Logger) *Coordinator {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Coordinator{
		dispatcher: dispatcher,
		cfg:        cfg,
		recorder:   recorder,
		log:        log,
	}
}

// Run compresses req. Inputs already within target come back unchanged with
// quality "n/a". The job's scratch files are gone when Run returns.
func (c *Coordinator) Run(ctx context.Context, jobID string, req *models.CompressionRequest) (*models.CompressionResult, error) {
	start := time.Now()
	log := c.log.WithContext(ctx).WithJobID(jobID).WithCategory(req.Category.String())

	res, err := c.run(ctx, jobID, req, log)

	outcome := OutcomeSuccess
	switch {
	case err != nil:
		outcome = string(KindOf(err))
	case res.Unchanged:
		outcome = OutcomeUnchanged
	}
	elapsed := time.Since(start)
	c.recorder.ObserveJob(req.Category, outcome, elapsed.Seconds())

	if err != nil {
		log.Warn("compression failed", "kind", KindOf(err), "error", err, "duration_ms", elapsed.Milliseconds())
		return nil, err
	}
	log.Info("compression finished",
		"original_size", res.OriginalSize,
		"compressed_size", res.CompressedSize,
		"quality", res.Quality,
		"attempts", res.Attempts,
		"duration_ms", elapsed.Milliseconds(),
	)
	return res, nil
}

func (c *Coordinator) run(ctx context.Context, jobID string, req *models.CompressionRequest, log *logger.Logger) (*models.CompressionResult, error) {
	if req.TargetKB <= 0 {
		return nil, ValidationError("Target size must be positive")
	}
	if req.OriginalSize <= req.TargetBytes() {
		res := models.NewCompressionResult(req.Data, req.OriginalSize, models.QualityNotApplicable)
		res.Unchanged = true
		return res, nil
	}

	strategy := c.dispatcher.StrategyFor(req.Category)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.JobTimeout)
	defer cancel()

	var err error
	for try := 0; try <= c.cfg.TransientRetries; try++ {
		var res *models.CompressionResult
		res, err = c.attempt(ctx, jobID, req, strategy, log)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil || !encoder.IsTransient(err) {
			break
		}
		if try < c.cfg.TransientRetries {
			log.Warn("transient encoder failure, retrying", "error", err)
		}
	}
	return nil, c.normalize(ctx, err)
}

// attempt runs the strategy once inside a fresh workspace
func (c *Coordinator) attempt(ctx context.Context, jobID string, req *models.CompressionRequest, strategy Strategy, log *logger.Logger) (*models.CompressionResult, error) {
	ws, err := NewWorkspace(c.cfg.WorkDir, jobID, log)
	if err != nil {
		return nil, StorageError("could not create job workspace", err)
	}
	defer ws.Remove()

	job := &Job{
		ID:        jobID,
		Request:   req,
		Workspace: ws,
		Log:       log,
		recorder:  c.recorder,
	}
	return strategy.Compress(ctx, job)
}

func (c *Coordinator) normalize(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return TimeoutError("Compression timed out after "+c.cfg.JobTimeout.String(), err)
	}
	if errors.Is(err, context.Canceled) {
		return TimeoutError("Compression was cancelled", err)
	}

	var engineErr *Error
	if errors.As(err, &engineErr) {
		return engineErr
	}
	return EncodingFailureError("compression failed", err)
}
