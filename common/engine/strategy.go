package engine

import (
	"context"
	"fmt"

	"github.com/lyzr/compressor/common/encoder"
	"github.com/lyzr/compressor/common/logger"
	"github.com/lyzr/compressor/common/models"
)

// Strategy converges one request onto its target size
type Strategy interface {
	Compress(ctx context.Context, job *Job) (*models.CompressionResult, error)
}

// ImageCodec opens uploads for repeated in-process re-encoding
type ImageCodec interface {
	Open(data []byte, ext string) (encoder.ImageSource, error)
}

// VideoCodec probes and transcodes files inside a job workspace
type VideoCodec interface {
	Probe(ctx context.Context, input string) (encoder.VideoInfo, error)
	Encode(ctx context.Context, input, output string, opts encoder.VideoOptions) error
}

// PDFCodec inspects and recompresses documents inside a job workspace
type PDFCodec interface {
	CountImages(ctx context.Context, input string) (int, error)
	Compress(ctx context.Context, input, output string, opts encoder.PDFOptions) error
}

// Recorder receives job and attempt events. The metrics package implements it.
type Recorder interface {
	ObserveAttempt(category models.Category)
	ObserveJob(category models.Category, outcome string, seconds float64)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAttempt(models.Category) {}
func (nopRecorder) ObserveJob(models.Category, string, float64) {}

// Job is one request's private state while a strategy runs. Nothing in it is
// shared with other jobs.
type Job struct {
	ID        string
	Request   *models.CompressionRequest
	Workspace *Workspace
	Log       *logger.Logger

	recorder Recorder
	attempts []models.CompressionAttempt
}

// record logs an attempt and counts it
func (j *Job) record(a models.CompressionAttempt) {
	j.attempts = append(j.attempts, a)
	if j.recorder != nil {
		j.recorder.ObserveAttempt(j.Request.Category)
	}
	j.Log.Debug("compression attempt",
		"attempt", len(j.attempts),
		"quality", a.Quality,
		"bitrate_kbps", a.BitrateKbps,
		"scale", a.Scale,
		"size", a.Size,
		"target", j.Request.TargetBytes(),
		"satisfied", a.Satisfied,
	)
}

// Attempts returns the attempts made so far
func (j *Job) Attempts() []models.CompressionAttempt {
	return j.attempts
}

// finish builds the result for data and stamps the attempt count
func (j *Job) finish(data []byte, quality string, scale float64) *models.CompressionResult {
	res := models.NewCompressionResult(data, j.Request.OriginalSize, quality)
	res.Scale = scale
	res.Attempts = len(j.attempts)
	return res
}

// encoderFailure normalizes an encoder error. Context errors pass through
// untouched so the coordinator can tell a deadline from a tool failure.
func encoderFailure(ctx context.Context, what string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if _, ok := err.(*Error); ok {
		return err
	}
	return EncodingFailureError(fmt.Sprintf("%s failed", what), err)
}
