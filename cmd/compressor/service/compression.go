package service

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/lyzr/compressor/common/engine"
	"github.com/lyzr/compressor/common/logger"
	"github.com/lyzr/compressor/common/models"
	"github.com/lyzr/compressor/common/validation"
)

// Compressor runs one compression job. engine.Coordinator implements it.
type Compressor interface {
	Run(ctx context.Context, jobID string, req *models.CompressionRequest) (*models.CompressionResult, error)
}

// SubmitInput is one upload as received at the boundary
type SubmitInput struct {
	Filename string
	Category string
	Target   string // raw numeric field
	Unit     string
	Data     []byte
}

// SubmitOutput is the result summary plus the handle to redeem it with
type SubmitOutput struct {
	JobID  string
	Result *models.CompressionResult
	Handle *models.ArtifactHandle
}

// CompressionService validates uploads, runs them through the engine and
// stores the output
type CompressionService struct {
	validator  *validation.RequestValidator
	compressor Compressor
	artifacts  *ArtifactService
	log        *logger.Logger
}

// NewCompressionService creates a new compression service
func NewCompressionService(validator *validation.RequestValidator, compressor Compressor, artifacts *ArtifactService, log *logger.Logger) *CompressionService {
	return &CompressionService{
		validator:  validator,
		compressor: compressor,
		artifacts:  artifacts,
		log:        log,
	}
}

// Submit compresses one upload. Validation failures never reach the engine.
func (s *CompressionService) Submit(ctx context.Context, in SubmitInput) (*SubmitOutput, error) {
	target, err := validation.ParseTarget(in.Target)
	if err != nil {
		// reported by Validate after the category, extension and size checks
		target = math.NaN()
	}

	validated, err := s.validator.Validate(validation.Upload{
		Category: in.Category,
		Filename: in.Filename,
		Size:     int64(len(in.Data)),
		Target:   target,
		Unit:     in.Unit,
	})
	if err != nil {
		s.log.WithContext(ctx).Info("rejected upload", "filename", in.Filename, "reason", engine.SafeMessage(err))
		return nil, err
	}

	req := &models.CompressionRequest{
		Category:     validated.Category,
		Extension:    validated.Extension,
		Data:         in.Data,
		TargetKB:     validated.TargetKB,
		OriginalSize: int64(len(in.Data)),
	}

	jobID := uuid.NewString()
	result, err := s.compressor.Run(ctx, jobID, req)
	if err != nil {
		return nil, err
	}

	handle, err := s.artifacts.Put(ctx, req.Category, req.Extension, result.Data)
	if err != nil {
		return nil, err
	}

	return &SubmitOutput{JobID: jobID, Result: result, Handle: handle}, nil
}
