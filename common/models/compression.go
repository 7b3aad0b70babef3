package models

import (
	"fmt"
	"math"
)

// QualityNotApplicable is reported when the input was returned unmodified
const QualityNotApplicable = "n/a"

// CompressionRequest is a validated upload ready for the engine.
// TargetKB is already unit-normalized to kilobytes.
type CompressionRequest struct {
	Category     Category
	Extension    string // lower-case, with leading dot, taken from the validated filename
	Data         []byte
	TargetKB     int
	OriginalSize int64
}

// TargetBytes returns the target size in bytes
func (r *CompressionRequest) TargetBytes() int64 {
	return int64(r.TargetKB) * 1024
}

// CompressionAttempt records a single encoder invocation inside a search loop
type CompressionAttempt struct {
	Quality     int
	Scale       float64
	BitrateKbps int
	Size        int64
	Satisfied   bool
}

func (a CompressionAttempt) String() string {
	if a.BitrateKbps > 0 {
		return fmt.Sprintf("bitrate=%dkbps scale=%.3f size=%d ok=%t", a.BitrateKbps, a.Scale, a.Size, a.Satisfied)
	}
	return fmt.Sprintf("quality=%d scale=%.3f size=%d ok=%t", a.Quality, a.Scale, a.Size, a.Satisfied)
}

// CompressionResult is the outcome of a successful job
type CompressionResult struct {
	Data             []byte  `json:"-"`
	OriginalSize     int64   `json:"original_size"`
	CompressedSize   int64   `json:"compressed_size"`
	ReductionPercent float64 `json:"reduction_percent"`
	Quality          string  `json:"quality"`
	Scale            float64 `json:"scale"`
	Attempts         int     `json:"attempts"`
	Unchanged        bool    `json:"unchanged"`
}

// NewCompressionResult fills the derived size fields from data
func NewCompressionResult(data []byte, originalSize int64, quality string) *CompressionResult {
	compressed := int64(len(data))
	return &CompressionResult{
		Data:             data,
		OriginalSize:     originalSize,
		CompressedSize:   compressed,
		ReductionPercent: ReductionPercent(originalSize, compressed),
		Quality:          quality,
		Scale:            1,
	}
}

// ReductionPercent returns 100 * (1 - compressed/original) rounded to two decimals
func ReductionPercent(original, compressed int64) float64 {
	if original <= 0 {
		return 0
	}
	pct := 100 * (1 - float64(compressed)/float64(original))
	return math.Round(pct*100) / 100
}
