package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyzr/compressor/common/engine"
	"github.com/lyzr/compressor/common/models"
)

func TestValidateAcceptsNormalizedUpload(t *testing.T) {
	v := NewRequestValidator()

	got, err := v.Validate(Upload{
		Category: " Image ",
		Filename: "holiday.JPG",
		Size:     2 * MB,
		Target:   500,
		Unit:     "KB",
	})

	require.NoError(t, err)
	assert.Equal(t, models.CategoryImage, got.Category)
	assert.Equal(t, ".jpg", got.Extension)
	assert.Equal(t, 500, got.TargetKB)
}

func TestValidateConvertsMegabytes(t *testing.T) {
	v := NewRequestValidator()

	got, err := v.Validate(Upload{Category: "video", Filename: "clip.mp4", Size: 50 * MB, Target: 20, Unit: "mb"})

	require.NoError(t, err)
	assert.Equal(t, 20*1024, got.TargetKB)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		upload  Upload
		message string
	}{
		{
			name:    "unknown category",
			upload:  Upload{Category: "audio", Filename: "a.mp3", Size: MB, Target: 100, Unit: "kb"},
			message: "Unsupported file category",
		},
		{
			name:    "extension outside category",
			upload:  Upload{Category: "image", Filename: "doc.pdf", Size: MB, Target: 100, Unit: "kb"},
			message: "Unsupported file type",
		},
		{
			name:    "missing filename",
			upload:  Upload{Category: "pdf", Filename: "", Size: MB, Target: 100, Unit: "kb"},
			message: "No file selected",
		},
		{
			name:    "image just under minimum",
			upload:  Upload{Category: "image", Filename: "a.png", Size: 20*KB - 100, Target: 30, Unit: "kb"},
			message: "File too small (min 20KB)",
		},
		{
			name:    "pdf over maximum",
			upload:  Upload{Category: "pdf", Filename: "a.pdf", Size: 50*MB + 1, Target: 30, Unit: "kb"},
			message: "File too large (max 50MB)",
		},
		{
			name:    "video just under minimum",
			upload:  Upload{Category: "video", Filename: "a.mp4", Size: 5*MB - 100*KB, Target: 5, Unit: "mb"},
			message: "Video file too small (min 5MB)",
		},
		{
			name:    "video over maximum",
			upload:  Upload{Category: "video", Filename: "a.mov", Size: 100*MB + 1, Target: 5, Unit: "mb"},
			message: "Video file too large (max 100MB)",
		},
		{
			name:    "bad unit",
			upload:  Upload{Category: "image", Filename: "a.png", Size: MB, Target: 100, Unit: "gb"},
			message: "Size unit must be",
		},
		{
			name:    "kb below minimum",
			upload:  Upload{Category: "image", Filename: "a.png", Size: MB, Target: 19, Unit: "kb"},
			message: "at least 20KB",
		},
		{
			name:    "mb below minimum",
			upload:  Upload{Category: "image", Filename: "a.png", Size: MB, Target: 0.5, Unit: "mb"},
			message: "at least 1MB",
		},
		{
			name:    "fractional mb",
			upload:  Upload{Category: "image", Filename: "a.png", Size: 10 * MB, Target: 1.5, Unit: "mb"},
			message: "whole number",
		},
		{
			name:    "video mb below minimum",
			upload:  Upload{Category: "video", Filename: "a.mp4", Size: 20 * MB, Target: 4, Unit: "mb"},
			message: "at least 5MB for videos",
		},
		{
			name:    "video kb below minimum",
			upload:  Upload{Category: "video", Filename: "a.mp4", Size: 20 * MB, Target: 4000, Unit: "kb"},
			message: "5120KB",
		},
	}

	v := NewRequestValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Validate(tt.upload)

			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, engine.IsKind(err, engine.KindValidation))
			assert.Contains(t, engine.SafeMessage(err), tt.message)
		})
	}
}

func TestValidateBoundariesAreInclusive(t *testing.T) {
	v := NewRequestValidator()

	_, err := v.Validate(Upload{Category: "image", Filename: "a.webp", Size: 20 * KB, Target: 20, Unit: "kb"})
	assert.NoError(t, err)

	_, err = v.Validate(Upload{Category: "video", Filename: "a.webm", Size: 5 * MB, Target: 5120, Unit: "kb"})
	assert.NoError(t, err)

	_, err = v.Validate(Upload{Category: "pdf", Filename: "a.pdf", Size: 50 * MB, Target: 1, Unit: "mb"})
	assert.NoError(t, err)
}

func TestValidateChecksCategoryBeforeExtension(t *testing.T) {
	v := NewRequestValidator()

	_, err := v.Validate(Upload{Category: "audio", Filename: "a.exe", Size: 1, Target: 1, Unit: "xx"})

	assert.Contains(t, engine.SafeMessage(err), "Unsupported file category")
}

func TestParseTarget(t *testing.T) {
	value, err := ParseTarget(" 250.5 ")
	require.NoError(t, err)
	assert.Equal(t, 250.5, value)

	for _, raw := range []string{"", "abc", "NaN", "Inf"} {
		_, err := ParseTarget(raw)
		assert.True(t, engine.IsKind(err, engine.KindValidation), raw)
	}
}

func TestExtensionsForIsSorted(t *testing.T) {
	assert.Equal(t, []string{".avi", ".mkv", ".mov", ".mp4", ".webm"}, ExtensionsFor(models.CategoryVideo))
}
