package validation

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/lyzr/compressor/common/engine"
	"github.com/lyzr/compressor/common/models"
)

const (
	KB = 1024
	MB = 1024 * KB
)

// Size units accepted at the boundary
const (
	UnitKB = "kb"
	UnitMB = "mb"
)

// AllowedExtensions maps each category to its accepted file extensions
var AllowedExtensions = map[models.Category]map[string]struct{}{
	models.CategoryImage: set(".png", ".jpeg", ".jpg", ".webp", ".gif"),
	models.CategoryVideo: set(".mp4", ".mov", ".avi", ".mkv", ".webm"),
	models.CategoryPDF:   set(".pdf"),
}

// Limits holds the size bounds enforced per category
type Limits struct {
	MinFileSize      map[models.Category]int64
	MaxFileSize      map[models.Category]int64
	MinTargetKB      int
	MinTargetMB      int
	MinVideoTargetMB int
}

// DefaultLimits returns the documented bounds
func DefaultLimits() Limits {
	return Limits{
		MinFileSize: map[models.Category]int64{
			models.CategoryImage: 20 * KB,
			models.CategoryPDF:   20 * KB,
			models.CategoryVideo: 5 * MB,
		},
		MaxFileSize: map[models.Category]int64{
			models.CategoryImage: 50 * MB,
			models.CategoryPDF:   50 * MB,
			models.CategoryVideo: 100 * MB,
		},
		MinTargetKB:      20,
		MinTargetMB:      1,
		MinVideoTargetMB: 5,
	}
}

// Upload is the raw metadata of a submit call before validation
type Upload struct {
	Category string
	Filename string
	Size     int64
	Target   float64
	Unit     string
}

// ValidatedUpload is an upload that passed every check
type ValidatedUpload struct {
	Category  models.Category
	Extension string
	TargetKB  int
}

// RequestValidator checks uploads before any compression work starts
type RequestValidator struct {
	limits Limits
}

// NewRequestValidator creates a validator with the default limits
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{limits: DefaultLimits()}
}

// NewRequestValidatorWithLimits creates a validator with custom limits
func NewRequestValidatorWithLimits(limits Limits) *RequestValidator {
	return &RequestValidator{limits: limits}
}

// Validate runs the checks in order: category, extension, file size, target.
// The first violation is returned as a validation error.
func (v *RequestValidator) Validate(u Upload) (*ValidatedUpload, error) {
	category, ok := models.ParseCategory(u.Category)
	if !ok {
		return nil, engine.ValidationError("Unsupported file category %q. Choose image, video or pdf.", u.Category)
	}

	ext, err := v.validateExtension(category, u.Filename)
	if err != nil {
		return nil, err
	}

	if err := v.validateFileSize(category, u.Size); err != nil {
		return nil, err
	}

	targetKB, err := v.normalizeTarget(category, u.Target, u.Unit)
	if err != nil {
		return nil, err
	}

	return &ValidatedUpload{
		Category:  category,
		Extension: ext,
		TargetKB:  targetKB,
	}, nil
}

// ParseTarget parses the numeric target field of a form submission
func ParseTarget(raw string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, engine.ValidationError("Invalid target size format")
	}
	return value, nil
}

func (v *RequestValidator) validateExtension(category models.Category, filename string) (string, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", engine.ValidationError("No file selected")
	}

	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := AllowedExtensions[category][ext]; !ok {
		return "", engine.ValidationError("Unsupported file type. Please upload %s files.", strings.Join(ExtensionsFor(category), ", "))
	}
	return ext, nil
}

func (v *RequestValidator) validateFileSize(category models.Category, size int64) error {
	noun := "File"
	if category == models.CategoryVideo {
		noun = "Video file"
	}

	if min := v.limits.MinFileSize[category]; size < min {
		return engine.ValidationError("%s too small (min %s)", noun, humanSize(min))
	}
	if max := v.limits.MaxFileSize[category]; max > 0 && size > max {
		return engine.ValidationError("%s too large (max %s)", noun, humanSize(max))
	}
	return nil
}

func (v *RequestValidator) normalizeTarget(category models.Category, target float64, unit string) (int, error) {
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return 0, engine.ValidationError("Invalid target size format")
	}

	minVideoKB := v.limits.MinVideoTargetMB * 1024

	switch strings.ToLower(strings.TrimSpace(unit)) {
	case UnitMB:
		if target < float64(v.limits.MinTargetMB) {
			return 0, engine.ValidationError("Target size must be at least %dMB when using MB format", v.limits.MinTargetMB)
		}
		if target != math.Trunc(target) {
			return 0, engine.ValidationError("Target size in MB must be a whole number")
		}
		if category == models.CategoryVideo && target < float64(v.limits.MinVideoTargetMB) {
			return 0, engine.ValidationError("Target size must be at least %dMB for videos", v.limits.MinVideoTargetMB)
		}
		return int(target) * 1024, nil

	case UnitKB, "":
		if target < float64(v.limits.MinTargetKB) {
			return 0, engine.ValidationError("Target size must be at least %dKB when using KB format", v.limits.MinTargetKB)
		}
		kb := int(target)
		if category == models.CategoryVideo && kb < minVideoKB {
			return 0, engine.ValidationError("Target size must be at least %dMB (%dKB) for videos", v.limits.MinVideoTargetMB, minVideoKB)
		}
		return kb, nil

	default:
		return 0, engine.ValidationError("Size unit must be %q or %q", UnitKB, UnitMB)
	}
}

// ExtensionsFor returns the sorted allowed extensions of a category
func ExtensionsFor(category models.Category) []string {
	exts := make([]string, 0, len(AllowedExtensions[category]))
	for ext := range AllowedExtensions[category] {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func humanSize(n int64) string {
	if n >= MB && n%MB == 0 {
		return fmt.Sprintf("%dMB", n/MB)
	}
	return fmt.Sprintf("%dKB", n/KB)
}

func set(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}
