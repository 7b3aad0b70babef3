package ratelimit

import "github.com/lyzr/compressor/common/models"

// CategoryConfig defines the per-client submit limit for one media category.
// Video jobs cost far more encoder time than image jobs, so they get less.
type CategoryConfig struct {
	Category      models.Category
	Limit         int64  // Requests allowed per window
	WindowSeconds int    // Time window in seconds
	Description   string // Human-readable description
}

// Default category configurations
var DefaultCategoryConfigs = map[models.Category]CategoryConfig{
	models.CategoryImage: {
		Category:      models.CategoryImage,
		Limit:         60,
		WindowSeconds: 60,
		Description:   "Image jobs - 60 per minute per client",
	},
	models.CategoryPDF: {
		Category:      models.CategoryPDF,
		Limit:         30,
		WindowSeconds: 60,
		Description:   "PDF jobs - 30 per minute per client",
	},
	models.CategoryVideo: {
		Category:      models.CategoryVideo,
		Limit:         10,
		WindowSeconds: 60,
		Description:   "Video jobs - 10 per minute per client",
	},
}

// GetLimitForCategory returns the rate limit for a given category
func GetLimitForCategory(category models.Category) int64 {
	if config, exists := DefaultCategoryConfigs[category]; exists {
		return config.Limit
	}
	// Fallback to most restrictive category
	return DefaultCategoryConfigs[models.CategoryVideo].Limit
}

// GetWindowForCategory returns the time window for a given category
func GetWindowForCategory(category models.Category) int {
	if config, exists := DefaultCategoryConfigs[category]; exists {
		return config.WindowSeconds
	}
	return DefaultCategoryConfigs[models.CategoryVideo].WindowSeconds
}
