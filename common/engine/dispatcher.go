package engine

import (
	"fmt"

	"github.com/lyzr/compressor/common/models"
)

// Dispatcher routes a category to its strategy. The category set is closed, so
// the switch is exhaustive and an unknown value is a programming error.
type Dispatcher struct {
	image *ImageStrategy
	video *VideoStrategy
	pdf   *PDFStrategy
}

// NewDispatcher creates a dispatcher over the three strategies
func NewDispatcher(image *ImageStrategy, video *VideoStrategy, pdf *PDFStrategy) *Dispatcher {
	return &Dispatcher{image: image, video: video, pdf: pdf}
}

// StrategyFor returns the strategy for category. It panics on an unknown
// category because the validator has already rejected those.
func (d *Dispatcher) StrategyFor(category models.Category) Strategy {
	switch category {
	case models.CategoryImage:
		return d.image
	case models.CategoryVideo:
		return d.video
	case models.CategoryPDF:
		return d.pdf
	}
	panic(fmt.Sprintf("engine: no strategy for category %q", category))
}
