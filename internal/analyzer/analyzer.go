// internal/analyzer/analyzer.go
package analyzer

import (
	"context"

	"calorie-scan/internal/models"
)

// Analyzer turns an opaque image reference into a nutrition estimate.
// A real inference backend can replace the Simulator behind this interface.
type Analyzer interface {
	Analyze(ctx context.Context, imageRef string) (*models.FoodItem, error)
}
