// Package shape adapts slice resolution to the fixed input size of a
// segmentation model and back.
package shape

import (
	"fmt"
	"strings"

	"brainmask/internal/models"
)

// Policy decides whether a volume must be resized before prediction
type Policy int

const (
	// AnyDimension resizes when height or width differs from the model resolution
	AnyDimension Policy = iota

	// BothDimensions resizes only when height and width both differ. A volume
	// with one matching dimension is passed through unchanged and then fails
	// the model's shape check.
	BothDimensions
)

// ParsePolicy accepts "any" and "both"
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(name) {
	case "", "any", "or":
		return AnyDimension, nil
	case "both", "and":
		return BothDimensions, nil
	default:
		return 0, fmt.Errorf("unknown resize policy %q (must be any or both)", name)
	}
}

func (p Policy) String() string {
	if p == BothDimensions {
		return "both"
	}
	return "any"
}

// NeedsResize reports whether native must be resized to required
func (p Policy) NeedsResize(native, required models.Size) bool {
	heightDiffers := native.Height != required.Height
	widthDiffers := native.Width != required.Width
	if p == BothDimensions {
		return heightDiffers && widthDiffers
	}
	return heightDiffers || widthDiffers
}
