// Package visualization renders normalized scans with their predicted mask
// for visual quality control.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"brainmask/internal/models"
)

// maskTint is blended over scan pixels that belong to the mask
var maskTint = color.NRGBA{R: 255, G: 40, B: 40, A: 255}

// Viewer extracts overlay images from a scan and its mask. Both volumes are
// in working order and must have the same shape.
type Viewer struct {
	scan *models.NormalizedVolume
	mask *models.Mask

	// opacity of the mask tint, 0..1
	opacity float64
}

// NewViewer creates an overlay viewer
func NewViewer(scan *models.NormalizedVolume, mask *models.Mask) (*Viewer, error) {
	if scan.Depth != mask.Depth || scan.Height != mask.Height || scan.Width != mask.Width {
		return nil, fmt.Errorf("scan %v and mask %v shapes differ", scan.Shape(), mask.Shape())
	}
	return &Viewer{scan: scan, mask: mask, opacity: 0.45}, nil
}

func (v *Viewer) index(z, x, y int) int {
	return (z*v.scan.Height+x)*v.scan.Width + y
}

// ExtractSlice renders the plane at position along axis. "z" gives a scan
// slice (rows X, columns Y); "x" and "y" give orthogonal planes with Z
// running down the image.
func (v *Viewer) ExtractSlice(axis string, position int) (*image.NRGBA, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	var img *image.NRGBA

	switch axis {
	case "z", "Z":
		if position >= v.scan.Depth {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, v.scan.Depth)
		}
		img = image.NewNRGBA(image.Rect(0, 0, v.scan.Width, v.scan.Height))
		for x := 0; x < v.scan.Height; x++ {
			for y := 0; y < v.scan.Width; y++ {
				img.SetNRGBA(y, x, v.pixel(v.index(position, x, y)))
			}
		}

	case "x", "X":
		if position >= v.scan.Height {
			return nil, fmt.Errorf("position %d exceeds height %d", position, v.scan.Height)
		}
		img = image.NewNRGBA(image.Rect(0, 0, v.scan.Width, v.scan.Depth))
		for z := 0; z < v.scan.Depth; z++ {
			for y := 0; y < v.scan.Width; y++ {
				img.SetNRGBA(y, z, v.pixel(v.index(z, position, y)))
			}
		}

	case "y", "Y":
		if position >= v.scan.Width {
			return nil, fmt.Errorf("position %d exceeds width %d", position, v.scan.Width)
		}
		img = image.NewNRGBA(image.Rect(0, 0, v.scan.Height, v.scan.Depth))
		for z := 0; z < v.scan.Depth; z++ {
			for x := 0; x < v.scan.Height; x++ {
				img.SetNRGBA(x, z, v.pixel(v.index(z, x, position)))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

func (v *Viewer) pixel(i int) color.NRGBA {
	g := v.scan.Data[i]
	if g > 255 {
		g = 255
	}
	c := color.NRGBA{R: uint8(g), G: uint8(g), B: uint8(g), A: 255}
	if v.mask.Data[i] == 0 {
		return c
	}
	blend := func(base, tint uint8) uint8 {
		return uint8(float64(base)*(1-v.opacity) + float64(tint)*v.opacity)
	}
	return color.NRGBA{R: blend(c.R, maskTint.R), G: blend(c.G, maskTint.G), B: blend(c.B, maskTint.B), A: 255}
}

// SaveSliceSequence writes every plane along axis as a PNG named
// <prefix>_<axis>_<position>.png
func (v *Viewer) SaveSliceSequence(axis, outputDir, prefix string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.scan.Height
	case "y", "Y":
		maxPos = v.scan.Width
	case "z", "Z":
		maxPos = v.scan.Depth
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("%s_%s_%03d.png", prefix, axis, pos))
		if err := imaging.Save(img, filename); err != nil {
			return err
		}
	}

	return nil
}
