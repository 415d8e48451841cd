package shape

import (
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"

	"brainmask/internal/models"
)

// ParseFilter maps a filter name to an imaging resample filter
func ParseFilter(name string) (imaging.ResampleFilter, error) {
	switch strings.ToLower(name) {
	case "", "linear", "bilinear":
		return imaging.Linear, nil
	case "nearest":
		return imaging.NearestNeighbor, nil
	case "catmullrom":
		return imaging.CatmullRom, nil
	case "lanczos":
		return imaging.Lanczos, nil
	case "box":
		return imaging.Box, nil
	default:
		return imaging.ResampleFilter{}, fmt.Errorf("unknown resize filter %q", name)
	}
}

// Resizer resizes every slice of a volume independently. Label masks go
// through the same filter: with labels 0 and 1 every output stays 0 or 1, but
// a larger foreground label gets intermediate values along mask edges (0
// next to 255 gives about 128), so label masks should be 0/1.
type Resizer struct {
	Filter imaging.ResampleFilter
}

// NewResizer returns a bilinear resizer
func NewResizer() *Resizer {
	return &Resizer{Filter: imaging.Linear}
}

// Resize returns a copy of vol with every slice resized to target. The same
// call undoes a previous resize when given the original size; interpolation
// makes that round trip approximate.
func (r *Resizer) Resize(vol *models.NormalizedVolume, target models.Size) (*models.NormalizedVolume, error) {
	if vol.Channels != 1 {
		return nil, fmt.Errorf("expected a single channel volume, got %d channels", vol.Channels)
	}
	if target.Height <= 0 || target.Width <= 0 {
		return nil, fmt.Errorf("invalid target size %s", target)
	}

	out := models.NewNormalizedVolume(vol.Depth, target.Height, target.Width)
	for z := 0; z < vol.Depth; z++ {
		src := toGray(vol.SliceData(z), vol.Width, vol.Height)
		resized := imaging.Resize(src, target.Width, target.Height, r.Filter)

		dst := out.SliceData(z)
		for y := 0; y < target.Height; y++ {
			row := resized.Pix[y*resized.Stride:]
			for x := 0; x < target.Width; x++ {
				dst[y*target.Width+x] = uint16(row[4*x])
			}
		}
	}
	return out, nil
}

// toGray packs a slice into an 8 bit image, width columns by height rows.
// Values above 255 saturate.
func toGray(pixels []uint16, width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := pixels[y*width+x]
			if v > 255 {
				v = 255
			}
			img.Pix[y*img.Stride+x] = uint8(v)
		}
	}
	return img
}
