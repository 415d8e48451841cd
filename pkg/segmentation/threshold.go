package segmentation

import (
	"context"

	"gonum.org/v1/gonum/stat"

	"brainmask/internal/models"
)

const histogramBins = 256

// Threshold segments each slice with Otsu's method: the intensity that best
// separates the slice histogram into two classes becomes the cut between
// background and foreground. It needs no weights and serves as the default
// model.
type Threshold struct {
	resolution models.Size
	foreground uint16
}

// NewThreshold returns an Otsu model fixed to the given resolution
func NewThreshold(resolution models.Size, foreground uint16) *Threshold {
	if foreground == 0 {
		foreground = 1
	}
	return &Threshold{resolution: resolution, foreground: foreground}
}

func (t *Threshold) Resolution() models.Size { return t.resolution }

func (t *Threshold) Close() error { return nil }

// PredictMask labels every voxel brighter than its slice's Otsu threshold
func (t *Threshold) PredictMask(ctx context.Context, vol *models.NormalizedVolume) (*models.Mask, error) {
	if err := checkInput(t, vol); err != nil {
		return nil, err
	}

	mask := models.NewNormalizedVolume(vol.Depth, vol.Height, vol.Width)
	for z := 0; z < vol.Depth; z++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		src := vol.SliceData(z)
		level := OtsuLevel(src)
		dst := mask.SliceData(z)
		for i, v := range src {
			if float64(v) > level {
				dst[i] = t.foreground
			}
		}
	}
	return mask, nil
}

// OtsuLevel returns the threshold maximizing the between-class variance of
// the 0..255 histogram of pixels. A slice with a single intensity yields that
// intensity, so nothing is above it.
func OtsuLevel(pixels []uint16) float64 {
	if len(pixels) == 0 {
		return 0
	}

	values := make([]float64, histogramBins)
	weights := make([]float64, histogramBins)
	for i := range values {
		values[i] = float64(i)
	}
	for _, p := range pixels {
		if p >= histogramBins {
			p = histogramBins - 1
		}
		weights[p]++
	}

	total := float64(len(pixels))
	best, bestVariance := 0.0, -1.0
	for cut := 1; cut < histogramBins; cut++ {
		var below, above float64
		for _, w := range weights[:cut] {
			below += w
		}
		above = total - below
		if below == 0 || above == 0 {
			continue
		}

		meanBelow := stat.Mean(values[:cut], weights[:cut])
		meanAbove := stat.Mean(values[cut:], weights[cut:])
		diff := meanBelow - meanAbove
		variance := (below / total) * (above / total) * diff * diff
		if variance > bestVariance {
			bestVariance = variance
			best = float64(cut - 1)
		}
	}

	if bestVariance < 0 {
		// single intensity slice
		return float64(pixels[0])
	}
	return best
}
