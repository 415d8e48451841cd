// Package normalize maps raw scan intensities to the 0..255 range the
// segmentation model was trained on.
package normalize

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"brainmask/internal/models"
)

// Percentile is the rank, as a fraction of the slice's element count, above
// which intensities are clipped.
const Percentile = 0.97

// MaxValue is the top of the output range
const MaxValue = 255

// Slice normalizes one slice to integers in [0, 255]. Negative intensities are
// floored at 0, values above the 97th percentile are clipped to it and the
// result is scaled so the largest remaining value maps to 255. A slice with no
// positive intensity becomes all zeros. The input is not modified.
//
// The clip limit is sorted[int(n*0.97)]; changing the rank formula changes the
// output of every slice, so keep it exact.
func Slice(s mat.Matrix) (*mat.Dense, error) {
	_, cols := s.Dims()
	out := mat.DenseCopyOf(s)

	values := out.RawMatrix().Data
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("non-finite intensity %v at (%d, %d)", v, i/cols, i%cols)
		}
		if v < 0 {
			values[i] = 0
		}
	}

	if len(values) == 0 {
		return out, nil
	}

	// index into the ascending order, truncated
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	limit := sorted[int(float64(len(sorted))*Percentile)]

	for i, v := range values {
		if v > limit {
			values[i] = limit
		}
	}

	maxVal := floats.Max(values)
	if maxVal == 0 {
		out.Zero()
		return out, nil
	}

	out.Apply(func(_, _ int, v float64) float64 {
		return math.Floor((v / maxVal) * MaxValue)
	}, out)
	return out, nil
}

// Volume normalizes every slice of v in order and adds the channel axis.
// The first slice that fails aborts the whole volume.
func Volume(v *models.Volume) (*models.NormalizedVolume, error) {
	n := models.NewNormalizedVolume(v.Depth, v.Height, v.Width)
	for z := 0; z < v.Depth; z++ {
		s, err := Slice(v.Slice(z))
		if err != nil {
			return nil, fmt.Errorf("slice %d: %w", z, err)
		}

		dst := n.SliceData(z)
		for i, value := range s.RawMatrix().Data {
			dst[i] = uint16(value)
		}
	}
	return n, nil
}
