package shape

import (
	"errors"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brainmask/internal/models"
)

func gradientVolume(depth, height, width int) *models.NormalizedVolume {
	v := models.NewNormalizedVolume(depth, height, width)
	for z := 0; z < depth; z++ {
		s := v.SliceData(z)
		for x := 0; x < height; x++ {
			for y := 0; y < width; y++ {
				s[x*width+y] = uint16((x + y + z) % 256)
			}
		}
	}
	return v
}

func TestNeedsResize(t *testing.T) {
	required := models.Size{Height: 256, Width: 256}

	cases := []struct {
		name   string
		native models.Size
		any    bool
		both   bool
	}{
		{"matching", models.Size{Height: 256, Width: 256}, false, false},
		{"height only", models.Size{Height: 300, Width: 256}, true, false},
		{"width only", models.Size{Height: 256, Width: 300}, true, false},
		{"both differ", models.Size{Height: 512, Width: 512}, true, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.any, AnyDimension.NeedsResize(c.native, required))
			assert.Equal(t, c.both, BothDimensions.NeedsResize(c.native, required))
		})
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("both")
	require.NoError(t, err)
	assert.Equal(t, BothDimensions, p)
	assert.Equal(t, "both", p.String())

	p, err = ParsePolicy("ANY")
	require.NoError(t, err)
	assert.Equal(t, AnyDimension, p)

	_, err = ParsePolicy("xor")
	assert.Error(t, err)
}

func TestParseFilter(t *testing.T) {
	for _, name := range []string{"linear", "nearest", "catmullrom", "lanczos", "box", ""} {
		_, err := ParseFilter(name)
		assert.NoError(t, err, name)
	}
	_, err := ParseFilter("cubic-spline")
	assert.Error(t, err)
}

func TestResizeRoundTripShape(t *testing.T) {
	r := NewResizer()
	for _, size := range []models.Size{{Height: 300, Width: 256}, {Height: 64, Width: 200}, {Height: 128, Width: 128}, {Height: 17, Width: 3}} {
		vol := gradientVolume(4, size.Height, size.Width)

		small, err := r.Resize(vol, models.Size{Height: 128, Width: 128})
		require.NoError(t, err)
		assert.Equal(t, []int{4, 128, 128, 1}, small.Shape())

		back, err := r.Resize(small, size)
		require.NoError(t, err)
		assert.Equal(t, vol.Shape(), back.Shape())
	}
}

func TestResizeUniformSliceKeepsValue(t *testing.T) {
	vol := models.NewNormalizedVolume(2, 20, 30)
	for i := range vol.Data {
		vol.Data[i] = 200
	}

	out, err := NewResizer().Resize(vol, models.Size{Height: 45, Width: 11})
	require.NoError(t, err)
	for _, v := range out.Data {
		assert.Equal(t, uint16(200), v)
	}
}

func TestResizeKeepsSliceOrder(t *testing.T) {
	vol := models.NewNormalizedVolume(3, 8, 8)
	for z := 0; z < 3; z++ {
		for i := range vol.SliceData(z) {
			vol.SliceData(z)[i] = uint16(z * 100)
		}
	}

	out, err := NewResizer().Resize(vol, models.Size{Height: 16, Width: 4})
	require.NoError(t, err)
	for z := 0; z < 3; z++ {
		assert.Equal(t, uint16(z*100), out.SliceData(z)[0])
	}
}

func TestResizeAxisOrientation(t *testing.T) {
	// rows are X, columns Y: a bright first row must stay the first row
	vol := models.NewNormalizedVolume(1, 4, 6)
	for y := 0; y < 6; y++ {
		vol.Data[y] = 255
	}

	r := &Resizer{Filter: imaging.NearestNeighbor}
	out, err := r.Resize(vol, models.Size{Height: 8, Width: 12})
	require.NoError(t, err)
	for y := 0; y < 12; y++ {
		assert.Equal(t, uint16(255), out.Data[y])
		assert.Equal(t, uint16(0), out.Data[7*12+y])
	}
}

func TestResizeRejectsMultiChannel(t *testing.T) {
	vol := models.NewNormalizedVolume(1, 4, 4)
	vol.Channels = 3
	_, err := NewResizer().Resize(vol, models.Size{Height: 2, Width: 2})
	assert.Error(t, err)

	_, err = NewResizer().Resize(models.NewNormalizedVolume(1, 4, 4), models.Size{})
	assert.Error(t, err)
}

func TestAdapterAnyPolicyResizesMismatchedWidth(t *testing.T) {
	a := &Adapter{Policy: AnyDimension, Resizer: NewResizer(), Required: models.Size{Height: 256, Width: 256}}
	vol := gradientVolume(5, 300, 256)

	fitted, err := a.Fit("scan.nii", vol)
	require.NoError(t, err)
	assert.True(t, fitted.Resized)
	assert.Equal(t, models.Size{Height: 300, Width: 256}, fitted.Original)
	assert.Equal(t, []int{5, 256, 256, 1}, fitted.Volume.Shape())

	restored, err := a.Restore(fitted, fitted.Volume)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 300, 256, 1}, restored.Shape())
}

func TestAdapterBothPolicySkipsResize(t *testing.T) {
	a := &Adapter{Policy: BothDimensions, Resizer: NewResizer(), Required: models.Size{Height: 256, Width: 256}}
	vol := gradientVolume(5, 300, 256)

	assert.False(t, a.Policy.NeedsResize(vol.SliceSize(), a.Required))

	_, err := a.Fit("scan.nii", vol)
	var shapeErr *models.ShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, models.Size{Height: 300, Width: 256}, shapeErr.Got)
	assert.Equal(t, "both", shapeErr.Policy)
}

func TestAdapterPassThrough(t *testing.T) {
	a := &Adapter{Policy: BothDimensions, Resizer: NewResizer(), Required: models.Size{Height: 256, Width: 256}}
	vol := gradientVolume(10, 256, 256)

	fitted, err := a.Fit("scan.nii", vol)
	require.NoError(t, err)
	assert.False(t, fitted.Resized)
	assert.Same(t, vol, fitted.Volume)

	restored, err := a.Restore(fitted, vol)
	require.NoError(t, err)
	assert.Same(t, vol, restored)
}

func TestAdapterBothPolicyResizesWhenBothDiffer(t *testing.T) {
	a := &Adapter{Policy: BothDimensions, Resizer: NewResizer(), Required: models.Size{Height: 256, Width: 256}}
	fitted, err := a.Fit("scan.nii", gradientVolume(2, 512, 400))
	require.NoError(t, err)
	assert.True(t, fitted.Resized)
	assert.Equal(t, models.Size{Height: 512, Width: 400}, fitted.Original)
}

func TestRestoreKeepsBinaryLabels(t *testing.T) {
	a := &Adapter{Policy: AnyDimension, Resizer: NewResizer(), Required: models.Size{Height: 256, Width: 256}}
	fitted, err := a.Fit("scan.nii", gradientVolume(2, 300, 200))
	require.NoError(t, err)

	mask := models.NewNormalizedVolume(2, 256, 256)
	for z := 0; z < 2; z++ {
		s := mask.SliceData(z)
		for x := 64; x < 192; x++ {
			for y := 64; y < 192; y++ {
				s[x*256+y] = 1
			}
		}
	}

	restored, err := a.Restore(fitted, mask)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 300, 200, 1}, restored.Shape())

	seen := map[uint16]int{}
	for _, v := range restored.Data {
		seen[v]++
	}
	assert.Len(t, seen, 2)
	assert.Positive(t, seen[0])
	assert.Positive(t, seen[1])
}
