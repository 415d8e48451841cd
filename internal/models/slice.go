package models

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Size is a slice resolution in pixels. It records the original resolution of a
// volume before a resize and the fixed input resolution of a segmentation model.
type Size struct {
	// Height is the number of rows (the X axis of the scan)
	Height int

	// Width is the number of columns (the Y axis of the scan)
	Width int
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Height, s.Width)
}

// RawVolume is a scan in storage order (X, Y, Z) as it is laid out in the
// volume file. Data is indexed as (x*NY+y)*NZ+z.
type RawVolume struct {
	Data []float64

	NX, NY, NZ int
}

// NewRawVolume allocates a zeroed volume in storage order
func NewRawVolume(nx, ny, nz int) *RawVolume {
	return &RawVolume{
		Data: make([]float64, nx*ny*nz),
		NX:   nx,
		NY:   ny,
		NZ:   nz,
	}
}

// At returns the intensity at (x, y, z)
func (r *RawVolume) At(x, y, z int) float64 {
	return r.Data[(x*r.NY+y)*r.NZ+z]
}

// Set stores the intensity at (x, y, z)
func (r *RawVolume) Set(x, y, z int, v float64) {
	r.Data[(x*r.NY+y)*r.NZ+z] = v
}

// Volume is a scan in slice-major working order (Z, X, Y). Every component
// downstream of the volume reader iterates slices along Depth.
type Volume struct {
	// Data is the 3D volume data as a 1D array in row-major order
	Data []float64

	// Depth is the number of slices (Z)
	Depth int

	// Height is the number of rows of each slice (X)
	Height int

	// Width is the number of columns of each slice (Y)
	Width int
}

// NewVolume allocates a zeroed working-order volume
func NewVolume(depth, height, width int) *Volume {
	return &Volume{
		Data:   make([]float64, depth*height*width),
		Depth:  depth,
		Height: height,
		Width:  width,
	}
}

// SliceSize returns the resolution of a single slice
func (v *Volume) SliceSize() Size {
	return Size{Height: v.Height, Width: v.Width}
}

// Slice returns slice z as a matrix view sharing the volume's buffer.
// Writes through the returned matrix modify the volume.
func (v *Volume) Slice(z int) *mat.Dense {
	n := v.Height * v.Width
	return mat.NewDense(v.Height, v.Width, v.Data[z*n:(z+1)*n:(z+1)*n])
}

// NormalizedVolume holds 0..255 intensities with a trailing singleton channel
// axis, giving the rank 4 shape (Z, H, W, 1) segmentation models expect.
type NormalizedVolume struct {
	Data []uint16

	Depth, Height, Width, Channels int
}

// Mask is the model output. It has the same shape contract as NormalizedVolume
// until it is squeezed for saving.
type Mask = NormalizedVolume

// NewNormalizedVolume allocates a zeroed single channel volume
func NewNormalizedVolume(depth, height, width int) *NormalizedVolume {
	return &NormalizedVolume{
		Data:     make([]uint16, depth*height*width),
		Depth:    depth,
		Height:   height,
		Width:    width,
		Channels: 1,
	}
}

// Shape returns the rank 4 shape [Z, H, W, C]
func (n *NormalizedVolume) Shape() []int {
	return []int{n.Depth, n.Height, n.Width, n.Channels}
}

// SliceSize returns the resolution of a single slice
func (n *NormalizedVolume) SliceSize() Size {
	return Size{Height: n.Height, Width: n.Width}
}

// SliceData returns the pixels of slice z, sharing the volume's buffer.
// It assumes a single channel.
func (n *NormalizedVolume) SliceData(z int) []uint16 {
	size := n.Height * n.Width
	return n.Data[z*size : (z+1)*size : (z+1)*size]
}

// Squeeze drops the channel axis and returns the data as a working-order volume
func (n *NormalizedVolume) Squeeze() *Volume {
	v := NewVolume(n.Depth, n.Height, n.Width)
	for i, value := range n.Data[:len(v.Data)] {
		v.Data[i] = float64(value)
	}
	return v
}
