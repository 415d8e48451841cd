package volumeio

import (
	"fmt"

	"github.com/henghuang/nifti"
)

// Info is a short description of a scan file
type Info struct {
	// Dims are the X, Y, Z and T extents
	Dims [4]int

	// Spacing is pixdim[1..3]
	Spacing [3]float64
}

// Inspect reads the dimensions and voxel spacing of a scan with the nifti
// library. The library panics on malformed input; those panics are returned
// as errors.
func Inspect(path string) (info Info, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			err = fmt.Errorf("inspect %s: %v", path, panicErr)
		}
	}()

	var img nifti.Nifti1Image
	img.LoadImage(path, false)

	var hdr nifti.Nifti1Header
	hdr.LoadHeader(path)

	dims := img.GetDims()
	info.Dims = [4]int{dims[0], dims[1], dims[2], dims[3]}
	info.Spacing = [3]float64{float64(hdr.Pixdim[1]), float64(hdr.Pixdim[2]), float64(hdr.Pixdim[3])}
	return info, nil
}

func (i Info) String() string {
	return fmt.Sprintf("dims=%dx%dx%d t=%d spacing=%gx%gx%g",
		i.Dims[0], i.Dims[1], i.Dims[2], i.Dims[3], i.Spacing[0], i.Spacing[1], i.Spacing[2])
}
