package volumeio

import "brainmask/internal/models"

// WorkingOrder moves the last storage axis to the front: (X, Y, Z) -> (Z, X, Y).
func WorkingOrder(raw *models.RawVolume) *models.Volume {
	v := models.NewVolume(raw.NZ, raw.NX, raw.NY)
	for x := 0; x < raw.NX; x++ {
		for y := 0; y < raw.NY; y++ {
			for z := 0; z < raw.NZ; z++ {
				v.Data[(z*v.Height+x)*v.Width+y] = raw.At(x, y, z)
			}
		}
	}
	return v
}

// RestoreAxes is the exact inverse of WorkingOrder: (Z, X, Y) -> (X, Y, Z).
func RestoreAxes(v *models.Volume) *models.RawVolume {
	raw := models.NewRawVolume(v.Height, v.Width, v.Depth)
	for z := 0; z < v.Depth; z++ {
		for x := 0; x < v.Height; x++ {
			for y := 0; y < v.Width; y++ {
				raw.Set(x, y, z, v.Data[(z*v.Height+x)*v.Width+y])
			}
		}
	}
	return raw
}
