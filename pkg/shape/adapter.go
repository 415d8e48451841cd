package shape

import (
	"brainmask/internal/models"
)

// Adapter brackets a model call: Fit brings a volume to the model resolution
// and Restore undoes it using the size Fit recorded.
type Adapter struct {
	Policy   Policy
	Resizer  *Resizer
	Required models.Size
}

// Fitted is the outcome of Fit: the model input and, if a resize happened,
// the original slice size.
type Fitted struct {
	Volume   *models.NormalizedVolume
	Resized  bool
	Original models.Size
}

// Fit resizes vol to the required resolution when the policy calls for it and
// then checks that the result matches. A mismatch is a *models.ShapeError.
func (a *Adapter) Fit(path string, vol *models.NormalizedVolume) (*Fitted, error) {
	fitted := &Fitted{Volume: vol}

	native := vol.SliceSize()
	if a.Policy.NeedsResize(native, a.Required) {
		resized, err := a.Resizer.Resize(vol, a.Required)
		if err != nil {
			return nil, err
		}
		fitted.Volume = resized
		fitted.Resized = true
		fitted.Original = native
	}

	if got := fitted.Volume.SliceSize(); got != a.Required {
		return nil, &models.ShapeError{Path: path, Got: got, Want: a.Required, Policy: a.Policy.String()}
	}
	return fitted, nil
}

// Restore brings a model output back to the original slice size recorded by Fit
func (a *Adapter) Restore(f *Fitted, mask *models.Mask) (*models.Mask, error) {
	if !f.Resized {
		return mask, nil
	}
	return a.Resizer.Resize(mask, f.Original)
}
