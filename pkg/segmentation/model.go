// Package segmentation wraps the models that turn a normalized volume into a
// brain mask. A model accepts exactly one slice resolution; adapting scans to
// it is the caller's job.
package segmentation

import (
	"context"
	"fmt"

	"brainmask/internal/models"
)

// Model predicts a mask for a normalized volume. The mask has the same slice
// count, resolution and channel layout as the input.
type Model interface {
	// Resolution is the only slice size PredictMask accepts
	Resolution() models.Size

	PredictMask(ctx context.Context, vol *models.NormalizedVolume) (*models.Mask, error)

	Close() error
}

// Options selects and configures a model
type Options struct {
	// Kind is "threshold" or "onnx"
	Kind string

	Resolution models.Size

	// Foreground is the label of mask voxels
	Foreground uint16

	ONNX ONNXOptions
}

// ONNXOptions configures the onnxruntime backed model
type ONNXOptions struct {
	ModelPath   string
	LibraryPath string
	InputName   string
	OutputName  string
	InputScale  float32
	Threshold   float32
}

// New builds the model described by opts
func New(opts Options) (Model, error) {
	switch opts.Kind {
	case "", "threshold":
		return NewThreshold(opts.Resolution, opts.Foreground), nil
	case "onnx":
		m, err := NewONNX(opts.Resolution, opts.Foreground, opts.ONNX)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown model kind %q", opts.Kind)
	}
}

func checkInput(m Model, vol *models.NormalizedVolume) error {
	if vol.Channels != 1 {
		return fmt.Errorf("expected a single channel input, got %d channels", vol.Channels)
	}
	if got, want := vol.SliceSize(), m.Resolution(); got != want {
		return fmt.Errorf("input slices are %s, model requires %s", got, want)
	}
	return nil
}
