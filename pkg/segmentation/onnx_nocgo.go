//go:build !cgo

package segmentation

import (
	"errors"

	"brainmask/internal/models"
)

// NewONNX needs onnxruntime, which is only reachable through cgo
func NewONNX(resolution models.Size, foreground uint16, opts ONNXOptions) (Model, error) {
	return nil, errors.New("onnx models require a cgo enabled build")
}
