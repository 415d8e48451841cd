//go:build cgo

package segmentation

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"brainmask/internal/models"
)

var (
	envOnce sync.Once
	envErr  error
)

// ONNX runs an exported segmentation network with onnxruntime. The network
// takes a float32 tensor [Z, H, W, 1] and returns per voxel foreground
// probabilities of the same shape.
type ONNX struct {
	resolution models.Size
	foreground uint16
	opts       ONNXOptions
	session    *ort.DynamicAdvancedSession
}

// NewONNX loads the network at opts.ModelPath. The onnxruntime environment is
// initialized once per process.
func NewONNX(resolution models.Size, foreground uint16, opts ONNXOptions) (*ONNX, error) {
	if opts.ModelPath == "" {
		return nil, fmt.Errorf("onnx model path is required")
	}
	if foreground == 0 {
		foreground = 1
	}
	if opts.InputScale == 0 {
		opts.InputScale = 1.0 / 255.0
	}
	if opts.Threshold == 0 {
		opts.Threshold = 0.5
	}

	envOnce.Do(func() {
		if opts.LibraryPath != "" {
			ort.SetSharedLibraryPath(opts.LibraryPath)
		}
		envErr = ort.InitializeEnvironment()
	})
	if envErr != nil {
		return nil, fmt.Errorf("failed to initialize onnxruntime: %w", envErr)
	}

	session, err := ort.NewDynamicAdvancedSession(opts.ModelPath,
		[]string{opts.InputName}, []string{opts.OutputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load onnx model %s: %w", opts.ModelPath, err)
	}

	return &ONNX{
		resolution: resolution,
		foreground: foreground,
		opts:       opts,
		session:    session,
	}, nil
}

func (m *ONNX) Resolution() models.Size { return m.resolution }

// PredictMask runs the whole volume as one batch of slices
func (m *ONNX) PredictMask(ctx context.Context, vol *models.NormalizedVolume) (*models.Mask, error) {
	if err := checkInput(m, vol); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	shape := ort.NewShape(int64(vol.Depth), int64(vol.Height), int64(vol.Width), 1)

	data := make([]float32, len(vol.Data))
	for i, v := range vol.Data {
		data[i] = float32(v) * m.opts.InputScale
	}
	input, err := ort.NewTensor(shape, data)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](shape)
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer output.Destroy()

	if err := m.session.Run([]ort.Value{input}, []ort.Value{output}); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	probabilities := output.GetData()
	if len(probabilities) != len(vol.Data) {
		return nil, fmt.Errorf("model returned %d values for %d voxels", len(probabilities), len(vol.Data))
	}

	mask := models.NewNormalizedVolume(vol.Depth, vol.Height, vol.Width)
	for i, p := range probabilities {
		if p >= m.opts.Threshold {
			mask.Data[i] = m.foreground
		}
	}
	return mask, nil
}

func (m *ONNX) Close() error {
	if m.session == nil {
		return nil
	}
	err := m.session.Destroy()
	m.session = nil
	return err
}
