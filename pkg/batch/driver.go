// Package batch runs the masking pipeline over a set of scans, turning every
// per-file failure into an entry of the skip list.
package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"brainmask/internal/logger"
	"brainmask/internal/models"
	"brainmask/pkg/normalize"
	"brainmask/pkg/segmentation"
	"brainmask/pkg/shape"
	"brainmask/pkg/visualization"
	"brainmask/pkg/volumeio"
)

const component = "batch"

// Params holds the per-batch settings of the Driver
type Params struct {
	// Extensions are the accepted scan extensions, used to derive mask names
	Extensions []string

	// MaskSuffix is inserted before the extension of each output
	MaskSuffix string

	// Policy decides when slices are resized to the model resolution
	Policy shape.Policy

	// Resizer performs the forward and inverse resize
	Resizer *shape.Resizer

	// PreviewDir, when set, receives PNG overlays of every mask slice
	PreviewDir string
}

// Result describes one scan that produced a mask
type Result struct {
	File          string  `csv:"file"`
	Mask          string  `csv:"mask"`
	Slices        int     `csv:"slices"`
	Height        int     `csv:"height"`
	Width         int     `csv:"width"`
	Resized       bool    `csv:"resized"`
	MaskVoxels    int     `csv:"mask_voxels"`
	MaskVolume    float64 `csv:"mask_volume_mm3"`
	MeanIntensity float64 `csv:"mean_intensity"`
	Seconds       float64 `csv:"seconds"`
}

// Report is the outcome of a batch
type Report struct {
	Processed []*Result

	// Skipped lists the input files without a mask, in processing order
	Skipped []string
}

// Driver runs the pipeline file by file with a single model instance
type Driver struct {
	params  Params
	model   segmentation.Model
	adapter *shape.Adapter
	log     logger.Logger
}

// NewDriver creates a driver around an already constructed model
func NewDriver(params Params, model segmentation.Model, log logger.Logger) *Driver {
	if params.Resizer == nil {
		params.Resizer = shape.NewResizer()
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Driver{
		params: params,
		model:  model,
		adapter: &shape.Adapter{
			Policy:   params.Policy,
			Resizer:  params.Resizer,
			Required: model.Resolution(),
		},
		log: log,
	}
}

// Run processes files sequentially. Failures never stop the batch: the file
// is appended to the skip list and the next one starts.
func (d *Driver) Run(ctx context.Context, files []string) *Report {
	report := &Report{}
	for i, path := range files {
		result, err := d.ProcessFile(ctx, path)
		if err != nil {
			d.log.Skipped(component, path, classify(err), err)
			report.Skipped = append(report.Skipped, path)
			continue
		}

		d.log.Info(component, "mask written", map[string]interface{}{
			"file":     path,
			"mask":     result.Mask,
			"progress": fmt.Sprintf("%d/%d", i+1, len(files)),
			"resized":  result.Resized,
			"voxels":   result.MaskVoxels,
		})
		report.Processed = append(report.Processed, result)
	}
	return report
}

// ProcessFile produces the mask of a single scan
func (d *Driver) ProcessFile(ctx context.Context, path string) (*Result, error) {
	start := time.Now()

	volume, hdr, err := volumeio.Load(path)
	if err != nil {
		return nil, err
	}
	d.log.Debug(component, "volume loaded", map[string]interface{}{
		"file":    path,
		"slices":  volume.Depth,
		"size":    volume.SliceSize().String(),
		"spacing": hdr.Spacing(),
	})

	normalized, err := normalize.Volume(volume)
	if err != nil {
		return nil, &models.LoadError{Path: path, Err: fmt.Errorf("normalize: %w", err)}
	}

	fitted, err := d.adapter.Fit(path, normalized)
	if err != nil {
		return nil, err
	}

	mask, err := d.model.PredictMask(ctx, fitted.Volume)
	if err != nil {
		return nil, &models.ModelError{Path: path, Err: err}
	}
	if err := checkMask(fitted.Volume, mask); err != nil {
		return nil, &models.ModelError{Path: path, Err: err}
	}

	mask, err = d.adapter.Restore(fitted, mask)
	if err != nil {
		return nil, &models.ModelError{Path: path, Err: fmt.Errorf("inverse resize: %w", err)}
	}

	maskPath := MaskPath(path, d.params.Extensions, d.params.MaskSuffix)
	if err := volumeio.SaveMask(volumeio.RestoreAxes(mask.Squeeze()), maskPath, hdr); err != nil {
		return nil, fmt.Errorf("save %s: %w", maskPath, err)
	}

	if d.params.PreviewDir != "" {
		if err := d.savePreview(path, normalized, mask); err != nil {
			d.log.Warning(component, "preview not written", map[string]interface{}{"file": path, "error": err.Error()})
		}
	}

	result := &Result{
		File:    path,
		Mask:    maskPath,
		Slices:  volume.Depth,
		Height:  volume.Height,
		Width:   volume.Width,
		Resized: fitted.Resized,
		Seconds: time.Since(start).Seconds(),
	}
	summarize(result, normalized, mask, hdr.VoxelVolume())
	return result, nil
}

func (d *Driver) savePreview(path string, scan *models.NormalizedVolume, mask *models.Mask) error {
	viewer, err := visualization.NewViewer(scan, mask)
	if err != nil {
		return err
	}
	name := filepath.Base(path)
	stem, _, ok := splitExt(name, d.params.Extensions)
	if !ok {
		stem = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return viewer.SaveSliceSequence("z", filepath.Join(d.params.PreviewDir, stem), stem)
}

// checkMask rejects model outputs that do not line up with the input
func checkMask(in *models.NormalizedVolume, mask *models.Mask) error {
	if mask == nil {
		return errors.New("model returned no mask")
	}
	if mask.Depth != in.Depth {
		return fmt.Errorf("model returned %d slices for %d", mask.Depth, in.Depth)
	}
	if mask.Channels != 1 {
		return fmt.Errorf("model returned %d channels, expected 1", mask.Channels)
	}
	if mask.SliceSize() != in.SliceSize() {
		return fmt.Errorf("model returned %s slices for %s input", mask.SliceSize(), in.SliceSize())
	}
	if len(mask.Data) != mask.Depth*mask.Height*mask.Width {
		return fmt.Errorf("model returned %d values for shape %v", len(mask.Data), mask.Shape())
	}
	return nil
}

// summarize fills the mask statistics of r
func summarize(r *Result, scan *models.NormalizedVolume, mask *models.Mask, voxelVolume float64) {
	inside := make([]float64, len(mask.Data))
	intensity := make([]float64, len(scan.Data))
	for i, v := range mask.Data {
		if v != 0 {
			inside[i] = 1
		}
		intensity[i] = float64(scan.Data[i])
	}

	voxels := floats.Sum(inside)
	r.MaskVoxels = int(voxels)
	r.MaskVolume = voxels * voxelVolume
	if voxels > 0 {
		r.MeanIntensity = stat.Mean(intensity, inside)
	}
}

func classify(err error) string {
	var loadErr *models.LoadError
	var shapeErr *models.ShapeError
	var modelErr *models.ModelError
	switch {
	case errors.As(err, &loadErr):
		return "load"
	case errors.As(err, &shapeErr):
		return "shape"
	case errors.As(err, &modelErr):
		return "model"
	default:
		return "save"
	}
}
