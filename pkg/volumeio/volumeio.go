package volumeio

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"brainmask/internal/models"
)

// Load reads a .nii or .nii.gz scan and returns it in working order (Z, X, Y)
// together with its header. Every failure is a *models.LoadError.
func Load(path string) (*models.Volume, *Header, error) {
	raw, hdr, err := LoadRaw(path)
	if err != nil {
		return nil, nil, err
	}
	return WorkingOrder(raw), hdr, nil
}

// LoadRaw reads a scan without reordering its axes
func LoadRaw(path string) (*models.RawVolume, *Header, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, nil, &models.LoadError{Path: path, Err: err}
	}

	hdr, err := ParseHeader(data)
	if err != nil {
		return nil, nil, &models.LoadError{Path: path, Err: err}
	}

	raw, err := decodeVoxels(hdr, data[hdr.VoxOffset:])
	if err != nil {
		return nil, nil, &models.LoadError{Path: path, Err: err}
	}
	return raw, hdr, nil
}

// Save writes raw with the given header. The header bytes are written as they
// were read and the voxels are encoded in the header's datatype. Axes are not
// reordered here: callers restore storage order with RestoreAxes first.
func Save(raw *models.RawVolume, path string, hdr *Header) error {
	voxels, err := encode(raw, hdr)
	if err != nil {
		return err
	}
	return writeVolume(path, hdr.Raw, voxels)
}

// SaveMask is Save for label volumes. Every label must survive the header's
// datatype and scaling, otherwise nothing is written.
func SaveMask(mask *models.RawVolume, path string, hdr *Header) error {
	voxels, err := encode(mask, hdr)
	if err != nil {
		return err
	}
	if err := checkLabels(hdr, mask, voxels); err != nil {
		return err
	}
	return writeVolume(path, hdr.Raw, voxels)
}

func encode(raw *models.RawVolume, hdr *Header) ([]byte, error) {
	nx, ny, nz := hdr.Dims()
	if raw.NX != nx || raw.NY != ny || raw.NZ != nz {
		return nil, fmt.Errorf("volume is %dx%dx%d but header describes %dx%dx%d",
			raw.NX, raw.NY, raw.NZ, nx, ny, nz)
	}
	return encodeVoxels(hdr, raw)
}

// writeVolume writes header and voxels, gzipped when path ends in .gz
func writeVolume(path string, header, voxels []byte) error {
	return writeFile(path, func(w io.Writer) error {
		if !isGzipPath(path) {
			return writeAll(w, header, voxels)
		}
		zw := gzip.NewWriter(w)
		if err := writeAll(zw, header, voxels); err != nil {
			return err
		}
		return zw.Close()
	})
}

// writeFile creates path and fills it through write. On any failure the
// partial file is removed.
func writeFile(path string, write func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(path)
		}
	}()

	bw := bufio.NewWriter(f)
	if err = write(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return err
	}
	return f.Close()
}

func writeAll(w io.Writer, chunks ...[]byte) error {
	for _, c := range chunks {
		if _, err := w.Write(c); err != nil {
			return err
		}
	}
	return nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < 2 || data[0] != 0x1f || data[1] != 0x8b {
		return data, nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid gzip stream: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("invalid gzip stream: %w", err)
	}
	return out, nil
}

func isGzipPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".gz")
}
