// Package volumeio reads and writes NIfTI-1 scans.
//
// The header of an input file is kept verbatim and written back in front of
// the output voxels, so every geometric field (spacing, orientation, qform and
// sform, extensions) survives untouched. Only the fields needed to decode and
// encode voxels are interpreted.
package volumeio

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	headerSize = 348

	// minimal vox_offset of a single file image: header and the 4 byte extension flag
	singleFileOffset = 352
)

// NIfTI-1 datatype codes
const (
	DTUint8   int16 = 2
	DTInt16   int16 = 4
	DTInt32   int16 = 8
	DTFloat32 int16 = 16
	DTFloat64 int16 = 64
	DTInt8    int16 = 256
	DTUint16  int16 = 512
	DTUint32  int16 = 768
	DTInt64   int16 = 1024
	DTUint64  int16 = 1280
)

// field offsets inside the 348 byte header
const (
	offDim       = 40
	offDatatype  = 70
	offBitpix    = 72
	offPixdim    = 76
	offVoxOffset = 108
	offSclSlope  = 112
	offSclInter  = 116
	offMagic     = 344
)

// Header is the metadata of a NIfTI-1 file.
type Header struct {
	// Raw holds every byte in front of the voxel data, extensions included
	Raw []byte

	ByteOrder binary.ByteOrder

	Dim      [8]int16
	Datatype int16
	Bitpix   int16
	Pixdim   [8]float32

	VoxOffset int
	SclSlope  float32
	SclInter  float32
}

// Dims returns the spatial dimensions in storage order
func (h *Header) Dims() (nx, ny, nz int) {
	return int(h.Dim[1]), int(h.Dim[2]), int(h.Dim[3])
}

// Spacing returns the voxel size along X, Y and Z
func (h *Header) Spacing() [3]float64 {
	return [3]float64{float64(h.Pixdim[1]), float64(h.Pixdim[2]), float64(h.Pixdim[3])}
}

// VoxelVolume returns the volume of one voxel in cubic header units (usually mm^3)
func (h *Header) VoxelVolume() float64 {
	s := h.Spacing()
	return math.Abs(s[0] * s[1] * s[2])
}

func (h *Header) scaled() bool {
	return h.SclSlope != 0 && !(h.SclSlope == 1 && h.SclInter == 0)
}

// ParseHeader decodes the header at the start of data. The returned header
// owns a copy of the bytes up to vox_offset.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("file too short for a NIfTI-1 header: %d bytes", len(data))
	}

	var order binary.ByteOrder
	switch {
	case binary.LittleEndian.Uint32(data[0:4]) == headerSize:
		order = binary.LittleEndian
	case binary.BigEndian.Uint32(data[0:4]) == headerSize:
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("not a NIfTI-1 file: sizeof_hdr is not %d", headerSize)
	}

	magic := string(data[offMagic : offMagic+3])
	switch magic {
	case "n+1":
	case "ni1":
		return nil, fmt.Errorf("detached .hdr/.img pairs are not supported")
	default:
		return nil, fmt.Errorf("unknown NIfTI magic %q", magic)
	}

	h := &Header{ByteOrder: order}
	for i := range h.Dim {
		h.Dim[i] = int16(order.Uint16(data[offDim+2*i:]))
	}
	for i := range h.Pixdim {
		h.Pixdim[i] = math.Float32frombits(order.Uint32(data[offPixdim+4*i:]))
	}
	h.Datatype = int16(order.Uint16(data[offDatatype:]))
	h.Bitpix = int16(order.Uint16(data[offBitpix:]))
	h.SclSlope = math.Float32frombits(order.Uint32(data[offSclSlope:]))
	h.SclInter = math.Float32frombits(order.Uint32(data[offSclInter:]))

	voxOffset := math.Float32frombits(order.Uint32(data[offVoxOffset:]))
	if voxOffset < singleFileOffset {
		voxOffset = singleFileOffset
	}
	h.VoxOffset = int(voxOffset)
	if h.VoxOffset > len(data) {
		return nil, fmt.Errorf("vox_offset %d beyond end of file (%d bytes)", h.VoxOffset, len(data))
	}

	if h.Dim[0] < 3 || h.Dim[0] > 7 {
		return nil, fmt.Errorf("expected a 3D volume, header has %d dimensions", h.Dim[0])
	}
	for i := 1; i <= 3; i++ {
		if h.Dim[i] < 1 {
			return nil, fmt.Errorf("invalid dim[%d] = %d", i, h.Dim[i])
		}
	}
	for i := 4; i <= int(h.Dim[0]); i++ {
		if h.Dim[i] > 1 {
			return nil, fmt.Errorf("expected a 3D volume, dim[%d] = %d", i, h.Dim[i])
		}
	}

	if _, err := bytesPerVoxel(h.Datatype); err != nil {
		return nil, err
	}

	h.Raw = append([]byte(nil), data[:h.VoxOffset]...)
	return h, nil
}

// NewHeader builds a little-endian single file NIfTI-1 header for a volume of
// the given storage-order dimensions.
func NewHeader(nx, ny, nz int, datatype int16, spacing [3]float32) (*Header, error) {
	bpv, err := bytesPerVoxel(datatype)
	if err != nil {
		return nil, err
	}

	raw := make([]byte, singleFileOffset)
	order := binary.LittleEndian
	order.PutUint32(raw[0:], headerSize)

	dim := [8]int16{3, int16(nx), int16(ny), int16(nz), 1, 1, 1, 1}
	for i, d := range dim {
		order.PutUint16(raw[offDim+2*i:], uint16(d))
	}
	pixdim := [8]float32{1, spacing[0], spacing[1], spacing[2], 1, 1, 1, 1}
	for i, p := range pixdim {
		order.PutUint32(raw[offPixdim+4*i:], math.Float32bits(p))
	}
	order.PutUint16(raw[offDatatype:], uint16(datatype))
	order.PutUint16(raw[offBitpix:], uint16(bpv*8))
	order.PutUint32(raw[offVoxOffset:], math.Float32bits(singleFileOffset))
	order.PutUint32(raw[offSclSlope:], math.Float32bits(1))
	// xyzt_units: millimetres
	raw[123] = 2
	copy(raw[offMagic:], "n+1\x00")

	return ParseHeader(raw)
}

func bytesPerVoxel(datatype int16) (int, error) {
	switch datatype {
	case DTUint8, DTInt8:
		return 1, nil
	case DTInt16, DTUint16:
		return 2, nil
	case DTInt32, DTUint32, DTFloat32:
		return 4, nil
	case DTInt64, DTUint64, DTFloat64:
		return 8, nil
	default:
		return 0, fmt.Errorf("unsupported NIfTI datatype %d", datatype)
	}
}
