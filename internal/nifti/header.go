package nifti

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrMalformed is returned for inputs that are not readable NIfTI-1 volumes.
var ErrMalformed = errors.New("malformed NIfTI volume")

const headerSize = 348

// NIfTI-1 datatype codes.
const (
	dtUint8   = 2
	dtInt16   = 4
	dtInt32   = 8
	dtFloat32 = 16
	dtFloat64 = 64
	dtInt8    = 256
	dtUint16  = 512
	dtUint32  = 768
)

// header holds the fields of the NIfTI-1 header that decoding uses.
type header struct {
	order     binary.ByteOrder
	dim       [8]int16
	datatype  int16
	bitpix    int16
	pixdim    [8]float32
	voxOffset float32
	sclSlope  float32
	sclInter  float32
	magic     string
}

// parseHeader decodes the fixed header. Byte order is detected from
// sizeof_hdr, which must read 348 in one of the two orders.
func parseHeader(b []byte) (*header, error) {
	if len(b) < headerSize {
		return nil, fmt.Errorf("%w: header is %d bytes, want %d", ErrMalformed, len(b), headerSize)
	}
	h := &header{}
	switch {
	case binary.LittleEndian.Uint32(b[0:4]) == headerSize:
		h.order = binary.LittleEndian
	case binary.BigEndian.Uint32(b[0:4]) == headerSize:
		h.order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: bad sizeof_hdr", ErrMalformed)
	}

	for i := range h.dim {
		h.dim[i] = int16(h.order.Uint16(b[40+2*i:]))
	}
	h.datatype = int16(h.order.Uint16(b[70:]))
	h.bitpix = int16(h.order.Uint16(b[72:]))
	for i := range h.pixdim {
		h.pixdim[i] = math.Float32frombits(h.order.Uint32(b[76+4*i:]))
	}
	h.voxOffset = math.Float32frombits(h.order.Uint32(b[108:]))
	h.sclSlope = math.Float32frombits(h.order.Uint32(b[112:]))
	h.sclInter = math.Float32frombits(h.order.Uint32(b[116:]))
	h.magic = string(b[344:347])

	if h.magic != "n+1" {
		if h.magic == "ni1" {
			return nil, fmt.Errorf("%w: two-file (.hdr/.img) volumes are not supported", ErrMalformed)
		}
		return nil, fmt.Errorf("%w: bad magic %q", ErrMalformed, h.magic)
	}
	if h.dim[0] < 1 || h.dim[0] > 7 {
		return nil, fmt.Errorf("%w: dim[0] = %d", ErrMalformed, h.dim[0])
	}
	for i := 1; i <= 3; i++ {
		if h.dim[i] < 0 {
			return nil, fmt.Errorf("%w: dim[%d] = %d", ErrMalformed, i, h.dim[i])
		}
	}
	if bytesPerVoxel(h.datatype) == 0 {
		return nil, fmt.Errorf("%w: unsupported datatype %d", ErrMalformed, h.datatype)
	}
	if h.voxOffset < headerSize {
		h.voxOffset = headerSize + 4
	}
	return h, nil
}

// shape returns the first three dimensions; unused dimensions count as 1.
func (h *header) shape() [3]int {
	var s [3]int
	for i := 0; i < 3; i++ {
		s[i] = 1
		if i+1 <= int(h.dim[0]) && h.dim[i+1] > 0 {
			s[i] = int(h.dim[i+1])
		}
	}
	return s
}

func (h *header) spacing() [3]float64 {
	var s [3]float64
	for i := 0; i < 3; i++ {
		v := math.Abs(float64(h.pixdim[i+1]))
		if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			v = 1
		}
		s[i] = v
	}
	return s
}

func bytesPerVoxel(datatype int16) int {
	switch datatype {
	case dtUint8, dtInt8:
		return 1
	case dtInt16, dtUint16:
		return 2
	case dtInt32, dtUint32, dtFloat32:
		return 4
	case dtFloat64:
		return 8
	}
	return 0
}

// voxel decodes one raw value of the header's datatype.
func (h *header) voxel(b []byte) float64 {
	switch h.datatype {
	case dtUint8:
		return float64(b[0])
	case dtInt8:
		return float64(int8(b[0]))
	case dtInt16:
		return float64(int16(h.order.Uint16(b)))
	case dtUint16:
		return float64(h.order.Uint16(b))
	case dtInt32:
		return float64(int32(h.order.Uint32(b)))
	case dtUint32:
		return float64(h.order.Uint32(b))
	case dtFloat32:
		return float64(math.Float32frombits(h.order.Uint32(b)))
	case dtFloat64:
		return math.Float64frombits(h.order.Uint64(b))
	}
	return 0
}
