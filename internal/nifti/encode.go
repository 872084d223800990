package nifti

import (
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

// Encode writes v to w as an uncompressed little-endian float32 NIfTI-1
// volume with an identity scaling.
func Encode(w io.Writer, v *Volume) error {
	n := v.Dims[0] * v.Dims[1] * v.Dims[2]
	if len(v.Data) != n {
		return fmt.Errorf("volume has %d voxels, dims say %d", len(v.Data), n)
	}
	le := binary.LittleEndian
	hb := make([]byte, headerSize+4)
	le.PutUint32(hb[0:], headerSize)
	le.PutUint16(hb[40:], 3)
	for i := 0; i < 3; i++ {
		le.PutUint16(hb[42+2*i:], uint16(v.Dims[i]))
	}
	for i := 4; i < 8; i++ {
		le.PutUint16(hb[40+2*i:], 1)
	}
	le.PutUint16(hb[70:], dtFloat32)
	le.PutUint16(hb[72:], 32)
	le.PutUint32(hb[76:], math.Float32bits(1))
	for i := 0; i < 3; i++ {
		s := v.Spacing[i]
		if s == 0 {
			s = 1
		}
		le.PutUint32(hb[80+4*i:], math.Float32bits(float32(s)))
	}
	le.PutUint32(hb[108:], math.Float32bits(headerSize+4))
	copy(hb[344:], "n+1\x00")

	if _, err := w.Write(hb); err != nil {
		return err
	}
	buf := make([]byte, 4*n)
	for i, x := range v.Data {
		le.PutUint32(buf[4*i:], math.Float32bits(float32(x)))
	}
	_, err := w.Write(buf)
	return err
}

// WriteFile encodes v to path, gzipped when path ends in ".gz".
func WriteFile(path string, v *Volume) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if !strings.HasSuffix(strings.ToLower(path), ".gz") {
		return Encode(f, v)
	}
	zw := gzip.NewWriter(f)
	if err := Encode(zw, v); err != nil {
		return err
	}
	return zw.Close()
}
