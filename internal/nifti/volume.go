package nifti

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"math"
	"os"
)

// Volume is the first 3D volume of a NIfTI file with scaling applied.
type Volume struct {
	Dims    [3]int     // Voxel counts along i, j, k.
	Spacing [3]float64 // Voxel size in mm (1 when unset).
	Data    []float64  // len == Dims[0]*Dims[1]*Dims[2], i fastest.
}

// maxVoxels caps the voxel count a header may declare (1024^3). Larger
// volumes are rejected before any voxel buffer is allocated.
const maxVoxels = 1 << 30

// chunkVoxels is how many voxels are read and converted per step, so a
// truncated stream never costs more memory than the bytes it holds.
const chunkVoxels = 1 << 16

// Load opens path and decodes it. Gzip compression is detected from the
// stream's magic bytes, so a mislabeled .nii that is actually gzipped still
// loads. An uncompressed file shorter than its header declares is rejected
// without reading the voxel data.
func Load(path string) (*Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	size := int64(-1)
	if fi, err := f.Stat(); err == nil && fi.Mode().IsRegular() {
		size = fi.Size()
	}
	v, err := decodeSized(f, size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// Decode reads a NIfTI-1 volume from r, gunzipping it when needed.
func Decode(r io.Reader) (*Volume, error) {
	return decodeSized(r, -1)
}

// decodeSized is Decode with the raw stream length when known (-1 otherwise).
func decodeSized(r io.Reader, size int64) (*Volume, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %v", ErrMalformed, err)
		}
		defer zr.Close()
		return decode(zr, -1)
	}
	return decode(br, size)
}

func decode(r io.Reader, size int64) (*Volume, error) {
	hb := make([]byte, headerSize)
	if _, err := io.ReadFull(r, hb); err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrMalformed, err)
	}
	h, err := parseHeader(hb)
	if err != nil {
		return nil, err
	}

	dims := h.shape()
	n := int64(dims[0]) * int64(dims[1]) * int64(dims[2])
	if n > maxVoxels {
		return nil, fmt.Errorf("%w: %dx%dx%d voxels exceeds the %d voxel limit",
			ErrMalformed, dims[0], dims[1], dims[2], int64(maxVoxels))
	}
	bpv := bytesPerVoxel(h.datatype)
	if need := int64(h.voxOffset) + n*int64(bpv); size >= 0 && need > size {
		return nil, fmt.Errorf("%w: header needs %d bytes, file has %d", ErrMalformed, need, size)
	}

	// Skip the extension block up to the first voxel.
	if skip := int64(h.voxOffset) - headerSize; skip > 0 {
		if _, err := io.CopyN(io.Discard, r, skip); err != nil {
			return nil, fmt.Errorf("%w: seek to vox_offset: %v", ErrMalformed, err)
		}
	}

	slope, inter := float64(h.sclSlope), float64(h.sclInter)
	scaled := slope != 0 && !math.IsNaN(slope) && !(slope == 1 && inter == 0)
	if math.IsNaN(inter) {
		inter = 0
	}

	data := make([]float64, 0, min(n, chunkVoxels))
	buf := make([]byte, min(n, chunkVoxels)*int64(bpv))
	for remaining := n; remaining > 0; {
		k := min(remaining, chunkVoxels)
		raw := buf[:k*int64(bpv)]
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("%w: voxel data truncated after %d of %d voxels: %v",
				ErrMalformed, int64(len(data)), n, err)
		}
		for i := int64(0); i < k; i++ {
			v := h.voxel(raw[i*int64(bpv):])
			if scaled {
				v = v*slope + inter
			}
			data = append(data, v)
		}
		remaining -= k
	}
	return &Volume{Dims: dims, Spacing: h.spacing(), Data: data}, nil
}

// Index returns the flat offset of voxel (i, j, k).
func (v *Volume) Index(i, j, k int) int {
	return i + v.Dims[0]*(j+v.Dims[1]*k)
}

// At returns the value of voxel (i, j, k).
func (v *Volume) At(i, j, k int) float64 {
	return v.Data[v.Index(i, j, k)]
}

// Range returns the minimum and maximum over finite voxels. ok is false when
// the volume has no finite voxel.
func (v *Volume) Range() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, x := range v.Data {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
		ok = true
	}
	if !ok {
		return 0, 0, false
	}
	return lo, hi, true
}

// SymmetricBound returns max(|min|, |max|) over finite voxels, so a color
// scale of [-bound, bound] centers zero. It is 0 for an empty or all-NaN
// volume.
func (v *Volume) SymmetricBound() float64 {
	lo, hi, ok := v.Range()
	if !ok {
		return 0
	}
	return math.Max(math.Abs(lo), math.Abs(hi))
}
