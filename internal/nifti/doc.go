// Package nifti reads single-file NIfTI-1 volumes (.nii, .nii.gz) into a
// dense float64 grid.
//
// Only what the glass-brain renderer needs is decoded: the first 3D volume,
// voxel spacing, and intensity scaling. Orientation matrices are ignored;
// voxels are indexed i (x) fastest, then j (y), then k (z), as stored.
//
// Files:
//   - header.go: fixed 348-byte header parsing, endianness detection
//   - volume.go: Load, Decode, Volume and intensity statistics
//   - encode.go: float32 writer for fixtures and derived maps
package nifti
