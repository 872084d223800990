// Package glassbrain renders statistical maps as glass-brain PNG images and
// provides the render-mode batch processor.
//
// A glass brain is a set of maximum-intensity projections through the
// volume. Both signs are kept: each pixel shows the voxel value with the
// largest magnitude along its ray, on a diverging blue-white-red scale whose
// limits are symmetric around zero.
//
// Files:
//   - render.go: Renderer, RenderOptions, PNGRenderer
//   - colormap.go: diverging colormaps
//   - processor.go: Processor (load, scale, render, atomic write)
package glassbrain
