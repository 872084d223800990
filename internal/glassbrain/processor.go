package glassbrain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/backmassage/brainbatch/internal/config"
	"github.com/backmassage/brainbatch/internal/layout"
	"github.com/backmassage/brainbatch/internal/nifti"
	"github.com/backmassage/brainbatch/internal/pipeline"
)

// Loader reads a volume from disk.
type Loader interface {
	Load(path string) (*nifti.Volume, error)
}

// FileLoader loads NIfTI-1 files.
type FileLoader struct{}

// Load implements Loader.
func (FileLoader) Load(path string) (*nifti.Volume, error) { return nifti.Load(path) }

// Processor is the render-mode pipeline.Processor: one PNG per item.
type Processor struct {
	Config   config.GlassBrain
	Loader   Loader
	Renderer Renderer
}

// NewProcessor returns a Processor that loads NIfTI files and renders PNGs.
func NewProcessor(cfg config.GlassBrain) *Processor {
	return &Processor{Config: cfg, Loader: FileLoader{}, Renderer: PNGRenderer{}}
}

// Name implements pipeline.Processor.
func (p *Processor) Name() string { return "glassbrain" }

// Options derives the render options for one volume. Color limits are
// symmetric: vmax = max(|min|, |max|) and vmin = -vmax, so zero always maps
// to the colormap midpoint.
func (p *Processor) Options(vol *nifti.Volume, item layout.Item) RenderOptions {
	vmax := vol.SymmetricBound()
	return RenderOptions{
		DisplayMode: p.Config.DisplayMode,
		Colormap:    p.Config.Colormap,
		VMin:        -vmax,
		VMax:        vmax,
		Threshold:   p.Config.Threshold,
		Title:       layout.Title(item.VariantKey, p.Config.StripTokens),
		Colorbar:    p.Config.Colorbar,
		Scale:       p.Config.Scale,
	}
}

// Process implements pipeline.Processor. The image is rendered to a
// temporary file in the target directory and renamed over the target, so an
// existing image is replaced only by a complete one.
func (p *Processor) Process(ctx context.Context, item layout.Item, target layout.Target) pipeline.Result {
	if err := ctx.Err(); err != nil {
		return pipeline.Fail(item, target, err, "")
	}
	vol, err := p.Loader.Load(item.Path)
	if err != nil {
		return pipeline.Fail(item, target, fmt.Errorf("load volume: %w", err), "")
	}
	opts := p.Options(vol, item)

	err = writeAtomic(target, func(w io.Writer) error {
		return p.Renderer.Render(w, vol, opts)
	})
	if err != nil {
		if !errors.Is(err, ErrRender) {
			err = fmt.Errorf("%w: %v", ErrRender, err)
		}
		return pipeline.Fail(item, target, err, "")
	}
	return pipeline.Succeed(item, target, "Created: "+target.Path())
}

func writeAtomic(target layout.Target, render func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(target.Dir, "."+target.Filename+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrRender, r)
		}
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = render(tmp); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close image: %w", err)
	}
	if err = os.Rename(tmp.Name(), target.Path()); err != nil {
		return fmt.Errorf("replace %s: %w", target.Path(), err)
	}
	return nil
}
