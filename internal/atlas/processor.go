package atlas

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/backmassage/brainbatch/internal/config"
	"github.com/backmassage/brainbatch/internal/layout"
	"github.com/backmassage/brainbatch/internal/pipeline"
)

// Processor is the extraction-mode pipeline.Processor: one atlasreader run
// per item, writing into a per-variant directory.
type Processor struct {
	Config config.Atlas
	Echo   io.Writer // Optional live copy of tool stderr.
}

// NewProcessor returns a Processor for cfg.
func NewProcessor(cfg config.Atlas) *Processor {
	return &Processor{Config: cfg}
}

// Name implements pipeline.Processor.
func (p *Processor) Name() string { return "atlas" }

// Process implements pipeline.Processor. A zero exit is a success carrying
// the tool's stdout; anything else is a failure whose Err classifies it and
// whose Message holds the captured streams.
func (p *Processor) Process(ctx context.Context, item layout.Item, target layout.Target) pipeline.Result {
	if err := ctx.Err(); err != nil {
		return pipeline.Fail(item, target, err, "")
	}
	args := Build(p.Config, item, target)
	res := Execute(ctx, args, ExecOptions{
		Timeout: time.Duration(p.Config.TimeoutSeconds) * time.Second,
		Echo:    p.Echo,
	})

	if res.Err == nil {
		return pipeline.Succeed(item, target, res.Stdout)
	}

	switch {
	case res.TimedOut:
		return pipeline.Fail(item, target,
			fmt.Errorf("%w after %ds", ErrTimeout, p.Config.TimeoutSeconds), res.Stderr)
	case !res.Started && ctx.Err() == nil:
		return pipeline.Fail(item, target, fmt.Errorf("%w: %s: %v", ErrToolNotFound, args[0], res.Err), "")
	case ctx.Err() != nil:
		return pipeline.Fail(item, target, ctx.Err(), res.Stderr)
	}

	te := &ToolError{
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		Hint:     ClassifyFailure(res.Stderr),
	}
	return pipeline.Fail(item, target, te, te.Detail())
}
