package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/backmassage/brainbatch/internal/layout"
)

var (
	// ErrInterrupted marks items never started because the run was cancelled.
	ErrInterrupted = errors.New("interrupted")
	// ErrPanic marks items whose processor panicked.
	ErrPanic = errors.New("processor panicked")
	// ErrLocked is returned when another run holds the output-root lock.
	ErrLocked = errors.New("output directory is locked by another run")
)

// Processor produces one artifact per item. Process must not return past its
// boundary with a panic; the runner recovers one anyway and records it as a
// failed Result.
type Processor interface {
	// Name is a short label for logs and reports, e.g. "glassbrain".
	Name() string
	Process(ctx context.Context, item layout.Item, target layout.Target) Result
}

// Result is the outcome of processing one item. Exactly one Result exists
// per discovered item.
type Result struct {
	Item      layout.Item
	Target    layout.Target
	Succeeded bool
	Message   string // Human-readable outcome; tool output on failure.
	Err       error  // nil on success.
	Duration  time.Duration
}

// Succeed returns a successful Result.
func Succeed(item layout.Item, target layout.Target, msg string) Result {
	return Result{Item: item, Target: target, Succeeded: true, Message: msg}
}

// Fail returns a failed Result carrying err. msg may hold extra detail such
// as captured tool output.
func Fail(item layout.Item, target layout.Target, err error, msg string) Result {
	return Result{Item: item, Target: target, Err: err, Message: msg}
}
