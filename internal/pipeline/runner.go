package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/backmassage/brainbatch/internal/layout"
	"github.com/backmassage/brainbatch/internal/logging"
)

// Options configures one batch run.
type Options struct {
	Mode       string            // Label for logs and reports.
	Root       string            // Study root (or the token directory itself).
	Convention layout.Convention // Input convention.
	Output     layout.Output     // Output convention; Output.Root is the output root.
	Workers    int               // Items processed concurrently; <= 1 is sequential.
	Lock       bool              // Hold the output-root lock during the run.
}

// Run is the top-level batch entry point. It discovers items, resolves each
// target, processes every item regardless of earlier failures, and returns
// one Result per item in discovery order.
//
// The returned error is non-nil only when the run could not start: missing
// root, output root not creatable, or lock held elsewhere. Per-item failures
// are reported through the Summary.
func Run(ctx context.Context, opts Options, proc Processor, log *logging.Logger) (Summary, error) {
	s := Summary{
		RunID:      uuid.NewString(),
		Mode:       opts.Mode,
		Root:       opts.Root,
		OutputRoot: opts.Output.Root,
		StartedAt:  time.Now(),
	}
	if s.Mode == "" {
		s.Mode = proc.Name()
	}

	d, err := Discover(opts.Convention, opts.Root, log)
	if err != nil {
		log.Error("Discovery failed: %v", err)
		return s, err
	}
	s.Rejected = len(d.Rejected)
	s.MissingCategories = d.MissingCategories

	if len(d.Items) == 0 {
		log.Warn("No matching statistical maps found under %s", opts.Root)
		s.FinishedAt = time.Now()
		return s, nil
	}

	if err := os.MkdirAll(opts.Output.Root, 0o755); err != nil {
		err = fmt.Errorf("create output root: %w", err)
		log.Error("%v", err)
		return s, err
	}
	if opts.Lock {
		lock, err := acquireLock(opts.Output.Root)
		if err != nil {
			log.Error("%v", err)
			return s, err
		}
		defer func() { _ = lock.Unlock() }()
	}

	logBatchHeader(log, &s, proc, len(d.Items), opts.Workers)

	s.Results = make([]Result, len(d.Items))
	if opts.Workers <= 1 {
		for i, item := range d.Items {
			s.Results[i] = processItem(ctx, proc, opts.Output, item, i, len(d.Items), log)
		}
	} else {
		runPool(ctx, proc, opts, d.Items, s.Results, log)
	}
	if ctx.Err() != nil {
		log.Warn("Interrupted")
	}

	s.tally()
	s.FinishedAt = time.Now()
	logSummary(log, &s)
	return s, nil
}

// runPool fans items out to a bounded set of workers. Each result is written
// to its item's index, so order and attribution match the sequential path.
func runPool(ctx context.Context, proc Processor, opts Options, items []layout.Item, results []Result, log *logging.Logger) {
	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := opts.Workers
	if workers > len(items) {
		workers = len(items)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = processItem(ctx, proc, opts.Output, items[i], i, len(items), log)
			}
		}()
	}
	for i := range items {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// processItem resolves the target and runs the processor for one item. It
// always returns a Result: cancellation, directory errors and panics become
// failed Results.
func processItem(ctx context.Context, proc Processor, out layout.Output, item layout.Item, idx, total int, log *logging.Logger) Result {
	target := out.Resolve(item)
	if ctx.Err() != nil {
		return Fail(item, target, ErrInterrupted, "")
	}

	log.Info("[%d/%d] %s/%s", idx+1, total, item.Category, filepath.Base(item.Path))
	start := time.Now()

	var res Result
	if err := target.Ensure(); err != nil {
		res = Fail(item, target, err, "")
	} else {
		res = safeProcess(ctx, proc, item, target)
	}
	if res.Duration == 0 {
		res.Duration = time.Since(start)
	}
	res.Item, res.Target = item, target

	if res.Succeeded {
		logSuccess(log, item, target, res.Message)
		log.Debug("%s finished in %s", item.VariantKey, res.Duration.Round(time.Millisecond))
	} else {
		log.Error("Failed %s: %v", item.Path, res.Err)
		logDetail(log, res.Message)
	}
	return res
}

func safeProcess(ctx context.Context, proc Processor, item layout.Item, target layout.Target) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Fail(item, target, fmt.Errorf("%w: %v", ErrPanic, r), "")
		}
	}()
	return proc.Process(ctx, item, target)
}

// logSuccess reports a finished item. File targets carry a one-line status
// message; directory targets carry the tool's stdout, which is only shown
// when verbose.
func logSuccess(log *logging.Logger, item layout.Item, target layout.Target, msg string) {
	if target.Filename != "" {
		log.Success("%s", firstLine(msg, "Created: "+target.Path()))
		return
	}
	log.Success("Successfully processed %s -> %s", filepath.Base(item.Path), target.Dir)
	for _, l := range strings.Split(strings.TrimRight(msg, "\n"), "\n") {
		if l != "" {
			log.Debug("  %s", l)
		}
	}
}

// logDetail prints the last 20 lines of captured tool output.
func logDetail(log *logging.Logger, detail string) {
	detail = strings.TrimSpace(detail)
	if detail == "" {
		return
	}
	lines := strings.Split(detail, "\n")
	start := 0
	if len(lines) > 20 {
		start = len(lines) - 20
	}
	for _, l := range lines[start:] {
		log.Error("  %s", l)
	}
}

func firstLine(s, fallback string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// --- Logging helpers ---

func logBatchHeader(log *logging.Logger, s *Summary, proc Processor, n, workers int) {
	log.Info("Run %s (%s)", s.RunID, proc.Name())
	log.Info("Found %d statistical map(s) under %s", n, s.Root)
	if s.Rejected > 0 {
		log.Warn("%d path(s) rejected by the directory convention", s.Rejected)
	}
	if workers > 1 {
		log.Info("Workers: %d", workers)
	}
	log.Info("Output: %s", s.OutputRoot)
}

func logSummary(log *logging.Logger, s *Summary) {
	log.Info("==============================")
	log.Info("Processing complete: %d/%d succeeded", s.Succeeded, s.Total)
	if s.Failed > 0 {
		log.Warn("%d item(s) failed", s.Failed)
	}
	log.Info("Output saved to: %s", s.OutputRoot)
	log.Debug("Elapsed: %s", s.Elapsed().Round(time.Millisecond))
}
