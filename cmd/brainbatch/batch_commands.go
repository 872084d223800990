package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/backmassage/brainbatch/internal/atlas"
	"github.com/backmassage/brainbatch/internal/check"
	"github.com/backmassage/brainbatch/internal/config"
	"github.com/backmassage/brainbatch/internal/display"
	"github.com/backmassage/brainbatch/internal/glassbrain"
	"github.com/backmassage/brainbatch/internal/layout"
	"github.com/backmassage/brainbatch/internal/logging"
	"github.com/backmassage/brainbatch/internal/pipeline"
)

func newGlassBrainCommand(ctx *commandContext) *cobra.Command {
	var runFlags config.RunFlags
	var gbFlags config.GlassBrainFlags

	cmd := &cobra.Command{
		Use:   "glassbrain [root]",
		Short: "Render a glass-brain PNG for every matching statistical map",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig(cmd)
			if err != nil {
				return err
			}
			config.ApplyGlassBrainFlags(cmd.Flags(), cfg, &gbFlags)
			if err := config.ApplyRunFlags(cmd.Flags(), cfg, config.ModeGlassBrain, rootArg(args), &runFlags); err != nil {
				return err
			}
			return runBatch(cmd, cfg, config.ModeGlassBrain)
		},
	}
	config.BindRunFlags(cmd.Flags(), &runFlags)
	config.BindGlassBrainFlags(cmd.Flags(), &gbFlags)
	return cmd
}

func newAtlasCommand(ctx *commandContext) *cobra.Command {
	var runFlags config.RunFlags
	var atlasFlags config.AtlasFlags

	cmd := &cobra.Command{
		Use:   "atlas [root]",
		Short: "Run atlasreader cluster extraction for every declared comparison",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig(cmd)
			if err != nil {
				return err
			}
			config.ApplyAtlasFlags(cmd.Flags(), cfg, &atlasFlags)
			if err := config.ApplyRunFlags(cmd.Flags(), cfg, config.ModeAtlas, rootArg(args), &runFlags); err != nil {
				return err
			}
			return runBatch(cmd, cfg, config.ModeAtlas)
		},
	}
	config.BindRunFlags(cmd.Flags(), &runFlags)
	config.BindAtlasFlags(cmd.Flags(), &atlasFlags)
	return cmd
}

func rootArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// runBatch validates paths, runs one mode over the study root, and prints
// the optional table and report. It returns errReported when the run
// aborted or any item failed, so the process exits 1.
func runBatch(cmd *cobra.Command, cfg *config.Config, mode config.Mode) error {
	out := cmd.OutOrStdout()
	log, err := logging.NewWithWriters(cfg, out, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer log.Close()

	display.PrintBanner(out, log.Colors())

	opts, proc := batchSetup(cfg, mode, log, cmd.ErrOrStderr())

	// Input must exist; output must not be inside the discovery tree.
	rootAbs, err := absPath(cfg.Root)
	if err != nil {
		log.Error("Root not found: %s", cfg.Root)
		return fmt.Errorf("%w: %w", errReported, layout.ErrRootNotFound)
	}
	outputAbs, err := resolvePath(opts.Output.Root)
	if err != nil {
		log.Error("Cannot resolve output path: %s", opts.Output.Root)
		return errReported
	}
	if err := cfg.ValidatePaths(opts.Convention.SearchBase(rootAbs), outputAbs); err != nil {
		log.Error("%v", err)
		log.Error("Choose an output path outside: %s", opts.Convention.SearchBase(rootAbs))
		return errReported
	}

	log.Info("=== brainbatch v%s: %s ===", version, mode)
	log.Info("In:  %s", cfg.Root)
	log.Info("Out: %s", opts.Output.Root)

	if mode == config.ModeAtlas {
		// A missing tool fails every item rather than aborting the run.
		if err := check.CheckDeps(cfg); err != nil {
			log.Warn("%v", err)
		}
	}

	s, err := pipeline.Run(cmd.Context(), opts, proc, log)
	if err != nil {
		return fmt.Errorf("%w: %w", errReported, err)
	}

	if cfg.Run.Table && len(s.Results) > 0 {
		fmt.Fprintln(out, display.RenderResults(&s))
	}
	if cfg.Run.Report != "" {
		if err := pipeline.WriteReport(cfg.Run.Report, &s); err != nil {
			log.Error("%v", err)
			return errReported
		}
		log.Info("Report written to: %s", cfg.Run.Report)
	}

	if s.Failed > 0 {
		if errors.Is(cmd.Context().Err(), context.Canceled) {
			return context.Canceled
		}
		return errReported
	}
	return nil
}

// batchSetup builds the pipeline options and processor for a mode.
func batchSetup(cfg *config.Config, mode config.Mode, log *logging.Logger, stderr io.Writer) (pipeline.Options, pipeline.Processor) {
	opts := pipeline.Options{
		Mode:    string(mode),
		Root:    cfg.Root,
		Workers: cfg.Run.Workers,
		Lock:    cfg.Run.Lock,
	}
	if mode == config.ModeAtlas {
		opts.Convention = layout.Convention(cfg.Atlas.Layout)
		opts.Output = layout.Output{Root: cfg.AtlasOutputDir(), PerVariant: true}
		proc := atlas.NewProcessor(cfg.Atlas)
		if log.Verbose() && cfg.Run.Workers <= 1 {
			proc.Echo = stderr
		}
		return opts, proc
	}
	opts.Convention = layout.Convention(cfg.GlassBrain.Layout)
	opts.Output = layout.Output{Root: cfg.GlassBrainOutputDir(), Suffix: cfg.GlassBrain.Suffix, Ext: "png"}
	return opts, glassbrain.NewProcessor(cfg.GlassBrain)
}

// absPath returns the absolute path with symlinks resolved, for comparing
// the discovery tree with the output hierarchy.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// resolvePath is absPath for a path that may not exist yet: symlinks are
// resolved on the deepest existing ancestor and the rest is appended.
func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	var rest []string
	for cur := abs; ; cur = filepath.Dir(cur) {
		if _, err := os.Lstat(cur); err == nil {
			resolved, err := filepath.EvalSymlinks(cur)
			if err != nil {
				return "", err
			}
			for i := len(rest) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, rest[i])
			}
			return resolved, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs, nil
		}
		rest = append(rest, filepath.Base(cur))
	}
}
