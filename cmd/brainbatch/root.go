package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backmassage/brainbatch/internal/config"
)

// commandContext carries global flags and the lazily loaded config through
// subcommands.
type commandContext struct {
	global    config.GlobalFlags
	cfg       *config.Config
	cfgPath   string
	cfgExists bool
}

// loadConfig loads the configuration file once and applies the global flags.
func (c *commandContext) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, path, exists, err := config.Load(c.global.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyGlobalFlags(cmd.Flags(), cfg, &c.global); err != nil {
		return nil, err
	}
	c.cfg, c.cfgPath, c.cfgExists = cfg, path, exists
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "brainbatch",
		Short:         "Batch glass-brain rendering and cluster extraction for statistical maps",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	config.BindGlobalFlags(rootCmd.PersistentFlags(), &ctx.global)

	rootCmd.AddCommand(newGlassBrainCommand(ctx))
	rootCmd.AddCommand(newAtlasCommand(ctx))
	rootCmd.AddCommand(newScoresCommand())
	rootCmd.AddCommand(newClassifierCommand())
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	return rootCmd
}
