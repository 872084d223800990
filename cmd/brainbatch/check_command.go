package main

import (
	"github.com/spf13/cobra"

	"github.com/backmassage/brainbatch/internal/check"
	"github.com/backmassage/brainbatch/internal/config"
	"github.com/backmassage/brainbatch/internal/logging"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var binary string

	cmd := &cobra.Command{
		Use:   "check [root]",
		Short: "Check for atlasreader and preview what each mode would process",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				root, err := config.ExpandPath(config.NormalizeDirArg(args[0]))
				if err != nil {
					return err
				}
				cfg.Root = root
			}
			if cmd.Flags().Changed("binary") {
				cfg.Atlas.Binary = binary
			}

			log, err := logging.NewWithWriters(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer log.Close()

			if ctx.cfgExists {
				log.Info("Config: %s", ctx.cfgPath)
			} else {
				log.Info("Config: defaults (no file at %s)", ctx.cfgPath)
			}
			if problems := check.RunCheck(cfg, log); problems > 0 {
				log.Warn("%d problem(s) found", problems)
				return errReported
			}
			log.Success("All checks passed")
			return nil
		},
	}
	cmd.Flags().StringVar(&binary, "binary", "", "Cluster-extraction executable to check (default: atlasreader)")
	return cmd
}
