package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/backmassage/brainbatch/internal/summary"
)

func newScoresCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scores <csv|xlsx>",
		Short: "Print participant T-scores sorted by subject with the median",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scores, err := summary.LoadScores(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), summary.RenderScores(scores))
			return nil
		},
	}
}

func newClassifierCommand() *cobra.Command {
	var metricFlag string
	var printSample bool

	cmd := &cobra.Command{
		Use:   "classifier [results.toml]",
		Short: "Print classifier accuracies ranked by metric with significance markers",
		Long: "Print classifier accuracies ranked by metric with significance markers.\n" +
			"Without a file the study's published results are shown.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if printSample {
				fmt.Fprint(out, summary.SampleClassifierResults())
				return nil
			}

			var (
				results []summary.ClassifierResult
				err     error
			)
			if len(args) == 1 {
				results, err = summary.LoadClassifierResults(args[0])
			} else {
				results, err = summary.DecodeClassifierResults(strings.NewReader(summary.SampleClassifierResults()))
			}
			if err != nil {
				return err
			}

			metrics := []summary.Metric{summary.MetricCV, summary.MetricLOO}
			if cmd.Flags().Changed("metric") {
				m, err := summary.ParseMetric(metricFlag)
				if err != nil {
					return err
				}
				metrics = []summary.Metric{m}
			}
			for i, m := range metrics {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprint(out, summary.RenderClassifier(results, m))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&metricFlag, "metric", "m", "", "Rank by 'cv' or 'loo' (default: both tables)")
	cmd.Flags().BoolVar(&printSample, "sample", false, "Print the results file template and exit")
	return cmd
}
