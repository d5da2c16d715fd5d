package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stitts-dev/scoutsense/internal/analytics/features"
	"github.com/stitts-dev/scoutsense/internal/dataset"
	"github.com/stitts-dev/scoutsense/internal/scouting"
	"github.com/stitts-dev/scoutsense/pkg/logger"
)

func newEngineerCmd(a *app) *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:   "engineer",
		Short: "Add engineered feature columns to a raw draft CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in == "" {
				in = a.dataPath
			}
			path, err := scouting.ResolveDataPath(in, a.cfg.DataPath, a.cfg.DataDir)
			if err != nil {
				return err
			}
			raw, err := dataset.LoadCSV(path)
			if err != nil {
				return err
			}
			engineered, err := features.Engineer(raw)
			if err != nil {
				return err
			}
			if out == "" {
				return engineered.WriteCSV(cmd.OutOrStdout())
			}
			if err := engineered.SaveCSV(out); err != nil {
				return err
			}
			logger.WithDataset(out, engineered.Len()).Info("Engineered table written")
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "raw draft CSV (defaults to --data)")
	cmd.Flags().StringVar(&out, "out", "", "output CSV (defaults to stdout)")
	return cmd
}

func newMergeCmd(a *app) *cobra.Command {
	var engineeredPath, rawPath, out string
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Combine multi-year raw draft data with one engineered year",
		RunE: func(cmd *cobra.Command, args []string) error {
			engineered, err := dataset.LoadCSV(engineeredPath)
			if err != nil {
				return err
			}
			if !features.IsEngineered(engineered) {
				if engineered, err = features.Engineer(engineered); err != nil {
					return err
				}
			}
			raw, err := dataset.LoadCSV(rawPath)
			if err != nil {
				return err
			}
			merged, err := dataset.Merge(engineered, raw, dataset.MergeOptions{
				BaseYear:       a.cfg.MergeBaseYear,
				RowsPerYear:    a.cfg.MergeRowsPerYear,
				EngineeredYear: a.cfg.MergeEngineeredYear,
			})
			if err != nil {
				return err
			}
			if out == "" {
				return merged.WriteCSV(cmd.OutOrStdout())
			}
			return merged.SaveCSV(out)
		},
	}
	cmd.Flags().StringVar(&engineeredPath, "engineered", "", "engineered single-year CSV")
	cmd.Flags().StringVar(&rawPath, "raw", "", "raw multi-year CSV")
	cmd.Flags().StringVar(&out, "out", "", "output CSV (defaults to stdout)")
	_ = cmd.MarkFlagRequired("engineered")
	_ = cmd.MarkFlagRequired("raw")
	return cmd
}

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe [feature...]",
		Short: "Describe the engineered features",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "FEATURE\tDESCRIPTION")
			if len(args) == 0 {
				for _, d := range features.Descriptions() {
					fmt.Fprintf(tw, "%s\t%s\n", d.Name, d.Description)
				}
				return tw.Flush()
			}
			for _, name := range args {
				desc, ok := features.Describe(name)
				if !ok {
					desc = "(unknown feature)"
				}
				fmt.Fprintf(tw, "%s\t%s\n", name, desc)
			}
			return tw.Flush()
		},
	}
}

func newTrainCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train every model and report hold-out diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.autoTrain = false
			w, err := a.workbench(cmd.Context())
			if err != nil {
				return err
			}
			report, err := w.Train(cmd.Context())
			if err != nil {
				return err
			}
			printTrainingReport(cmd.OutOrStdout(), w.Source(), report)
			return nil
		},
	}
}

func newPredictCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "predict NAME...",
		Short: "Predict draft position and success probability",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.workbench(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range args {
				pred, err := w.Predict(name)
				if err != nil {
					return err
				}
				printPrediction(cmd.OutOrStdout(), pred)
			}
			return nil
		},
	}
}

func newSimilarCmd(a *app) *cobra.Command {
	var n int
	var allPositions bool
	cmd := &cobra.Command{
		Use:   "similar NAME",
		Short: "Find statistically similar players",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.workbench(cmd.Context())
			if err != nil {
				return err
			}
			similar, err := w.Similar(args[0], n, !allPositions)
			if err != nil {
				return err
			}
			if len(similar) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No similar players found")
				return nil
			}
			return printSimilar(cmd.OutOrStdout(), similar)
		},
	}
	cmd.Flags().IntVarP(&n, "n", "n", 5, "number of players to return")
	cmd.Flags().BoolVar(&allPositions, "all-positions", false, "compare across every position")
	return cmd
}

func newCompareCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compare NAME NAME...",
		Short: "Show players side by side",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.workbench(cmd.Context())
			if err != nil {
				return err
			}
			recs, err := w.Compare(args)
			if err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), recs)
		},
	}
}

func newImportanceCmd(a *app) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "importance",
		Short: "List the features that drive the pick prediction",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.workbench(cmd.Context())
			if err != nil {
				return err
			}
			imp, err := w.Importance(top)
			if err != nil {
				return err
			}
			return printImportance(cmd.OutOrStdout(), imp)
		},
	}
	cmd.Flags().IntVar(&top, "top", 10, "number of features to list")
	return cmd
}

func newValuationCmd(a *app) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "valuation",
		Short: "List the most overvalued and undervalued picks",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.workbench(cmd.Context())
			if err != nil {
				return err
			}
			over, under, err := w.Valuation(top)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "TOP %d OVERVALUED PICKS (drafted earlier than predicted)\n", top)
			if err := printPickValues(out, over); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nTOP %d UNDERVALUED PICKS (drafted later than predicted)\n", top)
			return printPickValues(out, under)
		},
	}
	cmd.Flags().IntVar(&top, "top", 5, "players per list")
	return cmd
}

func newSuccessByRoundCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "success-by-round",
		Short: "Average success probability per draft round",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.workbench(cmd.Context())
			if err != nil {
				return err
			}
			rounds, err := w.SuccessByRound()
			if err != nil {
				return err
			}
			return printRounds(cmd.OutOrStdout(), rounds)
		},
	}
}

func newPositionsCmd(a *app) *cobra.Command {
	var positions, per int
	cmd := &cobra.Command{
		Use:   "positions",
		Short: "Show the earliest picks at the first few positions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.autoTrain = false
			w, err := a.workbench(cmd.Context())
			if err != nil {
				return err
			}
			groups, err := w.PositionLeaders(positions, per)
			if err != nil {
				return err
			}
			for _, g := range groups {
				fmt.Fprintf(cmd.OutOrStdout(), "\n[%s] Top %d draft picks\n", strings.ToUpper(g.Pos), len(g.Players))
				if err := printRecords(cmd.OutOrStdout(), g.Players); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&positions, "positions", 3, "number of positions")
	cmd.Flags().IntVar(&per, "per", 3, "players per position")
	return cmd
}
