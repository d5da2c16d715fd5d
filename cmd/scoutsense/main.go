package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stitts-dev/scoutsense/internal/analytics/ml"
	"github.com/stitts-dev/scoutsense/internal/scouting"
	"github.com/stitts-dev/scoutsense/pkg/config"
	"github.com/stitts-dev/scoutsense/pkg/logger"
)

// app carries what every subcommand needs after the root pre-run.
type app struct {
	cfg       *config.Config
	dataPath  string
	logLevel  string
	autoTrain bool
	exact     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.GetLogger().Warn(userMessage(err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "scoutsense",
		Short:         "NFL draft feature engineering, pick prediction and player comps",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			a.cfg = cfg

			level := cfg.LogLevel
			if a.logLevel != "" {
				level = a.logLevel
			}
			logger.InitLogger(level, cfg.IsDevelopment())

			if !cmd.Flags().Changed("auto-train") {
				a.autoTrain = cfg.AutoTrain
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.dataPath, "data", "", "draft CSV to load (defaults to SCOUTSENSE_DATA, then the data directory)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level override")
	flags.BoolVar(&a.autoTrain, "auto-train", true, "train models before answering queries")
	flags.BoolVar(&a.exact, "exact", false, "match player names exactly instead of by substring")

	root.AddCommand(
		newEngineerCmd(a),
		newMergeCmd(a),
		newDescribeCmd(),
		newTrainCmd(a),
		newPredictCmd(a),
		newSimilarCmd(a),
		newCompareCmd(a),
		newImportanceCmd(a),
		newValuationCmd(a),
		newSuccessByRoundCmd(a),
		newPositionsCmd(a),
	)
	return root
}

// workbench loads the configured data and, with auto-train on, trains it.
func (a *app) workbench(ctx context.Context) (*scouting.Workbench, error) {
	opts, err := scouting.OptionsFromConfig(a.cfg)
	if err != nil {
		return nil, err
	}
	if a.exact {
		opts.MatchPolicy = ml.MatchExact
	}

	path, err := scouting.ResolveDataPath(a.dataPath, a.cfg.DataPath, a.cfg.DataDir)
	if err != nil {
		return nil, err
	}

	w := scouting.New(opts)
	if err := w.Load(path); err != nil {
		return nil, err
	}
	if a.autoTrain {
		if _, err := w.Train(ctx); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// userMessage names the missing precondition for the errors a user can fix.
func userMessage(err error) string {
	switch {
	case errors.Is(err, scouting.ErrNoData):
		return "No data loaded: pass --data or set SCOUTSENSE_DATA (" + err.Error() + ")"
	case errors.Is(err, ml.ErrNotTrained):
		return "No model trained: run with --auto-train or call train first"
	case errors.Is(err, ml.ErrPlayerNotFound):
		return "No such player: " + strings.TrimPrefix(err.Error(), ml.ErrPlayerNotFound.Error()+": ")
	case errors.Is(err, context.Canceled):
		return "Interrupted"
	default:
		return "Error: " + err.Error()
	}
}
