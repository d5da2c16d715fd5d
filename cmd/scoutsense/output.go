package main

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/stitts-dev/scoutsense/internal/analytics/features"
	"github.com/stitts-dev/scoutsense/internal/analytics/ml"
	"github.com/stitts-dev/scoutsense/internal/analytics/valuation"
	"github.com/stitts-dev/scoutsense/internal/models"
	"github.com/stitts-dev/scoutsense/internal/scouting"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func formatPick(pick float64) string {
	if math.IsNaN(pick) {
		return "N/A"
	}
	return fmt.Sprintf("%d", int(pick))
}

func printTrainingReport(w io.Writer, source string, r scouting.TrainingReport) {
	fmt.Fprintf(w, "Trained on %s (%d players) in %s\n", source, r.ComparedRows, r.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  draft position: %d train / %d test rows, %d features, RMSE %.2f, R2 %.3f\n",
		r.Regression.TrainRows, r.Regression.TestRows, r.Regression.Features, r.Regression.RMSE, r.Regression.R2)
	fmt.Fprintf(w, "  success:        %d train / %d test rows, accuracy %.3f, success rate %.1f%%\n",
		r.Classification.TrainRows, r.Classification.TestRows, r.Classification.Accuracy, r.Classification.SuccessRate*100)
}

func printPrediction(w io.Writer, p scouting.Prediction) {
	rule := strings.Repeat("=", 50)
	fmt.Fprintln(w, "DRAFT POSITION PREDICTION")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Player:               %s\n", p.Player.Name)
	fmt.Fprintf(w, "Position:             %s\n", p.Player.Pos)
	fmt.Fprintf(w, "College:              %s\n", p.Player.College)
	fmt.Fprintf(w, "Actual draft pick:    %s\n", formatPick(p.Player.DraftPick))
	fmt.Fprintf(w, "Predicted draft pick: %d\n", p.PredictedPick)
	if !math.IsNaN(p.Player.DraftPick) {
		diff := p.PredictedPick - p.Player.Pick()
		if diff < 0 {
			diff = -diff
		}
		fmt.Fprintf(w, "Difference:           %d picks\n", diff)
	}
	fmt.Fprintf(w, "Success probability:  %.1f%% (rounds 1-%d)\n", p.SuccessProbability*100, p.Threshold)
	fmt.Fprintln(w, rule)
}

func printSimilar(w io.Writer, similar []ml.SimilarPlayer) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "NAME\tPOS\tPICK\tCOLLEGE\tSIMILARITY")
	for _, s := range similar {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.4f\n", s.Name, s.Pos, formatPick(s.DraftPick), s.College, s.SimilarityScore)
	}
	return tw.Flush()
}

func printRecords(w io.Writer, recs []models.PlayerRecord) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "NAME\tPOS\tTEAM\tPICK\tCOLLEGE\tAGE\tSCOUT GRADE")
	for _, r := range recs {
		grade := "N/A"
		if v, ok := r.Feature(features.ScoutGrade); ok {
			grade = fmt.Sprintf("%.1f", v)
		}
		age := "N/A"
		if !math.IsNaN(r.Age) {
			age = fmt.Sprintf("%.0f", r.Age)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", r.Name, r.Pos, r.Team, formatPick(r.DraftPick), r.College, age, grade)
	}
	return tw.Flush()
}

func printImportance(w io.Writer, imp []ml.FeatureImportance) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "#\tFEATURE\t\tIMPORTANCE")
	for i, fi := range imp {
		bar := strings.Repeat("#", int(fi.Importance*50))
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.4f\n", i+1, fi.Feature, bar, fi.Importance)
	}
	return tw.Flush()
}

func printPickValues(w io.Writer, values []valuation.PickValue) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "NAME\tPOS\tACTUAL\tPREDICTED\tDIFFERENCE")
	for _, v := range values {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%+d\n", v.Name, v.Pos, v.ActualPick, v.PredictedPick, v.PickDifference)
	}
	return tw.Flush()
}

func printRounds(w io.Writer, rounds []valuation.RoundSummary) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ROUND\tPLAYERS\tAVG SUCCESS\tAVG PICK")
	for _, r := range rounds {
		fmt.Fprintf(tw, "%d\t%d\t%.1f%%\t%.0f\n", r.Round, r.Players, r.AverageProbability*100, r.AveragePick)
	}
	return tw.Flush()
}
