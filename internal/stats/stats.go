// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/verte-zerg/tuifitts/internal/model"
	"github.com/verte-zerg/tuifitts/internal/schedule"
)

const sparkChars = " .:-=+*#%@"

// IndexOfDifficulty returns the Shannon index of difficulty log2(D/W + 1) in bits.
func IndexOfDifficulty(distance, width float64) float64 {
	if width <= 0 || distance < 0 {
		return 0
	}
	return math.Log2(distance/width + 1)
}

// Throughput returns bits per second for a trial of the given difficulty.
func Throughput(id float64, elapsedMs int64) float64 {
	if elapsedMs <= 0 {
		return 0
	}
	return id / (float64(elapsedMs) / 1000.0)
}

// ErrorRate returns the share of presses that missed: (clicks-1)/clicks.
func ErrorRate(clicks int) float64 {
	if clicks <= 0 {
		return 0
	}
	return float64(clicks-1) / float64(clicks)
}

// TrialMetrics holds derived values for one trial.
type TrialMetrics struct {
	Distance   float64
	ID         float64
	Throughput float64
	ErrorRate  float64
}

// Metrics derives the pointing metrics of rec. Distance runs from the start point to the click.
func Metrics(rec model.TrialRecord) TrialMetrics {
	distance := rec.Start.Dist(rec.Click)
	id := IndexOfDifficulty(distance, float64(rec.TargetWidth))
	m := TrialMetrics{
		Distance:  distance,
		ID:        id,
		ErrorRate: ErrorRate(rec.Clicks),
	}
	if rec.Timed {
		m.Throughput = Throughput(id, rec.ElapsedMs)
	}
	return m
}

// ConditionSummary aggregates the trials of one condition.
type ConditionSummary struct {
	Condition      string
	Trials         int
	TimedTrials    int
	MeanMs         float64
	MeanID         float64
	MeanThroughput float64
	ErrorRate      float64
}

// SummarizeConditions groups trials by condition in condition order.
// Unknown condition names sort after the known ones.
func SummarizeConditions(trials []model.StoredTrial) []ConditionSummary {
	type acc struct {
		trials, timed, clicks int
		ms, id, tp            float64
	}
	groups := map[string]*acc{}
	for _, t := range trials {
		a, ok := groups[t.Condition]
		if !ok {
			a = &acc{}
			groups[t.Condition] = a
		}
		m := Metrics(t.TrialRecord)
		a.trials++
		a.clicks += t.Clicks
		a.id += m.ID
		if t.Timed {
			a.timed++
			a.ms += float64(t.ElapsedMs)
			a.tp += m.Throughput
		}
	}
	out := make([]ConditionSummary, 0, len(groups))
	for name, a := range groups {
		s := ConditionSummary{
			Condition:   name,
			Trials:      a.trials,
			TimedTrials: a.timed,
			MeanID:      a.id / float64(a.trials),
		}
		if a.timed > 0 {
			s.MeanMs = a.ms / float64(a.timed)
			s.MeanThroughput = a.tp / float64(a.timed)
		}
		if a.clicks > 0 {
			s.ErrorRate = float64(a.clicks-a.trials) / float64(a.clicks)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return conditionLess(out[i].Condition, out[j].Condition)
	})
	return out
}

func conditionLess(a, b string) bool {
	ca, errA := schedule.ParseCondition(a)
	cb, errB := schedule.ParseCondition(b)
	switch {
	case errA == nil && errB == nil:
		return ca < cb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

// Fit is a least-squares line MT = Intercept + Slope*ID.
type Fit struct {
	Intercept float64
	Slope     float64
	R2        float64
	N         int
}

// FitMovementTime regresses movement time (ms) on index of difficulty over timed trials.
// It needs at least two distinct difficulties.
func FitMovementTime(trials []model.StoredTrial) (Fit, bool) {
	var xs, ys []float64
	for _, t := range trials {
		if !t.Timed {
			continue
		}
		xs = append(xs, Metrics(t.TrialRecord).ID)
		ys = append(ys, float64(t.ElapsedMs))
	}
	n := float64(len(xs))
	if len(xs) < 2 {
		return Fit{}, false
	}
	var sx, sy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
	}
	mx, my := sx/n, sy/n
	var sxx, sxy, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
	}
	if sxx < 1e-12 {
		return Fit{}, false
	}
	fit := Fit{N: len(xs)}
	fit.Slope = sxy / sxx
	fit.Intercept = my - fit.Slope*mx
	if syy > 0 {
		fit.R2 = (sxy * sxy) / (sxx * syy)
	}
	return fit, true
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum / float64(min(i+1, window))
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	last := len(sparkChars) - 1
	var b strings.Builder
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(last)))
		b.WriteByte(sparkChars[max(0, min(idx, last))])
	}
	return b.String()
}

// TimedSeries returns movement times and throughputs of timed trials in order.
func TimedSeries(trials []model.StoredTrial) (ms, throughput []float64) {
	for _, t := range trials {
		if !t.Timed {
			continue
		}
		ms = append(ms, float64(t.ElapsedMs))
		throughput = append(throughput, Metrics(t.TrialRecord).Throughput)
	}
	return ms, throughput
}

// RenderSummary prints overall figures for trials.
func RenderSummary(w io.Writer, trials []model.StoredTrial) error {
	if len(trials) == 0 {
		_, err := fmt.Fprintln(w, "No trials found.")
		return err
	}
	participants := map[int]struct{}{}
	var clicks, timed int
	var ms, tp float64
	for _, t := range trials {
		participants[t.Participant] = struct{}{}
		clicks += t.Clicks
		if t.Timed {
			timed++
			ms += float64(t.ElapsedMs)
			tp += Metrics(t.TrialRecord).Throughput
		}
	}
	errRate := 0.0
	if clicks > 0 {
		errRate = float64(clicks-len(trials)) / float64(clicks)
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Trials: %d (%d timed)", len(trials), timed),
		fmt.Sprintf("Participants: %d", len(participants)),
		fmt.Sprintf("Error rate: %.2f%%", errRate*100),
	}
	if timed > 0 {
		lines = append(lines,
			fmt.Sprintf("Avg movement time: %.1f ms", ms/float64(timed)),
			fmt.Sprintf("Avg throughput: %.2f bit/s", tp/float64(timed)),
		)
	}
	if fit, ok := FitMovementTime(trials); ok {
		lines = append(lines, fmt.Sprintf("Fit: MT = %.1f + %.1f * ID ms (R² %.2f, n=%d)", fit.Intercept, fit.Slope, fit.R2, fit.N))
	}
	if slow := SlowestConditions(SummarizeConditions(trials), 1); len(slow) > 0 {
		lines = append(lines, fmt.Sprintf("Slowest condition: %s", slow[0]))
	}
	lines = append(lines, "")
	return writeLines(w, lines)
}

// RenderConditionTable prints per-condition summaries.
func RenderConditionTable(w io.Writer, summaries []ConditionSummary) error {
	if len(summaries) == 0 {
		_, err := fmt.Fprintln(w, "No condition stats found.")
		return err
	}
	t := newTable("Condition", "Trials", "Timed", "Avg MT (ms)", "Avg ID (bit)", "TP (bit/s)", "Errors")
	t.alignRight(1, 2, 3, 4, 5, 6)
	for _, s := range summaries {
		t.add(
			s.Condition,
			fmt.Sprintf("%d", s.Trials),
			fmt.Sprintf("%d", s.TimedTrials),
			fmt.Sprintf("%.1f", s.MeanMs),
			fmt.Sprintf("%.2f", s.MeanID),
			fmt.Sprintf("%.2f", s.MeanThroughput),
			fmt.Sprintf("%.2f%%", s.ErrorRate*100),
		)
	}
	lines := append([]string{"Per-Condition"}, t.lines()...)
	return writeLines(w, append(lines, ""))
}

// RenderParticipantTable prints per-participant aggregates.
func RenderParticipantTable(w io.Writer, aggs []model.ParticipantAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No participant stats found.")
		return err
	}
	t := newTable("Participant", "Trials", "Avg MT (ms)", "Errors", "First", "Last")
	t.alignRight(0, 1, 2, 3)
	for _, a := range aggs {
		avg := 0.0
		if a.TimedTrials > 0 {
			avg = float64(a.ElapsedMsSum) / float64(a.TimedTrials)
		}
		errRate := 0.0
		if a.Clicks > 0 {
			errRate = float64(a.Clicks-a.Trials) / float64(a.Clicks)
		}
		t.add(
			fmt.Sprintf("%d", a.Participant),
			fmt.Sprintf("%d", a.Trials),
			fmt.Sprintf("%.1f", avg),
			fmt.Sprintf("%.2f%%", errRate*100),
			a.FirstAt.Local().Format("2006-01-02 15:04"),
			a.LastAt.Local().Format("2006-01-02 15:04"),
		)
	}
	lines := append([]string{"Per-Participant"}, t.lines()...)
	return writeLines(w, append(lines, ""))
}

// RenderCurves prints learning curves for movement time and throughput.
func RenderCurves(w io.Writer, trials []model.StoredTrial, window int) error {
	return RenderCurvesWithSize(w, trials, window, 0, defaultPlotHeight, false)
}

// RenderCurvesWithSize prints learning curves sized to a given total width.
func RenderCurvesWithSize(w io.Writer, trials []model.StoredTrial, window, totalWidth, height int, useColor bool) error {
	ms, tp := TimedSeries(trials)
	if len(ms) == 0 {
		return nil
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeriesWithColor(w, "Learning Curves", []Series{
		{Name: "MT ms", Values: MovingAverage(ms, window)},
		{Name: "TP bit/s", Values: MovingAverage(tp, window)},
	}, width, height, useColor)
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
