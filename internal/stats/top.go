package stats

import "sort"

// SlowestConditions returns up to n condition names ordered by mean movement time, slowest first.
// Conditions without timed trials are skipped.
func SlowestConditions(summaries []ConditionSummary, n int) []string {
	if n <= 0 || len(summaries) == 0 {
		return nil
	}
	timed := make([]ConditionSummary, 0, len(summaries))
	for _, s := range summaries {
		if s.TimedTrials > 0 {
			timed = append(timed, s)
		}
	}
	sort.Slice(timed, func(i, j int) bool {
		if timed[i].MeanMs == timed[j].MeanMs {
			return timed[i].Condition < timed[j].Condition
		}
		return timed[i].MeanMs > timed[j].MeanMs
	})
	n = min(n, len(timed))
	out := make([]string, 0, n)
	for _, s := range timed[:n] {
		out = append(out, s.Condition)
	}
	return out
}
