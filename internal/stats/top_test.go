package stats

import "testing"

func TestSlowestConditions(t *testing.T) {
	summaries := []ConditionSummary{
		{Condition: "Circle", TimedTrials: 4, MeanMs: 610},
		{Condition: "Square", TimedTrials: 4, MeanMs: 720},
		{Condition: "CircleHelper", TimedTrials: 0},
		{Condition: "SquareHelper", TimedTrials: 2, MeanMs: 720},
	}
	top := SlowestConditions(summaries, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 conditions, got %d", len(top))
	}
	if top[0] != "Square" || top[1] != "SquareHelper" {
		t.Fatalf("unexpected order: %v", top)
	}
	if all := SlowestConditions(summaries, 10); len(all) != 3 {
		t.Fatalf("expected untimed condition to be skipped, got %v", all)
	}
}
