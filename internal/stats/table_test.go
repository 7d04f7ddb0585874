package stats

import "testing"

func TestTableAlignsColumns(t *testing.T) {
	tbl := newTable("Condition", "Trials", "TP")
	tbl.alignRight(1, 2)
	tbl.add("Circle", "12", "4.10")
	tbl.add("SquareHelper", "3", "12.75")

	lines := tbl.lines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Condition    Trials    TP" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "Circle           12  4.10" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "SquareHelper      3 12.75" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestTableWideRunes(t *testing.T) {
	tbl := newTable("名前", "n")
	tbl.add("ab", "1")
	lines := tbl.lines()
	if lines[1] != "ab   1" {
		t.Fatalf("expected padding to display width, got %q", lines[1])
	}
}
