package timeutil

import (
	"testing"
	"time"
)

func TestParseWindowDefault(t *testing.T) {
	w, err := ParseWindow("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Days != 7 {
		t.Fatalf("expected 7 days, got %d", w.Days)
	}
	if w.String() != "1w" {
		t.Fatalf("expected label 1w, got %s", w.String())
	}
}

func TestParseWindowComposite(t *testing.T) {
	w, err := ParseWindow("1w 3d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Days != 10 {
		t.Fatalf("expected 10 days, got %d", w.Days)
	}
	if w.String() != "1w3d" {
		t.Fatalf("unexpected label: %s", w.String())
	}
}

func TestParseWindowErrors(t *testing.T) {
	for _, in := range []string{"abc", "3h", "2w-", "-1d"} {
		if _, err := ParseWindow(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestWindowContains(t *testing.T) {
	w := Window{Days: 3}
	if w.Contains(-1) {
		t.Fatalf("past dates are outside the window")
	}
	if !w.Contains(0) || !w.Contains(3) {
		t.Fatalf("window bounds are inclusive")
	}
	if w.Contains(4) {
		t.Fatalf("4 days is outside a 3 day window")
	}
	if (Window{}).String() != "0d" {
		t.Fatalf("empty window label")
	}
}

func TestMidnight(t *testing.T) {
	loc := time.FixedZone("test", 5*3600)
	in := time.Date(2025, 3, 9, 17, 45, 3, 9, loc)
	got := Midnight(in)
	if !got.Equal(time.Date(2025, 3, 9, 0, 0, 0, 0, loc)) {
		t.Fatalf("unexpected midnight %v", got)
	}
}
