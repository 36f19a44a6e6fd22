package intake

import (
	"testing"

	"github.com/user/schoolaide/internal/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		filename string
		want     types.DocumentKind
	}{
		{"newsletter.pdf", types.KindNewsletter},
		{"handbook.pdf", types.KindHandbook},
		{"calendar.pdf", types.KindCalendar},
		{"2025-09-newsletter-final.pdf", types.KindNewsletter},
		{"kp_student_handbook_v3.pdf", types.KindHandbook},
		{"spring_calendar (1).pdf", types.KindCalendar},
		{"minutes.pdf", types.KindUnrecognized},
		{"", types.KindUnrecognized},
		// Case-sensitive: capitalized markers do not match.
		{"Newsletter.pdf", types.KindUnrecognized},
		{"HANDBOOK.pdf", types.KindUnrecognized},
	}

	for _, tt := range tests {
		if got := Classify(tt.filename); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestClassifyLongestMarkerWins(t *testing.T) {
	// A filename matching several markers routes by the longest one.
	got := Classify("handbook-newsletter.pdf")
	if got != types.KindNewsletter {
		t.Errorf("expected longest marker (newsletter) to win, got %q", got)
	}
}

func TestMarkerTablePrecedence(t *testing.T) {
	// The table order is part of the contract: longest first, then
	// handbook before calendar.
	wantOrder := []types.DocumentKind{types.KindNewsletter, types.KindHandbook, types.KindCalendar}
	if len(markerTable) != len(wantOrder) {
		t.Fatalf("marker table has %d entries, want %d", len(markerTable), len(wantOrder))
	}
	for i, entry := range markerTable {
		if entry.kind != wantOrder[i] {
			t.Errorf("marker table entry %d is %q, want %q", i, entry.kind, wantOrder[i])
		}
	}
	for i := 1; i < len(markerTable); i++ {
		if len(markerTable[i].marker) > len(markerTable[i-1].marker) {
			t.Errorf("marker table not ordered longest-first at entry %d", i)
		}
	}
}
