package alert

import (
	"fmt"
	"testing"
)

func TestHistory(t *testing.T) {
	h := NewHistory(3)

	if got := h.GetLastRecords(RecentCount); len(got) != 0 {
		t.Fatalf("expected empty history, got %d records", len(got))
	}

	for i := 0; i < 5; i++ {
		h.AddRecord(Record{Subject: fmt.Sprintf("r%d", i)})
	}

	if h.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", h.Len())
	}

	all := h.GetRecords()
	want := []string{"r2", "r3", "r4"}
	for i, r := range all {
		if r.Subject != want[i] {
			t.Errorf("record %d: expected %s, got %s", i, want[i], r.Subject)
		}
	}

	last := h.GetLastRecords(2)
	if len(last) != 2 || last[0].Subject != "r3" || last[1].Subject != "r4" {
		t.Errorf("unexpected last records: %+v", last)
	}

	// Returned slices are copies.
	last[0].Subject = "changed"
	if h.GetRecords()[1].Subject != "r3" {
		t.Error("history modified through returned slice")
	}
}

func TestNewHistory_DefaultSize(t *testing.T) {
	h := NewHistory(0)
	if h.MaxRecordCount != DefaultHistorySize {
		t.Errorf("expected %d, got %d", DefaultHistorySize, h.MaxRecordCount)
	}
}
