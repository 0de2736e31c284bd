package domain

import (
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    Status
		wantErr bool
	}{
		{"pending", StatusPending, false},
		{"approved", StatusApproved, false},
		{"declined", StatusDeclined, false},
		{"cancelled", StatusCancelled, false},
		{"completed", StatusCompleted, false},
		{"PENDING", "", true},
		{"", "", true},
		{"refunded", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseStatus(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStatus(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestAuditNote(t *testing.T) {
	at := time.Date(2024, 10, 9, 14, 3, 21, 0, time.UTC)
	got := AuditNote(AuditActionCancelled, "High amount flagged", at)
	want := "[2024-10-09T14:03:21Z] CANCELLED: High amount flagged"
	if got != want {
		t.Errorf("AuditNote() = %q, want %q", got, want)
	}
}

func TestAppendNote(t *testing.T) {
	if got := AppendNote("", "line"); got != "line" {
		t.Errorf("AppendNote on empty notes = %q", got)
	}
	if got := AppendNote("foo", "bar"); got != "foo\nbar" {
		t.Errorf("AppendNote on existing notes = %q", got)
	}
}

func TestStripAuditNotes(t *testing.T) {
	at := time.Date(2024, 10, 9, 14, 3, 21, 0, time.UTC)
	notes := AppendNote("manual note", AuditNote(AuditActionCancelled, "test run", at))
	notes = AppendNote(notes, AuditNote(AuditActionApproved, "retry", at))

	got := StripAuditNotes(notes)
	if got != "manual note" {
		t.Errorf("StripAuditNotes() = %q, want %q", got, "manual note")
	}

	if got := StripAuditNotes(""); got != "" {
		t.Errorf("StripAuditNotes(empty) = %q", got)
	}

	// Non-audit lines that merely mention the keywords stay put.
	plain := "CANCELLED by phone\nsome context"
	if got := StripAuditNotes(plain); got != plain {
		t.Errorf("StripAuditNotes(plain) = %q, want unchanged", got)
	}
}
