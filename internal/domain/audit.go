package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Audit actions recorded in transaction notes.
const (
	AuditActionCancelled = "CANCELLED"
	AuditActionApproved  = "APPROVED"
)

var auditLinePattern = regexp.MustCompile(`^\[[^\]]+\] (CANCELLED|APPROVED): `)

// AuditNote formats one audit line, e.g.
//
//	[2024-10-09T14:03:21Z] CANCELLED: High amount flagged
//
// Lines are appended to a transaction's notes, never overwriting them.
func AuditNote(action, reason string, at time.Time) string {
	return fmt.Sprintf("[%s] %s: %s", at.UTC().Format(time.RFC3339), action, reason)
}

// AppendNote appends line to existing notes, separating with a newline
// when notes are non-empty. Matches the SQL-side append expression.
func AppendNote(notes, line string) string {
	if notes == "" {
		return line
	}
	return notes + "\n" + line
}

// StripAuditNotes removes audit lines from notes, keeping everything else
// in order. Used only by the administrative reset path.
func StripAuditNotes(notes string) string {
	if notes == "" {
		return ""
	}
	var kept []string
	for _, line := range strings.Split(notes, "\n") {
		if auditLinePattern.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
