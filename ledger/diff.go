/*
diff.go - Structural snapshot diff and audit building

PURPOSE:
  Every save compares the frozen snapshot taken at load against the live
  record and turns mismatches into the audit trail: a human-readable
  summary entry and a full structured entry. The diff is structural over
  typed values, never a serialized-string comparison, so map ordering can
  never fake a change.

ALGORITHM:
  - Top-level scalars: union of keys in either snapshot, stringified
    values compared. Nested non-scalar fields are excluded here; the two
    sub-ledgers get their own positional pass.
  - payments/workers: indexes 0..max(len)-1, every row field compared.
    A row present on one side only diffs each field against empty, so an
    appended or vanished row can never go unflagged.

LABELS:
  Paths map to operator-friendly labels through static tables
  ("payments[2].paidAmount" -> "Payment #3 — Paid Amount"); unmapped
  paths fall back to the raw path.

SEE ALSO:
  - snapshot.go: Building and freezing snapshots
  - session.go: The save cycle that appends the produced entries
*/
package ledger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// =============================================================================
// DIFF - Structural comparison of two snapshots
// =============================================================================

// Diff returns one ChangeRecord per mismatched field between two
// snapshots, scalars first, then payments, then workers, in stable
// order. Diffing a snapshot against itself returns nil.
func Diff(before, after Snapshot) []ChangeRecord {
	var changes []ChangeRecord

	for _, key := range unionKeys(before.Scalars, after.Scalars) {
		b, a := before.Scalars[key], after.Scalars[key]
		if b != a {
			changes = append(changes, change(key, b, a))
		}
	}

	changes = append(changes, diffRows("payments", before.Payments, after.Payments, PaymentFields)...)
	changes = append(changes, diffRows("workers", before.Workers, after.Workers, WorkerFields)...)
	return changes
}

func diffRows(collection string, before, after []RowValues, fieldOrder []string) []ChangeRecord {
	var changes []ChangeRecord
	n := len(before)
	if len(after) > n {
		n = len(after)
	}
	for i := 0; i < n; i++ {
		var b, a RowValues
		if i < len(before) {
			b = before[i]
		}
		if i < len(after) {
			a = after[i]
		}
		for _, field := range rowFieldUnion(fieldOrder, b, a) {
			if b[field] != a[field] {
				changes = append(changes, change(
					fmt.Sprintf("%s[%d].%s", collection, i, field), b[field], a[field]))
			}
		}
	}
	return changes
}

// rowFieldUnion walks the canonical field order first, then any
// passthrough keys either row carries, sorted.
func rowFieldUnion(fieldOrder []string, b, a RowValues) []string {
	seen := make(map[string]bool, len(fieldOrder))
	fields := make([]string, 0, len(fieldOrder))
	for _, f := range fieldOrder {
		seen[f] = true
		fields = append(fields, f)
	}
	var extras []string
	for k := range b {
		if !seen[k] {
			seen[k] = true
			extras = append(extras, k)
		}
	}
	for k := range a {
		if !seen[k] {
			seen[k] = true
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	return append(fields, extras...)
}

func unionKeys(a, b map[string]string) []string {
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func change(path, before, after string) ChangeRecord {
	return ChangeRecord{Path: path, Label: labelFor(path), Before: before, After: after}
}

// =============================================================================
// FRIENDLY LABELS
// =============================================================================

var scalarLabels = map[string]string{
	"name":          "Client Name",
	"careOf":        "Care Of",
	"address":       "Address",
	"mobile1":       "Mobile 1",
	"mobile2":       "Mobile 2",
	"serviceType":   "Service Type",
	"serviceCharge": "Service Charge",
	"startDate":     "Service Start Date",
	"referredBy":    "Referred By",
	"remarks":       "Remarks",
	"status":        "Status",
}

var paymentFieldLabels = map[string]string{
	"date":          "Date",
	"paymentMethod": "Payment Method",
	"paidAmount":    "Paid Amount",
	"balance":       "Balance",
	"receiptNo":     "Receipt No",
	"remarks":       "Remarks",
	"reminderDate":  "Reminder Date",
	"refund":        "Refund",
	"refundAmount":  "Refund Amount",
	"refundDate":    "Refund Date",
	"refundMethod":  "Refund Method",
	"refundRemarks": "Refund Remarks",
	"addedByName":   "Added By",
	"addedAt":       "Added At",
}

var workerFieldLabels = map[string]string{
	"workerId":    "Worker ID",
	"name":        "Name",
	"basicSalary": "Basic Salary",
	"startDate":   "Start Date",
	"endDate":     "End Date",
	"totalDays":   "Total Days",
	"mobile1":     "Mobile 1",
	"mobile2":     "Mobile 2",
	"remarks":     "Remarks",
	"addedByName": "Added By",
	"addedAt":     "Added At",
}

// labelFor resolves a change path to its operator-friendly label, falling
// back to the raw path for anything unmapped.
func labelFor(path string) string {
	var collection, noun string
	var labels map[string]string
	switch {
	case strings.HasPrefix(path, "payments["):
		collection, noun, labels = "payments", "Payment", paymentFieldLabels
	case strings.HasPrefix(path, "workers["):
		collection, noun, labels = "workers", "Worker", workerFieldLabels
	default:
		if l, ok := scalarLabels[path]; ok {
			return l
		}
		return path
	}

	var index int
	var field string
	if _, err := fmt.Sscanf(path, collection+"[%d].%s", &index, &field); err != nil {
		return path
	}
	label, ok := labels[field]
	if !ok {
		return path
	}
	return fmt.Sprintf("%s #%d — %s", noun, index+1, label)
}

// =============================================================================
// AUDIT BUILDING
// =============================================================================

// BuildAuditEntries compares two snapshots and renders the audit
// artifacts of one save: a summary entry and a full entry, both
// timestamped and attributed. Returns nil when nothing changed, so a
// no-op save never touches the audit log.
func BuildAuditEntries(before, after Snapshot, actor string, at TimePoint) []AuditEntry {
	changes := Diff(before, after)
	if len(changes) == 0 {
		return nil
	}

	lines := make([]string, 0, len(changes))
	for _, c := range changes {
		lines = append(lines, fmt.Sprintf("%s: '%s' → '%s'", c.Label, c.Before, c.After))
	}

	return []AuditEntry{
		{
			ID:        uuid.NewString(),
			Timestamp: at,
			DateLabel: at.DateLabel(),
			Actor:     actor,
			Kind:      AuditSummary,
			Summary:   strings.Join(lines, "\n"),
		},
		{
			ID:        uuid.NewString(),
			Timestamp: at,
			DateLabel: at.DateLabel(),
			Actor:     actor,
			Kind:      AuditFull,
			Changes:   changes,
		},
	}
}
