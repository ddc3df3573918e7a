/*
normalize.go - Raw document to canonical record, and back

PURPOSE:
  Persisted client records are heterogeneous: sub-ledgers may be dense
  arrays or string-keyed maps, and old documents carry legacy field
  spellings. The normalizer coerces all of that into one canonical shape
  exactly once, at the load boundary, so business logic never branches on
  field presence.

GUARANTEES:
  - Idempotent: normalizing a canonical record is a no-op.
  - Lossless: legacy keys and unrecognized fields ride along in
    passthrough bags and are written back on save.
  - Deterministic: map-shaped collections are coerced in enumeration
    order (numeric keys ascending, then remaining keys sorted).

LOCK SEEDING:
  A row with any non-empty field was persisted by an earlier save, so it
  loads Locked. A fully blank row is an editable placeholder and stays
  Unlocked.

SEE ALSO:
  - types.go: The canonical shapes
  - session.go: Calls NormalizeRecord on load, Document on save
*/
package ledger

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// ALIAS TABLE - Legacy field spellings, consulted once at normalization
// =============================================================================

// aliasTableV1 maps legacy spellings found in old documents to canonical
// field names. The canonical value wins when both keys are present; the
// legacy key is preserved in the row's passthrough bag either way.
var aliasTableV1 = map[string]string{
	"receptNo": "receiptNo",
	"method":   "paymentMethod",
}

// rowMetaKeys are row-state markers handled structurally, never copied
// into the passthrough bag.
var rowMetaKeys = map[string]bool{
	"locked":         true,
	"edited":         true,
	"adjustment":     true,
	"adjustmentType": true,
}

// =============================================================================
// NORMALIZATION - Raw document -> canonical record
// =============================================================================

// NormalizeRecord converts a raw persisted document into the canonical
// in-memory record. It accepts array- or map-shaped sub-ledgers, resolves
// legacy aliases, seeds lock state from row content, and guarantees each
// sub-ledger has at least a blank placeholder row.
func NormalizeRecord(id string, raw map[string]any) *ClientRecord {
	rec := &ClientRecord{ID: id, Scalars: make(map[string]string)}

	for key, value := range raw {
		switch key {
		case "payments", "workers", "auditLog":
			continue
		}
		if s, ok := scalarString(value); ok {
			rec.Scalars[key] = s
			continue
		}
		if rec.Nested == nil {
			rec.Nested = make(map[string]any)
		}
		rec.Nested[key] = value
	}

	for _, rowRaw := range collectionRows(raw["payments"]) {
		rec.Payments = append(rec.Payments, normalizePaymentRow(rowRaw))
	}
	for _, rowRaw := range collectionRows(raw["workers"]) {
		rec.Workers = append(rec.Workers, normalizeWorkerRow(rowRaw))
	}
	if len(rec.Payments) == 0 {
		rec.Payments = append(rec.Payments, NewPaymentRow())
	}
	if len(rec.Workers) == 0 {
		rec.Workers = append(rec.Workers, NewWorkerRow())
	}

	if log, ok := raw["auditLog"].([]any); ok {
		for _, e := range log {
			if m, ok := e.(map[string]any); ok {
				rec.AuditLog = append(rec.AuditLog, normalizeAuditEntry(m))
			}
		}
	}
	return rec
}

// collectionRows coerces a sub-ledger to a dense row slice. Map-shaped
// collections enumerate numeric keys in numeric order first, then the
// remaining keys sorted, so old map-stored documents keep their row order.
func collectionRows(v any) []map[string]any {
	switch c := v.(type) {
	case []any:
		rows := make([]map[string]any, 0, len(c))
		for _, e := range c {
			if m, ok := e.(map[string]any); ok {
				rows = append(rows, m)
			}
		}
		return rows
	case map[string]any:
		keys := enumerationOrder(c)
		rows := make([]map[string]any, 0, len(keys))
		for _, k := range keys {
			if m, ok := c[k].(map[string]any); ok {
				rows = append(rows, m)
			}
		}
		return rows
	default:
		return nil
	}
}

func enumerationOrder(m map[string]any) []string {
	var numeric, rest []string
	for k := range m {
		if _, err := strconv.Atoi(k); err == nil {
			numeric = append(numeric, k)
		} else {
			rest = append(rest, k)
		}
	}
	sort.Slice(numeric, func(i, j int) bool {
		a, _ := strconv.Atoi(numeric[i])
		b, _ := strconv.Atoi(numeric[j])
		return a < b
	})
	sort.Strings(rest)
	return append(numeric, rest...)
}

func normalizePaymentRow(raw map[string]any) PaymentRow {
	row := NewPaymentRow()
	if truthy(raw["adjustment"]) {
		row.Kind = KindAdjustment
		row.AdjustmentType, _ = scalarString(raw["adjustmentType"])
	}

	for key, value := range raw {
		if rowMetaKeys[key] {
			continue
		}
		s, _ := scalarString(value)
		canonical, isLegacy := aliasTableV1[key]
		if isLegacy {
			// Legacy spelling rides along verbatim; the canonical key wins
			// when the document carries both.
			setExtra(&row.Extra, key, s)
			if cur, _ := scalarString(raw[canonical]); cur != "" {
				continue
			}
			key = canonical
		}
		assignPaymentField(&row, key, s)
	}

	if !row.IsEmpty() {
		row.State = StateLocked
	}
	return row
}

// assignPaymentField is the lenient load-time counterpart of setField:
// persisted values are taken as-is (old documents predate the current
// input validation), unparseable amounts fall into the passthrough bag.
func assignPaymentField(row *PaymentRow, key, value string) {
	switch key {
	case "date":
		row.Date = value
	case "paymentMethod":
		row.PaymentMethod = value
	case "paidAmount":
		assignMoney(&row.PaidAmount, &row.Extra, key, value)
	case "balance":
		// Balances are never negative, including in old documents.
		assignMoney(&row.Balance, &row.Extra, key, value)
		row.Balance = row.Balance.ClampZero()
	case "receiptNo":
		row.ReceiptNo = value
	case "remarks":
		row.Remarks = value
	case "reminderDate":
		row.ReminderDate = value
	case "refund":
		row.Refund = value == "true" || value == "1"
	case "refundAmount":
		assignMoney(&row.RefundAmount, &row.Extra, key, value)
	case "refundDate":
		row.RefundDate = value
	case "refundMethod":
		row.RefundMethod = value
	case "refundRemarks":
		row.RefundRemarks = value
	case "addedByName":
		row.AddedByName = value
	case "addedAt":
		row.AddedAt = value
	default:
		setExtra(&row.Extra, key, value)
	}
}

func normalizeWorkerRow(raw map[string]any) WorkerRow {
	row := NewWorkerRow()
	for key, value := range raw {
		if rowMetaKeys[key] {
			continue
		}
		s, _ := scalarString(value)
		if canonical, isLegacy := aliasTableV1[key]; isLegacy {
			setExtra(&row.Extra, key, s)
			if cur, _ := scalarString(raw[canonical]); cur != "" {
				continue
			}
			key = canonical
		}
		assignWorkerField(&row, key, s)
	}
	// A stored totalDays is an operator override and wins over the count
	// derived from the date fields.
	if s, _ := scalarString(raw["totalDays"]); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			row.TotalDays = n
		}
	} else if row.StartDate != "" && row.EndDate != "" {
		if days, err := InclusiveDays(row.StartDate, row.EndDate); err == nil {
			row.TotalDays = days
		}
	}

	if !row.IsEmpty() {
		row.State = StateLocked
	}
	return row
}

func assignWorkerField(row *WorkerRow, key, value string) {
	switch key {
	case "workerId":
		row.WorkerID = value
	case "name":
		row.Name = value
	case "basicSalary":
		assignMoney(&row.BasicSalary, &row.Extra, key, value)
	case "startDate":
		row.StartDate = value
	case "endDate":
		row.EndDate = value
	case "totalDays":
		// Handled after the field loop; enumeration order must not decide
		// whether the stored override survives.
	case "mobile1":
		row.Mobile1 = value
	case "mobile2":
		row.Mobile2 = value
	case "remarks":
		row.Remarks = value
	case "addedByName":
		row.AddedByName = value
	case "addedAt":
		row.AddedAt = value
	default:
		setExtra(&row.Extra, key, value)
	}
}

func assignMoney(dst *Money, extra *map[string]string, key, value string) {
	m, err := ParseMoney(value)
	if err != nil {
		setExtra(extra, key, value)
		return
	}
	*dst = m
}

func normalizeAuditEntry(raw map[string]any) AuditEntry {
	entry := AuditEntry{
		Kind: AuditKind(stringOr(raw["kind"], string(AuditFull))),
	}
	entry.ID, _ = scalarString(raw["id"])
	entry.Actor, _ = scalarString(raw["actor"])
	entry.DateLabel, _ = scalarString(raw["dateLabel"])
	entry.Summary, _ = scalarString(raw["summary"])
	if ts, _ := scalarString(raw["timestamp"]); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			entry.Timestamp = TimePoint{Time: t}
		}
	}
	if changes, ok := raw["changes"].([]any); ok {
		for _, c := range changes {
			m, ok := c.(map[string]any)
			if !ok {
				continue
			}
			cr := ChangeRecord{}
			cr.Path, _ = scalarString(m["path"])
			cr.Label, _ = scalarString(m["label"])
			cr.Before, _ = scalarString(m["before"])
			cr.After, _ = scalarString(m["after"])
			entry.Changes = append(entry.Changes, cr)
		}
	}
	return entry
}

// =============================================================================
// DOCUMENT CODEC - Canonical record -> persisted shape
// =============================================================================

// Document renders the persisted shape of the record. Lock and edit
// metadata are stripped (lock state is re-derived from content on load);
// adjustment provenance and all passthrough fields are kept.
func (r *ClientRecord) Document() map[string]any {
	doc := make(map[string]any, len(r.Scalars)+len(r.Nested)+3)
	for k, v := range r.Scalars {
		doc[k] = v
	}
	for k, v := range r.Nested {
		doc[k] = v
	}

	payments := make([]any, 0, len(r.Payments))
	for _, row := range r.Payments {
		payments = append(payments, paymentRowDoc(row))
	}
	doc["payments"] = payments

	workers := make([]any, 0, len(r.Workers))
	for _, row := range r.Workers {
		workers = append(workers, workerRowDoc(row))
	}
	doc["workers"] = workers

	if len(r.AuditLog) > 0 {
		log := make([]any, 0, len(r.AuditLog))
		for _, e := range r.AuditLog {
			log = append(log, auditEntryDoc(e))
		}
		doc["auditLog"] = log
	}
	return doc
}

func paymentRowDoc(row PaymentRow) map[string]any {
	m := make(map[string]any)
	for _, f := range PaymentFields {
		if v := row.Field(f); v != "" {
			m[f] = v
		}
	}
	for k, v := range row.Extra {
		if _, taken := m[k]; !taken {
			m[k] = v
		}
	}
	if row.Kind == KindAdjustment {
		m["adjustment"] = true
		if row.AdjustmentType != "" {
			m["adjustmentType"] = row.AdjustmentType
		}
	}
	return m
}

func workerRowDoc(row WorkerRow) map[string]any {
	m := make(map[string]any)
	for _, f := range WorkerFields {
		if v := row.Field(f); v != "" {
			m[f] = v
		}
	}
	for k, v := range row.Extra {
		if _, taken := m[k]; !taken {
			m[k] = v
		}
	}
	return m
}

func auditEntryDoc(e AuditEntry) map[string]any {
	m := map[string]any{
		"id":        e.ID,
		"timestamp": e.Timestamp.String(),
		"dateLabel": e.DateLabel,
		"actor":     e.Actor,
		"kind":      string(e.Kind),
	}
	if e.Summary != "" {
		m["summary"] = e.Summary
	}
	if len(e.Changes) > 0 {
		changes := make([]any, 0, len(e.Changes))
		for _, c := range e.Changes {
			changes = append(changes, map[string]any{
				"path":   c.Path,
				"label":  c.Label,
				"before": c.Before,
				"after":  c.After,
			})
		}
		m["changes"] = changes
	}
	return m
}

// =============================================================================
// VALUE COERCION
// =============================================================================

// scalarString stringifies a scalar JSON value. The second return is
// false for maps and arrays.
func scalarString(v any) (string, bool) {
	switch s := v.(type) {
	case nil:
		return "", true
	case string:
		return s, true
	case bool:
		if s {
			return "true", true
		}
		return "", true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int:
		return strconv.Itoa(s), true
	default:
		return "", false
	}
}

func truthy(v any) bool {
	switch s := v.(type) {
	case bool:
		return s
	case string:
		return s == "true" || s == "1"
	case float64:
		return s != 0
	default:
		return false
	}
}

func stringOr(v any, fallback string) string {
	if s, ok := scalarString(v); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}

func setExtra(extra *map[string]string, key, value string) {
	if value == "" {
		return
	}
	if *extra == nil {
		*extra = make(map[string]string)
	}
	(*extra)[key] = value
}
