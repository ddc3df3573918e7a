/*
Package ledger provides the client financial ledger engine.

PURPOSE:
  This package contains the types and algorithms behind edits to a client
  record's payment and worker-assignment rows: canonical record shapes,
  the row lock state machine, derived monetary totals, adjustment events,
  and the structural diff that feeds the audit trail.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A currency amount backed by decimal.Decimal
  - RowState / RowKind: Tagged row lifecycle and provenance
  - PaymentRow / WorkerRow: The two array sub-ledgers
  - ClientRecord: Scalar fields + sub-ledgers + audit log
  - AuditEntry / ChangeRecord: Persisted change history

DESIGN PRINCIPLES:
  1. Append-mostly: rows are appended, locked on save, never reordered
  2. Precision: decimal.Decimal for every monetary value, no floats
  3. Tamper-evidence: locked rows only change via an explicit edit gesture
  4. Positional identity: a row IS its index; diffing is positional

SEE ALSO:
  - rowstate.go: Lock state machine rules
  - arithmetic.go: Totals, balance payments, refunds
  - normalize.go: Raw document -> canonical record
  - diff.go: Snapshot comparison and audit building
*/
package ledger

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Currency amount (single implicit currency)
// =============================================================================

type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money      { return Money{Value: decimal.NewFromFloat(value)} }
func NewMoneyFromInt(value int) Money   { return Money{Value: decimal.NewFromInt(int64(value))} }

// ParseMoney parses a decimal string. Empty input is zero, not an error:
// ledger fields arrive from forms where blank means "not entered".
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Value: d}, nil
}

func (m Money) Add(b Money) Money       { return Money{Value: m.Value.Add(b.Value)} }
func (m Money) Sub(b Money) Money       { return Money{Value: m.Value.Sub(b.Value)} }
func (m Money) IsZero() bool            { return m.Value.IsZero() }
func (m Money) IsNegative() bool        { return m.Value.IsNegative() }
func (m Money) IsPositive() bool        { return m.Value.IsPositive() }
func (m Money) GreaterThan(b Money) bool { return m.Value.GreaterThan(b.Value) }
func (m Money) LessThan(b Money) bool    { return m.Value.LessThan(b.Value) }
func (m Money) Equal(b Money) bool       { return m.Value.Equal(b.Value) }
func (m Money) String() string           { return m.Value.String() }

// Money serializes as a bare decimal, the way amounts live in documents.
func (m Money) MarshalJSON() ([]byte, error)  { return m.Value.MarshalJSON() }
func (m *Money) UnmarshalJSON(b []byte) error { return m.Value.UnmarshalJSON(b) }

// ClampZero floors a balance at zero. Balances are never negative.
func (m Money) ClampZero() Money {
	if m.IsNegative() {
		return Money{}
	}
	return m
}

// =============================================================================
// ROW STATE - Tagged lifecycle (illegal flag combinations unrepresentable)
// =============================================================================

// RowState is the lock lifecycle of a single ledger row:
//
//	Unlocked     -> new row, editable and removable
//	Locked       -> persisted row, immutable without the edit gesture
//	LockedEdited -> locked row explicitly reopened for edit
//
// Transitions live in rowstate.go.
type RowState string

const (
	StateUnlocked     RowState = "unlocked"
	StateLocked       RowState = "locked"
	StateLockedEdited RowState = "locked_edited"
)

// Editable reports whether a field write is currently allowed.
func (s RowState) Editable() bool { return s == StateUnlocked || s == StateLockedEdited }

// Removable reports whether the row may be removed. Persisted rows never are.
func (s RowState) Removable() bool { return s == StateUnlocked }

// RowKind separates operator-entered rows from system-generated ones.
type RowKind string

const (
	KindPrimary    RowKind = "primary"
	KindAdjustment RowKind = "adjustment"
)

// AdjustmentBalance is the adjustment type recorded by a balance payment.
const AdjustmentBalance = "balance"

// =============================================================================
// PAYMENT ROW - One entry of the payment sub-ledger
// =============================================================================

type PaymentRow struct {
	Date          string
	PaymentMethod string
	PaidAmount    Money
	Balance       Money
	ReceiptNo     string
	Remarks       string
	ReminderDate  string

	// Refund annotation on the original payment (not a separate row).
	Refund        bool
	RefundAmount  Money
	RefundDate    string
	RefundMethod  string
	RefundRemarks string

	AddedByName string
	AddedAt     string

	State          RowState
	Kind           RowKind
	AdjustmentType string // e.g. AdjustmentBalance, set when Kind == KindAdjustment

	// Extra carries legacy and unrecognized keys verbatim for round-trip
	// safety. Business logic never reads it.
	Extra map[string]string
}

// PaymentFields is the canonical field order, used by the diff and the
// document codec so output is deterministic.
var PaymentFields = []string{
	"date", "paymentMethod", "paidAmount", "balance", "receiptNo",
	"remarks", "reminderDate", "refund", "refundAmount", "refundDate",
	"refundMethod", "refundRemarks", "addedByName", "addedAt",
}

func NewPaymentRow() PaymentRow {
	return PaymentRow{State: StateUnlocked, Kind: KindPrimary}
}

// Field returns the stringified value of a canonical field, "" when unset.
func (r PaymentRow) Field(name string) string {
	switch name {
	case "date":
		return r.Date
	case "paymentMethod":
		return r.PaymentMethod
	case "paidAmount":
		return moneyField(r.PaidAmount)
	case "balance":
		return moneyField(r.Balance)
	case "receiptNo":
		return r.ReceiptNo
	case "remarks":
		return r.Remarks
	case "reminderDate":
		return r.ReminderDate
	case "refund":
		return boolField(r.Refund)
	case "refundAmount":
		return moneyField(r.RefundAmount)
	case "refundDate":
		return r.RefundDate
	case "refundMethod":
		return r.RefundMethod
	case "refundRemarks":
		return r.RefundRemarks
	case "addedByName":
		return r.AddedByName
	case "addedAt":
		return r.AddedAt
	default:
		return r.Extra[name]
	}
}

// IsEmpty reports whether every canonical and passthrough field is blank.
// Empty rows are editable placeholders and never lock.
func (r PaymentRow) IsEmpty() bool {
	for _, f := range PaymentFields {
		if r.Field(f) != "" {
			return false
		}
	}
	for _, v := range r.Extra {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// WORKER ROW - One entry of the worker-assignment sub-ledger
// =============================================================================

type WorkerRow struct {
	WorkerID    string
	Name        string
	BasicSalary Money
	StartDate   string
	EndDate     string
	TotalDays   int
	Mobile1     string
	Mobile2     string
	Remarks     string
	AddedByName string
	AddedAt     string

	State RowState

	Extra map[string]string
}

var WorkerFields = []string{
	"workerId", "name", "basicSalary", "startDate", "endDate", "totalDays",
	"mobile1", "mobile2", "remarks", "addedByName", "addedAt",
}

func NewWorkerRow() WorkerRow {
	return WorkerRow{State: StateUnlocked}
}

func (r WorkerRow) Field(name string) string {
	switch name {
	case "workerId":
		return r.WorkerID
	case "name":
		return r.Name
	case "basicSalary":
		return moneyField(r.BasicSalary)
	case "startDate":
		return r.StartDate
	case "endDate":
		return r.EndDate
	case "totalDays":
		return intField(r.TotalDays)
	case "mobile1":
		return r.Mobile1
	case "mobile2":
		return r.Mobile2
	case "remarks":
		return r.Remarks
	case "addedByName":
		return r.AddedByName
	case "addedAt":
		return r.AddedAt
	default:
		return r.Extra[name]
	}
}

func (r WorkerRow) IsEmpty() bool {
	for _, f := range WorkerFields {
		if r.Field(f) != "" {
			return false
		}
	}
	for _, v := range r.Extra {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// CLIENT RECORD - Scalars + sub-ledgers + audit log
// =============================================================================

// ClientRecord is the canonical in-memory shape of one client document.
// Scalar identity/contact/service fields stay in a flat string map so the
// diff can walk them generically; the engine only interprets a handful
// (see ServiceCharge).
type ClientRecord struct {
	ID       string
	Scalars  map[string]string
	Payments []PaymentRow
	Workers  []WorkerRow
	AuditLog []AuditEntry

	// Nested carries non-scalar top-level fields verbatim. They round-trip
	// through the store but are excluded from the scalar diff.
	Nested map[string]any
}

func NewClientRecord(id string) *ClientRecord {
	return &ClientRecord{
		ID:       id,
		Scalars:  make(map[string]string),
		Payments: []PaymentRow{NewPaymentRow()},
		Workers:  []WorkerRow{NewWorkerRow()},
	}
}

// ServiceCharge is the client's standing monthly charge, used as the
// default invoice amount. Zero when absent or malformed.
func (r *ClientRecord) ServiceCharge() Money {
	m, err := ParseMoney(r.Scalars["serviceCharge"])
	if err != nil {
		return Money{}
	}
	return m
}

// =============================================================================
// AUDIT ENTRIES
// =============================================================================

type AuditKind string

const (
	AuditSummary AuditKind = "summary"
	AuditFull    AuditKind = "full"
)

// ChangeRecord captures one field-level change between two snapshots.
type ChangeRecord struct {
	Path   string // e.g. "payments[2].paidAmount"
	Label  string // friendly label, raw path when unmapped
	Before string
	After  string
}

// AuditEntry is one persisted audit-log item. A save emits a summary
// entry (human-readable lines, only when something changed) and a full
// entry (the complete change list).
type AuditEntry struct {
	ID        string
	Timestamp TimePoint
	DateLabel string
	Actor     string
	Kind      AuditKind
	Summary   string
	Changes   []ChangeRecord
}

// =============================================================================
// FIELD STRINGIFICATION HELPERS
// =============================================================================

// moneyField renders a monetary field the way forms entered it: blank for
// an unset zero, plain decimal otherwise.
func moneyField(m Money) string {
	if m.IsZero() {
		return ""
	}
	return m.String()
}

func boolField(b bool) string {
	if b {
		return "true"
	}
	return ""
}

func intField(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
