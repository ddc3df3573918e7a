/*
arithmetic.go - Derived totals and adjustment events

PURPOSE:
  Computes the running monetary totals over the payment sub-ledger and
  materializes the two adjustment events that layer on top of original
  rows: balance payments (a new system-generated row) and refunds (an
  in-place annotation of the payment being corrected).

KEY INSIGHT:
  Totals are always derived from the rows - there is no stored total that
  can drift. Adjustment rows are excluded from every total so settling a
  balance never double-counts the money.

INVARIANTS:
  - Balances are never negative: a balance payment larger than the
    outstanding balance clamps to zero.
  - Field validation rejects bad input before any live state mutates.

SEE ALSO:
  - rowstate.go: The guards in front of these setters
  - diff.go: How mutations become audit entries
*/
package ledger

import (
	"fmt"
	"strings"
)

// maxAmountLen bounds digit-only amount input. Ten digits is already two
// orders of magnitude past any plausible service charge.
const maxAmountLen = 10

// =============================================================================
// TOTALS - Derived over non-adjustment rows
// =============================================================================

type Totals struct {
	TotalPaid    Money
	TotalBalance Money
	TotalRefund  Money

	// LastBalance is the balance of the most recently appended visible
	// payment; zero when the ledger has no visible payment yet.
	LastBalance Money

	// LastVisiblePaymentIndex is that row's index, -1 when none.
	// Adjustment rows and blank placeholders are skipped.
	LastVisiblePaymentIndex int
}

// Totals computes the derived totals for the record's payment ledger.
func (r *ClientRecord) Totals() Totals {
	t := Totals{LastVisiblePaymentIndex: -1}
	for i, row := range r.Payments {
		if row.Kind == KindAdjustment {
			continue
		}
		t.TotalPaid = t.TotalPaid.Add(row.PaidAmount)
		t.TotalBalance = t.TotalBalance.Add(row.Balance)
		if row.Refund || row.RefundAmount.IsPositive() {
			t.TotalRefund = t.TotalRefund.Add(row.RefundAmount)
		}
		if !row.IsEmpty() {
			t.LastVisiblePaymentIndex = i
			t.LastBalance = row.Balance
		}
	}
	return t
}

// =============================================================================
// BALANCE PAYMENT - Settles outstanding balance via an adjustment row
// =============================================================================

type BalancePaymentInput struct {
	Amount  Money
	Date    string
	Method  string
	Remarks string
	Actor   string
}

// ApplyBalancePayment settles Amount against the last visible payment:
// that row's balance drops (clamped at zero, paidAmount untouched) and a
// system-generated adjustment row recording the settlement is appended.
// Returns the index of the new adjustment row.
func (r *ClientRecord) ApplyBalancePayment(in BalancePaymentInput) (int, error) {
	if !in.Amount.IsPositive() {
		return -1, &ValidationError{Field: "amount", Message: "balance payment must be positive"}
	}
	if in.Date != "" {
		if _, err := ParseDate(in.Date); err != nil {
			return -1, &ValidationError{Field: "date", Message: "invalid date"}
		}
	}

	t := r.Totals()
	if t.LastVisiblePaymentIndex < 0 {
		return -1, ErrNoPayments
	}

	newBalance := t.LastBalance.Sub(in.Amount).ClampZero()
	r.Payments[t.LastVisiblePaymentIndex].Balance = newBalance

	adj := NewPaymentRow()
	adj.Kind = KindAdjustment
	adj.AdjustmentType = AdjustmentBalance
	adj.PaidAmount = in.Amount
	adj.Balance = newBalance
	adj.Date = in.Date
	adj.PaymentMethod = in.Method
	adj.Remarks = in.Remarks
	adj.AddedByName = in.Actor
	adj.AddedAt = Now().DateLabel()
	r.Payments = append(r.Payments, adj)
	return len(r.Payments) - 1, nil
}

// =============================================================================
// REFUND - Annotates the payment being corrected, no new row
// =============================================================================

type RefundInput struct {
	Amount  Money
	Date    string
	Method  string
	Remarks string
}

// ApplyRefund marks the targeted payment refunded. The refund corrects
// that specific payment, so it annotates the original row in place
// rather than appending a new one.
func (r *ClientRecord) ApplyRefund(i int, in RefundInput) error {
	if i < 0 || i >= len(r.Payments) {
		return ErrRowNotFound
	}
	row := &r.Payments[i]
	if row.Kind == KindAdjustment {
		return ErrAdjustmentRow
	}
	if row.IsEmpty() {
		return &ValidationError{Field: fmt.Sprintf("payments[%d]", i), Message: "cannot refund an empty row"}
	}
	if !in.Amount.IsPositive() {
		return &ValidationError{Field: "refundAmount", Message: "refund must be positive"}
	}
	if in.Date != "" {
		if _, err := ParseDate(in.Date); err != nil {
			return &ValidationError{Field: "refundDate", Message: "invalid date"}
		}
	}

	row.Refund = true
	row.RefundAmount = in.Amount
	row.RefundDate = in.Date
	row.RefundMethod = in.Method
	row.RefundRemarks = in.Remarks
	return nil
}

// =============================================================================
// FIELD VALIDATION & ASSIGNMENT
// =============================================================================

// setField validates and assigns one canonical payment field. Invalid
// input returns a ValidationError without touching the row.
func (r *PaymentRow) setField(field, value string) error {
	switch field {
	case "date", "reminderDate", "refundDate":
		if err := validateDate(field, value); err != nil {
			return err
		}
	case "paidAmount":
		m, err := parseAmountDigits(field, value)
		if err != nil {
			return err
		}
		r.PaidAmount = m
		return nil
	case "balance":
		m, err := parseNonNegative(field, value)
		if err != nil {
			return err
		}
		r.Balance = m
		return nil
	case "refundAmount":
		m, err := parseNonNegative(field, value)
		if err != nil {
			return err
		}
		r.RefundAmount = m
		return nil
	case "refund":
		r.Refund = value == "true"
		return nil
	}

	switch field {
	case "date":
		r.Date = value
	case "paymentMethod":
		r.PaymentMethod = value
	case "receiptNo":
		r.ReceiptNo = value
	case "remarks":
		r.Remarks = value
	case "reminderDate":
		r.ReminderDate = value
	case "refundDate":
		r.RefundDate = value
	case "refundMethod":
		r.RefundMethod = value
	case "refundRemarks":
		r.RefundRemarks = value
	case "addedByName":
		r.AddedByName = value
	case "addedAt":
		r.AddedAt = value
	default:
		return ErrUnknownField
	}
	return nil
}

// setField validates and assigns one canonical worker field. totalDays
// derives from the inclusive day count whenever both dates are present;
// writing totalDays afterwards overrides the derived value.
func (r *WorkerRow) setField(field, value string) error {
	switch field {
	case "workerId":
		r.WorkerID = value
	case "name":
		r.Name = value
	case "basicSalary":
		m, err := parseNonNegative(field, value)
		if err != nil {
			return err
		}
		r.BasicSalary = m
	case "startDate":
		if err := validateDate(field, value); err != nil {
			return err
		}
		r.StartDate = value
		r.deriveTotalDays()
	case "endDate":
		if err := validateDate(field, value); err != nil {
			return err
		}
		r.EndDate = value
		r.deriveTotalDays()
	case "totalDays":
		n, err := parsePositiveInt(field, value)
		if err != nil {
			return err
		}
		r.TotalDays = n
	case "mobile1":
		r.Mobile1 = value
	case "mobile2":
		r.Mobile2 = value
	case "remarks":
		r.Remarks = value
	case "addedByName":
		r.AddedByName = value
	case "addedAt":
		r.AddedAt = value
	default:
		return ErrUnknownField
	}
	return nil
}

func (r *WorkerRow) deriveTotalDays() {
	if r.StartDate == "" || r.EndDate == "" {
		return
	}
	if days, err := InclusiveDays(r.StartDate, r.EndDate); err == nil {
		r.TotalDays = days
	}
}

func validateDate(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := ParseDate(value); err != nil {
		return &ValidationError{Field: field, Message: "invalid date, want " + DateLayout}
	}
	return nil
}

// parseAmountDigits enforces the paid-amount rule: positive, digit-only,
// bounded length. Blank clears the field (placeholder rows).
func parseAmountDigits(field, value string) (Money, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Money{}, nil
	}
	if len(value) > maxAmountLen {
		return Money{}, &ValidationError{Field: field, Message: fmt.Sprintf("at most %d digits", maxAmountLen)}
	}
	for _, c := range value {
		if c < '0' || c > '9' {
			return Money{}, &ValidationError{Field: field, Message: "digits only"}
		}
	}
	m, err := ParseMoney(value)
	if err != nil || !m.IsPositive() {
		return Money{}, &ValidationError{Field: field, Message: "must be a positive amount"}
	}
	return m, nil
}

func parseNonNegative(field, value string) (Money, error) {
	m, err := ParseMoney(value)
	if err != nil {
		return Money{}, &ValidationError{Field: field, Message: "invalid amount"}
	}
	if m.IsNegative() {
		return Money{}, &ValidationError{Field: field, Message: "must not be negative"}
	}
	return m, nil
}

func parsePositiveInt(field, value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	n := 0
	for _, c := range value {
		if c < '0' || c > '9' {
			return 0, &ValidationError{Field: field, Message: "digits only"}
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}
