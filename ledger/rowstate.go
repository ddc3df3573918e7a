/*
rowstate.go - Row lock state machine

PURPOSE:
  Governs mutability and removability of every payment and worker row.
  Historical financial rows are tamper-evident by default: once persisted
  they lock, and corrections require an explicit, auditable unlock gesture.

STATE TRANSITIONS:

  Unlocked ---save---> Locked ---edit gesture---> LockedEdited ---save---> Locked

RULES:
  - Field writes on a Locked row are rejected until MarkEdited is called;
    the row then accepts writes as LockedEdited until the next save.
  - Removal is permitted only while Unlocked. Locked rows never leave.
  - New rows are always appended Unlocked at the end; there is no
    mid-collection insertion.
  - Removing the sole remaining row refills the collection with a blank
    placeholder so a record never shows an empty sub-ledger.

SEE ALSO:
  - arithmetic.go: Field-level validation invoked by the setters
  - session.go: Calls LockAll as part of the save cycle
*/
package ledger

// =============================================================================
// EDIT GESTURE - Explicit unlock of a persisted row
// =============================================================================

// MarkPaymentEdited reopens a locked payment row for editing. Calling it
// on an Unlocked row is a no-op; calling it twice is idempotent.
func (r *ClientRecord) MarkPaymentEdited(i int) error {
	if i < 0 || i >= len(r.Payments) {
		return ErrRowNotFound
	}
	if r.Payments[i].State == StateLocked {
		r.Payments[i].State = StateLockedEdited
	}
	return nil
}

// MarkWorkerEdited reopens a locked worker row for editing.
func (r *ClientRecord) MarkWorkerEdited(i int) error {
	if i < 0 || i >= len(r.Workers) {
		return ErrRowNotFound
	}
	if r.Workers[i].State == StateLocked {
		r.Workers[i].State = StateLockedEdited
	}
	return nil
}

// =============================================================================
// GUARDED FIELD WRITES
// =============================================================================

// SetPaymentField writes one canonical field of a payment row, enforcing
// the lock guard and field-level validation. On a Locked row the write is
// rejected with a LockViolationError (a guarded no-op for callers); on
// invalid input a ValidationError is returned and nothing mutates.
func (r *ClientRecord) SetPaymentField(i int, field, value string) error {
	if i < 0 || i >= len(r.Payments) {
		return ErrRowNotFound
	}
	if !r.Payments[i].State.Editable() {
		return &LockViolationError{Collection: "payments", Index: i, Op: "edit"}
	}
	return r.Payments[i].setField(field, value)
}

// SetWorkerField writes one canonical field of a worker row under the
// same guard. Setting startDate or endDate recomputes totalDays from the
// inclusive day count; writing totalDays directly overrides it.
func (r *ClientRecord) SetWorkerField(i int, field, value string) error {
	if i < 0 || i >= len(r.Workers) {
		return ErrRowNotFound
	}
	if !r.Workers[i].State.Editable() {
		return &LockViolationError{Collection: "workers", Index: i, Op: "edit"}
	}
	return r.Workers[i].setField(field, value)
}

// =============================================================================
// APPEND / REMOVE
// =============================================================================

// AddPayment appends a blank Unlocked row and returns its index.
func (r *ClientRecord) AddPayment() int {
	r.Payments = append(r.Payments, NewPaymentRow())
	return len(r.Payments) - 1
}

// AddWorker appends a blank Unlocked row and returns its index.
func (r *ClientRecord) AddWorker() int {
	r.Workers = append(r.Workers, NewWorkerRow())
	return len(r.Workers) - 1
}

// RemovePayment removes an Unlocked row. Removing a Locked or
// LockedEdited row is rejected. A collection never ends up empty: the
// last row removed is replaced by a fresh placeholder.
func (r *ClientRecord) RemovePayment(i int) error {
	if i < 0 || i >= len(r.Payments) {
		return ErrRowNotFound
	}
	if !r.Payments[i].State.Removable() {
		return &LockViolationError{Collection: "payments", Index: i, Op: "remove"}
	}
	r.Payments = append(r.Payments[:i], r.Payments[i+1:]...)
	if len(r.Payments) == 0 {
		r.Payments = append(r.Payments, NewPaymentRow())
	}
	return nil
}

// RemoveWorker removes an Unlocked worker row under the same rules.
func (r *ClientRecord) RemoveWorker(i int) error {
	if i < 0 || i >= len(r.Workers) {
		return ErrRowNotFound
	}
	if !r.Workers[i].State.Removable() {
		return &LockViolationError{Collection: "workers", Index: i, Op: "remove"}
	}
	r.Workers = append(r.Workers[:i], r.Workers[i+1:]...)
	if len(r.Workers) == 0 {
		r.Workers = append(r.Workers, NewWorkerRow())
	}
	return nil
}

// =============================================================================
// SAVE TRANSITION
// =============================================================================

// LockAll transitions every non-empty row to Locked and clears the edit
// gesture. Blank placeholders stay Unlocked: the normalizer derives lock
// state from content, so locking an empty row would not survive a reload.
func (r *ClientRecord) LockAll() {
	for i := range r.Payments {
		if !r.Payments[i].IsEmpty() {
			r.Payments[i].State = StateLocked
		}
	}
	for i := range r.Workers {
		if !r.Workers[i].IsEmpty() {
			r.Workers[i].State = StateLocked
		}
	}
}
