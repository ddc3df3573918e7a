/*
session.go - Edit session and save cycle

PURPOSE:
  A Session is one operator's editing pass over one client record:

    load -> normalize -> freeze snapshot -> edits on the live copy
         -> save: diff, audit, persist, re-freeze, re-lock

  Every mutation routes through the row lock state machine; every save
  captures what changed between the frozen and live snapshots as audit
  entries before the document is handed to the store.

FAILURE MODEL:
  The store call is the only suspension point. On success, in-memory
  state (lock transitions, the new frozen baseline) updates immediately.
  On failure the pre-save live snapshot is untouched and the session
  stays editable, so the operator can simply retry.

  There is no cross-session locking: two sessions on the same client can
  race, and the last save wins. Accepted limitation.

SEE ALSO:
  - normalize.go: Load-boundary coercion
  - diff.go: The audit artifacts a save produces
  - store.go: The persistence contract
*/
package ledger

import (
	"context"
	"errors"
	"fmt"
)

// =============================================================================
// SESSION
// =============================================================================

type Session struct {
	store  RecordStore
	id     string
	frozen Snapshot
	live   *ClientRecord
}

// Open loads and normalizes the client's document and freezes the diff
// baseline. An absent document starts a fresh blank record; the client
// then exists in the store after the first save.
func Open(ctx context.Context, store RecordStore, id string) (*Session, error) {
	raw, err := store.LoadRecord(ctx, id)
	switch {
	case errors.Is(err, ErrRecordNotFound):
		rec := NewClientRecord(id)
		return &Session{store: store, id: id, live: rec, frozen: rec.Snapshot()}, nil
	case err != nil:
		return nil, &PersistenceError{Op: "load", Key: id, Err: err}
	}

	rec := NormalizeRecord(id, raw)
	return &Session{store: store, id: id, live: rec, frozen: rec.Snapshot()}, nil
}

// Record exposes the live record for edits. All row mutations must go
// through the record's guarded methods.
func (s *Session) Record() *ClientRecord { return s.live }

// Totals recomputes the derived payment totals on demand.
func (s *Session) Totals() Totals { return s.live.Totals() }

// =============================================================================
// SAVE CYCLE
// =============================================================================

type SaveResult struct {
	// Entries are the audit entries this save appended; empty for a
	// no-op save.
	Entries []AuditEntry
	Changed bool
}

// Save persists the live record. The frozen snapshot is diffed against
// the live one, audit entries are appended, lock/edit metadata is
// stripped into the persisted shape, and on success the live values
// become the new frozen baseline and every row locks.
func (s *Session) Save(ctx context.Context, actor string) (SaveResult, error) {
	after := s.live.Snapshot()
	entries := BuildAuditEntries(s.frozen, after, actor, Now())
	s.live.AuditLog = append(s.live.AuditLog, entries...)

	if err := s.store.SaveRecord(ctx, s.id, s.live.Document()); err != nil {
		// Roll back the audit append; the session stays editable for retry.
		s.live.AuditLog = s.live.AuditLog[:len(s.live.AuditLog)-len(entries)]
		return SaveResult{}, &PersistenceError{Op: "save", Key: s.id, Err: err}
	}

	s.live.LockAll()
	s.frozen = after
	return SaveResult{Entries: entries, Changed: len(entries) > 0}, nil
}

// ClearReminderDates blanks every payment reminder date as a bulk-clear:
// the store removes the field paths directly, and both the live record
// and the frozen baseline drop the values so the next save does not
// re-flag them as changes.
func (s *Session) ClearReminderDates(ctx context.Context) error {
	var paths []string
	for i := range s.live.Payments {
		if s.live.Payments[i].ReminderDate != "" {
			paths = append(paths, fmt.Sprintf("payments.%d.reminderDate", i))
		}
	}
	if len(paths) == 0 {
		return nil
	}
	if err := s.store.RemoveFieldPaths(ctx, s.id, paths); err != nil {
		return &PersistenceError{Op: "clear", Key: s.id, Err: err}
	}
	for i := range s.live.Payments {
		s.live.Payments[i].ReminderDate = ""
	}
	for i := range s.frozen.Payments {
		delete(s.frozen.Payments[i], "reminderDate")
	}
	return nil
}

// =============================================================================
// INCOMING EDITS - Route a UI-edited document through the guards
// =============================================================================

// ApplyIncoming merges an edited copy of the record (as submitted by the
// UI) into the live record under the state machine's rules:
//   - scalar fields are replaced wholesale
//   - a row's "edited" marker performs the explicit unlock gesture
//   - field writes on locked rows are silently dropped (guarded no-ops)
//   - rows beyond the incoming length are removed where removable
//   - invalid values are rejected per field and collected
//
// The returned error, if any, is a ValidationErrors listing every
// rejected field; valid fields are applied regardless.
func (s *Session) ApplyIncoming(doc map[string]any) error {
	var invalid ValidationErrors

	scalars := make(map[string]string)
	for key, value := range doc {
		switch key {
		case "payments", "workers", "auditLog":
			continue
		}
		if v, ok := scalarString(value); ok {
			scalars[key] = v
		}
	}
	s.live.Scalars = scalars

	incoming := collectionRows(doc["payments"])
	for i, rowRaw := range incoming {
		if i >= len(s.live.Payments) {
			s.live.AddPayment()
		}
		if truthy(rowRaw["edited"]) {
			_ = s.live.MarkPaymentEdited(i)
		}
		invalid = append(invalid, s.applyRow(rowRaw, i, "payments")...)
	}
	for i := len(s.live.Payments) - 1; i >= len(incoming) && i >= 0; i-- {
		_ = s.live.RemovePayment(i) // locked rows refuse and stay
	}

	incoming = collectionRows(doc["workers"])
	for i, rowRaw := range incoming {
		if i >= len(s.live.Workers) {
			s.live.AddWorker()
		}
		if truthy(rowRaw["edited"]) {
			_ = s.live.MarkWorkerEdited(i)
		}
		invalid = append(invalid, s.applyRow(rowRaw, i, "workers")...)
	}
	for i := len(s.live.Workers) - 1; i >= len(incoming) && i >= 0; i-- {
		_ = s.live.RemoveWorker(i)
	}

	if len(invalid) > 0 {
		return invalid
	}
	return nil
}

func (s *Session) applyRow(rowRaw map[string]any, i int, collection string) ValidationErrors {
	var invalid ValidationErrors
	for key, value := range rowRaw {
		if rowMetaKeys[key] {
			continue
		}
		v, ok := scalarString(value)
		if !ok {
			continue
		}
		if canonical, isLegacy := aliasTableV1[key]; isLegacy {
			if cur, _ := scalarString(rowRaw[canonical]); cur != "" {
				continue
			}
			key = canonical
		}

		var err error
		if collection == "payments" {
			err = s.live.SetPaymentField(i, key, v)
		} else {
			err = s.live.SetWorkerField(i, key, v)
		}

		var vErr *ValidationError
		switch {
		case err == nil:
		case errors.As(err, &vErr):
			invalid = append(invalid, ValidationError{
				Field:   fmt.Sprintf("%s[%d].%s", collection, i, key),
				Message: vErr.Message,
			})
		case errors.Is(err, ErrRowLocked):
			// Guarded no-op: the edit gesture was not made.
		case errors.Is(err, ErrUnknownField):
			s.setRowExtra(collection, i, key, v)
		}
	}
	return invalid
}

func (s *Session) setRowExtra(collection string, i int, key, value string) {
	if collection == "payments" {
		if s.live.Payments[i].State.Editable() {
			setExtra(&s.live.Payments[i].Extra, key, value)
		}
		return
	}
	if s.live.Workers[i].State.Editable() {
		setExtra(&s.live.Workers[i].Extra, key, value)
	}
}
