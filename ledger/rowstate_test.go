package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/care-ledger/ledger"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// lockedRecord builds a record with one locked payment and one locked
// worker row, the way a record looks right after a reload.
func lockedRecord(t *testing.T) *ledger.ClientRecord {
	t.Helper()
	rec := ledger.NormalizeRecord("C1", map[string]any{
		"payments": []any{map[string]any{"paidAmount": "500", "balance": "100", "date": "2024-03-01"}},
		"workers":  []any{map[string]any{"workerId": "W1", "name": "A. Worker"}},
	})
	require.Equal(t, ledger.StateLocked, rec.Payments[0].State)
	require.Equal(t, ledger.StateLocked, rec.Workers[0].State)
	return rec
}

// =============================================================================
// EDIT GUARD
// =============================================================================

func TestLockGuard_EditWithoutGesture_LeavesFieldUnchanged(t *testing.T) {
	// GIVEN: A locked payment row
	// WHEN: Writing a field without the edit gesture
	// THEN: The write is rejected and nothing changes

	rec := lockedRecord(t)

	err := rec.SetPaymentField(0, "remarks", "tampered")

	assert.ErrorIs(t, err, ledger.ErrRowLocked)
	assert.Equal(t, "", rec.Payments[0].Remarks)
	assert.Equal(t, ledger.StateLocked, rec.Payments[0].State)
}

func TestLockGuard_EditAfterGesture_Succeeds(t *testing.T) {
	// The same write with edited set first goes through (guard
	// idempotence law).
	rec := lockedRecord(t)

	require.NoError(t, rec.MarkPaymentEdited(0))
	err := rec.SetPaymentField(0, "remarks", "corrected")

	require.NoError(t, err)
	assert.Equal(t, "corrected", rec.Payments[0].Remarks)
	assert.Equal(t, ledger.StateLockedEdited, rec.Payments[0].State)
}

func TestLockGuard_GestureIsIdempotent(t *testing.T) {
	rec := lockedRecord(t)

	require.NoError(t, rec.MarkPaymentEdited(0))
	require.NoError(t, rec.MarkPaymentEdited(0))

	assert.Equal(t, ledger.StateLockedEdited, rec.Payments[0].State)
}

func TestLockGuard_WorkerRows_SameRules(t *testing.T) {
	rec := lockedRecord(t)

	err := rec.SetWorkerField(0, "name", "tampered")
	assert.ErrorIs(t, err, ledger.ErrRowLocked)

	require.NoError(t, rec.MarkWorkerEdited(0))
	require.NoError(t, rec.SetWorkerField(0, "name", "B. Worker"))
	assert.Equal(t, "B. Worker", rec.Workers[0].Name)
}

// =============================================================================
// REMOVAL
// =============================================================================

func TestRemove_LockedRow_IsNoOp(t *testing.T) {
	rec := lockedRecord(t)

	err := rec.RemovePayment(0)

	assert.ErrorIs(t, err, ledger.ErrRowLocked)
	require.Len(t, rec.Payments, 1)
	assert.Equal(t, "500", rec.Payments[0].PaidAmount.String())
}

func TestRemove_LockedEditedRow_StillRejected(t *testing.T) {
	// The edit gesture reopens fields, not removability.
	rec := lockedRecord(t)
	require.NoError(t, rec.MarkPaymentEdited(0))

	err := rec.RemovePayment(0)

	assert.ErrorIs(t, err, ledger.ErrRowLocked)
}

func TestRemove_SolePlaceholder_RefreshesBlank(t *testing.T) {
	// GIVEN: A fresh record whose only row is the unlocked placeholder
	rec := ledger.NewClientRecord("C1")
	require.NoError(t, rec.SetPaymentField(0, "remarks", "half-typed"))

	// WHEN: Removing it
	require.NoError(t, rec.RemovePayment(0))

	// THEN: A fresh blank placeholder takes its place
	require.Len(t, rec.Payments, 1)
	assert.True(t, rec.Payments[0].IsEmpty())
	assert.Equal(t, ledger.StateUnlocked, rec.Payments[0].State)
}

func TestRemove_UnlockedRowAmongLocked_Succeeds(t *testing.T) {
	rec := lockedRecord(t)
	idx := rec.AddPayment()
	require.NoError(t, rec.SetPaymentField(idx, "remarks", "draft"))

	require.NoError(t, rec.RemovePayment(idx))

	assert.Len(t, rec.Payments, 1)
}

// =============================================================================
// SAVE TRANSITION
// =============================================================================

func TestLockAll_LocksContentRows_ClearsGesture(t *testing.T) {
	rec := lockedRecord(t)
	require.NoError(t, rec.MarkPaymentEdited(0))
	idx := rec.AddPayment()
	require.NoError(t, rec.SetPaymentField(idx, "paidAmount", "200"))
	blank := rec.AddPayment()

	rec.LockAll()

	assert.Equal(t, ledger.StateLocked, rec.Payments[0].State)
	assert.Equal(t, ledger.StateLocked, rec.Payments[idx].State)
	// Blank placeholders stay editable
	assert.Equal(t, ledger.StateUnlocked, rec.Payments[blank].State)
}

// =============================================================================
// FIELD VALIDATION
// =============================================================================

func TestValidation_PaidAmount_DigitOnlyPositiveBounded(t *testing.T) {
	rec := ledger.NewClientRecord("C1")

	for _, bad := range []string{"-5", "12.50", "abc", "0", "12345678901"} {
		err := rec.SetPaymentField(0, "paidAmount", bad)
		var vErr *ledger.ValidationError
		assert.ErrorAs(t, err, &vErr, "paidAmount %q should be rejected", bad)
		assert.True(t, rec.Payments[0].PaidAmount.IsZero(), "rejected input must not mutate state")
	}

	require.NoError(t, rec.SetPaymentField(0, "paidAmount", "500"))
	assert.Equal(t, "500", rec.Payments[0].PaidAmount.String())
}

func TestValidation_Balance_NeverNegative(t *testing.T) {
	rec := ledger.NewClientRecord("C1")

	err := rec.SetPaymentField(0, "balance", "-10")

	var vErr *ledger.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.True(t, rec.Payments[0].Balance.IsZero())
}

func TestValidation_WorkerDates_DeriveInclusiveTotalDays(t *testing.T) {
	rec := ledger.NewClientRecord("C1")

	require.NoError(t, rec.SetWorkerField(0, "startDate", "2024-03-01"))
	require.NoError(t, rec.SetWorkerField(0, "endDate", "2024-03-10"))
	assert.Equal(t, 10, rec.Workers[0].TotalDays)

	// Explicit write overrides the derived count
	require.NoError(t, rec.SetWorkerField(0, "totalDays", "7"))
	assert.Equal(t, 7, rec.Workers[0].TotalDays)
}
