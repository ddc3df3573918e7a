package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/care-ledger/ledger"
)

// =============================================================================
// COLLECTION COERCION
// =============================================================================

func TestNormalize_MapShapedPayments_EnumerationOrder(t *testing.T) {
	// GIVEN: A legacy document storing payments as a string-keyed map
	// WHEN: Normalizing
	// THEN: Rows come out dense, in enumeration order, locked

	raw := map[string]any{
		"name": "A. Client",
		"payments": map[string]any{
			"0":  map[string]any{"paidAmount": "500"},
			"k1": map[string]any{"paidAmount": "300"},
		},
	}

	rec := ledger.NormalizeRecord("C1", raw)

	require.Len(t, rec.Payments, 2)
	assert.Equal(t, "500", rec.Payments[0].PaidAmount.String())
	assert.Equal(t, "300", rec.Payments[1].PaidAmount.String())
	assert.Equal(t, ledger.StateLocked, rec.Payments[0].State)
	assert.Equal(t, ledger.StateLocked, rec.Payments[1].State)
}

func TestNormalize_MapShapedPayments_NumericKeysSortNumerically(t *testing.T) {
	raw := map[string]any{
		"payments": map[string]any{
			"10": map[string]any{"receiptNo": "R10"},
			"2":  map[string]any{"receiptNo": "R2"},
			"1":  map[string]any{"receiptNo": "R1"},
		},
	}

	rec := ledger.NormalizeRecord("C1", raw)

	require.Len(t, rec.Payments, 3)
	assert.Equal(t, "R1", rec.Payments[0].ReceiptNo)
	assert.Equal(t, "R2", rec.Payments[1].ReceiptNo)
	assert.Equal(t, "R10", rec.Payments[2].ReceiptNo)
}

func TestNormalize_EmptyCollections_GetPlaceholder(t *testing.T) {
	// A record never shows an empty sub-ledger: a blank Unlocked
	// placeholder row is always present.
	rec := ledger.NormalizeRecord("C1", map[string]any{"name": "X"})

	require.Len(t, rec.Payments, 1)
	require.Len(t, rec.Workers, 1)
	assert.Equal(t, ledger.StateUnlocked, rec.Payments[0].State)
	assert.True(t, rec.Payments[0].IsEmpty())
}

// =============================================================================
// LEGACY ALIASES
// =============================================================================

func TestNormalize_LegacyAliases_ResolvedAndPreserved(t *testing.T) {
	// GIVEN: A row using the old spellings receptNo and method
	raw := map[string]any{
		"payments": []any{
			map[string]any{"receptNo": "R-9", "method": "cash", "paidAmount": "100"},
		},
	}

	rec := ledger.NormalizeRecord("C1", raw)

	// THEN: Canonical fields carry the values
	require.Len(t, rec.Payments, 1)
	assert.Equal(t, "R-9", rec.Payments[0].ReceiptNo)
	assert.Equal(t, "cash", rec.Payments[0].PaymentMethod)

	// AND: The legacy keys survive the round trip
	doc := rec.Document()
	row := doc["payments"].([]any)[0].(map[string]any)
	assert.Equal(t, "R-9", row["receptNo"])
	assert.Equal(t, "R-9", row["receiptNo"])
	assert.Equal(t, "cash", row["method"])
	assert.Equal(t, "cash", row["paymentMethod"])
}

func TestNormalize_CanonicalKeyWins_WhenBothPresent(t *testing.T) {
	raw := map[string]any{
		"payments": []any{
			map[string]any{"receptNo": "OLD", "receiptNo": "NEW"},
		},
	}

	rec := ledger.NormalizeRecord("C1", raw)

	assert.Equal(t, "NEW", rec.Payments[0].ReceiptNo)
	assert.Equal(t, "OLD", rec.Payments[0].Extra["receptNo"])
}

// =============================================================================
// LOCK SEEDING & METADATA STRIPPING
// =============================================================================

func TestNormalize_LockState_DerivedFromContent(t *testing.T) {
	raw := map[string]any{
		"payments": []any{
			map[string]any{"paidAmount": "100"},
			map[string]any{}, // blank placeholder from a previous save
		},
	}

	rec := ledger.NormalizeRecord("C1", raw)

	assert.Equal(t, ledger.StateLocked, rec.Payments[0].State)
	assert.Equal(t, ledger.StateUnlocked, rec.Payments[1].State)
}

func TestNormalize_PersistedShape_StripsLockMetadata(t *testing.T) {
	raw := map[string]any{
		"payments": []any{map[string]any{"paidAmount": "100"}},
	}

	doc := ledger.NormalizeRecord("C1", raw).Document()

	row := doc["payments"].([]any)[0].(map[string]any)
	assert.NotContains(t, row, "locked")
	assert.NotContains(t, row, "edited")
}

func TestNormalize_AdjustmentProvenance_Persists(t *testing.T) {
	raw := map[string]any{
		"payments": []any{
			map[string]any{"paidAmount": "100", "adjustment": true, "adjustmentType": "balance"},
		},
	}

	rec := ledger.NormalizeRecord("C1", raw)
	require.Equal(t, ledger.KindAdjustment, rec.Payments[0].Kind)

	row := rec.Document()["payments"].([]any)[0].(map[string]any)
	assert.Equal(t, true, row["adjustment"])
	assert.Equal(t, "balance", row["adjustmentType"])
}

// =============================================================================
// IDEMPOTENCE
// =============================================================================

func TestNormalize_Idempotent(t *testing.T) {
	// Normalizing a canonical record must be a no-op.
	raw := map[string]any{
		"name":          "A. Client",
		"serviceCharge": "12000",
		"payments": map[string]any{
			"0": map[string]any{"receptNo": "R1", "paidAmount": "500", "balance": "250"},
		},
		"workers": []any{
			map[string]any{"workerId": "W1", "startDate": "2024-03-01", "endDate": "2024-03-10"},
		},
	}

	once := ledger.NormalizeRecord("C1", raw)
	twice := ledger.NormalizeRecord("C1", once.Document())

	assert.Equal(t, once.Scalars, twice.Scalars)
	assert.Equal(t, once.Payments, twice.Payments)
	assert.Equal(t, once.Workers, twice.Workers)
}

// =============================================================================
// WORKER DERIVATION
// =============================================================================

func TestNormalize_WorkerTotalDays_DerivedInclusive(t *testing.T) {
	raw := map[string]any{
		"workers": []any{
			map[string]any{"workerId": "W1", "startDate": "2024-03-01", "endDate": "2024-03-10"},
		},
	}

	rec := ledger.NormalizeRecord("C1", raw)

	assert.Equal(t, 10, rec.Workers[0].TotalDays)
}

func TestNormalize_WorkerTotalDays_StoredOverrideWins(t *testing.T) {
	raw := map[string]any{
		"workers": []any{
			map[string]any{"startDate": "2024-03-01", "endDate": "2024-03-10", "totalDays": "7"},
		},
	}

	rec := ledger.NormalizeRecord("C1", raw)

	assert.Equal(t, 7, rec.Workers[0].TotalDays)
}
