package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/care-ledger/invoice"
	"github.com/warp/care-ledger/ledger"
	"github.com/warp/care-ledger/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// =============================================================================
// RECORD DOCUMENTS
// =============================================================================

func TestRecord_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	doc := map[string]any{
		"name": "Asha",
		"payments": []any{
			map[string]any{"paidAmount": "500", "balance": "100"},
		},
	}
	require.NoError(t, s.SaveRecord(ctx, "C1", doc))

	got, err := s.LoadRecord(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", got["name"])
	payments, ok := got["payments"].([]any)
	require.True(t, ok)
	require.Len(t, payments, 1)
	row, ok := payments[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "500", row["paidAmount"])
}

func TestRecord_SaveReplacesWhole(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.SaveRecord(ctx, "C1", map[string]any{"name": "Asha", "mobile1": "111"}))
	require.NoError(t, s.SaveRecord(ctx, "C1", map[string]any{"name": "Devi"}))

	got, err := s.LoadRecord(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, "Devi", got["name"])
	assert.NotContains(t, got, "mobile1")
}

func TestRecord_AbsentIsNotFound(t *testing.T) {
	s := newStore(t)

	_, err := s.LoadRecord(context.Background(), "missing")

	assert.ErrorIs(t, err, ledger.ErrRecordNotFound)
}

func TestRemoveFieldPaths(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.SaveRecord(ctx, "C1", map[string]any{
		"name": "Asha",
		"payments": []any{
			map[string]any{"paidAmount": "500", "reminderDate": "2024-03-01"},
			map[string]any{"paidAmount": "300", "reminderDate": "2024-04-01"},
		},
	}))

	err := s.RemoveFieldPaths(ctx, "C1", []string{
		"payments.0.reminderDate",
		"payments.1.reminderDate",
	})
	require.NoError(t, err)

	got, err := s.LoadRecord(ctx, "C1")
	require.NoError(t, err)
	for _, raw := range got["payments"].([]any) {
		row := raw.(map[string]any)
		assert.NotContains(t, row, "reminderDate")
		assert.Contains(t, row, "paidAmount")
	}
}

// =============================================================================
// INVOICE DOCUMENTS
// =============================================================================

func TestInvoices_ListedByClientSubPath(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	put := func(id, clientID, serviceDate string) {
		require.NoError(t, s.PutInvoice(ctx, invoice.Invoice{
			ID:          id,
			Number:      clientID + "-Mar-24",
			ClientID:    clientID,
			Date:        "2024-03-20",
			ServiceDate: serviceDate,
			Amount:      ledger.NewMoneyFromInt(9000),
		}))
	}
	put("inv-a", "C1", "2024-03-10")
	put("inv-b", "C1", "2024-04-10")
	put("inv-c", "C2", "2024-03-10")

	got, err := s.ListInvoices(ctx, "C1")
	require.NoError(t, err)

	require.Len(t, got, 2)
	for _, inv := range got {
		assert.Equal(t, "C1", inv.ClientID)
	}
}

func TestInvoices_PutReplacesAtID(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	inv := invoice.Invoice{
		ID:          "inv-a",
		Number:      "C1-Mar-24",
		ClientID:    "C1",
		ServiceDate: "2024-03-10",
		Amount:      ledger.NewMoneyFromInt(9000),
	}
	require.NoError(t, s.PutInvoice(ctx, inv))

	inv.Amount = ledger.NewMoneyFromInt(12000)
	inv.Deleted = true
	require.NoError(t, s.PutInvoice(ctx, inv))

	got, err := s.ListInvoices(ctx, "C1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "12000", got[0].Amount.String())
	assert.True(t, got[0].Deleted)
}

func TestInvoices_MoneySurvivesSerialization(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.PutInvoice(ctx, invoice.Invoice{
		ID:            "inv-a",
		ClientID:      "C1",
		ServiceDate:   "2024-03-10",
		InvoiceAmount: ledger.NewMoney(9000.50),
		Amount:        ledger.NewMoney(9000.50),
	}))

	got, err := s.ListInvoices(ctx, "C1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "9000.5", got[0].InvoiceAmount.String())
}
