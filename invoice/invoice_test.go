package invoice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/care-ledger/invoice"
	"github.com/warp/care-ledger/ledger"
	"github.com/warp/care-ledger/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newService(t *testing.T) (*invoice.Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return invoice.NewService(mem), mem
}

func marchInput(serviceDate string) invoice.CreateInput {
	return invoice.CreateInput{
		ClientID:      "C1",
		ServiceDate:   serviceDate,
		Date:          "2024-03-20",
		InvoiceAmount: ledger.NewMoneyFromInt(12000),
	}
}

// =============================================================================
// NUMBERING
// =============================================================================

func TestNumberFor_FirstOfMonthHasNoSequence(t *testing.T) {
	issued, err := ledger.ParseDate("2024-03-20")
	require.NoError(t, err)

	assert.Equal(t, "C1-Mar-24", invoice.NumberFor("C1", issued, 0))
	assert.Equal(t, "C1-Mar-24-2", invoice.NumberFor("C1", issued, 1))
	assert.Equal(t, "C1-Mar-24-5", invoice.NumberFor("C1", issued, 4))
}

func TestCreate_SequencesWithinIssueMonth(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	first, err := svc.Create(ctx, marchInput("2024-03-10"))
	require.NoError(t, err)
	second, err := svc.Create(ctx, marchInput("2024-03-17"))
	require.NoError(t, err)

	assert.Equal(t, "C1-Mar-24", first.Number)
	assert.Equal(t, "C1-Mar-24-2", second.Number)

	// A new issue month resets the sequence
	april := marchInput("2024-04-10")
	april.Date = "2024-04-05"
	third, err := svc.Create(ctx, april)
	require.NoError(t, err)
	assert.Equal(t, "C1-Apr-24", third.Number)
}

// =============================================================================
// CREATE
// =============================================================================

func TestCreate_AmountFallsBackToServiceCharge(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	in := marchInput("2024-03-10")
	in.InvoiceAmount = ledger.Money{}
	in.ServiceCharge = ledger.NewMoneyFromInt(9000)
	in.TravelingCharges = ledger.NewMoneyFromInt(500)
	in.ExtraCharges = ledger.NewMoneyFromInt(250)

	inv, err := svc.Create(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, "9000", inv.InvoiceAmount.String())
	assert.Equal(t, "9750", inv.Amount.String())
}

func TestCreate_ValidatesInput(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	var vErr *ledger.ValidationError

	_, err := svc.Create(ctx, invoice.CreateInput{ServiceDate: "2024-03-10"})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "clientId", vErr.Field)

	_, err = svc.Create(ctx, invoice.CreateInput{ClientID: "C1", ServiceDate: "10/03/2024"})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "serviceDate", vErr.Field)
}

// =============================================================================
// DEDUP - One invoice per (client, service date)
// =============================================================================

func TestCreate_DuplicateServiceDateRejected(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	first, err := svc.Create(ctx, marchInput("2024-03-10"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, marchInput("2024-03-10"))

	var dup *invoice.DuplicateInvoiceError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, first.ID, dup.ExistingID)
	assert.Equal(t, first.Number, dup.ExistingNumber)
}

func TestCreateOrUpdate_CollisionRoutesToUpdate(t *testing.T) {
	// GIVEN: An invoice for the service date
	ctx := context.Background()
	svc, _ := newService(t)
	first, err := svc.Create(ctx, marchInput("2024-03-10"))
	require.NoError(t, err)

	// WHEN: Creating again for the same service date with new amounts
	in := marchInput("2024-03-10")
	in.InvoiceAmount = ledger.NewMoneyFromInt(15000)
	got, updated, err := svc.CreateOrUpdate(ctx, in)
	require.NoError(t, err)

	// THEN: The existing invoice is updated in place, number preserved
	assert.True(t, updated)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, first.Number, got.Number)
	assert.Equal(t, "15000", got.InvoiceAmount.String())

	// AND: Still exactly one invoice for the client
	active, err := svc.List(ctx, "C1", false)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestSoftDeleted_StillBlocksDedup(t *testing.T) {
	// The period has been billed, deleted or not
	ctx := context.Background()
	svc, _ := newService(t)
	first, err := svc.Create(ctx, marchInput("2024-03-10"))
	require.NoError(t, err)
	require.NoError(t, svc.SoftDelete(ctx, "C1", first.ID, "operator"))

	_, err = svc.Create(ctx, marchInput("2024-03-10"))

	var dup *invoice.DuplicateInvoiceError
	assert.ErrorAs(t, err, &dup)
}

// =============================================================================
// SOFT DELETE & RESTORE
// =============================================================================

func TestSoftDelete_MovesToArchiveView(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	inv, err := svc.Create(ctx, marchInput("2024-03-10"))
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(ctx, "C1", inv.ID, "operator"))

	active, err := svc.List(ctx, "C1", false)
	require.NoError(t, err)
	assert.Empty(t, active)

	archived, err := svc.List(ctx, "C1", true)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.True(t, archived[0].Deleted)
	assert.Equal(t, "operator", archived[0].DeletedBy)
}

func TestRestore_ReturnsToActiveView(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	inv, err := svc.Create(ctx, marchInput("2024-03-10"))
	require.NoError(t, err)
	require.NoError(t, svc.SoftDelete(ctx, "C1", inv.ID, "operator"))

	require.NoError(t, svc.Restore(ctx, "C1", inv.ID))

	active, err := svc.List(ctx, "C1", false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.False(t, active[0].Deleted)
	assert.Empty(t, active[0].DeletedBy)

	// The original number survives the delete/restore round trip
	assert.Equal(t, inv.Number, active[0].Number)
}

func TestSoftDelete_UnknownInvoice(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	err := svc.SoftDelete(ctx, "C1", "nope", "operator")

	assert.ErrorIs(t, err, invoice.ErrInvoiceNotFound)
}
