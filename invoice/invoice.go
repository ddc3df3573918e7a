/*
Package invoice provides invoice numbering, duplicate detection, and the
soft-delete archive for client invoices.

PURPOSE:
  An invoice is identified by the service period it bills, not by when an
  operator happened to create it. The key is (clientID, serviceDate):
  asking for a second invoice over the same service date never mints a new
  number, it routes into update-in-place against the existing invoice.

NUMBERING:
  {clientId}-{monthAbbrev}-{yy}[-{sequence}]

  The sequence is the 1-based count of invoices already issued to that
  client in that issue month, omitted for the first. Soft-deleted
  invoices keep their slot: numbers are never reused.

SOFT DELETE:
  Deletion flags the invoice and moves it to the archive view; restore
  clears the flag. A soft-deleted invoice still blocks a new invoice for
  its service date - the period has been billed, deleted or not.

SEE ALSO:
  - pdf.go: Printable rendering
  - store/sqlite: Persistence under the client's invoice sub-path
*/
package invoice

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/warp/care-ledger/ledger"
)

// =============================================================================
// INVOICE - Persisted shape
// =============================================================================

type Invoice struct {
	ID          string `json:"id"`
	Number      string `json:"invoiceNumber"`
	ClientID    string `json:"clientId"`
	Date        string `json:"date"`        // issue date
	ServiceDate string `json:"serviceDate"` // billed service period

	InvoiceAmount    ledger.Money `json:"invoiceAmount"`
	TravelingCharges ledger.Money `json:"travelingCharges"`
	ExtraCharges     ledger.Money `json:"extraCharges"`
	Amount           ledger.Money `json:"amount"` // derived total

	// Data carries display fields the console prints (client name,
	// address, service description). Opaque to this package.
	Data map[string]string `json:"data,omitempty"`

	CreatedAt ledger.TimePoint `json:"createdAt"`
	UpdatedAt ledger.TimePoint `json:"updatedAt"`

	Deleted   bool             `json:"deleted"`
	DeletedAt ledger.TimePoint `json:"deletedAt,omitempty"`
	DeletedBy string           `json:"deletedBy,omitempty"`
}

// Total is the invoice amount plus charges. Stored denormalized in
// Amount, recomputed on every write.
func Total(invoiceAmount, traveling, extra ledger.Money) ledger.Money {
	return invoiceAmount.Add(traveling).Add(extra)
}

// =============================================================================
// ERRORS
// =============================================================================

var ErrInvoiceNotFound = errors.New("invoice not found")

// DuplicateInvoiceError reports a service-date collision. It is
// recoverable: the caller updates the existing invoice in place,
// preserving its original number.
type DuplicateInvoiceError struct {
	ClientID       string
	ServiceDate    string
	ExistingID     string
	ExistingNumber string
}

func (e *DuplicateInvoiceError) Error() string {
	return fmt.Sprintf("invoice for client %s service date %s already exists as %s",
		e.ClientID, e.ServiceDate, e.ExistingNumber)
}

// =============================================================================
// STORE - Persistence under the client's invoice sub-path
// =============================================================================

type Store interface {
	// ListInvoices returns every invoice persisted for the client,
	// soft-deleted ones included.
	ListInvoices(ctx context.Context, clientID string) ([]Invoice, error)

	// PutInvoice inserts or replaces the invoice at its id.
	PutInvoice(ctx context.Context, inv Invoice) error
}

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	store Store
	now   func() ledger.TimePoint
}

func NewService(store Store) *Service {
	return &Service{store: store, now: ledger.Now}
}

type CreateInput struct {
	ClientID    string
	ServiceDate string
	Date        string // issue date; today when blank

	// InvoiceAmount zero falls back to ServiceCharge, the client's
	// standing monthly charge.
	InvoiceAmount    ledger.Money
	ServiceCharge    ledger.Money
	TravelingCharges ledger.Money
	ExtraCharges     ledger.Money

	Data map[string]string
}

func (in CreateInput) validate() error {
	if in.ClientID == "" {
		return &ledger.ValidationError{Field: "clientId", Message: "required"}
	}
	if in.ServiceDate == "" {
		return &ledger.ValidationError{Field: "serviceDate", Message: "required"}
	}
	if _, err := ledger.ParseDate(in.ServiceDate); err != nil {
		return &ledger.ValidationError{Field: "serviceDate", Message: "invalid date, want " + ledger.DateLayout}
	}
	for field, m := range map[string]ledger.Money{
		"invoiceAmount":    in.InvoiceAmount,
		"travelingCharges": in.TravelingCharges,
		"extraCharges":     in.ExtraCharges,
	} {
		if m.IsNegative() {
			return &ledger.ValidationError{Field: field, Message: "must not be negative"}
		}
	}
	return nil
}

// Create persists a new invoice for the service date. A collision on
// (clientID, serviceDate) - soft-deleted invoices included - returns a
// DuplicateInvoiceError carrying the existing invoice's identity.
func (s *Service) Create(ctx context.Context, in CreateInput) (Invoice, error) {
	if err := in.validate(); err != nil {
		return Invoice{}, err
	}

	existing, err := s.store.ListInvoices(ctx, in.ClientID)
	if err != nil {
		return Invoice{}, &ledger.PersistenceError{Op: "load", Key: in.ClientID, Err: err}
	}
	for _, inv := range existing {
		if inv.ServiceDate == in.ServiceDate {
			return Invoice{}, &DuplicateInvoiceError{
				ClientID:       in.ClientID,
				ServiceDate:    in.ServiceDate,
				ExistingID:     inv.ID,
				ExistingNumber: inv.Number,
			}
		}
	}

	now := s.now()
	issueDate := in.Date
	if issueDate == "" {
		issueDate = now.Time.Format(ledger.DateLayout)
	}
	issued, err := ledger.ParseDate(issueDate)
	if err != nil {
		return Invoice{}, &ledger.ValidationError{Field: "date", Message: "invalid date, want " + ledger.DateLayout}
	}

	amount := in.InvoiceAmount
	if amount.IsZero() {
		amount = in.ServiceCharge
	}

	inv := Invoice{
		ID:               uuid.NewString(),
		Number:           NumberFor(in.ClientID, issued, countIssuedInMonth(existing, issued)),
		ClientID:         in.ClientID,
		Date:             issueDate,
		ServiceDate:      in.ServiceDate,
		InvoiceAmount:    amount,
		TravelingCharges: in.TravelingCharges,
		ExtraCharges:     in.ExtraCharges,
		Amount:           Total(amount, in.TravelingCharges, in.ExtraCharges),
		Data:             in.Data,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.PutInvoice(ctx, inv); err != nil {
		return Invoice{}, &ledger.PersistenceError{Op: "save", Key: inv.ID, Err: err}
	}
	return inv, nil
}

// Update rewrites an existing invoice's amounts and display data in
// place. Number, service date and creation time are preserved.
func (s *Service) Update(ctx context.Context, clientID, id string, in CreateInput) (Invoice, error) {
	inv, err := s.get(ctx, clientID, id)
	if err != nil {
		return Invoice{}, err
	}

	amount := in.InvoiceAmount
	if amount.IsZero() {
		amount = in.ServiceCharge
	}
	if amount.IsNegative() || in.TravelingCharges.IsNegative() || in.ExtraCharges.IsNegative() {
		return Invoice{}, &ledger.ValidationError{Field: "amount", Message: "must not be negative"}
	}

	inv.InvoiceAmount = amount
	inv.TravelingCharges = in.TravelingCharges
	inv.ExtraCharges = in.ExtraCharges
	inv.Amount = Total(amount, in.TravelingCharges, in.ExtraCharges)
	if in.Data != nil {
		inv.Data = in.Data
	}
	if in.Date != "" {
		inv.Date = in.Date
	}
	inv.UpdatedAt = s.now()

	if err := s.store.PutInvoice(ctx, inv); err != nil {
		return Invoice{}, &ledger.PersistenceError{Op: "save", Key: inv.ID, Err: err}
	}
	return inv, nil
}

// CreateOrUpdate is the operator flow: try to create, and on a service
// date collision update the existing invoice instead. The second return
// reports whether an existing invoice was updated.
func (s *Service) CreateOrUpdate(ctx context.Context, in CreateInput) (Invoice, bool, error) {
	inv, err := s.Create(ctx, in)
	var dup *DuplicateInvoiceError
	if errors.As(err, &dup) {
		updated, uerr := s.Update(ctx, in.ClientID, dup.ExistingID, in)
		return updated, true, uerr
	}
	return inv, false, err
}

// List returns the active view (or the archive when archived is true),
// newest first.
func (s *Service) List(ctx context.Context, clientID string, archived bool) ([]Invoice, error) {
	all, err := s.store.ListInvoices(ctx, clientID)
	if err != nil {
		return nil, &ledger.PersistenceError{Op: "load", Key: clientID, Err: err}
	}
	out := make([]Invoice, 0, len(all))
	for _, inv := range all {
		if inv.Deleted == archived {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Get returns one invoice by id.
func (s *Service) Get(ctx context.Context, clientID, id string) (Invoice, error) {
	return s.get(ctx, clientID, id)
}

// SoftDelete flags the invoice and moves it to the archive view. The
// service date stays billed: dedup still sees the invoice.
func (s *Service) SoftDelete(ctx context.Context, clientID, id, actor string) error {
	inv, err := s.get(ctx, clientID, id)
	if err != nil {
		return err
	}
	if inv.Deleted {
		return nil
	}
	inv.Deleted = true
	inv.DeletedAt = s.now()
	inv.DeletedBy = actor
	inv.UpdatedAt = inv.DeletedAt
	if err := s.store.PutInvoice(ctx, inv); err != nil {
		return &ledger.PersistenceError{Op: "save", Key: id, Err: err}
	}
	return nil
}

// Restore clears the soft-delete flag.
func (s *Service) Restore(ctx context.Context, clientID, id string) error {
	inv, err := s.get(ctx, clientID, id)
	if err != nil {
		return err
	}
	if !inv.Deleted {
		return nil
	}
	inv.Deleted = false
	inv.DeletedAt = ledger.TimePoint{}
	inv.DeletedBy = ""
	inv.UpdatedAt = s.now()
	if err := s.store.PutInvoice(ctx, inv); err != nil {
		return &ledger.PersistenceError{Op: "save", Key: id, Err: err}
	}
	return nil
}

func (s *Service) get(ctx context.Context, clientID, id string) (Invoice, error) {
	all, err := s.store.ListInvoices(ctx, clientID)
	if err != nil {
		return Invoice{}, &ledger.PersistenceError{Op: "load", Key: clientID, Err: err}
	}
	for _, inv := range all {
		if inv.ID == id {
			return inv, nil
		}
	}
	return Invoice{}, ErrInvoiceNotFound
}

// =============================================================================
// NUMBERING
// =============================================================================

// NumberFor derives the invoice number for a client and issue date given
// how many invoices that client already has in the issue month.
func NumberFor(clientID string, issued time.Time, issuedBefore int) string {
	number := fmt.Sprintf("%s-%s-%s", clientID, issued.Format("Jan"), issued.Format("06"))
	if issuedBefore > 0 {
		number = fmt.Sprintf("%s-%d", number, issuedBefore+1)
	}
	return number
}

func countIssuedInMonth(existing []Invoice, issued time.Time) int {
	count := 0
	for _, inv := range existing {
		d, err := ledger.ParseDate(inv.Date)
		if err != nil {
			continue
		}
		if d.Year() == issued.Year() && d.Month() == issued.Month() {
			count++
		}
	}
	return count
}
