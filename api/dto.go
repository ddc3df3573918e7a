/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for communication with the console UI.
  These types decouple the engine's domain model from the external API
  contract. DTOs are pure data carriers; validation happens in the
  engine, not here.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger/types.go: The domain shapes behind them
*/
package api

import (
	"github.com/warp/care-ledger/invoice"
	"github.com/warp/care-ledger/ledger"
)

// =============================================================================
// CLIENT RECORD
// =============================================================================

// ClientResponse is the normalized record plus everything the UI derives
// from it: per-row lock state and the running totals.
type ClientResponse struct {
	ID            string         `json:"id"`
	Record        map[string]any `json:"record"`
	PaymentStates []string       `json:"paymentStates"`
	WorkerStates  []string       `json:"workerStates"`
	Totals        TotalsDTO      `json:"totals"`
}

type TotalsDTO struct {
	TotalPaid    string `json:"totalPaid"`
	TotalBalance string `json:"totalBalance"`
	TotalRefund  string `json:"totalRefund"`
	LastBalance  string `json:"lastBalance"`
}

// SaveClientRequest carries the UI's edited copy of the record. Lock
// enforcement happens server-side; the per-row "edited" markers are the
// explicit unlock gestures.
type SaveClientRequest struct {
	Actor  string         `json:"actor"`
	Record map[string]any `json:"record"`
}

type SaveClientResponse struct {
	ClientResponse
	Changed bool            `json:"changed"`
	Entries []AuditEntryDTO `json:"auditEntries,omitempty"`
}

// =============================================================================
// LEDGER OPERATIONS
// =============================================================================

type BalancePaymentRequest struct {
	Actor   string `json:"actor"`
	Amount  string `json:"amount"`
	Date    string `json:"date"`
	Method  string `json:"method"`
	Remarks string `json:"remarks"`
}

type RefundRequest struct {
	Actor   string `json:"actor"`
	Amount  string `json:"amount"`
	Date    string `json:"date"`
	Method  string `json:"method"`
	Remarks string `json:"remarks"`
}

type ClearRemindersRequest struct {
	Actor string `json:"actor"`
}

// =============================================================================
// AUDIT
// =============================================================================

type AuditEntryDTO struct {
	ID        string            `json:"id"`
	Timestamp string            `json:"timestamp"`
	DateLabel string            `json:"dateLabel"`
	Actor     string            `json:"actor"`
	Kind      string            `json:"kind"`
	Summary   string            `json:"summary,omitempty"`
	Changes   []ChangeRecordDTO `json:"changes,omitempty"`
}

type ChangeRecordDTO struct {
	Path   string `json:"path"`
	Label  string `json:"label"`
	Before string `json:"before"`
	After  string `json:"after"`
}

func toAuditEntryDTOs(entries []ledger.AuditEntry) []AuditEntryDTO {
	dtos := make([]AuditEntryDTO, 0, len(entries))
	for _, e := range entries {
		dto := AuditEntryDTO{
			ID:        e.ID,
			Timestamp: e.Timestamp.String(),
			DateLabel: e.DateLabel,
			Actor:     e.Actor,
			Kind:      string(e.Kind),
			Summary:   e.Summary,
		}
		for _, c := range e.Changes {
			dto.Changes = append(dto.Changes, ChangeRecordDTO{
				Path: c.Path, Label: c.Label, Before: c.Before, After: c.After,
			})
		}
		dtos = append(dtos, dto)
	}
	return dtos
}

// =============================================================================
// INVOICES
// =============================================================================

type InvoiceRequest struct {
	Actor            string            `json:"actor"`
	ServiceDate      string            `json:"serviceDate"`
	Date             string            `json:"date"`
	InvoiceAmount    string            `json:"invoiceAmount"`
	TravelingCharges string            `json:"travelingCharges"`
	ExtraCharges     string            `json:"extraCharges"`
	Data             map[string]string `json:"data"`
}

type InvoiceResponse struct {
	Invoice invoice.Invoice `json:"invoice"`
	// Updated reports that the request collided with an existing invoice
	// for the service date and updated it in place.
	Updated bool `json:"updated"`
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error   string          `json:"error"`
	Details string          `json:"details,omitempty"`
	Fields  []FieldErrorDTO `json:"fields,omitempty"`
}

type FieldErrorDTO struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
