/*
handlers.go - HTTP handlers driving the ledger engine

PURPOSE:
  The console UI is a thin form layer; these handlers are its event
  handlers. Each request opens an edit session over the client's
  document, routes the submitted changes through the lock state machine,
  and runs the save cycle so every persisted change carries its audit
  trail.

ENDPOINT GROUPS:
  /api/clients/{id}              Load / save the client record
  /api/clients/{id}/payments/*   Balance payments and refunds
  /api/clients/{id}/reminders    Bulk-clear reminder dates
  /api/clients/{id}/audit        Audit log
  /api/clients/{id}/invoices/*   Invoice lifecycle + printable PDF

SECURITY NOTE:
  Authentication and session handling live in the surrounding console,
  not here; the acting operator arrives as the request's actor field.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/warp/care-ledger/invoice"
	"github.com/warp/care-ledger/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Records  ledger.RecordStore
	Invoices *invoice.Service
	Names    *ledger.NameCache
}

func NewHandler(records ledger.RecordStore, invoices *invoice.Service, names *ledger.NameCache) *Handler {
	return &Handler{Records: records, Invoices: invoices, Names: names}
}

// =============================================================================
// CLIENT RECORD ENDPOINTS
// =============================================================================

// GetClient returns the normalized record with lock states and totals.
// GET /api/clients/{id}
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	session, err := ledger.Open(r.Context(), h.Records, chi.URLParam(r, "id"))
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.clientResponse(session))
}

// SaveClient applies the UI's edited copy under the lock guards and runs
// the save cycle.
// PUT /api/clients/{id}
func (h *Handler) SaveClient(w http.ResponseWriter, r *http.Request) {
	var req SaveClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	session, err := ledger.Open(r.Context(), h.Records, chi.URLParam(r, "id"))
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	if err := session.ApplyIncoming(req.Record); err != nil {
		h.writeLedgerError(w, err)
		return
	}

	result, err := session.Save(r.Context(), h.actor(req.Actor))
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SaveClientResponse{
		ClientResponse: h.clientResponse(session),
		Changed:        result.Changed,
		Entries:        toAuditEntryDTOs(result.Entries),
	})
}

// BalancePayment settles an amount against the outstanding balance.
// POST /api/clients/{id}/payments/balance
func (h *Handler) BalancePayment(w http.ResponseWriter, r *http.Request) {
	var req BalancePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	amount, err := ledger.ParseMoney(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount", err)
		return
	}

	session, err := ledger.Open(r.Context(), h.Records, chi.URLParam(r, "id"))
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	actor := h.actor(req.Actor)
	if _, err := session.Record().ApplyBalancePayment(ledger.BalancePaymentInput{
		Amount:  amount,
		Date:    req.Date,
		Method:  req.Method,
		Remarks: req.Remarks,
		Actor:   actor,
	}); err != nil {
		h.writeLedgerError(w, err)
		return
	}
	if _, err := session.Save(r.Context(), actor); err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.clientResponse(session))
}

// RefundPayment annotates one payment row as refunded.
// POST /api/clients/{id}/payments/{index}/refund
func (h *Handler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid row index", err)
		return
	}
	var req RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	amount, err := ledger.ParseMoney(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount", err)
		return
	}

	session, err := ledger.Open(r.Context(), h.Records, chi.URLParam(r, "id"))
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	if err := session.Record().ApplyRefund(index, ledger.RefundInput{
		Amount:  amount,
		Date:    req.Date,
		Method:  req.Method,
		Remarks: req.Remarks,
	}); err != nil {
		h.writeLedgerError(w, err)
		return
	}
	if _, err := session.Save(r.Context(), h.actor(req.Actor)); err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.clientResponse(session))
}

// ClearReminders blanks every payment reminder date as a bulk-clear.
// POST /api/clients/{id}/reminders/clear
func (h *Handler) ClearReminders(w http.ResponseWriter, r *http.Request) {
	session, err := ledger.Open(r.Context(), h.Records, chi.URLParam(r, "id"))
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	if err := session.ClearReminderDates(r.Context()); err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.clientResponse(session))
}

// GetAudit returns the client's audit log.
// GET /api/clients/{id}/audit
func (h *Handler) GetAudit(w http.ResponseWriter, r *http.Request) {
	session, err := ledger.Open(r.Context(), h.Records, chi.URLParam(r, "id"))
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuditEntryDTOs(session.Record().AuditLog))
}

// =============================================================================
// INVOICE ENDPOINTS
// =============================================================================

// CreateInvoice creates an invoice for the service date, or updates the
// existing one in place when the date is already billed.
// POST /api/clients/{id}/invoices
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "id")
	var req InvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	in, err := h.invoiceInput(r, clientID, req)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	inv, updated, err := h.Invoices.CreateOrUpdate(r.Context(), in)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	status := http.StatusCreated
	if updated {
		status = http.StatusOK
	}
	writeJSON(w, status, InvoiceResponse{Invoice: inv, Updated: updated})
}

// ListInvoices returns the active view, or the archive with ?archived=true.
// GET /api/clients/{id}/invoices
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	archived := r.URL.Query().Get("archived") == "true"
	invoices, err := h.Invoices.List(r.Context(), chi.URLParam(r, "id"), archived)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

// DeleteInvoice soft-deletes: the invoice moves to the archive view and
// its service date stays billed.
// DELETE /api/clients/{id}/invoices/{invoiceID}
func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(r.URL.Query().Get("actor"))
	err := h.Invoices.SoftDelete(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "invoiceID"), actor)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RestoreInvoice clears the soft-delete flag.
// POST /api/clients/{id}/invoices/{invoiceID}/restore
func (h *Handler) RestoreInvoice(w http.ResponseWriter, r *http.Request) {
	err := h.Invoices.Restore(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "invoiceID"))
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// InvoicePDF renders the printable invoice.
// GET /api/clients/{id}/invoices/{invoiceID}/pdf
func (h *Handler) InvoicePDF(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Invoices.Get(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "invoiceID"))
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	pdf, err := invoice.RenderPDF(inv)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render invoice", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+inv.Number+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) clientResponse(session *ledger.Session) ClientResponse {
	rec := session.Record()
	totals := session.Totals()

	resp := ClientResponse{
		ID:     rec.ID,
		Record: rec.Document(),
		Totals: TotalsDTO{
			TotalPaid:    totals.TotalPaid.String(),
			TotalBalance: totals.TotalBalance.String(),
			TotalRefund:  totals.TotalRefund.String(),
			LastBalance:  totals.LastBalance.String(),
		},
	}
	for _, row := range rec.Payments {
		resp.PaymentStates = append(resp.PaymentStates, string(row.State))
	}
	for _, row := range rec.Workers {
		resp.WorkerStates = append(resp.WorkerStates, string(row.State))
	}
	return resp
}

// invoiceInput assembles the service input, pulling the client's standing
// service charge as the default invoice amount.
func (h *Handler) invoiceInput(r *http.Request, clientID string, req InvoiceRequest) (invoice.CreateInput, error) {
	session, err := ledger.Open(r.Context(), h.Records, clientID)
	if err != nil {
		return invoice.CreateInput{}, err
	}

	in := invoice.CreateInput{
		ClientID:      clientID,
		ServiceDate:   req.ServiceDate,
		Date:          req.Date,
		ServiceCharge: session.Record().ServiceCharge(),
		Data:          req.Data,
	}
	if in.InvoiceAmount, err = ledger.ParseMoney(req.InvoiceAmount); err != nil {
		return invoice.CreateInput{}, &ledger.ValidationError{Field: "invoiceAmount", Message: "invalid amount"}
	}
	if in.TravelingCharges, err = ledger.ParseMoney(req.TravelingCharges); err != nil {
		return invoice.CreateInput{}, &ledger.ValidationError{Field: "travelingCharges", Message: "invalid amount"}
	}
	if in.ExtraCharges, err = ledger.ParseMoney(req.ExtraCharges); err != nil {
		return invoice.CreateInput{}, &ledger.ValidationError{Field: "extraCharges", Message: "invalid amount"}
	}
	return in, nil
}

func (h *Handler) actor(id string) string {
	if id == "" {
		return "unknown"
	}
	return h.Names.Name(id)
}

// writeLedgerError maps engine errors onto HTTP statuses.
func (h *Handler) writeLedgerError(w http.ResponseWriter, err error) {
	var fieldErrs ledger.ValidationErrors
	var fieldErr *ledger.ValidationError
	var dup *invoice.DuplicateInvoiceError

	switch {
	case errors.As(err, &fieldErrs):
		resp := ErrorResponse{Error: "validation failed"}
		for _, fe := range fieldErrs {
			resp.Fields = append(resp.Fields, FieldErrorDTO{Field: fe.Field, Message: fe.Message})
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	case errors.As(err, &fieldErr):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:  "validation failed",
			Fields: []FieldErrorDTO{{Field: fieldErr.Field, Message: fieldErr.Message}},
		})
	case errors.As(err, &dup):
		writeError(w, http.StatusConflict, "invoice already exists for service date", err)
	case errors.Is(err, ledger.ErrRecordNotFound), errors.Is(err, invoice.ErrInvoiceNotFound),
		errors.Is(err, ledger.ErrRowNotFound):
		writeError(w, http.StatusNotFound, "not found", err)
	case errors.Is(err, ledger.ErrNoPayments), errors.Is(err, ledger.ErrAdjustmentRow):
		writeError(w, http.StatusUnprocessableEntity, "operation not applicable", err)
	case errors.Is(err, ledger.ErrRowLocked):
		writeError(w, http.StatusConflict, "row is locked", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
