package expense

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/billsplit/pkg/middleware"
	"github.com/fkhayef/billsplit/pkg/request"
	"github.com/fkhayef/billsplit/pkg/response"
)

// Handler handles HTTP requests for ledger operations
type Handler struct {
	service *Service
}

// NewHandler creates a new ledger handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterEventRoutes adds the ledger endpoints under /events/{eventId}
func (h *Handler) RegisterEventRoutes(r chi.Router) {
	r.Post("/expenses", h.CreateExpense)
	r.Get("/expenses", h.ListExpenses)
	r.Post("/payments", h.RecordPayment)
	r.Get("/ledger", h.GetLedger)
}

// CreateExpense handles POST /events/{eventId}/expenses
// @Summary      Record an expense
// @Description  Record an expense with an equal, percentage, or custom split. Amounts are in cents.
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        eventId path string true "Event ID"
// @Param        request body CreateExpenseRequest true "Expense to record"
// @Success      201 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /events/{eventId}/expenses [post]
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Caller identity required")
		return
	}
	eventID := chi.URLParam(r, "eventId")

	var req CreateExpenseRequest
	if err := request.Decode(r, &req); err != nil {
		response.FromError(w, middleware.LoggerFrom(r.Context()), err)
		return
	}

	e, err := h.service.RecordExpense(r.Context(), eventID, callerID, &req)
	if err != nil {
		response.FromError(w, middleware.LoggerFrom(r.Context()), err)
		return
	}

	response.Created(w, e.ToResponse())
}

// ListExpenses handles GET /events/{eventId}/expenses
// @Summary      List expenses
// @Description  List the expenses of an event in recording order. meta.total holds the number of expenses.
// @Tags         ledger
// @Produce      json
// @Param        eventId path string true "Event ID"
// @Success      200 {object} response.APIResponse{data=[]ExpenseResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /events/{eventId}/expenses [get]
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.service.ListExpenses(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		response.FromError(w, middleware.LoggerFrom(r.Context()), err)
		return
	}

	expenseResponses := make([]*ExpenseResponse, len(expenses))
	for i, e := range expenses {
		expenseResponses[i] = e.ToResponse()
	}

	response.List(w, expenseResponses)
}

// RecordPayment handles POST /events/{eventId}/payments
// @Summary      Record a payment
// @Description  Record money transferred between two participants outside the system
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        eventId path string true "Event ID"
// @Param        request body RecordPaymentRequest true "Payment to record"
// @Success      201 {object} response.APIResponse{data=PaymentResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /events/{eventId}/payments [post]
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Caller identity required")
		return
	}
	eventID := chi.URLParam(r, "eventId")

	var req RecordPaymentRequest
	if err := request.Decode(r, &req); err != nil {
		response.FromError(w, middleware.LoggerFrom(r.Context()), err)
		return
	}

	p, err := h.service.RecordPayment(r.Context(), eventID, callerID, &req)
	if err != nil {
		response.FromError(w, middleware.LoggerFrom(r.Context()), err)
		return
	}

	response.Created(w, p.ToResponse())
}

// GetLedger handles GET /events/{eventId}/ledger
// @Summary      Get ledger history
// @Description  Get every expense and payment of an event in recording order
// @Tags         ledger
// @Produce      json
// @Param        eventId path string true "Event ID"
// @Success      200 {object} response.APIResponse{data=LedgerResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /events/{eventId}/ledger [get]
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	ledger, err := h.service.Ledger(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		response.FromError(w, middleware.LoggerFrom(r.Context()), err)
		return
	}

	response.OK(w, ledger.ToResponse())
}
