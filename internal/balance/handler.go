package balance

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/billsplit/pkg/middleware"
	"github.com/fkhayef/billsplit/pkg/response"
)

// EventBalancesResponse represents the balances of one event
type EventBalancesResponse struct {
	EventID  string  `json:"event_id"`
	Settled  bool    `json:"settled"`
	Balances []Entry `json:"balances"`
}

// Handler handles HTTP requests for balance operations
type Handler struct {
	service *Service
}

// NewHandler creates a new balance handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterEventRoutes adds the balance endpoint under /events/{eventId}
func (h *Handler) RegisterEventRoutes(r chi.Router) {
	r.Get("/balances", h.GetEventBalances)
}

// Routes returns the router for user-level balance endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/me/balance", h.GetMyTotal)

	return r
}

// GetEventBalances handles GET /events/{eventId}/balances
// @Summary      Get event balances
// @Description  Net balance of every participant in cents. Positive means owed money, negative means owes.
// @Tags         balances
// @Produce      json
// @Param        eventId path string true "Event ID"
// @Success      200 {object} response.APIResponse{data=EventBalancesResponse}
// @Failure      404 {object} response.APIResponse
// @Failure      500 {object} response.APIResponse
// @Router       /events/{eventId}/balances [get]
func (h *Handler) GetEventBalances(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	balances, err := h.service.EventBalances(r.Context(), eventID)
	if err != nil {
		response.FromError(w, middleware.LoggerFrom(r.Context()), err)
		return
	}

	response.OK(w, &EventBalancesResponse{
		EventID:  eventID,
		Settled:  balances.IsSettled(),
		Balances: balances.Sorted(),
	})
}

// GetMyTotal handles GET /users/me/balance
// @Summary      Get my total balance
// @Description  The caller's balance summed across all their events, with a per-event breakdown, most recent event first
// @Tags         balances
// @Produce      json
// @Success      200 {object} response.APIResponse{data=UserTotal}
// @Failure      401 {object} response.APIResponse
// @Router       /users/me/balance [get]
func (h *Handler) GetMyTotal(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Caller identity required")
		return
	}

	total, err := h.service.UserTotal(r.Context(), userID)
	if err != nil {
		response.FromError(w, middleware.LoggerFrom(r.Context()), err)
		return
	}

	response.OK(w, total)
}
