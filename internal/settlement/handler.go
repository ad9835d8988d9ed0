package settlement

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/billsplit/pkg/middleware"
	"github.com/fkhayef/billsplit/pkg/response"
)

// Handler handles HTTP requests for settlement operations
type Handler struct {
	service *Service
}

// NewHandler creates a new settlement handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterEventRoutes adds the settlement endpoint under /events/{eventId}
func (h *Handler) RegisterEventRoutes(r chi.Router) {
	r.Get("/settlement", h.GetPlan)
}

// GetPlan handles GET /events/{eventId}/settlement
// @Summary      Get settlement plan
// @Description  Ordered transfers that bring every balance of the event to zero. Recomputed on every call.
// @Tags         settlements
// @Produce      json
// @Param        eventId path string true "Event ID"
// @Success      200 {object} response.APIResponse{data=Plan}
// @Failure      404 {object} response.APIResponse
// @Failure      500 {object} response.APIResponse
// @Router       /events/{eventId}/settlement [get]
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.service.PlanForEvent(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		response.FromError(w, middleware.LoggerFrom(r.Context()), err)
		return
	}

	response.OK(w, plan)
}
