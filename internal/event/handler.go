package event

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/billsplit/pkg/middleware"
	"github.com/fkhayef/billsplit/pkg/request"
	"github.com/fkhayef/billsplit/pkg/response"
)

// RouteRegistrar adds feature routes scoped to a single event. Routes are
// registered relative to /events/{eventId}.
type RouteRegistrar interface {
	RegisterEventRoutes(r chi.Router)
}

// Handler handles HTTP requests for event operations
type Handler struct {
	service *Service
	scoped  []RouteRegistrar
}

// NewHandler creates a new event handler. Scoped registrars are mounted under
// each event's path.
func NewHandler(service *Service, scoped ...RouteRegistrar) *Handler {
	return &Handler{service: service, scoped: scoped}
}

// Routes returns the router for event endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)

	r.Route("/{eventId}", func(r chi.Router) {
		r.Get("/", h.GetByID)
		r.Post("/complete", h.Complete)
		r.Post("/cancel", h.Cancel)

		// Participant management
		r.Post("/participants", h.AddParticipant)
		r.Get("/participants", h.GetParticipants)

		for _, s := range h.scoped {
			s.RegisterEventRoutes(r)
		}
	})

	return r
}

// Create handles POST /events
// @Summary      Create a new event
// @Description  Create an event and add the caller as its first participant
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        request body CreateEventRequest true "Event creation request"
// @Success      201 {object} response.APIResponse{data=EventResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      401 {object} response.APIResponse
// @Router       /events [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Caller identity required")
		return
	}

	var req CreateEventRequest
	if err := request.Decode(r, &req); err != nil {
		response.FromError(w, middleware.LoggerFrom(r.Context()), err)
		return
	}

	e, err := h.service.Create(r.Context(), creatorID, &req)
	if err != nil {
		response.FromError(w, middleware.LoggerFrom(r.Context()), err)
		return
	}

	resp := e.ToResponse()
	resp.Participants = []*ParticipantResponse{{
		UserID:   creatorID,
		JoinedAt: resp.CreatedAt,
	}}
	response.Created(w, resp)
}

// List handles GET /events
// @Summary      List my events
// @Description  Get the events the caller participates in, most recent first. meta.total holds the number of events.
// @Tags         events
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]EventResponse}
// @Failure      401 {object} response.APIResponse
// @Router       /events [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Caller identity required")
		return
	}

	events, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		response.FromError(w, middleware.LoggerFrom(r.Context()), err)
		return
	}

	eventResponses := make([]*EventResponse, len(events))
	for i, e := range events {
		eventResponses[i] = e.ToResponse()
	}

	response.List(w, eventResponses)
}

// GetByID handles GET /events/{eventId}
// @Summary      Get event by ID
// @Description  Get an event with all its participants
// @Tags         events
// @Produce      json
// @Param        eventId path string true "Event ID"
// @Success      200 {object} response.APIResponse{data=EventResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /events/{eventId} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	e, participants, err := h.service.GetByIDWithParticipants(r.Context(), eventID)
	if err != nil {
		response.FromError(w, middleware.LoggerFrom(r.Context()), err)
		return
	}

	eventResp := e.ToResponse()
	eventResp.Participants = make([]*ParticipantResponse, len(participants))
	for i, p := range participants {
		eventResp.Participants[i] = p.ToResponse()
	}

	response.OK(w, eventResp)
}

// Complete handles POST /events/{eventId}/complete
// @Summary      Complete an event
// @Description  Mark a fully settled event as completed. Completed events reject new ledger entries.
// @Tags         events
// @Produce      json
// @Param        eventId path string true "Event ID"
// @Success      200 {object} response.APIResponse{data=EventResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /events/{eventId}/complete [post]
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	e, err := h.service.Complete(r.Context(), eventID)
	if err != nil {
		response.FromError(w, middleware.LoggerFrom(r.Context()), err)
		return
	}

	response.OK(w, e.ToResponse())
}

// Cancel handles POST /events/{eventId}/cancel
// @Summary      Cancel an event
// @Description  Close an active event whether or not it is settled. Its ledger stays readable and rejects new entries.
// @Tags         events
// @Produce      json
// @Param        eventId path string true "Event ID"
// @Success      200 {object} response.APIResponse{data=EventResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /events/{eventId}/cancel [post]
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	e, err := h.service.Cancel(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		response.FromError(w, middleware.LoggerFrom(r.Context()), err)
		return
	}

	response.OK(w, e.ToResponse())
}

// AddParticipant handles POST /events/{eventId}/participants
// @Summary      Add participant to event
// @Description  Add a user to an active event
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        eventId path string true "Event ID"
// @Param        request body AddParticipantRequest true "Participant to add"
// @Success      201 {object} response.APIResponse{data=ParticipantResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /events/{eventId}/participants [post]
func (h *Handler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	var req AddParticipantRequest
	if err := request.Decode(r, &req); err != nil {
		response.FromError(w, middleware.LoggerFrom(r.Context()), err)
		return
	}

	p, err := h.service.AddParticipant(r.Context(), eventID, &req)
	if err != nil {
		response.FromError(w, middleware.LoggerFrom(r.Context()), err)
		return
	}

	response.Created(w, p.ToResponse())
}

// GetParticipants handles GET /events/{eventId}/participants
// @Summary      List participants
// @Description  List the members of an event ordered by user id. meta.total holds the number of participants.
// @Tags         events
// @Produce      json
// @Param        eventId path string true "Event ID"
// @Success      200 {object} response.APIResponse{data=[]ParticipantResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /events/{eventId}/participants [get]
func (h *Handler) GetParticipants(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	participants, err := h.service.ListParticipants(r.Context(), eventID)
	if err != nil {
		response.FromError(w, middleware.LoggerFrom(r.Context()), err)
		return
	}

	participantResponses := make([]*ParticipantResponse, len(participants))
	for i, p := range participants {
		participantResponses[i] = p.ToResponse()
	}

	response.List(w, participantResponses)
}
