package event

// CreateEventRequest represents the request to create a new event
type CreateEventRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=100"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=500"`
	Category    Category `json:"category" validate:"required,oneof=restaurant travel shared_house shopping entertainment utilities other"`
}

// AddParticipantRequest represents the request to add a user to an event
type AddParticipantRequest struct {
	UserID string `json:"user_id" validate:"required,max=64"`
}

// EventResponse represents the response for an event
type EventResponse struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Description  *string                `json:"description,omitempty"`
	Category     Category               `json:"category"`
	CreatorID    string                 `json:"creator_id"`
	Status       Status                 `json:"status"`
	CreatedAt    string                 `json:"created_at"`
	Participants []*ParticipantResponse `json:"participants,omitempty"`
}

// ParticipantResponse represents a participant in an event response
type ParticipantResponse struct {
	UserID   string `json:"user_id"`
	JoinedAt string `json:"joined_at"`
}

// ToResponse converts an Event model to an EventResponse DTO
func (e *Event) ToResponse() *EventResponse {
	return &EventResponse{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Category:    e.Category,
		CreatorID:   e.CreatorID,
		Status:      e.Status,
		CreatedAt:   e.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ToResponse converts a Participant model to a ParticipantResponse DTO
func (p *Participant) ToResponse() *ParticipantResponse {
	return &ParticipantResponse{
		UserID:   p.UserID,
		JoinedAt: p.JoinedAt.Format("2006-01-02T15:04:05Z"),
	}
}
