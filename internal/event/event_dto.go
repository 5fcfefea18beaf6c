package event

type CreateEventRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	StartTime   string  `json:"start_time" binding:"required"`
	EndTime     string  `json:"end_time" binding:"required"`
}

type UpdateEventRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	StartTime   string  `json:"start_time" binding:"required"`
	EndTime     string  `json:"end_time" binding:"required"`
}

type AddParticipantRequest struct {
	SubjectID string `json:"subject_id" binding:"required"`
}

type EventResponse struct {
	ID          string  `json:"id"`
	OrgID       string  `json:"org_id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Location    *string `json:"location,omitempty"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	CreatedBy   string  `json:"created_by"`
}

type ParticipantResponse struct {
	EventID   string `json:"event_id"`
	SubjectID string `json:"subject_id"`
	AddedAt   string `json:"added_at"`
}
