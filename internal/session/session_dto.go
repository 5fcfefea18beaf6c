package session

type CreateSessionRequest struct {
	EventID    string `json:"event_id" binding:"required"`
	Title      string `json:"title" binding:"required"`
	StartTime  string `json:"start_time" binding:"required"`
	EndTime    string `json:"end_time" binding:"required"`
	IsRequired bool   `json:"is_required"`
	SortOrder  int    `json:"sort_order"`
}

type UpdateSessionRequest struct {
	Title      string `json:"title" binding:"required"`
	StartTime  string `json:"start_time" binding:"required"`
	EndTime    string `json:"end_time" binding:"required"`
	IsRequired bool   `json:"is_required"`
	SortOrder  int    `json:"sort_order"`
}

type SessionResponse struct {
	ID         string `json:"id"`
	EventID    string `json:"event_id"`
	Title      string `json:"title"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	IsRequired bool   `json:"is_required"`
	SortOrder  int    `json:"sort_order"`
}
