package models

// Phase is the state of the review session.
type Phase string

const (
	PhaseEmpty     Phase = "empty"
	PhaseReviewing Phase = "reviewing"
	PhaseFinished  Phase = "finished"
)

// PlayerState is what the media player in the browser should mirror.
type PlayerState struct {
	Source  string `json:"source"`
	Playing bool   `json:"playing"`
}

// SessionState is a point-in-time snapshot of a review session.
type SessionState struct {
	Phase    Phase            `json:"phase"`
	Queue    []QueueItem      `json:"queue"`
	Cursor   int              `json:"cursor"`
	Current  *QueueItem       `json:"current,omitempty"`
	Criteria []CriterionEntry `json:"criteria"`
	Ratings  []string         `json:"ratings"`
	Results  []ResultRecord   `json:"results"`
	Player   PlayerState      `json:"player"`
	Elapsed  float64          `json:"elapsed"`
	Timer    string           `json:"timer"`
	Running  bool             `json:"timer_running"`
	Message  string           `json:"message,omitempty"`
}
