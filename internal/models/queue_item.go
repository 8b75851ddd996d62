package models

// QueueItem is a single video waiting for (or under) review.
type QueueItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Locator     string `json:"locator"` // network URL or /media/{token}
	IsLocalFile bool   `json:"is_local_file"`
}
