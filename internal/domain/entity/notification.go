package entity

import "time"

// Notification is an in-app message for one user
type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	RequestID string     `json:"request_id,omitempty"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsRead reports whether the user has seen the notification
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}
