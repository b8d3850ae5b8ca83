package entity

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a user-facing event surfaced over the websocket channel
// (and retrievable afterwards). SessionId scopes delivery to one browser.
type Notification struct {
	Id        uuid.UUID              `json:"id"`
	SessionId string                 `json:"session_id"`
	TypeCode  string                 `json:"type_code"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	IsRead    bool                   `json:"is_read"`
}
