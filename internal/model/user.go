package model

import (
	"encoding/json"
	"time"
)

// User is the local profile of an externally issued identity.
type User struct {
	ID          string          `json:"id"`
	Name        *string         `json:"name"`
	Preferences json.RawMessage `json:"preferences,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
