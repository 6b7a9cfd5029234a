package domain

import "time"

// User carries the prediction-credit counter the pipeline is gated on.
// A prediction may only be created while Credits > 0; the decrement is a
// conditional update at the storage layer, never read-then-write.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"full_name"`
	Credits      int       `json:"prediction_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
