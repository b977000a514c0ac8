package dto

import "time"

// UpdateFiltersRequest captures a partial filter update; omitted fields keep their value.
type UpdateFiltersRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,max=200"`
	City    *string `json:"city,omitempty" validate:"omitempty,max=200"`
	Company *string `json:"company,omitempty" validate:"omitempty,max=200"`
}

// SessionResponse is returned when a directory session is mounted.
type SessionResponse struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FiltersResponse echoes the active filter state.
type FiltersResponse struct {
	Name    string `json:"name"`
	City    string `json:"city"`
	Company string `json:"company"`
}

// UserResponse represents one directory entry returned to clients.
type UserResponse struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	MailtoURL  string `json:"mailto_url,omitempty"`
	Phone      string `json:"phone"`
	PhoneE164  string `json:"phone_e164,omitempty"`
	Website    string `json:"website"`
	WebsiteURL string `json:"website_url,omitempty"`
	City       string `json:"city"`
	Company    string `json:"company"`
}

// DirectoryResponse is the rendered directory state of a session.
type DirectoryResponse struct {
	State     string          `json:"state"`
	Loading   bool            `json:"loading"`
	Error     string          `json:"error,omitempty"`
	NoResults bool            `json:"no_results"`
	Summary   string          `json:"summary"`
	Total     int             `json:"total"`
	Showing   int             `json:"showing"`
	Filters   FiltersResponse `json:"filters"`
	Cities    []string        `json:"cities"`
	Companies []string        `json:"companies"`
	Users     []UserResponse  `json:"users"`
}
