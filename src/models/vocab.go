package models

import "time"

// Category is a reference vocabulary entry, seeded once and looked up by code.
type Category struct {
	ID           int64  `json:"category_id"`
	CategoryName string `json:"category_name"`
	CategoryCode string `json:"category_code"`
	IsActive     bool   `json:"is_active,omitempty"`
}

// FeeType is a fixed fee vocabulary entry.
type FeeType struct {
	ID      int64  `json:"fee_type_id"`
	FeeName string `json:"fee_name"`
}

// User holds API credentials. PasswordHash is a bcrypt hash, never the
// plain credential.
type User struct {
	ID           int64     `json:"user_id"`
	FullName     string    `json:"full_name"`
	PhoneNumber  string    `json:"phone_number"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	EmailAddress string    `json:"email_address,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// UserBrief is the user rendering embedded in transaction responses.
type UserBrief struct {
	ID          int64  `json:"user_id"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
}

// SystemLog is a persisted audit entry recording pipeline batch outcomes.
type SystemLog struct {
	ID       int64     `json:"log_id"`
	LogType  string    `json:"log_type"`
	Severity string    `json:"severity"`
	Message  string    `json:"message"`
	RunID    string    `json:"run_id"`
	LogTime  time.Time `json:"log_time"`
}
