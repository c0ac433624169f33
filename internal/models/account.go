package models

import "time"

// Account is the slice of the marketplace user record this service needs:
// enough to answer "does this email exist" and to check login credentials.
// The full profile/offer/review data model lives in other services.
type Account struct {
	UserID       string     `db:"user_id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	DisplayName  string     `db:"display_name"`
	IsBlocked    bool       `db:"is_blocked"`
	CreatedAt    time.Time  `db:"created_at"`
	LastLogin    *time.Time `db:"last_login"`
}
