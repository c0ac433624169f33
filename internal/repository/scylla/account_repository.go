package scylla

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"skillswap/internal/models"
	"skillswap/internal/util"

	"github.com/gocql/gocql"
)

// AccountRepository is the account-lookup surface this service consumes.
// The user data model itself is owned by the profile service; we only read
// the slice needed for credential checks and lockout scoping.
type AccountRepository interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	UpdateLastLogin(ctx context.Context, userID string, timestamp time.Time) error
	HealthCheck(ctx context.Context) error
}

// AccountDirectory implements AccountRepository over the accounts_by_email
// table.
type AccountDirectory struct {
	client *ScyllaClient
}

func NewAccountDirectory(client *ScyllaClient) *AccountDirectory {
	return &AccountDirectory{client: client}
}

func (d *AccountDirectory) EmailExists(ctx context.Context, email string) (bool, error) {
	var userID string
	err := d.client.Session.Query(
		"SELECT user_id FROM accounts_by_email WHERE email = ? LIMIT 1", email,
	).WithContext(ctx).Scan(&userID)
	if err == gocql.ErrNotFound {
		return false, nil
	}
	if err != nil {
		util.Error("Failed to check account existence",
			zap.String("email", email),
			zap.Error(err))
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}
	return true, nil
}

func (d *AccountDirectory) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := d.client.Session.Query(
		`SELECT user_id, email, password_hash, display_name, is_blocked, created_at, last_login
		 FROM accounts_by_email WHERE email = ? LIMIT 1`, email,
	).WithContext(ctx).Scan(
		&account.UserID,
		&account.Email,
		&account.PasswordHash,
		&account.DisplayName,
		&account.IsBlocked,
		&account.CreatedAt,
		&account.LastLogin,
	)
	if err == gocql.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		util.Error("Failed to get account by email",
			zap.String("email", email),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return &account, nil
}

func (d *AccountDirectory) UpdateLastLogin(ctx context.Context, userID string, timestamp time.Time) error {
	err := d.client.Session.Query(
		"UPDATE accounts SET last_login = ? WHERE user_id = ?", timestamp, userID,
	).WithContext(ctx).Exec()
	if err != nil {
		util.Error("Failed to update last login",
			zap.String("user_id", userID),
			zap.Error(err))
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

func (d *AccountDirectory) HealthCheck(ctx context.Context) error {
	return d.client.HealthCheck()
}
