// Package memory provides an in-process AccountRepository for
// single-instance development deployments and tests, mirroring the
// in-process TTL store fallback.
package memory

import (
	"context"
	"sync"
	"time"

	"skillswap/internal/models"
	"skillswap/internal/util"
)

type AccountRepository struct {
	mu       sync.RWMutex
	byEmail  map[string]*models.Account
	byUserID map[string]*models.Account
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byEmail:  make(map[string]*models.Account),
		byUserID: make(map[string]*models.Account),
	}
}

// CreateAccount registers an account; used for seeding.
func (r *AccountRepository) CreateAccount(account *models.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := util.NormalizeEmail(account.Email)
	r.byEmail[email] = account
	r.byUserID[account.UserID] = account
}

func (r *AccountRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byEmail[util.NormalizeEmail(email)]
	return ok, nil
}

func (r *AccountRepository) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.byEmail[util.NormalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	copied := *account
	return &copied, nil
}

func (r *AccountRepository) UpdateLastLogin(ctx context.Context, userID string, timestamp time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account, ok := r.byUserID[userID]; ok {
		account.LastLogin = &timestamp
	}
	return nil
}

func (r *AccountRepository) HealthCheck(ctx context.Context) error {
	return nil
}
