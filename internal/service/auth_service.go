package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"skillswap/internal/events"
	"skillswap/internal/hashing"
	"skillswap/internal/lockout"
	"skillswap/internal/models"
	"skillswap/internal/repository/scylla"
	"skillswap/internal/revocation"
	"skillswap/internal/token"
	"skillswap/internal/util"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")
	ErrAccountBlocked     = errors.New("account blocked")
	ErrInvalidToken       = errors.New("invalid token")
)

// AuthService handles login, logout and token validation, wiring the
// credential check to the lockout guard and the revocation ledger.
type AuthService struct {
	accounts  scylla.AccountRepository
	hasher    *hashing.Hasher
	issuer    *token.Issuer
	guard     *lockout.Guard
	ledger    *revocation.Ledger
	publisher *events.Publisher
	logger    *zap.Logger
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token       string    `json:"token"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func NewAuthService(
	accounts scylla.AccountRepository,
	hasher *hashing.Hasher,
	issuer *token.Issuer,
	guard *lockout.Guard,
	ledger *revocation.Ledger,
	publisher *events.Publisher,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		accounts:  accounts,
		hasher:    hasher,
		issuer:    issuer,
		guard:     guard,
		ledger:    ledger,
		publisher: publisher,
		logger:    logger,
	}
}

// Login validates credentials, then consults the lockout guard. A failed
// credential check records a lockout failure; the locked state is checked
// after credential validation on every attempt, so a correct password on a
// locked account still yields the locked error.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	email := util.NormalizeEmail(req.Email)

	account, err := s.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("account lookup failed: %w", err)
	}

	validCredentials := false
	if account != nil {
		ok, err := s.hasher.VerifyPassword(req.Password, account.PasswordHash)
		if err != nil {
			s.logger.Error("password hash verification failed",
				util.String("user_id", account.UserID),
				util.ErrorField(err))
		}
		validCredentials = err == nil && ok
	}

	if !validCredentials {
		if lockedNow := s.guard.RegisterFailure(ctx, email); lockedNow {
			s.publisher.Publish(models.SecurityEvent{
				EventType:  models.EventAccountLocked,
				Identifier: email,
				Action:     "login",
				Details:    "lockout threshold reached",
			})
			return nil, ErrAccountLocked
		}
		return nil, ErrInvalidCredentials
	}

	if s.guard.IsLocked(ctx, email) {
		return nil, ErrAccountLocked
	}

	if account.IsBlocked {
		return nil, ErrAccountBlocked
	}

	s.guard.Reset(ctx, email)

	tokenString, issued := s.issuer.Issue(account.UserID)

	now := time.Now().UTC()
	if err := s.accounts.UpdateLastLogin(ctx, account.UserID, now); err != nil {
		// Bookkeeping only; the login still succeeds.
		s.logger.Warn("failed to update last login",
			util.String("user_id", account.UserID),
			util.ErrorField(err))
	}

	s.logger.Info("login succeeded",
		util.String("user_id", account.UserID))

	return &LoginResult{
		Token:       tokenString,
		UserID:      account.UserID,
		DisplayName: account.DisplayName,
		ExpiresAt:   issued.ExpiresAt,
	}, nil
}

// Logout revokes the presented token. Revocation is best-effort; logout
// never fails because the denylist write did.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	st, err := s.issuer.Parse(rawToken)
	if err != nil {
		if errors.Is(err, token.ErrExpiredToken) {
			// Already expired; nothing left to revoke.
			return nil
		}
		return ErrInvalidToken
	}

	s.ledger.Revoke(ctx, st.ID, st.ExpiresAt)
	s.publisher.Publish(models.SecurityEvent{
		EventType:  models.EventTokenRevoked,
		Identifier: "user:" + st.UserID,
		Details:    "logout",
	})
	return nil
}

// ValidateToken parses the token and consults the revocation ledger.
// A denylisted token surfaces as the same invalid-token failure as a
// malformed one.
func (s *AuthService) ValidateToken(ctx context.Context, rawToken string) (token.SessionToken, error) {
	st, err := s.issuer.Parse(rawToken)
	if err != nil {
		return token.SessionToken{}, ErrInvalidToken
	}

	if s.ledger.IsRevoked(ctx, st.ID) {
		return token.SessionToken{}, ErrInvalidToken
	}

	return st, nil
}
