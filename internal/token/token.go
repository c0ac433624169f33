// Package token issues and parses opaque session tokens: a unique id, the
// owning user, an expiry, and an HMAC-SHA256 signature over the three. The
// unique id is what the revocation ledger keys on.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"skillswap/internal/config"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// SessionToken is the parsed form of an issued token.
type SessionToken struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(cfg config.TokenConfig) *Issuer {
	return &Issuer{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
	}
}

// Issue creates a signed session token for the user.
func (i *Issuer) Issue(userID string) (string, SessionToken) {
	st := SessionToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(i.ttl),
	}
	payload := fmt.Sprintf("%s.%s.%d", st.ID, st.UserID, st.ExpiresAt.Unix())
	return payload + "." + i.sign(payload), st
}

// Parse verifies the signature and expiry and returns the token's fields.
// The id and signature are dot-free, so the user id in between may itself
// contain dots (emails do).
func (i *Issuer) Parse(raw string) (SessionToken, error) {
	parts := strings.Split(raw, ".")
	if len(parts) < 4 {
		return SessionToken{}, ErrInvalidToken
	}
	sig := parts[len(parts)-1]
	expiryField := parts[len(parts)-2]

	payload := strings.TrimSuffix(raw, "."+sig)
	if !hmac.Equal([]byte(i.sign(payload)), []byte(sig)) {
		return SessionToken{}, ErrInvalidToken
	}

	expiry, err := strconv.ParseInt(expiryField, 10, 64)
	if err != nil {
		return SessionToken{}, ErrInvalidToken
	}

	st := SessionToken{
		ID:        parts[0],
		UserID:    strings.Join(parts[1:len(parts)-2], "."),
		ExpiresAt: time.Unix(expiry, 0).UTC(),
	}
	if time.Now().After(st.ExpiresAt) {
		return st, ErrExpiredToken
	}
	return st, nil
}

func (i *Issuer) sign(payload string) string {
	mac := hmac.New(sha256.New, i.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
