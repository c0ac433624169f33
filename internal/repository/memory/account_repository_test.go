package memory

import (
	"context"
	"testing"
	"time"

	"skillswap/internal/models"
)

func TestEmailExists(t *testing.T) {
	repo := NewAccountRepository()
	repo.CreateAccount(&models.Account{UserID: "u1", Email: "alice@example.com"})
	ctx := context.Background()

	exists, err := repo.EmailExists(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("EmailExists failed: %v", err)
	}
	if !exists {
		t.Error("seeded email reported missing")
	}

	exists, err = repo.EmailExists(ctx, "ALICE@example.com")
	if err != nil {
		t.Fatalf("EmailExists failed: %v", err)
	}
	if !exists {
		t.Error("case variant of seeded email reported missing")
	}

	exists, err = repo.EmailExists(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("EmailExists failed: %v", err)
	}
	if exists {
		t.Error("unknown email reported as existing")
	}
}

func TestGetAccountByEmail(t *testing.T) {
	repo := NewAccountRepository()
	repo.CreateAccount(&models.Account{UserID: "u1", Email: "alice@example.com", DisplayName: "Alice"})
	ctx := context.Background()

	account, err := repo.GetAccountByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetAccountByEmail failed: %v", err)
	}
	if account == nil || account.UserID != "u1" {
		t.Fatalf("account = %+v, want UserID u1", account)
	}

	// Callers get a copy, not the stored record.
	account.DisplayName = "Mallory"
	again, _ := repo.GetAccountByEmail(ctx, "alice@example.com")
	if again.DisplayName != "Alice" {
		t.Error("mutating a returned account changed the stored record")
	}

	missing, err := repo.GetAccountByEmail(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("GetAccountByEmail failed: %v", err)
	}
	if missing != nil {
		t.Errorf("unknown email returned account %+v, want nil", missing)
	}
}

func TestUpdateLastLogin(t *testing.T) {
	repo := NewAccountRepository()
	repo.CreateAccount(&models.Account{UserID: "u1", Email: "alice@example.com"})
	ctx := context.Background()

	ts := time.Now().UTC()
	if err := repo.UpdateLastLogin(ctx, "u1", ts); err != nil {
		t.Fatalf("UpdateLastLogin failed: %v", err)
	}

	account, _ := repo.GetAccountByEmail(ctx, "alice@example.com")
	if account.LastLogin == nil || !account.LastLogin.Equal(ts) {
		t.Errorf("LastLogin = %v, want %v", account.LastLogin, ts)
	}

	// Unknown user is a no-op, not an error.
	if err := repo.UpdateLastLogin(ctx, "ghost", ts); err != nil {
		t.Errorf("UpdateLastLogin unknown user: err = %v, want nil", err)
	}
}
