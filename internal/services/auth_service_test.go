package services_test

import (
	"errors"
	"testing"
	"time"

	"github.com/collabserve/collabserve/internal/config"
	"github.com/collabserve/collabserve/internal/services"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret: "unit-test-secret",
		TokenTTL:  time.Hour,
	}
}

func TestRegisterUser(t *testing.T) {
	db := setupTestDB(t)

	user, err := services.RegisterUser(db, "User@Example.COM", "Secret#123")
	if err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}
	if user.ID == "" {
		t.Error("Expected a generated user id")
	}
	if user.Email != "user@example.com" {
		t.Errorf("Expected normalized email, got %q", user.Email)
	}
	if user.PasswordHash == "Secret#123" || user.PasswordHash == "" {
		t.Error("Password must be stored hashed")
	}
}

func TestRegisterUserDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)

	if _, err := services.RegisterUser(db, "user@example.com", "Secret#123"); err != nil {
		t.Fatalf("First registration failed: %v", err)
	}
	if _, err := services.RegisterUser(db, "USER@example.com", "Other#456"); !errors.Is(err, services.ErrDuplicateEmail) {
		t.Errorf("Expected ErrDuplicateEmail, got %v", err)
	}
}

func TestRegisterUserValidation(t *testing.T) {
	db := setupTestDB(t)

	if _, err := services.RegisterUser(db, "", "Secret#123"); !errors.Is(err, services.ErrValidation) {
		t.Errorf("Expected ErrValidation for empty email, got %v", err)
	}
	if _, err := services.RegisterUser(db, "user@example.com", ""); !errors.Is(err, services.ErrValidation) {
		t.Errorf("Expected ErrValidation for empty password, got %v", err)
	}
}

func TestLoginUser(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()

	user, err := services.RegisterUser(db, "user@example.com", "Secret#123")
	if err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}

	token, err := services.LoginUser(db, cfg, "user@example.com", "Secret#123")
	if err != nil {
		t.Fatalf("LoginUser failed: %v", err)
	}

	// The token round-trips to the same identity
	sub, err := services.ValidateToken(cfg, token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if sub != user.ID {
		t.Errorf("Expected subject %s, got %s", user.ID, sub)
	}
}

func TestLoginUserRejections(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()

	services.RegisterUser(db, "user@example.com", "Secret#123")

	// Wrong password and unknown account look the same
	if _, err := services.LoginUser(db, cfg, "user@example.com", "wrong"); !errors.Is(err, services.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized for wrong password, got %v", err)
	}
	if _, err := services.LoginUser(db, cfg, "nobody@example.com", "Secret#123"); !errors.Is(err, services.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized for unknown account, got %v", err)
	}
}

func TestValidateTokenRejections(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()

	user, _ := services.RegisterUser(db, "user@example.com", "Secret#123")

	if _, err := services.ValidateToken(cfg, "not-a-token"); !errors.Is(err, services.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized for garbage token, got %v", err)
	}

	// A token signed with a different secret is rejected
	other := &config.Config{JWTSecret: "some-other-secret", TokenTTL: time.Hour}
	forged, err := services.IssueToken(other, user)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if _, err := services.ValidateToken(cfg, forged); !errors.Is(err, services.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized for wrong-secret token, got %v", err)
	}

	// An expired token is rejected
	expiredCfg := &config.Config{JWTSecret: cfg.JWTSecret, TokenTTL: -time.Minute}
	expired, err := services.IssueToken(expiredCfg, user)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if _, err := services.ValidateToken(cfg, expired); !errors.Is(err, services.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized for expired token, got %v", err)
	}
}
