package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
	"github.com/schoolcanteen/canteen-system/internal/core/ports"
)

func register(t *testing.T, svc *AuthService, email, password string) *domain.Account {
	t.Helper()
	acc, err := svc.Register(context.Background(), ports.RegisterInput{
		Name:       "Ana",
		Email:      email,
		Password:   password,
		ClassGroup: "3b",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return acc
}

func TestAuthService_Register_Success(t *testing.T) {
	svc := NewAuthService(newStubAccountRepo(), "secret", time.Hour)

	acc := register(t, svc, " Ana@School.org ", "pass123")
	if acc.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if acc.Email != "ana@school.org" {
		t.Fatalf("expected normalized email, got %q", acc.Email)
	}
	if acc.ClassGroup != "3B" {
		t.Fatalf("expected upper-cased class group, got %q", acc.ClassGroup)
	}
	if !acc.Active || acc.Admin {
		t.Fatalf("expected active student, got active=%v admin=%v", acc.Active, acc.Admin)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := NewAuthService(newStubAccountRepo(), "secret", time.Hour)

	inputs := []ports.RegisterInput{
		{Name: "", Email: "a@b.c", Password: "x"},
		{Name: "A", Email: " ", Password: "x"},
		{Name: "A", Email: "a@b.c", Password: ""},
	}
	for _, in := range inputs {
		if _, err := svc.Register(context.Background(), in); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("%+v: expected ErrInvalidCredentials, got %v", in, err)
		}
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc := NewAuthService(newStubAccountRepo(), "secret", time.Hour)

	register(t, svc, "bob@school.org", "pass")
	_, err := svc.Register(context.Background(), ports.RegisterInput{Name: "Bob", Email: "BOB@school.org", Password: "pass2"})
	if !errors.Is(err, domain.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	svc := NewAuthService(newStubAccountRepo(), "secret", time.Hour)
	created := register(t, svc, "carol@school.org", "s3cret")

	token, acc, err := svc.Login(context.Background(), "carol@school.org", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token, got empty")
	}
	if acc == nil || acc.ID != created.ID {
		t.Fatalf("unexpected account: %+v", acc)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["account_id"] != created.ID {
		t.Fatalf("expected account_id %s, got %v", created.ID, claims["account_id"])
	}
	if claims["role"] != domain.RoleStudent {
		t.Fatalf("expected role %s, got %v", domain.RoleStudent, claims["role"])
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	svc := NewAuthService(newStubAccountRepo(), "secret", time.Hour)
	register(t, svc, "dave@school.org", "goodpass")

	if _, _, err := svc.Login(context.Background(), "dave@school.org", "badpass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc := NewAuthService(newStubAccountRepo(), "secret", time.Hour)

	if _, _, err := svc.Login(context.Background(), "ghost@school.org", "pass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_Disabled(t *testing.T) {
	repo := newStubAccountRepo()
	svc := NewAuthService(repo, "secret", time.Hour)
	acc := register(t, svc, "eve@school.org", "pw")

	acc.Active = false
	if err := repo.Update(context.Background(), acc); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "eve@school.org", "pw"); !errors.Is(err, domain.ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}
