package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/atlasconseil/opsboard/internal/core/domain"
	"github.com/atlasconseil/opsboard/internal/core/ports"
)

const testSecret = "test-secret"

func newAuthFixture(t *testing.T) (*AuthService, *stubAuthRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	repo := newStubAuthRepo(
		&domain.User{ID: 1, Username: "admin", PasswordHash: string(hash), Role: domain.RoleAdmin, Active: true},
		&domain.User{ID: 2, Username: "gone", PasswordHash: string(hash), Role: domain.RoleConsultant, Active: false},
	)
	return NewAuthService(repo, testSecret, time.Hour, bcrypt.MinCost, zerolog.Nop()), repo
}

func TestLogin_Success(t *testing.T) {
	svc, _ := newAuthFixture(t)

	token, user, err := svc.Login(context.Background(), "admin", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Username != "admin" {
		t.Errorf("user = %q, want admin", user.Username)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token does not verify: %v", err)
	}
	if claims["role"] != string(domain.RoleAdmin) {
		t.Errorf("role claim = %v, want ADMIN", claims["role"])
	}
	if claims["username"] != "admin" {
		t.Errorf("username claim = %v, want admin", claims["username"])
	}
}

// Unknown users, wrong passwords, and deactivated accounts must be
// indistinguishable to the caller.
func TestLogin_FailuresAreUniform(t *testing.T) {
	svc, _ := newAuthFixture(t)

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"unknown user", "nobody", "s3cret-pass"},
		{"wrong password", "admin", "wrong"},
		{"inactive user", "gone", "s3cret-pass"},
		{"empty password", "admin", ""},
	}
	for _, tc := range cases {
		t.Run(strings.ReplaceAll(tc.name, " ", "_"), func(t *testing.T) {
			_, _, err := svc.Login(context.Background(), tc.username, tc.password)
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Fatalf("got %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestCreateUser_AdminOnly(t *testing.T) {
	svc, repo := newAuthFixture(t)

	input := ports.CreateUserInput{
		Username: "newbie", Password: "long-enough-pass", FullName: "New Person", Role: domain.RoleConsultant,
	}

	for _, actor := range []domain.Actor{actorBoard, actorLead, actorConsult} {
		_, err := svc.CreateUser(context.Background(), actor, input)
		var denied *domain.AccessDenied
		if !errors.As(err, &denied) {
			t.Errorf("%s: expected AccessDenied, got %v", actor.Role, err)
		}
	}

	created, err := svc.CreateUser(context.Background(), actorAdmin, input)
	if err != nil {
		t.Fatalf("admin create: %v", err)
	}
	if created.PasswordHash == "long-enough-pass" {
		t.Error("password stored in clear")
	}
	if _, err := repo.FindByUsername(context.Background(), "newbie"); err != nil {
		t.Errorf("created user not persisted: %v", err)
	}
}

func TestCreateUser_RejectsUnknownRole(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.CreateUser(context.Background(), actorAdmin, ports.CreateUserInput{
		Username: "x", Password: "long-enough-pass", Role: domain.Role("INTERN"),
	})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestDeactivateUser_AdminOnly(t *testing.T) {
	svc, repo := newAuthFixture(t)

	err := svc.DeactivateUser(context.Background(), actorLead, 1)
	var denied *domain.AccessDenied
	if !errors.As(err, &denied) {
		t.Fatalf("expected AccessDenied, got %v", err)
	}

	if err := svc.DeactivateUser(context.Background(), actorAdmin, 1); err != nil {
		t.Fatal(err)
	}
	u, _ := repo.FindByUsername(context.Background(), "admin")
	if u.Active {
		t.Error("user still active after deactivation")
	}
}
