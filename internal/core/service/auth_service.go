package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/atlasconseil/opsboard/internal/core/domain"
	"github.com/atlasconseil/opsboard/internal/core/ports"
)

// AuthService implements login and admin user management.
type AuthService struct {
	repo       ports.AuthRepository
	jwtSecret  string
	tokenTTL   time.Duration
	bcryptCost int
	log        zerolog.Logger
}

func NewAuthService(repo ports.AuthRepository, jwtSecret string, tokenTTL time.Duration, bcryptCost int, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL, bcryptCost: bcryptCost, log: log}
}

// Login verifies credentials against the stored bcrypt hash. Unknown user
// and bad password both surface as ErrInvalidCredentials; the distinction is
// logged internally only, so the API cannot be used to enumerate accounts.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	if username == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.log.Warn().Str("username", username).Msg("login attempt for unknown user")
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !user.Active {
		s.log.Warn().Str("username", username).Msg("login attempt for inactive user")
		return "", nil, domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// CreateUser provisions an account. Only Admin holds the referential write
// grant; everyone else fails closed.
func (s *AuthService) CreateUser(ctx context.Context, actor domain.Actor, input ports.CreateUserInput) (*domain.User, error) {
	if !domain.CanAccess(actor.Role, domain.ResourceReferential, domain.ActionWrite) {
		return nil, domain.Denied(actor.Role, domain.ResourceReferential, domain.ActionWrite)
	}
	if input.Username == "" || input.Password == "" {
		return nil, domain.Invalid("username", "and password are required")
	}
	if !domain.ValidRole(input.Role) {
		return nil, domain.Invalid("role", "is not a known role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     input.Username,
		FullName:     input.FullName,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         input.Role,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("username", created.Username).Str("role", string(created.Role)).Msg("user created")
	return created, nil
}

// DeactivateUser disables an account. Admin only.
func (s *AuthService) DeactivateUser(ctx context.Context, actor domain.Actor, userID int64) error {
	if !domain.CanAccess(actor.Role, domain.ResourceReferential, domain.ActionWrite) {
		return domain.Denied(actor.Role, domain.ResourceReferential, domain.ActionWrite)
	}
	if err := s.repo.Deactivate(ctx, userID); err != nil {
		return err
	}
	s.log.Info().Int64("user_id", userID).Msg("user deactivated")
	return nil
}

// ListUsers returns all accounts. Admin only.
func (s *AuthService) ListUsers(ctx context.Context, actor domain.Actor) ([]*domain.User, error) {
	if !domain.CanAccess(actor.Role, domain.ResourceReferential, domain.ActionWrite) {
		return nil, domain.Denied(actor.Role, domain.ResourceReferential, domain.ActionWrite)
	}
	return s.repo.List(ctx)
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"role":     string(user.Role),
		"exp":      time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
