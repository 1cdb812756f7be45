package ports

import (
	"context"

	"github.com/atlasconseil/opsboard/internal/core/domain"
)

// AuthRepository defines the interface for user persistence.
type AuthRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Deactivate(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*domain.User, error)
}

// CreateUserInput carries the data for an admin-created account.
type CreateUserInput struct {
	Username string
	Password string
	FullName string
	Email    string
	Role     domain.Role
}

// AuthService implements authentication and admin user management.
type AuthService interface {
	// Login verifies credentials and returns a signed token. Unknown users
	// and wrong passwords are indistinguishable to the caller.
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
	// CreateUser provisions an account. Admin only.
	CreateUser(ctx context.Context, actor domain.Actor, input CreateUserInput) (*domain.User, error)
	// DeactivateUser disables an account. Admin only.
	DeactivateUser(ctx context.Context, actor domain.Actor, userID int64) error
	// ListUsers returns all accounts. Admin only.
	ListUsers(ctx context.Context, actor domain.Actor) ([]*domain.User, error)
}
