package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	berrors "github.com/abgdnv/storefront/internal/backend/errors"
	"github.com/abgdnv/storefront/internal/backend/store"
)

const UsersCollection = "users"

type User struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// UserService defines the methods for managing users.
type UserService interface {
	// FindByID retrieves a single user.
	// Returns ErrUserNotFound if no user exists with the given ID.
	FindByID(ctx context.Context, id int64) (*UserDto, error)

	// FindAll returns a page of users ordered by id.
	FindAll(ctx context.Context, offset, limit int) ([]UserDto, error)

	// Create registers a user. Returns ErrEmailTaken if the email is already in use.
	Create(ctx context.Context, user UserCreateDto) (*UserDto, error)

	// Update replaces a user's details.
	// Returns ErrUserNotFound, ErrOptimisticLock or ErrEmailTaken.
	Update(ctx context.Context, user UserDto) (*UserDto, error)

	// DeleteByID removes a user.
	// Returns ErrUserNotFound if no user exists with the given ID.
	DeleteByID(ctx context.Context, id int64) error
}

type UserCreateDto struct {
	Name  string `json:"name"  validate:"required,max=100"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
}

// UserDto represents the data transfer object for a user.
// Version is read-only and used for optimistic concurrency control.
type UserDto struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"    validate:"required,max=100"`
	Email   string `json:"email"   validate:"required,email"`
	Phone   string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Version int32  `json:"version" validate:"required,min=1"`
}

type Users struct {
	collection store.Collection[User]
	logger     *slog.Logger
}

var _ UserService = (*Users)(nil)

func NewUserService(collection store.Collection[User], logger *slog.Logger) *Users {
	return &Users{collection: collection, logger: logger.With("component", "user_service")}
}

func (s *Users) FindByID(ctx context.Context, id int64) (*UserDto, error) {
	rec, err := s.collection.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user by ID %d: %w", id, notFound(err, berrors.ErrUserNotFound))
	}
	return toUserDto(rec), nil
}

func (s *Users) FindAll(ctx context.Context, offset, limit int) ([]UserDto, error) {
	records, err := s.collection.Find(ctx, nil, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	users := make([]UserDto, len(records))
	for i := range records {
		users[i] = *toUserDto(&records[i])
	}
	return users, nil
}

func (s *Users) Create(ctx context.Context, user UserCreateDto) (*UserDto, error) {
	user.Email = normalizeEmail(user.Email)
	if err := s.checkEmail(ctx, user.Email, 0); err != nil {
		return nil, err
	}
	id, err := s.collection.NextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	rec, err := s.collection.Insert(ctx, id, User(user))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return toUserDto(rec), nil
}

func (s *Users) Update(ctx context.Context, user UserDto) (*UserDto, error) {
	user.Email = normalizeEmail(user.Email)
	if err := s.checkEmail(ctx, user.Email, user.ID); err != nil {
		return nil, err
	}
	rec, err := s.collection.Replace(ctx, user.ID, user.Version, User{Name: user.Name, Email: user.Email, Phone: user.Phone})
	if err != nil {
		return nil, fmt.Errorf("failed to update user with ID %d: %w", user.ID, notFound(err, berrors.ErrUserNotFound))
	}
	return toUserDto(rec), nil
}

func (s *Users) DeleteByID(ctx context.Context, id int64) error {
	if err := s.collection.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user with ID %d: %w", id, notFound(err, berrors.ErrUserNotFound))
	}
	return nil
}

// checkEmail fails with ErrEmailTaken when email belongs to a user other than self.
func (s *Users) checkEmail(ctx context.Context, email string, self int64) error {
	existing, err := s.collection.Find(ctx, store.Filter{"email": email}, 0, 1)
	if err != nil {
		return fmt.Errorf("failed to look up email: %w", err)
	}
	if len(existing) > 0 && existing[0].ID != self {
		return fmt.Errorf("%s: %w", email, berrors.ErrEmailTaken)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserDto(rec *store.Record[User]) *UserDto {
	return &UserDto{
		ID:      rec.ID,
		Name:    rec.Doc.Name,
		Email:   rec.Doc.Email,
		Phone:   rec.Doc.Phone,
		Version: rec.Version,
	}
}
