package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"golang.org/x/crypto/bcrypt"

	"carevault/internal/auth"
	"carevault/internal/model"
	"carevault/internal/repository"
)

// bcryptCost matches the work factor used for all stored password hashes.
const bcryptCost = 12

const minPasswordLength = 8

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Role        model.Role
	PhoneNumber string
	DateOfBirth *time.Time
}

// AuthResult is a signed token plus the authenticated user.
type AuthResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// UserService covers account lifecycle and profile use cases.
type UserService interface {
	// Register creates an account and returns a signed token for it.
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)

	// Login verifies credentials, stamps last login, and returns a token.
	// Unknown email and wrong password are indistinguishable.
	Login(ctx context.Context, email, password string) (*AuthResult, error)

	// Get returns a user by id.
	Get(ctx context.Context, id string) (*model.User, error)

	// UpdateProfile applies the mutable profile fields.
	UpdateProfile(ctx context.Context, id string, upd repository.UserProfileUpdate) (*model.User, error)

	// ChangePassword verifies the current password before storing a new hash.
	ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error

	// CareTeam lists the active clinician and admin directory.
	CareTeam(ctx context.Context) ([]model.User, error)
}

type userService struct {
	repo   repository.UserRepository
	tokens *auth.TokenIssuer
}

// NewUserService constructs a new UserService.
func NewUserService(repo repository.UserRepository, tokens *auth.TokenIssuer) UserService {
	return &userService{repo: repo, tokens: tokens}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	if in.FirstName == "" || in.LastName == "" {
		return nil, fmt.Errorf("%w: first and last name are required", ErrValidation)
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, in.Role)
	}

	if _, err := s.repo.FindByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, &model.User{
		Email:        in.Email,
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         in.Role,
		PhoneNumber:  in.PhoneNumber,
		DateOfBirth:  in.DateOfBirth,
	})
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Sign(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now

	token, err := s.tokens.Sign(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *userService) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id string, upd repository.UserProfileUpdate) (*model.User, error) {
	if upd.FirstName == "" || upd.LastName == "" {
		return nil, fmt.Errorf("%w: first and last name are required", ErrValidation)
	}
	user, err := s.repo.UpdateProfile(ctx, id, upd)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, id, string(hash))
}

func (s *userService) CareTeam(ctx context.Context) ([]model.User, error) {
	return s.repo.ListActiveByRoles(ctx, []model.Role{model.RoleClinician, model.RoleAdmin})
}
