package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"carevault/internal/auth"
	"carevault/internal/model"
	repoMocks "carevault/internal/repository/mocks"
)

func testIssuer(t *testing.T) *auth.TokenIssuer {
	t.Helper()
	issuer, err := auth.NewTokenIssuer("test-secret", 1)
	assert.NoError(t, err)
	return issuer
}

func hashFixture(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	return string(h)
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()

	valid := RegisterInput{
		Email:     "pat@example.com",
		Password:  "correct-horse",
		FirstName: "Pat",
		LastName:  "Doe",
		Role:      model.RolePatient,
	}

	tests := []struct {
		name       string
		input      RegisterInput
		setupMocks func(mRepo *repoMocks.MockUserRepository)
		wantErr    error
	}{
		{
			name:  "happy path",
			input: valid,
			setupMocks: func(mRepo *repoMocks.MockUserRepository) {
				mRepo.On("FindByEmail", ctx, "pat@example.com").Return(nil, sql.ErrNoRows)
				mRepo.On("Create", ctx, mock.MatchedBy(func(u *model.User) bool {
					ok := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct-horse")) == nil
					return u.Email == "pat@example.com" && ok
				})).Return(&model.User{ID: "user-1", Email: "pat@example.com", Role: model.RolePatient}, nil)
			},
		},
		{
			name:       "bad email",
			input:      RegisterInput{Email: "not-an-email", Password: "correct-horse", FirstName: "Pat", LastName: "Doe", Role: model.RolePatient},
			setupMocks: func(mRepo *repoMocks.MockUserRepository) {},
			wantErr:    ErrValidation,
		},
		{
			name:       "short password",
			input:      RegisterInput{Email: "pat@example.com", Password: "short", FirstName: "Pat", LastName: "Doe", Role: model.RolePatient},
			setupMocks: func(mRepo *repoMocks.MockUserRepository) {},
			wantErr:    ErrValidation,
		},
		{
			name:       "unknown role",
			input:      RegisterInput{Email: "pat@example.com", Password: "correct-horse", FirstName: "Pat", LastName: "Doe", Role: "superuser"},
			setupMocks: func(mRepo *repoMocks.MockUserRepository) {},
			wantErr:    ErrValidation,
		},
		{
			name:  "email already taken",
			input: valid,
			setupMocks: func(mRepo *repoMocks.MockUserRepository) {
				mRepo.On("FindByEmail", ctx, "pat@example.com").Return(&model.User{ID: "existing"}, nil)
			},
			wantErr: ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockUserRepository)
			svc := NewUserService(mRepo, testIssuer(t))

			tt.setupMocks(mRepo)

			res, err := svc.Register(ctx, tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, res.Token)
				assert.Equal(t, "user-1", res.User.ID)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_Login(t *testing.T) {
	ctx := context.Background()

	user := func(t *testing.T) *model.User {
		return &model.User{
			ID:           "user-1",
			Email:        "pat@example.com",
			PasswordHash: hashFixture(t, "correct-horse"),
			Role:         model.RolePatient,
			IsActive:     true,
		}
	}

	tests := []struct {
		name       string
		password   string
		setupMocks func(t *testing.T, mRepo *repoMocks.MockUserRepository)
		wantErr    error
	}{
		{
			name:     "happy path stamps last login",
			password: "correct-horse",
			setupMocks: func(t *testing.T, mRepo *repoMocks.MockUserRepository) {
				mRepo.On("FindByEmail", ctx, "pat@example.com").Return(user(t), nil)
				mRepo.On("UpdateLastLogin", ctx, "user-1", mock.Anything).Return(nil)
			},
		},
		{
			name:     "unknown email",
			password: "correct-horse",
			setupMocks: func(t *testing.T, mRepo *repoMocks.MockUserRepository) {
				mRepo.On("FindByEmail", ctx, "pat@example.com").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			password: "incorrect-horse",
			setupMocks: func(t *testing.T, mRepo *repoMocks.MockUserRepository) {
				mRepo.On("FindByEmail", ctx, "pat@example.com").Return(user(t), nil)
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:     "repository error passes through",
			password: "correct-horse",
			setupMocks: func(t *testing.T, mRepo *repoMocks.MockUserRepository) {
				mRepo.On("FindByEmail", ctx, "pat@example.com").Return(nil, errors.New("db fail"))
			},
			wantErr: errors.New("db fail"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockUserRepository)
			svc := NewUserService(mRepo, testIssuer(t))

			tt.setupMocks(t, mRepo)

			res, err := svc.Login(ctx, "pat@example.com", tt.password)

			if tt.wantErr != nil {
				if errors.Is(tt.wantErr, ErrInvalidCredentials) {
					assert.ErrorIs(t, err, ErrInvalidCredentials)
				} else {
					assert.Error(t, err)
				}
				assert.Nil(t, res)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, res.Token)
				assert.NotNil(t, res.User.LastLogin)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_ChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path stores a new hash", func(t *testing.T) {
		mRepo := new(repoMocks.MockUserRepository)
		svc := NewUserService(mRepo, testIssuer(t))

		mRepo.On("FindByID", ctx, "user-1").Return(&model.User{
			ID:           "user-1",
			PasswordHash: hashFixture(t, "old-password"),
		}, nil)
		mRepo.On("UpdatePassword", ctx, "user-1", mock.MatchedBy(func(hash string) bool {
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte("new-password")) == nil
		})).Return(nil)

		assert.NoError(t, svc.ChangePassword(ctx, "user-1", "old-password", "new-password"))
		mRepo.AssertExpectations(t)
	})

	t.Run("wrong current password", func(t *testing.T) {
		mRepo := new(repoMocks.MockUserRepository)
		svc := NewUserService(mRepo, testIssuer(t))

		mRepo.On("FindByID", ctx, "user-1").Return(&model.User{
			ID:           "user-1",
			PasswordHash: hashFixture(t, "old-password"),
		}, nil)

		err := svc.ChangePassword(ctx, "user-1", "not-the-password", "new-password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		mRepo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("short new password", func(t *testing.T) {
		mRepo := new(repoMocks.MockUserRepository)
		svc := NewUserService(mRepo, testIssuer(t))

		err := svc.ChangePassword(ctx, "user-1", "old-password", "short")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown user", func(t *testing.T) {
		mRepo := new(repoMocks.MockUserRepository)
		svc := NewUserService(mRepo, testIssuer(t))

		mRepo.On("FindByID", ctx, "ghost").Return(nil, sql.ErrNoRows)

		err := svc.ChangePassword(ctx, "ghost", "old-password", "new-password")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUserService_CareTeam(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockUserRepository)
	svc := NewUserService(mRepo, testIssuer(t))

	mRepo.On("ListActiveByRoles", ctx, []model.Role{model.RoleClinician, model.RoleAdmin}).
		Return([]model.User{{ID: "doc-1", Role: model.RoleClinician}}, nil)

	team, err := svc.CareTeam(ctx)
	assert.NoError(t, err)
	assert.Len(t, team, 1)
	mRepo.AssertExpectations(t)
}
