package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"docvault/internal/auth"
	"docvault/internal/model"
	"docvault/internal/repository"
)

// RegisterInput is the payload for account creation.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// AuthResult is returned by register, login, and refresh.
type AuthResult struct {
	User   PublicUser      `json:"user"`
	Tokens *auth.TokenPair `json:"tokens"`
}

// PublicUser is the externally visible shape of an account.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UserService defines account and session use cases.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, userID string) error
}

type userService struct {
	users    repository.UserRepository
	roles    repository.RoleRepository
	sessions *auth.SessionManager
}

// NewUserService constructs a UserService.
func NewUserService(users repository.UserRepository, roles repository.RoleRepository, sessions *auth.SessionManager) UserService {
	return &userService{users: users, roles: roles, sessions: sessions}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	role, err := s.roles.FindByName(ctx, in.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidRole
		}
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		RoleID:       role.ID,
	}
	stored, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issueTokens(ctx, stored, role.Name)
}

func (s *userService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Same error as a bad password so login failures do not reveal
			// which accounts exist.
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := auth.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	uwr, err := s.users.FindByIDWithRole(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, &uwr.User, uwr.Role)
}

func (s *userService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.sessions.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefresh
	}

	uwr, err := s.users.FindByIDWithRole(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	// A refresh token invalidated by logout (or replaced by a newer login)
	// no longer matches the stored one and is rejected.
	if uwr.RefreshToken == "" || uwr.RefreshToken != refreshToken {
		return nil, ErrInvalidRefresh
	}

	return s.issueTokens(ctx, &uwr.User, uwr.Role)
}

func (s *userService) Logout(ctx context.Context, userID string) error {
	return s.users.UpdateRefreshToken(ctx, userID, "")
}

func (s *userService) issueTokens(ctx context.Context, user *model.User, roleName string) (*AuthResult, error) {
	pair, err := s.sessions.GeneratePair(user.ID, user.Name, user.Email)
	if err != nil {
		return nil, fmt.Errorf("sign tokens: %w", err)
	}
	if err := s.users.UpdateRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &AuthResult{
		User: PublicUser{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  roleName,
		},
		Tokens: pair,
	}, nil
}
