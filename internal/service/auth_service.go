package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"fsanano/food-market/internal/apperr"
	"fsanano/food-market/internal/auth"
	"fsanano/food-market/internal/model"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

type AuthService struct {
	users  UserStore
	tokens *auth.TokenIssuer
}

func NewAuthService(users UserStore, tokens *auth.TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

type RegisterInput struct {
	Name     string     `json:"name" validate:"notblank,max=255"`
	Email    string     `json:"email" validate:"required,email,max=255"`
	Password string     `json:"password" validate:"required,min=8,max=72"`
	Role     model.Role `json:"role" validate:"oneof=customer vendor"`
	Phone    string     `json:"phone" validate:"max=32"`
}

type credentials struct {
	Email    string `json:"email" validate:"notblank"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Role == "" {
		in.Role = model.RoleCustomer
	}

	if err := check(in).OrNil(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        in.Phone,
		Role:         in.Role,
		Status:       model.StatusActive,
		Preferences:  map[string]bool{},
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return s.issue(u)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if err := check(credentials{Email: email, Password: password}).OrNil(); err != nil {
		return nil, err
	}

	u, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		var nf *apperr.NotFoundError
		if errors.As(err, &nf) {
			return nil, invalidCredentials()
		}
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, invalidCredentials()
	}
	return s.issue(u)
}

func (s *AuthService) issue(u *model.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Token: token}, nil
}

func invalidCredentials() error {
	return apperr.WithStatus(http.StatusUnauthorized, "invalid email or password")
}
