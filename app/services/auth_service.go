package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/kwanzatukule/marketplace/app/apperr"
	"github.com/kwanzatukule/marketplace/app/models"
	"github.com/kwanzatukule/marketplace/app/repositories"
	"github.com/kwanzatukule/marketplace/pkg/auth"
	"github.com/kwanzatukule/marketplace/pkg/logger"
)

type AuthService struct {
	users  repositories.UserRepository
	tokens TokenIssuer
}

func NewAuthService(users repositories.UserRepository, tokens TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// RegisterInput is a new account. An empty Role means consumer.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// Register creates an account with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	role := strings.ToLower(strings.TrimSpace(in.Role))
	if role == "" {
		role = models.RoleConsumer
	}
	if !models.ValidRole(role) {
		return nil, apperr.InvalidInput("Invalid role")
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	taken, err := s.users.Exists(ctx, email, in.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Duplicate("User already exists")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	u := &models.User{Username: in.Username, Email: email, PasswordHash: hash, Role: role}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	logger.WithCtx(ctx).Info("user registered", "user_id", u.ID, "role", u.Role)
	return u, nil
}

// Login checks the credentials and returns a signed access token. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return "", apperr.Unauthorized("Invalid credentials")
		}
		return "", err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return "", apperr.Unauthorized("Invalid credentials")
	}

	token, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return "", fmt.Errorf("login: issue token: %w", err)
	}
	return token, nil
}
