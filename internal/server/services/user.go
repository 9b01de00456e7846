// Package services contains server-side business logic. This file implements
// UserService, which handles signup, signin and resolving bearer tokens back
// to users.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/dmitrijs2005/carmarket/internal/server/auth"
	"github.com/dmitrijs2005/carmarket/internal/server/config"
	"github.com/dmitrijs2005/carmarket/internal/server/models"
	"github.com/dmitrijs2005/carmarket/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// UserService provides authentication-related operations:
// - SignUp: create users and mint a token
// - SignIn: verify credentials and mint a token
// - Authenticate: resolve a bearer token to a live user
type UserService struct {
	users                 users.Repository
	jwtSecret             []byte
	tokenValidityDuration time.Duration
	bcryptCost            int
}

// NewUserService constructs a UserService using the users repository and
// server config.
func NewUserService(repo users.Repository, cfg *config.Config) *UserService {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &UserService{
		users:                 repo,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
		bcryptCost:            cost,
	}
}

// SignUp registers a user and returns a signed token for it. A taken email is
// a validation error.
func (s *UserService) SignUp(ctx context.Context, email, password, name string) (string, error) {
	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return "", common.Validationf("email already registered")
	case !errors.Is(err, common.ErrorNotFound):
		return "", fmt.Errorf("error checking email: %w", err)
	}

	if len(password) > maxPasswordBytes {
		return "", common.Validationf("password must be at most %d bytes", maxPasswordBytes)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", common.Validationf("password must be at most %d bytes", maxPasswordBytes)
		}
		return "", fmt.Errorf("error hashing password: %w", err)
	}

	user, err := s.users.Create(ctx, &models.User{Email: email, PasswordHash: string(hash), Name: name})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return "", common.Validationf("email already registered")
		}
		return "", fmt.Errorf("error creating user: %w", err)
	}

	return s.generateToken(user)
}

// SignIn checks credentials. Unknown email and wrong password produce the
// same ErrorUnauthorized.
func (s *UserService) SignIn(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", fmt.Errorf("error loading user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", common.ErrorUnauthorized
	}

	return s.generateToken(user)
}

// Authenticate verifies token and reloads its user. Deleted users are
// rejected with ErrorUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	id, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	return user, nil
}

func (s *UserService) generateToken(user *models.User) (string, error) {
	token, err := auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return token, nil
}
