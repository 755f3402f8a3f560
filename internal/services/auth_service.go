// Package services holds the account and vault content logic behind the HTTP handlers.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/florancealade/zephyryx-storage-keep/internal/repository"
	"github.com/florancealade/zephyryx-storage-keep/models"
)

// Account errors.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidUsername    = errors.New("username must be 3 to 64 characters without whitespace")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

const (
	minUsernameLen = 3
	maxUsernameLen = 64
	minPasswordLen = 8
	tokenIssuer    = "vaultkeep-server"
)

// AuthService registers accounts and issues bearer tokens.
type AuthService interface {
	Register(ctx context.Context, username, password string) error
	// Login returns a signed token whose subject is the account principal.
	Login(ctx context.Context, username, password string) (string, error)
}

var _ AuthService = (*authService)(nil)

type authService struct {
	users  repository.UserRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthService creates an AuthService signing HS256 tokens with secret.
func NewAuthService(users repository.UserRepository, secret []byte, ttl time.Duration) AuthService {
	return &authService{users: users, secret: secret, ttl: ttl, now: time.Now}
}

func validUsername(u string) bool {
	n := utf8.RuneCountInString(u)
	if n < minUsernameLen || n > maxUsernameLen {
		return false
	}
	return strings.IndexFunc(u, unicode.IsSpace) < 0
}

func (s *authService) Register(ctx context.Context, username, password string) error {
	if !validUsername(username) {
		return ErrInvalidUsername
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = s.users.CreateUser(ctx, &models.User{Username: username, PasswordHash: string(hash)})
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return ErrUsernameTaken
		}
		slog.ErrorContext(ctx, "[AuthService] create user failed", "username", username, "error", err)
		return fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "[AuthService] user registered", "username", username)
	return nil
}

func (s *authService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("find user: %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.InfoContext(ctx, "[AuthService] wrong password", "username", username)
		return "", ErrInvalidCredentials
	}

	token, err := s.signToken(user.Principal())
	if err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "[AuthService] user logged in", "username", username)
	return token, nil
}

func (s *authService) signToken(p models.Principal) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   string(p),
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
