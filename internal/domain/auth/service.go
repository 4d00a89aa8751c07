package auth

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/pkg/logger"
)

// Account is a configured API user. Accounts come from deployment
// configuration; this service has no self-registration.
type Account struct {
	UserID       string
	Email        string
	Name         string
	PasswordHash string // bcrypt
	IsAdmin      bool
}

// Token is an issued access token.
type Token struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Service authenticates configured accounts and issues tokens.
type Service struct {
	accounts map[string]Account // keyed by lowercase email
	jwt      *JWTService
	log      *logger.Logger
}

// NewService creates an auth service over the configured accounts.
func NewService(accounts []Account, jwtService *JWTService, log *logger.Logger) *Service {
	byEmail := make(map[string]Account, len(accounts))
	for _, account := range accounts {
		byEmail[strings.ToLower(account.Email)] = account
	}
	return &Service{
		accounts: byEmail,
		jwt:      jwtService,
		log:      log.WithComponent("auth"),
	}
}

// Login verifies credentials and returns an access token. Unknown emails and
// wrong passwords produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*Token, error) {
	account, ok := s.accounts[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		// Burn a comparison anyway to keep timing uniform.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$000000000000000000000u"), []byte(password))
		return nil, apperror.NewUnauthorized("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		s.log.WithContext(ctx).Warnw("failed login attempt", "email", account.Email)
		return nil, apperror.NewUnauthorized("invalid email or password")
	}

	user := &appctx.UserContext{
		UserID:  account.UserID,
		Email:   account.Email,
		Name:    account.Name,
		IsAdmin: account.IsAdmin,
	}
	accessToken, expiresAt, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	s.log.WithContext(ctx).Infow("user logged in", "user_id", account.UserID)
	return &Token{AccessToken: accessToken, ExpiresAt: expiresAt}, nil
}

// HashPassword produces a bcrypt hash for account provisioning.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
