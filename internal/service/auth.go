package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/octobees/directory-scraper/internal/auth"
)

// ErrInvalidCredentials is returned for any failed login attempt.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService validates the configured operator credentials and issues
// tokens. The API has a single admin identity defined in configuration;
// there is no user table.
type AuthService struct {
	adminEmail        string
	adminPasswordHash string
	jwt               *auth.JWTManager
}

// NewAuthService constructs a new AuthService.
func NewAuthService(adminEmail, adminPasswordHash string, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{
		adminEmail:        adminEmail,
		adminPasswordHash: adminPasswordHash,
		jwt:               jwtManager,
	}
}

// Login validates credentials and returns a JWT.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", errors.New("email and password must not be empty")
	}
	if s.adminEmail == "" || s.adminPasswordHash == "" {
		return "", errors.New("admin credentials not configured")
	}

	if email != s.adminEmail {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.adminPasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken("admin", s.adminEmail, "admin")
	if err != nil {
		return "", err
	}
	return token, nil
}
