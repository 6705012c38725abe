package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-draw/models"
	"github.com/Dosada05/tournament-draw/utils"
	"github.com/golang-jwt/jwt/v4"
)

const (
	organizerSubject = "organizer"
	tokenTTL         = 12 * time.Hour
)

// AuthService exchanges the organizer password for a signed token that
// unlocks the write endpoints.
type AuthService interface {
	IssueToken(ctx context.Context, password string) (string, time.Time, error)
}

type authService struct {
	passwordHash string
	jwtSecret    []byte
	now          func() time.Time
}

func NewAuthService(passwordHash, jwtSecret string) AuthService {
	return &authService{
		passwordHash: passwordHash,
		jwtSecret:    []byte(jwtSecret),
		now:          time.Now,
	}
}

func (s *authService) IssueToken(ctx context.Context, password string) (string, time.Time, error) {
	if len(s.passwordHash) == 0 || len(s.jwtSecret) == 0 {
		return "", time.Time{}, ErrAuthDisabled
	}
	if !utils.CheckPasswordHash(password, s.passwordHash) {
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := s.now()
	expires := now.Add(tokenTTL)
	claims := jwt.MapClaims{
		"sub":  organizerSubject,
		"role": string(models.RoleOrganizer),
		"exp":  expires.Unix(),
		"iat":  now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}
