package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/luis-polezi/stock-control/internal/auth"
	"github.com/luis-polezi/stock-control/internal/config"
	"github.com/luis-polezi/stock-control/internal/dto"
	"github.com/luis-polezi/stock-control/internal/model"
	"github.com/rs/zerolog/log"
)

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
}

type authService struct {
	gate *auth.Gate
	cfg  *config.Config
}

func NewAuthService(gate *auth.Gate, cfg *config.Config) AuthService {
	return &authService{gate: gate, cfg: cfg}
}

func (s *authService) Login(_ context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	id, err := s.gate.Authenticate(req.Username, req.Password)
	if err != nil {
		log.Warn().Str("username", req.Username).Msg("login denied")
		return nil, err
	}

	accessToken, err := s.generateToken(id, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Success:     true,
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   s.cfg.JWTExpirationHours * 3600,
		User:        id,
	}, nil
}

func (s *authService) generateToken(id model.Identity, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"username": id.Username,
		"role":     string(id.Role),
		"exp":      time.Now().Add(duration).Unix(),
		"iat":      time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
