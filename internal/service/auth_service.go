package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/fan-platform/internal/model"
	"github.com/d60-Lab/fan-platform/internal/repository"
	"github.com/d60-Lab/fan-platform/pkg/logger"
)

var (
	ErrUsernameTaken      = errors.New("username already registered")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("incorrect username or password")
)

type AuthService interface {
	Register(ctx context.Context, username, password, email string) (*model.User, error)
	Login(ctx context.Context, username, password string) (token string, err error)
	UserFromToken(ctx context.Context, token string) (*model.User, error)
	AddPoints(ctx context.Context, userID uint, amount float64) (*model.User, error)
}

type authService struct {
	users      repository.UserRepository
	jwtSecret  []byte
	tokenTTL   time.Duration
	pointGrant float64
}

func NewAuthService(users repository.UserRepository, jwtSecret string, tokenTTL time.Duration, signupPointGrant float64) AuthService {
	return &authService{
		users:      users,
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTL,
		pointGrant: signupPointGrant,
	}
}

// Register creates a user with the signup point grant already credited.
func (s *authService) Register(ctx context.Context, username, password, email string) (*model.User, error) {
	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}
	if email != "" {
		taken, err := s.users.ExistsByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailTaken
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &model.User{
		Username:       username,
		Email:          email,
		HashedPassword: string(hash),
		FreePoints:     s.pointGrant,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	logger.Info("user registered", zap.String("username", username), zap.Float64("point_grant", s.pointGrant))
	return user, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.Username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	logger.Info("user logged in", zap.String("username", username))
	return token, nil
}

// UserFromToken validates a bearer token and resolves its user.
func (s *authService) UserFromToken(ctx context.Context, tokenStr string) (*model.User, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// AddPoints credits free points directly. Exposed only on non-release builds.
func (s *authService) AddPoints(ctx context.Context, userID uint, amount float64) (*model.User, error) {
	if err := s.users.AddFreePoints(ctx, userID, amount); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}
