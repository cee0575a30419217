package users

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/sensei-service/sensei_service/internal/domain/entities"
	"github.com/sensei-service/sensei_service/internal/infrastructure/config"
	"github.com/sensei-service/sensei_service/internal/infrastructure/repositories"
	"github.com/sensei-service/sensei_service/pkg/auth"
	"github.com/sensei-service/sensei_service/pkg/errors"
	"github.com/sensei-service/sensei_service/pkg/logger"
)

const (
	minPasswordLength = 8
	minUsernameLength = 4
	maxUsernameLength = 15
)

// Service handles registration, login and profile management
type Service struct {
	userRepo UserRepository
	jwt      config.JWTConfig
	game     config.GameConfig
	logger   *logger.Logger
}

// UserRepository interface for account persistence
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, username, email, avatar string) error
}

// AuthResponse carries a fresh token alongside the account it belongs to
type AuthResponse struct {
	User  *entities.User  `json:"user"`
	Token *auth.TokenPair `json:"token"`
}

// NewService creates a new users service
func NewService(userRepo UserRepository, jwt config.JWTConfig, game config.GameConfig, logger *logger.Logger) *Service {
	return &Service{
		userRepo: userRepo,
		jwt:      jwt,
		game:     game,
		logger:   logger,
	}
}

// Register creates an account and signs the user in
func (s *Service) Register(ctx context.Context, username, email, password string) (*AuthResponse, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if email == "" {
		return nil, errors.ValidationError("email is required")
	}
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, errors.ValidationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &entities.User{
		ID:             uuid.New(),
		Username:       username,
		Email:          email,
		PasswordHash:   string(hash),
		VirtualBalance: decimal.NewFromFloat(s.game.DefaultVirtualBalance),
		TotalXP:        0,
		Rank:           entities.RankForXP(0),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if stderrors.Is(err, repositories.ErrDuplicate) {
			return nil, errors.DuplicateEntry("an account with that username or email already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	s.logger.CtxInfo(ctx, "user registered", "user_id", user.ID, "username", user.Username)
	return &AuthResponse{User: user, Token: token}, nil
}

// Login checks credentials and issues a token. Bad email and bad password
// produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if stderrors.Is(err, repositories.ErrNotFound) {
		return nil, errors.Unauthorized("invalid credentials")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, errors.Unauthorized("invalid credentials")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: user, Token: token}, nil
}

// Profile returns the account for an authenticated user
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*entities.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if stderrors.Is(err, repositories.ErrNotFound) {
		return nil, errors.NotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// UpdateProfile edits username, email and avatar. A nil field keeps its
// current value; an avatar sent as an empty string is cleared.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, username, email, avatar *string) (*entities.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	newUsername := user.Username
	if username != nil {
		newUsername = strings.TrimSpace(*username)
		if err := validateUsername(newUsername); err != nil {
			return nil, err
		}
	}
	newEmail := user.Email
	if email != nil {
		newEmail = strings.ToLower(strings.TrimSpace(*email))
		if newEmail == "" {
			return nil, errors.ValidationError("email cannot be empty")
		}
	}
	newAvatar := user.Avatar
	if avatar != nil {
		newAvatar = *avatar
	}

	if err := s.userRepo.UpdateProfile(ctx, userID, newUsername, newEmail, newAvatar); err != nil {
		if stderrors.Is(err, repositories.ErrDuplicate) {
			return nil, errors.DuplicateEntry("username or email already in use")
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	user.Username = newUsername
	user.Email = newEmail
	user.Avatar = newAvatar
	return user, nil
}

func validateUsername(username string) error {
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return errors.ValidationError(fmt.Sprintf(
			"username must be between %d and %d characters", minUsernameLength, maxUsernameLength,
		))
	}
	return nil
}

func (s *Service) issueToken(user *entities.User) (*auth.TokenPair, error) {
	ttl := time.Duration(s.jwt.AccessTTL) * time.Second
	token, err := auth.GenerateToken(user.ID, user.Username, user.Email, s.jwt.Secret, s.jwt.Issuer, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}
