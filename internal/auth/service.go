package auth

import (
	"context"
	"strings"

	"realestate/server/internal/apperr"
	"realestate/server/internal/models"

	"github.com/sirupsen/logrus"
)

// UserStore is the slice of the catalog database the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
}

type Service struct {
	users  UserStore
	tokens *TokenManager
	logger *logrus.Logger
}

func NewService(users UserStore, tokens *TokenManager, logger *logrus.Logger) *Service {
	return &Service{users: users, tokens: tokens, logger: logger}
}

func (s *Service) Tokens() *TokenManager {
	return s.tokens
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperr.Validation("username/password required")
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Unauthorized("Invalid credentials")
		}
		return nil, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		s.logger.WithField("username", username).Warn("Failed login attempt")
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	access, err := s.tokens.Issue(user, TokenAccess)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	refresh, err := s.tokens.Issue(user, TokenRefresh)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	s.logger.WithField("username", username).Info("User logged in")
	return &LoginResult{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

// Refresh exchanges a refresh token for a new access token. The user must
// still exist; its current role is used.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.Parse(refreshToken, TokenRefresh)
	if err != nil {
		return "", err
	}

	user, err := s.userFromClaims(ctx, claims)
	if err != nil {
		return "", err
	}

	access, err := s.tokens.Issue(user, TokenAccess)
	if err != nil {
		return "", apperr.Internal(err)
	}
	return access, nil
}

func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, apperr.Validation("username/password required")
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, apperr.Validation("role must be user or admin")
	}

	taken, err := s.users.UsernameTaken(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Conflict("User exists")
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &models.User{Username: username, PasswordHash: hash, Role: role}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"username": username,
		"role":     role,
	}).Info("User registered")
	return user, nil
}

// Verify resolves the user behind an access token.
func (s *Service) Verify(ctx context.Context, claims *Claims) (*models.User, error) {
	return s.userFromClaims(ctx, claims)
}

func (s *Service) userFromClaims(ctx context.Context, claims *Claims) (*models.User, error) {
	id, err := claims.UserID()
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindUnauthorized, Message: "Invalid token", Err: err}
	}
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Unauthorized("User not found")
		}
		return nil, err
	}
	return user, nil
}

// EnsureAdmin creates the bootstrap admin account when no user with that
// name exists. It reports whether a user was created.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, apperr.Validation("admin bootstrap username/password required")
	}

	taken, err := s.users.UsernameTaken(ctx, username)
	if err != nil {
		return false, err
	}
	if taken {
		return false, nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}
	if err := s.users.CreateUser(ctx, &models.User{Username: username, PasswordHash: hash, Role: models.RoleAdmin}); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			return false, nil
		}
		return false, err
	}

	s.logger.WithField("username", username).Info("Created bootstrap admin user")
	return true, nil
}
