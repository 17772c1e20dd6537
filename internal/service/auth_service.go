package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gatherly/internal/config"
	"gatherly/internal/ids"
	"gatherly/internal/models"
	"gatherly/internal/repository"
	"gatherly/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserSuspended      = errors.New("user suspended")
	ErrSessionExpired     = errors.New("session expired")
)

type AuthService struct {
	users    *repository.UserRepository
	sessions *repository.SessionRepository
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewAuthService(
	users *repository.UserRepository,
	sessions *repository.SessionRepository,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		cfg:      cfg,
		log:      log,
	}
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

type AuthResult struct {
	Token string
	User  models.User
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.Email == "" || input.Password == "" {
		return AuthResult{}, fmt.Errorf("email and password required")
	}

	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return AuthResult{}, fmt.Errorf("email already registered")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return AuthResult{}, err
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return AuthResult{}, err
	}

	user := models.User{
		ID:           ids.New(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: passwordHash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         models.UserRoleUser,
		Status:       models.UserStatusActive,
	}
	if input.Phone != "" {
		user.Phone = &input.Phone
	}

	if err := s.users.Create(ctx, user); err != nil {
		return AuthResult{}, err
	}

	return s.issueSession(ctx, user, "", "")
}

type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	if user.Status != models.UserStatusActive {
		return AuthResult{}, ErrUserSuspended
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return AuthResult{}, ErrInvalidCredentials
	}

	return s.issueSession(ctx, user, input.IPAddress, input.UserAgent)
}

func (s *AuthService) issueSession(ctx context.Context, user models.User, ip, userAgent string) (AuthResult, error) {
	sessionID := ids.New()

	token, err := security.GenerateSessionToken(
		s.cfg.Security.JWTSecret,
		user.ID,
		sessionID,
		string(user.Role),
		s.cfg.Security.SessionTTL,
	)
	if err != nil {
		return AuthResult{}, err
	}

	session := models.Session{
		ID:        sessionID,
		UserID:    user.ID,
		TokenHash: security.HashSessionToken(token),
		IPAddress: ip,
		UserAgent: userAgent,
		ExpiresAt: time.Now().Add(s.cfg.Security.SessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return AuthResult{}, err
	}

	return AuthResult{Token: token, User: user}, nil
}

// Verify checks the token against its session row and returns the current
// user record. This backs both the auth middleware and /auth/me, which the
// client uses for restore and periodic re-validation.
func (s *AuthService) Verify(ctx context.Context, token string) (models.User, *security.SessionClaims, error) {
	claims, err := security.ParseSessionToken(token, s.cfg.Security.JWTSecret)
	if err != nil {
		return models.User{}, nil, ErrInvalidCredentials
	}

	session, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		return models.User{}, nil, ErrInvalidCredentials
	}
	if string(session.TokenHash) != string(security.HashSessionToken(token)) {
		return models.User{}, nil, ErrInvalidCredentials
	}
	if session.ExpiresAt.Before(time.Now()) {
		_ = s.sessions.DeleteByID(ctx, session.ID)
		return models.User{}, nil, ErrSessionExpired
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return models.User{}, nil, ErrInvalidCredentials
	}
	if user.Status != models.UserStatusActive {
		return models.User{}, nil, ErrUserSuspended
	}

	return user, claims, nil
}

// Logout drops the session row; the token dies with it. Unknown sessions are
// not an error, the client treats logout as fire-and-forget.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	err := s.sessions.DeleteByID(ctx, sessionID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil
	}
	return err
}

type ProfileUpdateInput struct {
	Username  *string
	FirstName *string
	LastName  *string
	Phone     *string
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input ProfileUpdateInput) (models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	if input.Username != nil {
		user.Username = *input.Username
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Phone != nil {
		user.Phone = input.Phone
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return models.User{}, err
	}
	return user, nil
}
