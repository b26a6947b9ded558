package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/edgepredict/simulation-service/internal/auth"
	"github.com/edgepredict/simulation-service/internal/config"
	"github.com/edgepredict/simulation-service/internal/domain"
	"github.com/edgepredict/simulation-service/internal/repository"
	apperrors "github.com/edgepredict/simulation-service/pkg/util"
)

// AuthService coordinates registration, login and password reset flows.
type AuthService struct {
	users    repository.UserRepository
	resets   repository.PasswordResetRepository
	tokenMgr *auth.TokenManager
	hasher   *auth.Hasher
	notifier Notifier
	resetTTL time.Duration
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	PasswordResetRepo repository.PasswordResetRepository
	Notifier          Notifier
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:    deps.UserRepo,
		resets:   deps.PasswordResetRepo,
		tokenMgr: auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		hasher:   auth.NewHasher(cfg.Auth.PBKDF2Iterations),
		notifier: deps.Notifier,
		resetTTL: time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
	}
}

// Register creates a new non-admin account.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
	} else if err != pgx.ErrNoRows {
		return nil, "", time.Time{}, err
	}

	user, err := s.newUser(email, password, false, nil)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.Issue(user.ID)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// Login authenticates a user and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("incorrect email or password")
		}
		return nil, "", time.Time{}, err
	}
	if !s.hasher.Verify(password, user.PasswordHash, user.PasswordSalt) {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("incorrect email or password")
	}

	token, exp, err := s.tokenMgr.Issue(user.ID)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// RequestPasswordReset persists a one-hour reset token and mails it. An
// unknown email is reported to the caller as success to avoid account
// enumeration.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil
		}
		return err
	}

	token := &repository.PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return err
	}
	return s.notifier.SendPasswordReset(ctx, user.Email, token.Token)
}

// ConfirmPasswordReset validates the reset token and updates the password
// with a fresh salt.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewUnauthorized("invalid reset token")
		}
		return err
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return apperrors.NewUnauthorized("reset token expired or used")
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return err
	}
	if err := s.setPassword(user, newPassword); err != nil {
		return err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	return s.resets.MarkUsed(ctx, token.ID)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) newUser(email, password string, isAdmin bool, expiry *time.Time) (*domain.User, error) {
	user := &domain.User{
		Email:              email,
		IsAdmin:            isAdmin,
		SubscriptionExpiry: expiry,
	}
	if err := s.setPassword(user, password); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) setPassword(user *domain.User, password string) error {
	salt, err := auth.GenerateSalt()
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(password, salt)
	if err != nil {
		return err
	}
	user.PasswordSalt = salt
	user.PasswordHash = hash
	return nil
}
