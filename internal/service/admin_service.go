package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/edgepredict/simulation-service/internal/auth"
	"github.com/edgepredict/simulation-service/internal/config"
	"github.com/edgepredict/simulation-service/internal/domain"
	"github.com/edgepredict/simulation-service/internal/repository"
	apperrors "github.com/edgepredict/simulation-service/pkg/util"
)

// AdminService covers user administration and access-request onboarding.
type AdminService struct {
	users    repository.UserRepository
	requests repository.AccessRequestRepository
	resets   repository.PasswordResetRepository
	hasher   *auth.Hasher
	notifier Notifier
	resetTTL time.Duration
}

// NewAdminService builds the service.
func NewAdminService(cfg config.Config, users repository.UserRepository, requests repository.AccessRequestRepository, resets repository.PasswordResetRepository, notifier Notifier) *AdminService {
	return &AdminService{
		users:    users,
		requests: requests,
		resets:   resets,
		hasher:   auth.NewHasher(cfg.Auth.PBKDF2Iterations),
		notifier: notifier,
		resetTTL: time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
	}
}

// UserUpdate carries admin-editable fields. A nil field is left unchanged;
// ClearExpiry removes the expiry entirely.
type UserUpdate struct {
	IsAdmin            *bool
	SubscriptionExpiry *time.Time
	ClearExpiry        bool
}

// ListUsers returns all accounts.
func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	return s.users.List(ctx, limit, offset)
}

// CreateUser provisions an account with the given role and expiry.
func (s *AdminService) CreateUser(ctx context.Context, email, password string, isAdmin bool, expiry *time.Time) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password required", nil)
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	user := &domain.User{Email: email, IsAdmin: isAdmin, SubscriptionExpiry: expiry}
	if err := s.setPassword(user, password); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser applies role and subscription changes.
func (s *AdminService) UpdateUser(ctx context.Context, id string, update UserUpdate) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}

	if update.IsAdmin != nil {
		user.IsAdmin = *update.IsAdmin
	}
	if update.ClearExpiry {
		user.SubscriptionExpiry = nil
	} else if update.SubscriptionExpiry != nil {
		user.SubscriptionExpiry = update.SubscriptionExpiry
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes an account. Owned simulations, tools and materials
// cascade at the database level.
func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("user", nil)
		}
		return err
	}
	return nil
}

// ResetUserPassword issues a reset token on a user's behalf and mails it.
func (s *AdminService) ResetUserPassword(ctx context.Context, id string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("user", nil)
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

// SubmitAccessRequest records a prospective user's onboarding request.
func (s *AdminService) SubmitAccessRequest(ctx context.Context, email, name, company string) (*domain.AccessRequest, error) {
	if email == "" || name == "" {
		return nil, apperrors.NewValidationError("email and name required", nil)
	}
	req := &domain.AccessRequest{Email: email, Name: name, Company: company}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// ListAccessRequests returns onboarding requests, optionally filtered by status.
func (s *AdminService) ListAccessRequests(ctx context.Context, status *domain.AccessRequestStatus, limit, offset int) ([]domain.AccessRequest, error) {
	return s.requests.List(ctx, status, limit, offset)
}

// ApproveAccessRequest transitions a pending request to APPROVED, provisions
// the account with a generated password and mails the invite.
func (s *AdminService) ApproveAccessRequest(ctx context.Context, id string) (*domain.User, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("access request", nil)
		}
		return nil, err
	}
	if req.Status != domain.AccessRequestPending {
		return nil, apperrors.NewConflict("access request already decided", nil)
	}

	if err := s.requests.Decide(ctx, id, domain.AccessRequestApproved); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewConflict("access request already decided", nil)
		}
		return nil, err
	}

	password, err := generatePassword()
	if err != nil {
		return nil, err
	}
	user, err := s.CreateUser(ctx, req.Email, password, false, nil)
	if err != nil {
		return nil, err
	}
	if err := s.notifier.SendInvite(ctx, user.Email, password); err != nil {
		return nil, err
	}
	return user, nil
}

// RejectAccessRequest transitions a pending request to REJECTED.
func (s *AdminService) RejectAccessRequest(ctx context.Context, id string) error {
	if err := s.requests.Decide(ctx, id, domain.AccessRequestRejected); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewConflict("access request already decided", nil)
		}
		return err
	}
	return nil
}

func (s *AdminService) setPassword(user *domain.User, password string) error {
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

func generatePassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
