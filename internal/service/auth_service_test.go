package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/edgepredict/simulation-service/internal/config"
	"github.com/edgepredict/simulation-service/internal/domain"
	"github.com/edgepredict/simulation-service/internal/repository"
	apperrors "github.com/edgepredict/simulation-service/pkg/util"
)

type fakeUserRepo struct {
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
	nextID  int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[string]*domain.User{}, byEmail: map[string]*domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.nextID++
	user.ID = fmt.Sprintf("user-%d", r.nextID)
	stored := *user
	r.byID[user.ID] = &stored
	r.byEmail[user.Email] = &stored
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.byID[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *user
	r.byID[user.ID] = &stored
	r.byEmail[user.Email] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) List(context.Context, int, int) ([]domain.User, error) {
	var out []domain.User
	for _, user := range r.byID {
		out = append(out, *user)
	}
	return out, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	if user, ok := r.byID[id]; ok {
		delete(r.byEmail, user.Email)
		delete(r.byID, id)
	}
	return nil
}

type fakeResetRepo struct {
	byToken map[string]*repository.PasswordResetToken
	nextID  int
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{byToken: map[string]*repository.PasswordResetToken{}}
}

func (r *fakeResetRepo) Create(_ context.Context, token *repository.PasswordResetToken) error {
	r.nextID++
	token.ID = fmt.Sprintf("reset-%d", r.nextID)
	stored := *token
	r.byToken[token.Token] = &stored
	return nil
}

func (r *fakeResetRepo) GetByToken(_ context.Context, token string) (*repository.PasswordResetToken, error) {
	stored, ok := r.byToken[token]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeResetRepo) MarkUsed(_ context.Context, id string) error {
	now := time.Now()
	for _, stored := range r.byToken {
		if stored.ID == id {
			stored.UsedAt = &now
			return nil
		}
	}
	return pgx.ErrNoRows
}

type recordingNotifier struct {
	resetTokens []string
	invites     []string
}

func (n *recordingNotifier) SendPasswordReset(_ context.Context, _ string, token string) error {
	n.resetTokens = append(n.resetTokens, token)
	return nil
}

func (n *recordingNotifier) SendInvite(_ context.Context, email string, _ string) error {
	n.invites = append(n.invites, email)
	return nil
}

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "unit-test-secret",
			AccessTokenTTLMinutes:   60,
			PasswordResetTTLMinutes: 60,
			PBKDF2Iterations:        1000,
		},
	}
}

func newAuthFixture() (*AuthService, *fakeUserRepo, *fakeResetRepo, *recordingNotifier) {
	users := newFakeUserRepo()
	resets := newFakeResetRepo()
	notifier := &recordingNotifier{}
	svc := NewAuthService(testConfig(), AuthDependencies{
		UserRepo:          users,
		PasswordResetRepo: resets,
		Notifier:          notifier,
	})
	return svc, users, resets, notifier
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newAuthFixture()
	ctx := context.Background()

	user, token, exp, err := svc.Register(ctx, "eng@example.com", "swordfish-9")
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.False(t, user.IsAdmin)
	require.Nil(t, user.SubscriptionExpiry)
	require.NotEmpty(t, token)
	require.True(t, exp.After(time.Now()))

	// The issued token is valid for the new account.
	subject, err := svc.TokenManager().Validate(token)
	require.NoError(t, err)
	require.Equal(t, user.ID, subject)

	logged, _, _, err := svc.Login(ctx, "eng@example.com", "swordfish-9")
	require.NoError(t, err)
	require.Equal(t, user.ID, logged.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newAuthFixture()
	ctx := context.Background()

	_, _, _, err := svc.Register(ctx, "eng@example.com", "swordfish-9")
	require.NoError(t, err)

	_, _, _, err = svc.Register(ctx, "eng@example.com", "other-pass")
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "CONFLICT", domainErr.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newAuthFixture()
	ctx := context.Background()

	_, _, _, err := svc.Register(ctx, "eng@example.com", "swordfish-9")
	require.NoError(t, err)

	_, _, _, err = svc.Login(ctx, "eng@example.com", "wrong")
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "UNAUTHORIZED", domainErr.Code)

	// Unknown accounts answer identically to bad passwords.
	_, _, _, err = svc.Login(ctx, "nobody@example.com", "whatever")
	require.Error(t, err)
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "UNAUTHORIZED", domainErr.Code)
}

func TestPasswordResetFlow(t *testing.T) {
	t.Parallel()

	svc, _, _, notifier := newAuthFixture()
	ctx := context.Background()

	_, _, _, err := svc.Register(ctx, "eng@example.com", "old-password")
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(ctx, "eng@example.com"))
	require.Len(t, notifier.resetTokens, 1)

	token := notifier.resetTokens[0]
	require.NoError(t, svc.ConfirmPasswordReset(ctx, token, "new-password"))

	_, _, _, err = svc.Login(ctx, "eng@example.com", "old-password")
	require.Error(t, err)
	_, _, _, err = svc.Login(ctx, "eng@example.com", "new-password")
	require.NoError(t, err)

	// The token is single-use.
	err = svc.ConfirmPasswordReset(ctx, token, "third-password")
	require.Error(t, err)
}

func TestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	t.Parallel()

	svc, _, _, notifier := newAuthFixture()

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "nobody@example.com"))
	require.Empty(t, notifier.resetTokens)
}

func TestPasswordResetExpiredToken(t *testing.T) {
	t.Parallel()

	svc, _, resets, notifier := newAuthFixture()
	ctx := context.Background()

	_, _, _, err := svc.Register(ctx, "eng@example.com", "old-password")
	require.NoError(t, err)
	require.NoError(t, svc.RequestPasswordReset(ctx, "eng@example.com"))

	token := notifier.resetTokens[0]
	resets.byToken[token].ExpiresAt = time.Now().Add(-time.Minute)

	err = svc.ConfirmPasswordReset(ctx, token, "new-password")
	require.Error(t, err)
}
