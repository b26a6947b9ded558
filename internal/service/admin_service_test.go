package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/edgepredict/simulation-service/internal/domain"
	apperrors "github.com/edgepredict/simulation-service/pkg/util"
)

type fakeAccessRequestRepo struct {
	requests map[string]*domain.AccessRequest
	nextID   int
}

func newFakeAccessRequestRepo() *fakeAccessRequestRepo {
	return &fakeAccessRequestRepo{requests: map[string]*domain.AccessRequest{}}
}

func (r *fakeAccessRequestRepo) Create(_ context.Context, req *domain.AccessRequest) error {
	r.nextID++
	req.ID = fmt.Sprintf("req-%d", r.nextID)
	if req.Status == "" {
		req.Status = domain.AccessRequestPending
	}
	stored := *req
	r.requests[req.ID] = &stored
	return nil
}

func (r *fakeAccessRequestRepo) GetByID(_ context.Context, id string) (*domain.AccessRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *req
	return &copied, nil
}

func (r *fakeAccessRequestRepo) List(_ context.Context, status *domain.AccessRequestStatus, _, _ int) ([]domain.AccessRequest, error) {
	var out []domain.AccessRequest
	for _, req := range r.requests {
		if status == nil || req.Status == *status {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *fakeAccessRequestRepo) Decide(_ context.Context, id string, status domain.AccessRequestStatus) error {
	req, ok := r.requests[id]
	if !ok || req.Status != domain.AccessRequestPending {
		return pgx.ErrNoRows
	}
	req.Status = status
	return nil
}

func newAdminFixture() (*AdminService, *fakeUserRepo, *fakeAccessRequestRepo, *recordingNotifier) {
	users := newFakeUserRepo()
	requests := newFakeAccessRequestRepo()
	notifier := &recordingNotifier{}
	svc := NewAdminService(testConfig(), users, requests, newFakeResetRepo(), notifier)
	return svc, users, requests, notifier
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newAdminFixture()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "eng@example.com", "pass-1234", false, nil)
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, "eng@example.com", "pass-5678", false, nil)
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "CONFLICT", domainErr.Code)
}

func TestUpdateUserExpiryHandling(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newAdminFixture()
	ctx := context.Background()

	expiry := time.Now().Add(30 * 24 * time.Hour)
	user, err := svc.CreateUser(ctx, "eng@example.com", "pass-1234", false, &expiry)
	require.NoError(t, err)
	require.NotNil(t, user.SubscriptionExpiry)

	// Promote to admin without touching the expiry.
	isAdmin := true
	updated, err := svc.UpdateUser(ctx, user.ID, UserUpdate{IsAdmin: &isAdmin})
	require.NoError(t, err)
	require.True(t, updated.IsAdmin)
	require.NotNil(t, updated.SubscriptionExpiry)

	// ClearExpiry makes the subscription perpetual.
	updated, err = svc.UpdateUser(ctx, user.ID, UserUpdate{ClearExpiry: true})
	require.NoError(t, err)
	require.Nil(t, updated.SubscriptionExpiry)
	require.True(t, updated.SubscriptionActive(time.Now().Add(365*24*time.Hour)))
}

func TestUpdateUserNotFound(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newAdminFixture()

	_, err := svc.UpdateUser(context.Background(), "ghost", UserUpdate{ClearExpiry: true})
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestApproveAccessRequestProvisionsAccount(t *testing.T) {
	t.Parallel()

	svc, users, requests, notifier := newAdminFixture()
	ctx := context.Background()

	req, err := svc.SubmitAccessRequest(ctx, "new@example.com", "New Engineer", "Acme Machining")
	require.NoError(t, err)
	require.Equal(t, domain.AccessRequestPending, req.Status)

	user, err := svc.ApproveAccessRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, "new@example.com", user.Email)
	require.False(t, user.IsAdmin)
	require.Nil(t, user.SubscriptionExpiry)

	stored, err := users.GetByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, stored.PasswordHash)
	require.Equal(t, []string{"new@example.com"}, notifier.invites)
	require.Equal(t, domain.AccessRequestApproved, requests.requests[req.ID].Status)
}

func TestApproveAccessRequestTwice(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newAdminFixture()
	ctx := context.Background()

	req, err := svc.SubmitAccessRequest(ctx, "new@example.com", "New Engineer", "")
	require.NoError(t, err)

	_, err = svc.ApproveAccessRequest(ctx, req.ID)
	require.NoError(t, err)

	_, err = svc.ApproveAccessRequest(ctx, req.ID)
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "CONFLICT", domainErr.Code)
}

func TestRejectAccessRequest(t *testing.T) {
	t.Parallel()

	svc, users, requests, _ := newAdminFixture()
	ctx := context.Background()

	req, err := svc.SubmitAccessRequest(ctx, "new@example.com", "New Engineer", "")
	require.NoError(t, err)

	require.NoError(t, svc.RejectAccessRequest(ctx, req.ID))
	require.Equal(t, domain.AccessRequestRejected, requests.requests[req.ID].Status)

	// No account was provisioned.
	_, err = users.GetByEmail(ctx, "new@example.com")
	require.Error(t, err)

	// Rejecting again conflicts.
	err = svc.RejectAccessRequest(ctx, req.ID)
	require.Error(t, err)
}

func TestListAccessRequestsFiltersByStatus(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newAdminFixture()
	ctx := context.Background()

	first, err := svc.SubmitAccessRequest(ctx, "a@example.com", "A", "")
	require.NoError(t, err)
	_, err = svc.SubmitAccessRequest(ctx, "b@example.com", "B", "")
	require.NoError(t, err)

	require.NoError(t, svc.RejectAccessRequest(ctx, first.ID))

	pending := domain.AccessRequestPending
	listed, err := svc.ListAccessRequests(ctx, &pending, 50, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "b@example.com", listed[0].Email)
}
