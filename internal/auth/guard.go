package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/edgepredict/simulation-service/internal/domain"
	apperrors "github.com/edgepredict/simulation-service/pkg/util"
)

// RequireActiveSubscription blocks non-admin users whose subscription expiry
// has passed. A nil expiry means the subscription never expires.
func RequireActiveSubscription() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !user.SubscriptionActive(time.Now()) {
			return apperrors.NewForbidden("subscription_expired")
		}
		return c.Next()
	}
}

// RequireAdmin restricts a route to admin users.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !user.IsAdmin {
			return apperrors.NewForbidden("not_admin")
		}
		return c.Next()
	}
}

// AuthorizeOwnerOrAdmin fails unless the caller owns the resource or is admin.
func AuthorizeOwnerOrAdmin(user *domain.User, resourceOwnerID string) error {
	if user == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if user.IsAdmin || user.ID == resourceOwnerID {
		return nil
	}
	return apperrors.NewForbidden("not resource owner")
}
