package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/edgepredict/simulation-service/internal/config"
)

// Notifier delivers account-related mail. Actual email delivery is an
// external collaborator; the default implementation only logs.
type Notifier interface {
	SendPasswordReset(ctx context.Context, email, token string) error
	SendInvite(ctx context.Context, email, temporaryPassword string) error
}

type logNotifier struct {
	logger *zap.Logger
	cfg    config.NotificationConfig
}

// NewLogNotifier returns a notifier that records outbound mail in the log.
func NewLogNotifier(logger *zap.Logger, cfg config.NotificationConfig) Notifier {
	return &logNotifier{logger: logger, cfg: cfg}
}

func (n *logNotifier) SendPasswordReset(_ context.Context, email, token string) error {
	resetURL := fmt.Sprintf("%s?token=%s", n.cfg.ResetURLBase, token)
	n.logger.Info("password reset mail",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", email),
		zap.String("reset_url", resetURL))
	return nil
}

func (n *logNotifier) SendInvite(_ context.Context, email, temporaryPassword string) error {
	n.logger.Info("account invite mail",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", email),
		zap.Int("temporary_password_length", len(temporaryPassword)))
	return nil
}
