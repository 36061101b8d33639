package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/support-insights/internal/config"
	"github.com/spec-kit/support-insights/internal/events"
	"github.com/spec-kit/support-insights/internal/service"
)

// StartNotificationWorker subscribes sync event handlers to dispatcher. It
// returns nil when there is nothing to subscribe to.
func StartNotificationWorker(dispatcher events.Dispatcher, invalidator service.QueryInvalidator, logger *zap.Logger, cfg config.NotificationConfig) *service.NotificationService {
	if dispatcher == nil {
		return nil
	}
	notifications := service.NewNotificationService(dispatcher, invalidator, logger, cfg)
	notifications.RegisterHandlers()
	if logger != nil {
		logger.Info("notification worker subscribed",
			zap.Bool("webhook", cfg.WebhookURL != ""),
			zap.Bool("email", cfg.EmailTo != ""))
	}
	return notifications
}
