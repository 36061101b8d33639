package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/support-insights/internal/config"
	"github.com/spec-kit/support-insights/internal/events"
)

// QueryInvalidator drops cached read views.
type QueryInvalidator interface {
	InvalidateQueries(ctx context.Context) error
}

// NotificationService reacts to sync events.
type NotificationService struct {
	dispatcher  events.Dispatcher
	invalidator QueryInvalidator
	logger      *zap.Logger
	cfg         config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, invalidator QueryInvalidator, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher:  dispatcher,
		invalidator: invalidator,
		logger:      logger,
		cfg:         cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventSyncCompleted, n.handleSyncCompleted)
	n.dispatcher.Subscribe(events.EventSyncFailed, n.handleSyncFailed)
}

func (n *NotificationService) handleSyncCompleted(ctx context.Context, event events.Event) error {
	n.logger.Info("SyncCompleted", zap.String("run_id", event.RunID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	if n.invalidator == nil {
		return nil
	}
	return n.invalidator.InvalidateQueries(ctx)
}

func (n *NotificationService) handleSyncFailed(ctx context.Context, event events.Event) error {
	n.logger.Warn("SyncFailed", zap.String("run_id", event.RunID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailTo) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", n.cfg.EmailTo),
		zap.String("run_id", event.RunID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("run_id", event.RunID),
		zap.String("event_type", string(event.Type)))
}
