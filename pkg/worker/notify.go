package worker

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/marmos91/workersvc/internal/logger"
	"github.com/marmos91/workersvc/internal/telemetry"
	"github.com/marmos91/workersvc/pkg/metrics"
)

// notify performs the startup notification step. It never fails the run:
// a disabled or incomplete configuration skips it and a delivery error is
// only logged.
func (l *Loop) notify(ctx context.Context) {
	if err := l.notification.Validate(); err != nil {
		if errors.Is(err, ErrNotificationDisabled) {
			logger.WarnCtx(ctx, "Notification disabled; see worker.message_is_enabled")
			metrics.ObserveNotification(l.metrics, metrics.NotificationDisabled)
			return
		}
		logger.InfoCtx(ctx, "Notification skipped", logger.Err(err))
		metrics.ObserveNotification(l.metrics, metrics.NotificationSkipped)
		return
	}

	if l.sender == nil {
		logger.InfoCtx(ctx, "Notification skipped: no sender configured")
		metrics.ObserveNotification(l.metrics, metrics.NotificationSkipped)
		return
	}

	from := strings.TrimSpace(l.notification.From)
	to := strings.TrimSpace(l.notification.To)
	subject := notificationSubject(l.serviceName)

	ctx, span := telemetry.StartWorkerSpan(ctx, telemetry.SpanWorkerNotify, telemetry.NotifyTo(to))
	defer span.End()

	logger.InfoCtx(ctx, "Sending notification",
		slog.String(logger.KeyTo, to),
		slog.String(logger.KeySubject, subject),
	)

	start := time.Now()
	if err := l.sender.SendHTML(ctx, from, to, subject, notificationBody(l.serviceName, start)); err != nil {
		logger.ErrorCtx(ctx, "Notification failed",
			slog.String(logger.KeyTo, to),
			logger.Err(err),
			logger.DurationMs(time.Since(start)),
		)
		telemetry.RecordError(ctx, err)
		telemetry.SetAttributes(ctx, telemetry.NotifyResult(metrics.NotificationFailed))
		metrics.ObserveNotification(l.metrics, metrics.NotificationFailed)
		return
	}

	logger.DebugCtx(ctx, "Notification sent", logger.DurationMs(time.Since(start)))
	telemetry.SetAttributes(ctx, telemetry.NotifyResult(metrics.NotificationSent))
	metrics.ObserveNotification(l.metrics, metrics.NotificationSent)
}

func notificationSubject(service string) string {
	if service == "" {
		service = "workersvc"
	}
	return "Message from " + service
}

func notificationBody(service string, at time.Time) string {
	if service == "" {
		service = "workersvc"
	}
	host, _ := os.Hostname()
	return fmt.Sprintf(
		"<html><head></head><body><h1>%s started</h1><p>Host: %s</p><p>Time: %s</p></body></html>",
		html.EscapeString(service),
		html.EscapeString(host),
		at.UTC().Format(time.RFC3339),
	)
}
