package workers

import (
	"context"
	"log/slog"
	"time"

	application "civicvote/contexts/participation/voter-signup/application"
	"civicvote/contexts/participation/voter-signup/ports"
)

// SMSRelay drains the notification outbox through the SMS gateway.
type SMSRelay struct {
	Outbox    ports.NotificationOutbox
	Sender    ports.SMSSender
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce sends a bounded batch of pending notifications. A gateway
// failure marks that row failed and moves on; vote-path notifications are
// best effort, so one bad number never blocks the queue.
func (r SMSRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPending(ctx, limit)
	if err != nil {
		logger.Error("sms outbox list failed",
			"event", "sms_outbox_list_failed",
			"module", "participation/voter-signup",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		logger.Debug("sms outbox relay found no pending rows",
			"event", "sms_outbox_relay_noop",
			"module", "participation/voter-signup",
			"layer", "worker",
			"batch_size", limit,
		)
		return nil
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	sent := 0
	for _, row := range pending {
		if err := r.Sender.Send(ctx, row.Phone, row.Body); err != nil {
			logger.Error("sms send failed",
				"event", "sms_outbox_send_failed",
				"module", "participation/voter-signup",
				"layer", "worker",
				"notification_id", row.NotificationID,
				"error", err.Error(),
			)
			if markErr := r.Outbox.MarkFailed(ctx, row.NotificationID, now, err.Error()); markErr != nil {
				return markErr
			}
			continue
		}
		if err := r.Outbox.MarkSent(ctx, row.NotificationID, now); err != nil {
			logger.Error("sms outbox mark sent failed",
				"event", "sms_outbox_mark_sent_failed",
				"module", "participation/voter-signup",
				"layer", "worker",
				"notification_id", row.NotificationID,
				"error", err.Error(),
			)
			return err
		}
		sent++
	}

	logger.Info("sms outbox relay cycle completed",
		"event", "sms_outbox_relay_completed",
		"module", "participation/voter-signup",
		"layer", "worker",
		"sent_count", sent,
		"pending_count", len(pending),
	)
	return nil
}
