package live

import (
	"context"
	"log/slog"
	"time"

	"github.com/AppleCherryJaM/reenbit-tech-task-be/db"
	"github.com/AppleCherryJaM/reenbit-tech-task-be/realtime"
	"github.com/AppleCherryJaM/reenbit-tech-task-be/telemetry"
)

// ScheduleReply arms a one-shot auto-reply in chatID after delay. It fires after
// the triggering request has already returned, so failures are logged and counted
// but never surfaced to the user. Independent of the recurring sessions: both may
// target the same chat at the same time.
//
// ctx should be a long-lived context (process lifetime), not the request context.
func (s *Scheduler) ScheduleReply(ctx context.Context, chatID string, delay time.Duration) {
	if delay <= 0 {
		delay = 3 * time.Second
	}
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		rctx, span := telemetry.StartSpan(ctx, "live-scheduler", "live.auto_reply")
		defer span.End()

		text := s.quotes.AutoResponse(rctx)
		msg, err := s.store.CreateMessage(rctx, text, chatID, nil, db.MessageTypeAuto)
		if err != nil {
			if telemetry.AutoReplyErrors != nil {
				telemetry.AutoReplyErrors.Inc()
			}
			telemetry.RecordError(span, err)
			slog.Warn("auto-reply failed", slog.String("chat_id", chatID), slog.Any("err", err), slog.String("component", "live"))
			return
		}
		telemetry.CountMessage(db.MessageTypeAuto)
		if telemetry.AutoReplies != nil {
			telemetry.AutoReplies.Inc()
		}

		s.pub.ToChat(chatID, realtime.EventMessageNew, msg)
		s.pub.Broadcast(realtime.EventNotificationNew, realtime.Notification{
			Type:    realtime.NotificationNewMessage,
			ChatID:  chatID,
			Message: msg,
		})
		slog.Debug("auto-reply sent", slog.String("chat_id", chatID), slog.String("component", "live"))
	}()
}
