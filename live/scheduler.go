// Package live owns the automated bot-message path: recurring per-session live
// messages and the one-shot delayed auto-reply. Both funnel through the same
// persistence and fan-out contract, and both contain their failures: a bad tick
// is logged and counted, never fatal to the schedule.
package live

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/AppleCherryJaM/reenbit-tech-task-be/db"
	"github.com/AppleCherryJaM/reenbit-tech-task-be/realtime"
	"github.com/AppleCherryJaM/reenbit-tech-task-be/telemetry"
)

// ErrNoChats is returned by Start when the user has no chats to deliver into.
// It is a soft condition surfaced to the requester, not a failure of the scheduler.
var ErrNoChats = errors.New("no chats available")

// Store is the slice of the persistence gateway the bot path needs.
type Store interface {
	GetAllChats(ctx context.Context, ownerID, search string) ([]db.Chat, error)
	CreateMessage(ctx context.Context, text, chatID string, authorID *string, msgType string) (db.Message, error)
}

// QuoteSource produces bot-message text. Implementations never fail (see quote package).
type QuoteSource interface {
	AutoResponse(ctx context.Context) string
}

// Publisher fans created messages out to connected clients.
type Publisher interface {
	ToChat(chatID, event string, payload any)
	Broadcast(event string, payload any)
}

// SQLStore adapts a *sql.DB to Store via the db package.
type SQLStore struct{ DB *sql.DB }

func (s *SQLStore) GetAllChats(ctx context.Context, ownerID, search string) ([]db.Chat, error) {
	return db.GetAllChats(ctx, s.DB, ownerID, search)
}

func (s *SQLStore) CreateMessage(ctx context.Context, text, chatID string, authorID *string, msgType string) (db.Message, error) {
	return db.CreateMessage(ctx, s.DB, text, chatID, authorID, msgType)
}

// session is one armed recurring timer. cancel prevents all future ticks; an
// in-flight tick is allowed to complete.
type session struct {
	cancel context.CancelFunc
}

// Scheduler maintains at most one recurring live-message task per session key.
// Keys are connection ids for WebSocket sessions (deterministic cleanup on
// disconnect) and "user:<id>" for the HTTP start/stop endpoints.
type Scheduler struct {
	store    Store
	quotes   QuoteSource
	pub      Publisher
	interval time.Duration

	mu       sync.Mutex
	sessions map[string]*session
}

// NewScheduler builds a scheduler ticking every interval (10s default).
func NewScheduler(store Store, quotes QuoteSource, pub Publisher, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Scheduler{
		store:    store,
		quotes:   quotes,
		pub:      pub,
		interval: interval,
		sessions: make(map[string]*session),
	}
}

// Start arms the recurring task for sessionKey, drawing from a snapshot of the
// owner's chats taken now. Chats created later are not picked up by a running
// session. Calling Start on an already-active key cancels the prior timer
// before arming the new one; two timers never run concurrently for one key.
func (s *Scheduler) Start(ctx context.Context, sessionKey, ownerID string) error {
	chats, err := s.store.GetAllChats(ctx, ownerID, "")
	if err != nil {
		return err
	}
	if len(chats) == 0 {
		if telemetry.LiveStartDenied != nil {
			telemetry.LiveStartDenied.Inc()
		}
		return ErrNoChats
	}

	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if prev, ok := s.sessions[sessionKey]; ok {
		prev.cancel()
	}
	s.sessions[sessionKey] = &session{cancel: cancel}
	n := len(s.sessions)
	s.mu.Unlock()
	telemetry.SetLiveSessions(n)

	go s.run(runCtx, sessionKey, chats)
	slog.Info("live session armed",
		slog.String("session", sessionKey),
		slog.String("user_id", ownerID),
		slog.Int("chats", len(chats)),
		slog.Duration("interval", s.interval),
		slog.String("component", "live"))
	return nil
}

// Stop cancels the task for sessionKey if present. Idempotent: stopping an
// inactive session is a no-op.
func (s *Scheduler) Stop(sessionKey string) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionKey]
	if ok {
		sess.cancel()
		delete(s.sessions, sessionKey)
	}
	n := len(s.sessions)
	s.mu.Unlock()
	if ok {
		telemetry.SetLiveSessions(n)
		slog.Info("live session cancelled", slog.String("session", sessionKey), slog.String("component", "live"))
	}
}

// StopAll cancels every session; used on shutdown.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	for key, sess := range s.sessions {
		sess.cancel()
		delete(s.sessions, key)
	}
	s.mu.Unlock()
	telemetry.SetLiveSessions(0)
}

// Active reports the number of armed sessions.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Scheduler) run(ctx context.Context, sessionKey string, chats []db.Chat) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, sessionKey, chats)
		}
	}
}

// tick delivers one live message: random chat from the snapshot, a quote, a
// persisted auto message, room-scoped delivery plus a global notification.
// Errors are contained here so the schedule survives transient failures.
func (s *Scheduler) tick(ctx context.Context, sessionKey string, chats []db.Chat) {
	if telemetry.LiveTicks != nil {
		telemetry.LiveTicks.Inc()
	}
	tctx, span := telemetry.StartSpan(ctx, "live-scheduler", "live.tick")
	defer span.End()

	chat := chats[rand.Intn(len(chats))] //nolint:gosec // G404: chat selection, not security
	text := s.quotes.AutoResponse(tctx)

	msg, err := s.store.CreateMessage(tctx, text, chat.ID, nil, db.MessageTypeAuto)
	if err != nil {
		if telemetry.LiveTickErrors != nil {
			telemetry.LiveTickErrors.Inc()
		}
		telemetry.RecordError(span, err)
		slog.Warn("live message failed",
			slog.String("session", sessionKey),
			slog.String("chat_id", chat.ID),
			slog.Any("err", err),
			slog.String("component", "live"))
		return
	}
	telemetry.CountMessage(db.MessageTypeAuto)

	s.pub.ToChat(chat.ID, realtime.EventMessageNew, msg)
	s.pub.Broadcast(realtime.EventNotificationNew, realtime.Notification{
		Type:    realtime.NotificationLiveMessage,
		ChatID:  chat.ID,
		Message: msg,
	})
	slog.Debug("live message sent", slog.String("session", sessionKey), slog.String("chat_id", chat.ID), slog.String("component", "live"))
}
