// Package notify carries transient user notifications (toasts) from the
// operations that raise them to whatever surface shows them.
package notify

import (
	"context"
	"sync"

	"github.com/kiwari-pos/storefront/internal/enum"
	"go.uber.org/zap"
)

// Notification is a dismissable message. Level is enum.NotificationSuccess
// or enum.NotificationError.
type Notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Success builds a success notification.
func Success(msg string) Notification {
	return Notification{Level: enum.NotificationSuccess, Message: msg}
}

// Error builds an error notification.
func Error(msg string) Notification {
	return Notification{Level: enum.NotificationError, Message: msg}
}

// Notifier delivers notifications. Delivery is best effort and never fails
// the operation that raised the notification.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, n Notification)

func (f Func) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Nop discards notifications.
var Nop Notifier = Func(func(context.Context, Notification) {})

// Log writes notifications to a zap logger.
type Log struct {
	log *zap.Logger
}

// NewLog creates a Log notifier.
func NewLog(log *zap.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) Notify(_ context.Context, n Notification) {
	if n.Level == enum.NotificationError {
		l.log.Warn("notification", zap.String("level", n.Level), zap.String("message", n.Message))
		return
	}
	l.log.Info("notification", zap.String("level", n.Level), zap.String("message", n.Message))
}

// Multi fans a notification out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, nt := range m {
		if nt != nil {
			nt.Notify(ctx, n)
		}
	}
}

// Recorder keeps every notification it receives. It is used by the CLI to
// print outcomes and by tests. Safe for concurrent use.
type Recorder struct {
	mu  sync.Mutex
	all []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	r.all = append(r.all, n)
	r.mu.Unlock()
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.all))
	copy(out, r.all)
	return out
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.all) == 0 {
		return Notification{}, false
	}
	return r.all[len(r.all)-1], true
}
