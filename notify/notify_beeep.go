package notify

import (
	"context"
	"fmt"

	"github.com/gen2brain/beeep"
)

// beeepNotifier implements Notifier using the cross-platform beeep library.
type beeepNotifier struct {
	config Config
	send   func(title, message, icon string) error
}

func newBeeepNotifier(config Config) *beeepNotifier {
	beeep.AppName = config.AppName
	return &beeepNotifier{
		config: config,
		send: func(title, message, icon string) error {
			return beeep.Notify(title, message, icon)
		},
	}
}

// Send sends a notification using beeep. beeep has no context support, so
// the call runs in a goroutine and is abandoned once the timeout elapses.
func (n *beeepNotifier) Send(ctx context.Context, notification Notification) error {
	if n.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.config.Timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		done <- n.send(notification.Title, notification.Message, n.config.Icon)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
		}
		return nil
	case <-ctx.Done():
		return ErrTimeout
	}
}

// Close is a no-op for beeep.
func (n *beeepNotifier) Close() error {
	return nil
}
