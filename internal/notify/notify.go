package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/angeloszaimis/uptime-monitor/internal/circuitbreaker"
)

var (
	// ErrCircuitOpen is returned when deliveries to a recipient are paused.
	ErrCircuitOpen = errors.New("notify: circuit open for recipient")
	// ErrInvalidMessage is returned for an empty recipient or message.
	ErrInvalidMessage = errors.New("notify: recipient and message are required")
)

// Notifier sends a message to a recipient.
type Notifier interface {
	Notify(ctx context.Context, recipient, message string) error
}

// LogNotifier writes alerts to the log instead of sending them.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, recipient, message string) error {
	if recipient == "" || message == "" {
		return ErrInvalidMessage
	}
	n.logger.InfoContext(ctx, "Alert delivered",
		slog.String("recipient", recipient),
		slog.String("message", message),
	)
	return nil
}

// Throttled caps the delivery rate of the wrapped notifier. Callers block
// until the limiter admits them or ctx is done.
type Throttled struct {
	next    Notifier
	limiter *rate.Limiter
}

func NewThrottled(next Notifier, perSecond float64, burst int) *Throttled {
	if burst < 1 {
		burst = 1
	}
	return &Throttled{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (t *Throttled) Notify(ctx context.Context, recipient, message string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("notify: throttled: %w", err)
	}
	return t.next.Notify(ctx, recipient, message)
}

// Guarded skips recipients whose recent deliveries keep failing.
type Guarded struct {
	next     Notifier
	breakers *circuitbreaker.Registry
}

func NewGuarded(next Notifier, breakers *circuitbreaker.Registry) *Guarded {
	return &Guarded{next: next, breakers: breakers}
}

func (g *Guarded) Notify(ctx context.Context, recipient, message string) error {
	cb := g.breakers.Get(recipient)
	if !cb.Allow() {
		return fmt.Errorf("%w: %s", ErrCircuitOpen, recipient)
	}

	if err := g.next.Notify(ctx, recipient, message); err != nil {
		cb.RecordFailure()
		return err
	}
	cb.RecordSuccess()
	return nil
}
