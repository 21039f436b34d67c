package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
	"git.home.luguber.info/inful/syllabi/internal/logfields"
)

const (
	pageSuffix = ".page"
	runSuffix  = ".run"
)

// publisher is the subset of *nats.Conn used by NATSNotifier.
type publisher interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSNotifier publishes JSON events on "<subject>.page" and "<subject>.run".
type NATSNotifier struct {
	conn    publisher
	subject string
	now     func() time.Time
}

// NewNATSNotifier connects to the NATS server at url.
func NewNATSNotifier(url, subject string) (*NATSNotifier, error) {
	conn, err := nats.Connect(url,
		nats.Name("syllabi"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to connect to NATS").
			WithContext("url", url).
			Build()
	}
	slog.Info("NATS notifier connected", logfields.URL(url), slog.String("subject", subject))
	return newNATSNotifier(conn, subject), nil
}

func newNATSNotifier(conn publisher, subject string) *NATSNotifier {
	return &NATSNotifier{conn: conn, subject: subject, now: time.Now}
}

// PagePublished announces one uploaded page.
func (n *NATSNotifier) PagePublished(ctx context.Context, ev PageEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = n.now()
	}
	if err := n.publish(ctx, n.subject+pageSuffix, ev, false); err != nil {
		return err
	}
	slog.Debug("Published page event", logfields.Code(ev.Code), logfields.URL(ev.URL))
	return nil
}

// RunFinished announces a completed run and flushes pending events.
func (n *NATSNotifier) RunFinished(ctx context.Context, ev RunEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = n.now()
	}
	return n.publish(ctx, n.subject+runSuffix, ev, true)
}

func (n *NATSNotifier) publish(ctx context.Context, subject string, ev any, flush bool) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal event").Build()
	}
	if err := n.conn.Publish(subject, data); err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "failed to publish event").
			WithContext("subject", subject).
			Build()
	}
	if !flush {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "failed to flush events").
			WithContext("subject", subject).
			Build()
	}
	return nil
}

// Close closes the NATS connection.
func (n *NATSNotifier) Close() error {
	if n.conn != nil {
		n.conn.Close()
	}
	return nil
}
