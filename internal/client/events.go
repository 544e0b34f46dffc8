package client

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/sethvargo/go-retry"
)

const (
	// EventsPath is the control plane change stream.
	EventsPath = "/events/stream"

	TopicInstances = "instances"
	TopicActions   = "actions"

	EventHello           = "hello"
	EventInstanceUpdated = "instance.updated"
	EventActionLog       = "action_log.created"
)

// Event is one server sent event.
type Event struct {
	Name string
	Data string
}

// ChangePayload is the body of instance and action log change events.
type ChangePayload struct {
	IDs         []string  `json:"ids"`
	InstanceIDs []string  `json:"instance_ids,omitempty"`
	EmittedAt   time.Time `json:"emitted_at"`
}

// Decode parses the event data as a change payload.
func (e Event) Decode() (ChangePayload, error) {
	var p ChangePayload
	err := gojson.Unmarshal([]byte(e.Data), &p)
	return p, err
}

// EventHandler receives stream events.
type EventHandler func(Event)

// ReadEvents parses an SSE stream until EOF or ctx is done. Comment lines
// and keepalives are skipped.
func ReadEvents(ctx context.Context, r io.Reader, fn EventHandler) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		name string
		data []string
	)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Text()
		switch {
		case line == "":
			if len(data) > 0 || name != "" {
				fn(Event{Name: orDefault(name, "message"), Data: strings.Join(data, "\n")})
			}
			name, data = "", data[:0]
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}

	return io.EOF
}

// Watch subscribes to the change stream for topics and reconnects with
// exponential backoff until ctx is done.
func Watch(ctx context.Context, c Connection, topics []string, log *slog.Logger, fn EventHandler) error {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	q := url.Values{"topics": {strings.Join(topics, ",")}}
	b := newSessionBackoff(reconnectBackoff)

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		body, err := c.Stream(ctx, EventsPath, q)
		if err != nil {
			log.Warn("event stream unavailable", "error", err)
			if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNoEndpoint) {
				return err
			}
			return retry.RetryableError(err)
		}
		defer func() { _ = body.Close() }()

		log.Debug("event stream connected", "topics", q.Get("topics"))
		var delivered bool
		err = ReadEvents(ctx, body, func(e Event) {
			if !delivered {
				delivered = true
				b.Reset()
			}
			fn(e)
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Debug("event stream closed", "error", err)

		return retry.RetryableError(err)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

func reconnectBackoff() retry.Backoff {
	return retry.WithCappedDuration(30*time.Second, retry.WithJitterPercent(10, retry.NewExponential(time.Second)))
}

// sessionBackoff restarts its schedule once a connection proves healthy so
// a long session does not inherit the delays of earlier outages.
type sessionBackoff struct {
	mk  func() retry.Backoff
	cur retry.Backoff
}

func newSessionBackoff(mk func() retry.Backoff) *sessionBackoff {
	return &sessionBackoff{mk: mk, cur: mk()}
}

func (b *sessionBackoff) Next() (time.Duration, bool) {
	return b.cur.Next()
}

func (b *sessionBackoff) Reset() {
	b.cur = b.mk()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
