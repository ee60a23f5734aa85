// Package relay publishes GitHub activity events to NATS.
package relay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fivetwenty-io/ghapi/internal/constants"
	"github.com/fivetwenty-io/ghapi/pkg/ghapi"
	"github.com/fivetwenty-io/ghapi/pkg/schema"
)

// Message headers set on every published event.
const (
	HeaderMsgID     = nats.MsgIdHdr
	HeaderEventType = "Ghapi-Event-Type"
	HeaderRepo      = "Ghapi-Repo"
	HeaderActor     = "Ghapi-Actor"
)

// Publisher sends one message. *nats.Conn implements it.
type Publisher interface {
	PublishMsg(msg *nats.Msg) error
}

// flusher is implemented by *nats.Conn.
type flusher interface {
	FlushWithContext(ctx context.Context) error
}

// Source opens a fresh event listing for one poll.
type Source func(ctx context.Context) *ghapi.PaginationIterator[ghapi.Event]

// Stats summarises a relay run.
type Stats struct {
	Published int
	Skipped   int
	Pages     int
}

// Option configures a Relay.
type Option func(*Relay)

// WithLogger sets the logger.
func WithLogger(logger ghapi.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

// WithLimit stops a run after limit events. Zero means no limit.
func WithLimit(limit int) Option {
	return func(r *Relay) {
		r.limit = limit
	}
}

// WithSeenCapacity sets how many event ids are remembered to suppress
// duplicates across polls.
func WithSeenCapacity(capacity int) Option {
	return func(r *Relay) {
		if capacity > 0 {
			r.seen = newSeenSet(capacity)
		}
	}
}

// Relay publishes events on "<subject>.<EventType>".
type Relay struct {
	publisher Publisher
	subject   string
	logger    ghapi.Logger
	limit     int
	seen      *seenSet
}

// New creates a relay publishing under subject.
func New(publisher Publisher, subject string, opts ...Option) (*Relay, error) {
	if publisher == nil {
		return nil, constants.ErrPublisherRequired
	}

	subject = strings.Trim(subject, ".")
	if subject == "" {
		return nil, constants.ErrSubjectRequired
	}

	relay := &Relay{
		publisher: publisher,
		subject:   subject,
		logger:    ghapi.NoopLogger{},
		seen:      newSeenSet(constants.RelaySeenCapacity),
	}

	for _, opt := range opts {
		opt(relay)
	}

	return relay, nil
}

// Connect dials a NATS server with reconnects enabled.
func Connect(url, name string) (*nats.Conn, error) {
	if url == "" {
		url = constants.DefaultNATSURL
	}

	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.Timeout(constants.NATSConnectTimeout),
		nats.MaxReconnects(constants.NATSMaxReconnects),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}

	return conn, nil
}

// Subject returns the subject an event is published on.
func (r *Relay) Subject(event ghapi.Event) string {
	kind := event.Type
	if kind == "" {
		kind = "UnknownEvent"
	}

	return r.subject + "." + kind
}

// Run drains events and publishes each one not seen before, in iteration
// order. It stops at the first error, on cancellation, or at the limit.
func (r *Relay) Run(ctx context.Context, events *ghapi.PaginationIterator[ghapi.Event]) (stats Stats, err error) {
	defer func() {
		stats.Pages = events.PagesFetched()
	}()

	for {
		if ctx.Err() != nil {
			return stats, fmt.Errorf("relaying events: %w", ctx.Err())
		}

		// Checked before HasNext, which may fetch another page.
		if r.limit > 0 && stats.Published >= r.limit {
			break
		}

		if !events.HasNext() {
			break
		}

		event, nextErr := events.Next()
		if nextErr != nil {
			return stats, fmt.Errorf("listing events: %w", nextErr)
		}

		if !r.seen.add(event.ID) {
			stats.Skipped++

			continue
		}

		err = r.publish(event)
		if err != nil {
			return stats, err
		}

		stats.Published++
	}

	err = r.flush(ctx)
	if err != nil {
		return stats, err
	}

	r.logger.Debug("relayed events", map[string]interface{}{
		"published": stats.Published,
		"skipped":   stats.Skipped,
		"pages":     events.PagesFetched(),
	})

	return stats, nil
}

// Poll runs source every interval until ctx ends. Events seen in earlier
// polls are skipped. Errors from a single poll are logged and polling goes
// on; the returned error is the context's.
func (r *Relay) Poll(ctx context.Context, source Source, interval time.Duration) (Stats, error) {
	if interval <= 0 {
		interval = constants.DefaultPollInterval
	}

	var total Stats

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		stats, err := r.Run(ctx, source(ctx))
		total.Published += stats.Published
		total.Skipped += stats.Skipped
		total.Pages += stats.Pages

		if err != nil && ctx.Err() == nil {
			r.logger.Warn("event poll failed", map[string]interface{}{
				"error": err.Error(),
			})
		}

		select {
		case <-ctx.Done():
			return total, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Relay) publish(event ghapi.Event) error {
	data, err := schema.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event %s: %w", event.ID, err)
	}

	msg := nats.NewMsg(r.Subject(event))
	msg.Data = data
	msg.Header.Set(HeaderMsgID, event.ID)
	msg.Header.Set(HeaderEventType, event.Type)
	msg.Header.Set(HeaderRepo, event.Repo.Name)
	msg.Header.Set(HeaderActor, event.Actor.Login)

	err = r.publisher.PublishMsg(msg)
	if err != nil {
		return fmt.Errorf("publishing event %s: %w", event.ID, err)
	}

	return nil
}

func (r *Relay) flush(ctx context.Context) error {
	f, ok := r.publisher.(flusher)
	if !ok {
		return nil
	}

	err := f.FlushWithContext(ctx)
	if err != nil {
		return fmt.Errorf("flushing NATS connection: %w", err)
	}

	return nil
}

// seenSet remembers the most recent ids, evicting the oldest.
type seenSet struct {
	ids   map[string]struct{}
	order []string
	next  int
}

func newSeenSet(capacity int) *seenSet {
	return &seenSet{
		ids:   make(map[string]struct{}, capacity),
		order: make([]string, 0, capacity),
	}
}

// add records id and reports whether it was new. Empty ids are always new.
func (s *seenSet) add(id string) bool {
	if id == "" {
		return true
	}

	if _, ok := s.ids[id]; ok {
		return false
	}

	if len(s.order) < cap(s.order) {
		s.order = append(s.order, id)
	} else {
		delete(s.ids, s.order[s.next])
		s.order[s.next] = id
		s.next = (s.next + 1) % len(s.order)
	}

	s.ids[id] = struct{}{}

	return true
}
