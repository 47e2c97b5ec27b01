// Package feed is the realtime changefeed: every store mutation is published
// to NATS, once on the table subject and once on the per-conversation subject,
// and clients subscribe to the topics they care about. Delivery is best-effort
// in commit order; there is no cursor or replay, consumers reconcile by
// re-fetching.
package feed

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	pkgerrors "github.com/pkg/errors"

	"LumeChat/logger"
)

type Config struct {
	Servers       []string
	Name          string
	ReconnectWait time.Duration
	Timeout       time.Duration
}

type Feed struct {
	nc *nats.Conn
}

func Connect(cfg Config) (*Feed, error) {
	if len(cfg.Servers) == 0 {
		return nil, pkgerrors.New("nats servers missing")
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 500 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(cfg.Timeout),
	}
	nc, err := nats.Connect(strings.Join(cfg.Servers, ","), opts...)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "nats connect")
	}
	return &Feed{nc: nc}, nil
}

func (f *Feed) Close() error {
	if f.nc != nil {
		return f.nc.Drain()
	}
	return nil
}

// Topic filters the feed by table and, optionally, by conversation.
type Topic struct {
	Table          string
	ConversationID string
}

func (t Topic) subject() string {
	if t.ConversationID != "" {
		return "feed." + t.Table + "." + t.ConversationID
	}
	return "feed." + t.Table
}

// Publish sends the event on the table subject, and additionally on the
// per-conversation subject when the event carries one. A publish failure is
// logged and returned but never blocks the write path that triggered it.
func (f *Feed) Publish(ctx context.Context, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return pkgerrors.Wrap(err, "marshal feed event")
	}
	if err := f.nc.Publish(Topic{Table: ev.Table}.subject(), b); err != nil {
		logger.Errorf("[feed] publish %s: %v", ev.Table, err)
		return pkgerrors.Wrap(err, "publish feed event")
	}
	if ev.ConversationID != "" {
		subj := Topic{Table: ev.Table, ConversationID: ev.ConversationID}.subject()
		if err := f.nc.Publish(subj, b); err != nil {
			logger.Errorf("[feed] publish %s: %v", subj, err)
			return pkgerrors.Wrap(err, "publish feed event")
		}
	}
	return nil
}

// Subscription wraps a NATS subscription; Unsubscribe is idempotent.
type Subscription struct {
	sub  *nats.Subscription
	once sync.Once
}

func (s *Subscription) Unsubscribe() error {
	var err error
	s.once.Do(func() {
		if s.sub != nil {
			err = s.sub.Unsubscribe()
		}
	})
	return err
}

// Subscribe delivers each event matching the topic to fn. Malformed payloads
// are dropped with a log line, never surfaced to fn.
func (f *Feed) Subscribe(topic Topic, fn func(Event)) (*Subscription, error) {
	sub, err := f.nc.Subscribe(topic.subject(), func(msg *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			logger.Warnf("[feed] drop malformed event on %s: %v", msg.Subject, err)
			return
		}
		fn(ev)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "subscribe "+topic.subject())
	}
	return &Subscription{sub: sub}, nil
}
