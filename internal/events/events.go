// Package events publishes mind map changes on a NATS subject.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

type Type string

const (
	MindMapCreated      Type = "created"
	MindMapUpdated      Type = "updated"
	MindMapDeleted      Type = "deleted"
	CollaboratorAdded   Type = "collaborator.added"
	CollaboratorRemoved Type = "collaborator.removed"
)

// Event describes one change to a mind map.
type Event struct {
	Type      Type      `json:"type"`
	MindMapID string    `json:"mindMapId"`
	UserID    string    `json:"userId"`
	Version   int       `json:"version,omitempty"`
	Subject   string    `json:"subject,omitempty"` // the collaborator for collaborator events
	At        time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close()
}

// Noop drops every event. It is used when no bus is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() {}

// NATS publishes events as JSON on "<prefix>.<type>".
type NATS struct {
	conn   *nats.Conn
	prefix string
}

// NewNATS connects to url. The connection reconnects on its own after
// the initial dial succeeds.
func NewNATS(url, prefix string) (*NATS, error) {
	conn, err := nats.Connect(url,
		nats.Name("mindcanvasd"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NATS{conn: conn, prefix: prefix}, nil
}

func (n *NATS) Publish(ctx context.Context, e Event) error {
	subject, payload, err := encode(n.prefix, e)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := n.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (n *NATS) Close() {
	_ = n.conn.Drain()
}

func encode(prefix string, e Event) (string, []byte, error) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return "", nil, fmt.Errorf("encode event: %w", err)
	}
	return prefix + "." + string(e.Type), payload, nil
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() {}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
