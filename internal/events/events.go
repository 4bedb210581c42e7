// Package events carries route and topology notifications from the routing
// service to the SSE hub and NATS.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/alfredjeanlab/flightpath/internal/model"
)

// Event topic constants
const (
	TopicRoutePlanned        = "flightpath.route.planned"
	TopicRouteDeleted        = "flightpath.route.deleted"
	TopicTopologySynthesized = "flightpath.topology.synthesized"

	// TopicAll matches every flightpath subject.
	TopicAll = "flightpath.>"

	topicPrefix = "flightpath."
)

// ErrUnknownTopic is returned when decoding a payload for a subject outside
// the flightpath event set.
var ErrUnknownTopic = errors.New("unknown event topic")

// Event types

type RoutePlanned struct {
	Route *model.Route `json:"route"`
}

type RouteDeleted struct {
	RouteID string `json:"route_id"`
	UserID  string `json:"user_id"`
}

type TopologySynthesized struct {
	AirportIDs      []int64              `json:"airport_ids,omitempty"` // empty for the full topology
	Connections     int                  `json:"connections"`
	UpdatedAirports int                  `json:"updated_airports"`
	Attempts        int                  `json:"attempts"`
	Stats           *model.TopologyStats `json:"stats,omitempty"`
}

// Message is one payload received from the bus, tagged with its subject.
type Message struct {
	Topic string
	Data  []byte
}

// Decode returns the typed event carried by m.
func (m Message) Decode() (any, error) {
	return Decode(m.Topic, m.Data)
}

// Encode marshals event for topic, rejecting events published on the wrong
// subject.
func Encode(topic string, event any) ([]byte, error) {
	if err := checkTopic(topic, event); err != nil {
		return nil, err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", topic, err)
	}
	return data, nil
}

func checkTopic(topic string, event any) error {
	var ok bool
	switch topic {
	case TopicRoutePlanned:
		_, ok = deref[RoutePlanned](event)
	case TopicRouteDeleted:
		_, ok = deref[RouteDeleted](event)
	case TopicTopologySynthesized:
		_, ok = deref[TopologySynthesized](event)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
	if !ok {
		return fmt.Errorf("event %T cannot be published on %s", event, topic)
	}
	return nil
}

// deref accepts both T and *T.
func deref[T any](event any) (T, bool) {
	switch e := event.(type) {
	case T:
		return e, true
	case *T:
		if e != nil {
			return *e, true
		}
	}
	var zero T
	return zero, false
}

// Decode unmarshals data into the event type for topic and returns a
// pointer to it.
func Decode(topic string, data []byte) (any, error) {
	var event any
	switch topic {
	case TopicRoutePlanned:
		event = &RoutePlanned{}
	case TopicRouteDeleted:
		event = &RouteDeleted{}
	case TopicTopologySynthesized:
		event = &TopologySynthesized{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("decode %s event: %w", topic, err)
	}
	return event, nil
}

// Owner returns the user a route event belongs to. Topology events are
// shared and have no owner.
func Owner(event any) string {
	if e, ok := deref[RoutePlanned](event); ok && e.Route != nil {
		return e.Route.UserID
	}
	if e, ok := deref[RouteDeleted](event); ok {
		return e.UserID
	}
	return ""
}

// QualifyTopic expands a short pattern such as "route.*" to a full subject
// pattern. Patterns already under the flightpath prefix are returned as is.
func QualifyTopic(pattern string) string {
	pattern = strings.TrimSpace(pattern)
	switch {
	case pattern == "" || strings.HasPrefix(pattern, topicPrefix):
		return pattern
	case pattern == ">":
		return TopicAll
	}
	return topicPrefix + pattern
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// NoopPublisher discards every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }

func (NoopPublisher) Close() error { return nil }

// MultiPublisher publishes every event to each of its publishers in turn.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, topic string, event any) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, topic, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiPublisher) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
