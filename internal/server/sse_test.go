package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/flightpath/internal/events"
	"github.com/alfredjeanlab/flightpath/internal/model"
)

func TestSSEHub_BroadcastAndReceive(t *testing.T) {
	hub := NewSSEHub()

	client := hub.subscribe("", nil) // all topics
	defer hub.unsubscribe(client)

	hub.broadcast(events.TopicRoutePlanned, "", []byte(`{"id":"rt-1"}`))

	select {
	case evt := <-client.ch:
		if evt.Topic != events.TopicRoutePlanned {
			t.Fatalf("expected topic=%q, got %q", events.TopicRoutePlanned, evt.Topic)
		}
		if string(evt.Data) != `{"id":"rt-1"}` {
			t.Fatalf("unexpected data %q", evt.Data)
		}
		if evt.ID != 1 {
			t.Fatalf("expected id=1, got %d", evt.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSSEHub_TopicFiltering(t *testing.T) {
	hub := NewSSEHub()

	client := hub.subscribe("", []string{"flightpath.route.*"})
	defer hub.unsubscribe(client)

	hub.broadcast(events.TopicTopologySynthesized, "", []byte(`{}`))
	hub.broadcast(events.TopicRouteDeleted, "", []byte(`{"route_id":"rt-1"}`))

	select {
	case evt := <-client.ch:
		if evt.Topic != events.TopicRouteDeleted {
			t.Fatalf("expected topic=%q, got %q", events.TopicRouteDeleted, evt.Topic)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	select {
	case evt := <-client.ch:
		t.Fatalf("unexpected event: topic=%q", evt.Topic)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSSEHub_Unsubscribe(t *testing.T) {
	hub := NewSSEHub()

	client := hub.subscribe("", nil)
	hub.unsubscribe(client)

	hub.broadcast(events.TopicRoutePlanned, "", []byte(`{}`))

	select {
	case <-client.ch:
		t.Fatal("should not receive events after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSSEHub_EventsSince(t *testing.T) {
	hub := NewSSEHub()
	for range 5 {
		hub.broadcast(events.TopicRoutePlanned, "", []byte(`{}`))
	}

	evts := hub.eventsSince(2)
	if len(evts) != 3 {
		t.Fatalf("expected 3 events, got %d", len(evts))
	}
	if evts[0].ID != 3 || evts[2].ID != 5 {
		t.Fatalf("expected IDs 3..5, got %d..%d", evts[0].ID, evts[2].ID)
	}
	if got := NewSSEHub().eventsSince(0); len(got) != 0 {
		t.Fatalf("expected no events from an empty hub, got %d", len(got))
	}
}

func TestSSEHub_RingBufferWrap(t *testing.T) {
	hub := NewSSEHub()
	for range sseRingBufferSize + 100 {
		hub.broadcast(events.TopicRoutePlanned, "", []byte(`{}`))
	}

	evts := hub.eventsSince(0)
	if len(evts) != sseRingBufferSize {
		t.Fatalf("expected %d events, got %d", sseRingBufferSize, len(evts))
	}
	if evts[0].ID != 101 {
		t.Fatalf("expected oldest event ID=101, got %d", evts[0].ID)
	}
}

func TestSSEHub_Publish(t *testing.T) {
	hub := NewSSEHub()
	client := hub.subscribe("", nil)
	defer hub.unsubscribe(client)

	var pub events.Publisher = hub
	err := pub.Publish(context.Background(), events.TopicRoutePlanned, events.RoutePlanned{
		Route: &model.Route{ID: "rt-pub", Stops: []int64{4, 2}},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case evt := <-client.ch:
		var got events.RoutePlanned
		if err := json.Unmarshal(evt.Data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Route.ID != "rt-pub" {
			t.Fatalf("unexpected payload %s", evt.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	if err := pub.Publish(context.Background(), events.TopicRoutePlanned, events.RouteDeleted{}); err == nil {
		t.Fatal("expected an error for an event on the wrong topic")
	}
}

func TestSSEHub_RouteEventsReachOwnerOnly(t *testing.T) {
	hub := NewSSEHub()
	alice := hub.subscribe("alice", nil)
	defer hub.unsubscribe(alice)
	bob := hub.subscribe("bob", nil)
	defer hub.unsubscribe(bob)

	ctx := context.Background()
	if err := hub.Publish(ctx, events.TopicRoutePlanned, events.RoutePlanned{
		Route: &model.Route{ID: "rt-a", UserID: "alice"},
	}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := hub.Publish(ctx, events.TopicTopologySynthesized, events.TopologySynthesized{Connections: 3}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	for _, want := range []string{events.TopicRoutePlanned, events.TopicTopologySynthesized} {
		select {
		case evt := <-alice.ch:
			if evt.Topic != want {
				t.Fatalf("alice: expected %s, got %s", want, evt.Topic)
			}
		case <-time.After(time.Second):
			t.Fatalf("alice: timed out waiting for %s", want)
		}
	}

	select {
	case evt := <-bob.ch:
		if evt.Topic != events.TopicTopologySynthesized {
			t.Fatalf("bob: expected only the topology event, got %s", evt.Topic)
		}
	case <-time.After(time.Second):
		t.Fatal("bob: timed out waiting for topology event")
	}
	select {
	case evt := <-bob.ch:
		t.Fatalf("bob: unexpected event %s", evt.Topic)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMatchTopicPattern(t *testing.T) {
	for _, tc := range []struct {
		pattern string
		topic   string
		want    bool
	}{
		{"flightpath.route.planned", "flightpath.route.planned", true},
		{"flightpath.route.planned", "flightpath.route.deleted", false},
		{"flightpath.route.*", "flightpath.route.deleted", true},
		{"flightpath.route.*", "flightpath.topology.synthesized", false},
		{"flightpath.>", "flightpath.topology.synthesized", true},
		{"flightpath.>", "other.topic", false},
		{"flightpath.>", "flightpath", false},
		{"*.*.*", "flightpath.route.planned", true},
		{"*.*.*", "flightpath.route", false},
	} {
		t.Run(tc.pattern+"_"+tc.topic, func(t *testing.T) {
			if got := matchTopicPattern(tc.pattern, tc.topic); got != tc.want {
				t.Fatalf("matchTopicPattern(%q, %q) = %v, want %v", tc.pattern, tc.topic, got, tc.want)
			}
		})
	}
}

// streamFor runs the SSE handler until fn returns, then returns the body.
func streamFor(t *testing.T, handler http.Handler, req *http.Request, fn func()) *httptest.ResponseRecorder {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(rec, req)
	}()

	// Give the handler time to register the subscription.
	time.Sleep(50 * time.Millisecond)
	fn()
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done
	return rec
}

func TestHandleEventStream_Format(t *testing.T) {
	ts := newTestServer(t)

	rec := streamFor(t, ts.handler, httptest.NewRequest("GET", "/v1/events/stream", nil), func() {
		ts.hub.broadcast(events.TopicRouteDeleted, "", []byte(`{"route_id":"rt-fmt"}`))
	})

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected Content-Type=text/event-stream, got %q", ct)
	}

	scanner := bufio.NewScanner(strings.NewReader(rec.Body.String()))
	var id, event, data string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "id:"):
			id = strings.TrimPrefix(line, "id:")
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimPrefix(line, "event:")
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimPrefix(line, "data:")
		}
	}
	if id != "1" {
		t.Fatalf("expected id=1, got %q", id)
	}
	if event != events.TopicRouteDeleted {
		t.Fatalf("expected event=%s, got %q", events.TopicRouteDeleted, event)
	}
	if data != `{"route_id":"rt-fmt"}` {
		t.Fatalf("unexpected data %q", data)
	}
}

func TestHandleEventStream_TopicFilter(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest("GET", "/v1/events/stream?topics=topology.*", nil)
	rec := streamFor(t, ts.handler, req, func() {
		ts.hub.broadcast(events.TopicRoutePlanned, "", []byte(`{}`))
		ts.hub.broadcast(events.TopicTopologySynthesized, "", []byte(`{}`))
	})

	body := rec.Body.String()
	if strings.Contains(body, events.TopicRoutePlanned) {
		t.Fatalf("expected route event to be filtered out, got:\n%s", body)
	}
	if !strings.Contains(body, events.TopicTopologySynthesized) {
		t.Fatalf("expected topology event in body, got:\n%s", body)
	}
}

func TestHandleEventStream_LastEventID(t *testing.T) {
	ts := newTestServer(t)
	ts.hub.broadcast(events.TopicRoutePlanned, "", []byte(`{"n":1}`))
	ts.hub.broadcast(events.TopicRoutePlanned, "", []byte(`{"n":2}`))
	ts.hub.broadcast(events.TopicRouteDeleted, "", []byte(`{"n":3}`))

	req := httptest.NewRequest("GET", "/v1/events/stream", nil)
	req.Header.Set("Last-Event-ID", "1")
	rec := streamFor(t, ts.handler, req, func() {})

	body := rec.Body.String()
	if strings.Contains(body, `data:{"n":1}`) {
		t.Fatalf("expected event 1 to be skipped, got:\n%s", body)
	}
	if !strings.Contains(body, `data:{"n":2}`) || !strings.Contains(body, `data:{"n":3}`) {
		t.Fatalf("expected events 2 and 3 in body, got:\n%s", body)
	}
}

func TestHandleEventStream_PlanPublishes(t *testing.T) {
	ts := newTestServer(t)

	rec := streamFor(t, ts.handler, httptest.NewRequest("GET", "/v1/events/stream", nil), func() {
		resp := ts.do(t, "POST", "/v1/routes", map[string]any{"origin_id": 1, "destination_id": 2}, nil)
		if resp.Code != http.StatusCreated {
			t.Fatalf("plan: expected 201, got %d: %s", resp.Code, resp.Body.String())
		}
	})

	body := rec.Body.String()
	if !strings.Contains(body, "event:"+events.TopicRoutePlanned) {
		t.Fatalf("expected route planned event, got:\n%s", body)
	}
}

func TestHandleEventStream_OtherUsersRoutesHidden(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest("GET", "/v1/events/stream", nil)
	req.Header.Set(UserHeader, "alice")
	rec := streamFor(t, ts.handler, req, func() {
		resp := ts.do(t, "POST", "/v1/routes", map[string]any{"origin_id": 1, "destination_id": 3},
			map[string]string{UserHeader: "bob"})
		if resp.Code != http.StatusCreated {
			t.Fatalf("plan: expected 201, got %d: %s", resp.Code, resp.Body.String())
		}
	})

	if body := rec.Body.String(); strings.Contains(body, events.TopicRoutePlanned) {
		t.Fatalf("expected bob's route to be hidden from alice, got:\n%s", body)
	}
}
