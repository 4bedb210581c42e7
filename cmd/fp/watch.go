package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/flightpath/internal/events"
	"github.com/alfredjeanlab/flightpath/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Stream route and topology events as they happen",
	GroupID: "routes",
	Long: `Watch prints route and topology events. It subscribes to NATS when a
NATS URL is configured (FP_NATS_URL or the active remote) and otherwise reads
the server's event stream. Only your own route events are shown.

Topic patterns may be given in short form, e.g. --topic route.* or
--topic topology.synthesized.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		topics, _ := cmd.Flags().GetStringSlice("topic")
		natsURL := os.Getenv("FP_NATS_URL")
		if natsURL == "" {
			natsURL = activeRemoteNATSURL()
		}
		if natsURL != "" {
			return watchNATS(ctx, natsURL, topics)
		}
		return watchSSE(ctx, topics)
	},
}

func init() {
	watchCmd.Flags().StringSlice("topic", nil, "topic patterns to watch (default all)")
}

// watchNATS subscribes to each topic pattern and prints what arrives.
func watchNATS(ctx context.Context, natsURL string, topics []string) error {
	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats: disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Printf("nats: reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	if len(topics) == 0 {
		topics = []string{events.TopicAll}
	}
	merged := make(chan events.Message, 64)
	for _, topic := range topics {
		ch, cancel, err := sub.Subscribe(topic, user)
		if err != nil {
			return fmt.Errorf("subscribing to events: %w", err)
		}
		defer cancel()
		go func() {
			for msg := range ch {
				select {
				case merged <- msg:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-merged:
			printEvent(os.Stdout, msg.Topic, msg.Data)
		}
	}
}

// watchSSE reads the server's event stream until ctx is cancelled.
func watchSSE(ctx context.Context, topics []string) error {
	u := strings.TrimRight(httpURL, "/") + "/v1/events/stream"
	if len(topics) > 0 {
		u += "?" + url.Values{"topics": {strings.Join(topics, ",")}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("connecting to event stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("event stream: HTTP %d", resp.StatusCode)
	}

	err = readSSE(resp.Body, func(topic string, data []byte) {
		printEvent(os.Stdout, topic, data)
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// readSSE parses a text/event-stream body and calls fn once per event.
// Comment lines and ids are ignored.
func readSSE(r io.Reader, fn func(topic string, data []byte)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		topic string
		data  []string
	)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if len(data) > 0 {
				fn(topic, []byte(strings.Join(data, "\n")))
			}
			topic, data = "", nil
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			topic = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	return scanner.Err()
}

// printEvent writes one event as a single line, or as raw JSON with --json.
func printEvent(w io.Writer, topic string, data []byte) {
	if jsonOutput {
		fmt.Fprintf(w, "{\"topic\":%q,\"event\":%s}\n", topic, data)
		return
	}
	fmt.Fprintln(w, formatEvent(topic, data))
}

func formatEvent(topic string, data []byte) string {
	label := ui.RenderAccent(strings.TrimPrefix(topic, "flightpath."))
	event, err := events.Decode(topic, data)
	if err != nil {
		return fmt.Sprintf("%s %s", label, data)
	}
	switch e := event.(type) {
	case *events.RoutePlanned:
		if r := e.Route; r != nil {
			return fmt.Sprintf("%s %s %s: %d → %d, %.2f km, cost %.2f, %d stops",
				label, r.ID, r.UserID, r.OriginID, r.DestinationID, r.TotalDistance, r.TotalCost, r.TotalStops)
		}
	case *events.RouteDeleted:
		return fmt.Sprintf("%s %s %s", label, e.RouteID, e.UserID)
	case *events.TopologySynthesized:
		scope := "all airports"
		if len(e.AirportIDs) > 0 {
			scope = fmt.Sprintf("%d airports", len(e.AirportIDs))
		}
		return fmt.Sprintf("%s %s: %d connections, %d reclassified, %d attempts",
			label, scope, e.Connections, e.UpdatedAirports, e.Attempts)
	}
	return fmt.Sprintf("%s %s", label, data)
}
