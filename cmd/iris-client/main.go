// iris-client is a debugging consumer for the irisd gaze stream. It
// connects to the daemon's websocket and prints cursor positions and
// blink events as they arrive.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/clarivue/go-iris/internal/config"
	"github.com/clarivue/go-iris/pkg/tracker"
)

func main() {
	host := flag.String("host", "localhost", "irisd host")
	port := flag.String("port", config.HTTPPort(), "irisd port")
	events := flag.Bool("events-only", false, "Print only blink events")
	flag.Parse()

	url := fmt.Sprintf("ws://%s:%s/ws/gaze", *host, *port)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial %s: %v\n", url, err)
		os.Exit(1)
	}
	defer conn.Close()
	fmt.Printf("connected to %s\n", url)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	go func() {
		<-ctx.Done()
		conn.SetReadDeadline(time.Now())
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fmt.Fprintf(os.Stderr, "read: %v\n", err)
			os.Exit(1)
		}

		var r tracker.Result
		if err := json.Unmarshal(data, &r); err != nil {
			continue
		}
		if !r.Valid {
			continue
		}

		switch r.Event {
		case tracker.EventBlink:
			fmt.Printf("blink  eye=%-5s at (%.0f, %.0f)\n", r.Eye, r.X, r.Y)
		default:
			if !*events {
				fmt.Printf("gaze   (%.0f, %.0f)\n", r.X, r.Y)
			}
		}
	}
}
