// Command countdownctl drives a running countdown server over its websocket
// bridge, one command per line.
//
//	start 90
//	pause task_0
//	resume task_0
//	stop task_0
//	get countList
//	set theme {"dark":true}
//	notify Tea steeped
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/michaelgov-ctrl/countdown/bridge"
	"github.com/michaelgov-ctrl/countdown/timer"
)

var errUsage = errors.New("usage: start <seconds> | pause|resume|stop <key> | get <key> | set <key> <json> | notify <title> [body] | quit")

func main() {
	addr := flag.String("addr", "localhost:8080", "countdown server address")
	origin := flag.String("origin", "", "Origin header sent with the upgrade")
	flag.Parse()

	serverURL := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}

	header := make(http.Header)
	if *origin != "" {
		header.Set("Origin", *origin)
	}

	log.Printf("connecting to %s...", serverURL.String())
	conn, _, err := websocket.DefaultDialer.Dial(serverURL.String(), header)
	if err != nil {
		log.Fatalf("failed to connect to ws server: %v", err)
	}
	defer conn.Close()

	go func() {
		for {
			_, reply, err := conn.ReadMessage()
			if err != nil {
				log.Fatalf("failed to read message: %v", err)
			}
			log.Printf("received: %s", reply)
		}
	}()

	buf := bufio.NewScanner(os.Stdin)
	for n := 0; buf.Scan(); n++ {
		line := strings.TrimSpace(buf.Text())
		if line == "" {
			continue
		}

		event, err := parseCommand(line, fmt.Sprintf("c%d", n))
		if err != nil {
			fmt.Println(err)
			continue
		}

		if err := conn.WriteJSON(event); err != nil {
			log.Fatalf("failed to send message: %v", err)
		}
		log.Printf("sent: %s", event.Type)
	}
}

// parseCommand turns one input line into a bridge event.
func parseCommand(line, requestID string) (timer.Event, error) {
	fields := strings.Fields(line)
	args := fields[1:]

	switch fields[0] {
	case "start":
		if len(args) != 1 {
			return timer.Event{}, errUsage
		}

		seconds, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return timer.Event{}, fmt.Errorf("bad seconds %q: %w", args[0], err)
		}

		return timer.NewOutgoingEvent(bridge.EventStartTimer, map[string]any{
			"request_id": requestID,
			"seconds":    seconds,
		})

	case "pause", "resume", "stop":
		if len(args) != 1 {
			return timer.Event{}, errUsage
		}

		return timer.NewOutgoingEvent(fields[0]+"_timer", map[string]any{
			"request_id": requestID,
			"key":        args[0],
		})

	case "get":
		if len(args) != 1 {
			return timer.Event{}, errUsage
		}

		return timer.NewOutgoingEvent(bridge.EventGetStoreValue, map[string]any{
			"request_id": requestID,
			"key":        args[0],
		})

	case "set":
		if len(args) < 2 {
			return timer.Event{}, errUsage
		}

		value := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(strings.TrimPrefix(line, "set")), args[0]))

		return timer.NewOutgoingEvent(bridge.EventSetStoreValue, map[string]any{
			"request_id": requestID,
			"key":        args[0],
			"value":      rawJSON(value),
		})

	case "notify":
		if len(args) < 1 {
			return timer.Event{}, errUsage
		}

		return timer.NewOutgoingEvent(bridge.EventSendNotification, map[string]any{
			"request_id": requestID,
			"title":      args[0],
			"body":       strings.Join(args[1:], " "),
		})

	case "quit":
		return timer.Event{Type: bridge.EventQuit}, nil
	}

	return timer.Event{}, errUsage
}

type rawJSON string

func (r rawJSON) MarshalJSON() ([]byte, error) {
	return []byte(r), nil
}
