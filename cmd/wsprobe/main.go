// Command wsprobe opens live notification connections against a running
// server and reports what arrives.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

type counters struct {
	attempted atomic.Int64
	connected atomic.Int64
	failed    atomic.Int64
	received  atomic.Int64
}

var stats counters

var httpClient = &http.Client{Timeout: 5 * time.Second}

func main() {
	host := flag.String("host", "localhost:8375", "API server host")
	username := flag.String("username", "alice", "User to log in as")
	password := flag.String("password", "password123", "Password")
	clients := flag.Int("clients", 1, "Number of concurrent connections")
	duration := flag.Duration("duration", 30*time.Second, "How long to listen")
	verbose := flag.Bool("v", true, "Print every notification")
	flag.Parse()

	token, err := login(*host, *username, *password)
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	log.Printf("Logged in as %s, opening %d connection(s) for %v", *username, *clients, *duration)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			listen(*host, token, id, *verbose, stop)
		}(i)
		// Tickets are single use; stagger issuance.
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case <-time.After(*duration):
	case <-interrupt:
		log.Println("Interrupted")
	}
	close(stop)
	wg.Wait()

	fmt.Printf("connections: attempted=%d connected=%d failed=%d\n",
		stats.attempted.Load(), stats.connected.Load(), stats.failed.Load())
	fmt.Printf("messages received: %d\n", stats.received.Load())
}

func postJSON(u, token string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequest(http.MethodPost, u, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%s: status %d", u, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func login(host, username, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	err := postJSON(fmt.Sprintf("http://%s/api/auth/login", host), "",
		map[string]string{"username": username, "password": password}, &out)
	return out.Token, err
}

func ticket(host, token string) (string, error) {
	var out struct {
		Ticket string `json:"ticket"`
	}
	err := postJSON(fmt.Sprintf("http://%s/api/ws/ticket", host), token, nil, &out)
	return out.Ticket, err
}

func listen(host, token string, id int, verbose bool, stop <-chan struct{}) {
	stats.attempted.Add(1)
	t, err := ticket(host, token)
	if err != nil {
		stats.failed.Add(1)
		log.Printf("[%d] ticket: %v", id, err)
		return
	}

	u := url.URL{Scheme: "ws", Host: host, Path: "/api/ws", RawQuery: "ticket=" + url.QueryEscape(t)}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	if err != nil {
		stats.failed.Add(1)
		log.Printf("[%d] dial: %v", id, err)
		return
	}
	defer func() { _ = conn.Close() }()
	stats.connected.Add(1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			stats.received.Add(1)
			if verbose {
				log.Printf("[%d] %s", id, msg)
			}
		}
	}()

	select {
	case <-stop:
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	case <-done:
		log.Printf("[%d] connection closed by server", id)
	}
}
