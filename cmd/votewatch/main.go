// Command votewatch signs in and streams the live tally of one quote request.
// With -viewers > 1 it opens that many concurrent streams as a load check.
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
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"solarshare/internal/notifications"
	"solarshare/internal/service"

	"github.com/gorilla/websocket"
)

// Metrics tracks what the viewers saw.
type Metrics struct {
	ConnectionsAttempted int64
	ConnectionsSuccess   int64
	ConnectionsFailed    int64
	EventsReceived       int64
	Errors               int64
}

var metrics Metrics

type wireEvent struct {
	Type      string          `json:"type"`
	RequestID uint            `json:"request_id"`
	Payload   json.RawMessage `json:"payload"`
	Error     string          `json:"error"`
}

func main() {
	host := flag.String("host", "localhost:8375", "API server host")
	email := flag.String("email", "", "member email")
	password := flag.String("password", "password123", "member password")
	requestID := flag.Uint("request", 0, "quote request ID to watch")
	viewers := flag.Int("viewers", 1, "number of concurrent viewers")
	duration := flag.Duration("duration", 0, "stop after this long (0 waits for Ctrl-C or voting to close)")
	flag.Parse()

	if *email == "" || *requestID == 0 {
		fmt.Fprintln(os.Stderr, "usage: votewatch -email you@example.com -request 12 [-viewers 20] [-duration 1m]")
		os.Exit(2)
	}

	token, err := login(*host, *email, *password)
	if err != nil {
		log.Fatalf("❌ Login failed: %v", err)
	}
	log.Printf("✅ Logged in as %s", *email)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stopChan := make(chan struct{})
	closed := make(chan struct{})
	var closeOnce sync.Once

	for i := 0; i < *viewers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if watch(*host, token, uint(*requestID), id, *viewers == 1, stopChan) {
				closeOnce.Do(func() { close(closed) })
			}
		}(i)
		if *viewers > 1 {
			time.Sleep(50 * time.Millisecond)
		}
	}

	var timeout <-chan time.Time
	if *duration > 0 {
		timeout = time.After(*duration)
	}
	select {
	case <-timeout:
		log.Println("⏱️  Duration reached")
	case <-interrupt:
		log.Println("🛑 Interrupted")
	case <-closed:
		log.Println("🏁 Voting closed")
	}

	close(stopChan)
	wg.Wait()

	if *viewers > 1 {
		printMetrics()
	}
}

func login(host, email, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(fmt.Sprintf("http://%s/api/auth/login", host), "application/json", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}
	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Token, nil
}

func getTicket(host, token string) (string, error) {
	req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("http://%s/api/ws/ticket", host), nil)
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ticket issuance failed with status %d", resp.StatusCode)
	}
	var result struct {
		Ticket string `json:"ticket"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Ticket, nil
}

// watch streams one viewer until stop, an error, or the vote closing. It
// reports whether it saw the vote close.
func watch(host, token string, requestID uint, id int, verbose bool, stop <-chan struct{}) bool {
	atomic.AddInt64(&metrics.ConnectionsAttempted, 1)

	ticket, err := getTicket(host, token)
	if err != nil {
		log.Printf("[viewer %d] ❌ %v", id, err)
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		return false
	}

	u := url.URL{
		Scheme:   "ws",
		Host:     host,
		Path:     "/api/ws/voting/" + strconv.FormatUint(uint64(requestID), 10),
		RawQuery: url.Values{"ticket": {ticket}}.Encode(),
	}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		log.Printf("[viewer %d] ❌ dial: %v", id, err)
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		return false
	}
	defer func() { _ = conn.Close() }()
	atomic.AddInt64(&metrics.ConnectionsSuccess, 1)

	go func() {
		<-stop
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-stop:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					log.Printf("[viewer %d] connection ended: %v", id, err)
					atomic.AddInt64(&metrics.Errors, 1)
				}
			}
			return false
		}
		atomic.AddInt64(&metrics.EventsReceived, 1)

		var ev wireEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			atomic.AddInt64(&metrics.Errors, 1)
			continue
		}
		if verbose {
			printEvent(ev)
		}
		switch ev.Type {
		case "error":
			log.Printf("[viewer %d] ❌ server: %s", id, ev.Error)
			atomic.AddInt64(&metrics.Errors, 1)
			return false
		case notifications.EventVotingClosed:
			return true
		}
	}
}

func printEvent(ev wireEvent) {
	switch ev.Type {
	case notifications.EventVotingState:
		var st service.VotingState
		if err := json.Unmarshal(ev.Payload, &st); err != nil {
			log.Printf("voting_state: %v", err)
			return
		}
		log.Printf("📋 %s: %d votes, open=%t", st.CommunityName, st.TotalVotes, st.IsOpen)
		for _, q := range st.Quotes {
			log.Printf("   quote %d %-28s %12s  %3d%% (%d)", q.QuoteID, q.ProviderName, q.TotalCost.StringFixed(2), q.VotePercentage, q.VotesCount)
		}
	case notifications.EventTallyUpdated:
		var agg service.VoteAggregate
		if err := json.Unmarshal(ev.Payload, &agg); err != nil {
			log.Printf("tally_updated: %v", err)
			return
		}
		log.Printf("🗳️  %d votes", agg.TotalVotes)
		for _, s := range agg.Shares {
			log.Printf("   quote %d  %3d%% (%d)", s.QuoteID, s.VotePercentage, s.VotesCount)
		}
	case notifications.EventVotingClosed:
		var res service.EndVotingResult
		if err := json.Unmarshal(ev.Payload, &res); err != nil {
			log.Printf("voting_closed: %v", err)
			return
		}
		log.Printf("✅ quote %d selected; project %d is %s", res.Selection.ProviderQuoteID, res.Project.ID, res.Project.Status)
	default:
		log.Printf("%s: %s", ev.Type, string(ev.Payload))
	}
}

func printMetrics() {
	log.Println("\n📊 Results")
	log.Println("==========")
	log.Printf("Connections attempted: %d", metrics.ConnectionsAttempted)
	log.Printf("Connections succeeded: %d", metrics.ConnectionsSuccess)
	log.Printf("Connections failed:    %d", metrics.ConnectionsFailed)
	log.Printf("Events received:       %d", metrics.EventsReceived)
	log.Printf("Errors:                %d", metrics.Errors)
}
