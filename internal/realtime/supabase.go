package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	heartbeatPeriod = 30 * time.Second
	writeWait       = 10 * time.Second
	readWait        = 2 * heartbeatPeriod
	minBackoff      = time.Second
	maxBackoff      = 30 * time.Second
)

// phxMessage is a Phoenix channel frame.
type phxMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     *string         `json:"ref"`
}

type changePayload struct {
	Data struct {
		Table  string         `json:"table"`
		Type   string         `json:"type"`
		Record map[string]any `json:"record"`
	} `json:"data"`
}

// SupabaseSource subscribes to postgres_changes on the hosted data service's
// realtime websocket.
type SupabaseSource struct {
	endpoint string
	tables   []string
	dialer   *websocket.Dialer
	log      zerolog.Logger

	refMu sync.Mutex
	ref   int
}

// NewSupabaseSource builds a source for the project at baseURL using the
// public anon key.
func NewSupabaseSource(baseURL, anonKey string, log zerolog.Logger) (*SupabaseSource, error) {
	endpoint, err := RealtimeURL(baseURL, anonKey)
	if err != nil {
		return nil, err
	}
	return &SupabaseSource{
		endpoint: endpoint,
		tables:   []string{TableItems, TableSettings},
		dialer:   websocket.DefaultDialer,
		log:      log,
	}, nil
}

// RealtimeURL derives the websocket endpoint from the project URL.
func RealtimeURL(baseURL, anonKey string) (string, error) {
	if strings.TrimSpace(baseURL) == "" || strings.TrimSpace(anonKey) == "" {
		return "", fmt.Errorf("realtime requires a project URL and anon key")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse project URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported project URL scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/realtime/v1/websocket"
	q := url.Values{}
	q.Set("apikey", anonKey)
	q.Set("vsn", "1.0.0")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Run connects, joins one channel per table and forwards change events. It
// reconnects with exponential backoff until ctx is cancelled.
func (s *SupabaseSource) Run(ctx context.Context, out chan<- Notification) error {
	backoff := minBackoff
	for {
		started := time.Now()
		err := s.session(ctx, out)
		if ctx.Err() != nil {
			return nil
		}
		if time.Since(started) > maxBackoff {
			backoff = minBackoff
		}
		s.log.Warn().Err(err).Dur("retry_in", backoff).Msg("realtime connection lost")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (s *SupabaseSource) nextRef() string {
	s.refMu.Lock()
	defer s.refMu.Unlock()
	s.ref++
	return strconv.Itoa(s.ref)
}

func (s *SupabaseSource) session(ctx context.Context, out chan<- Notification) error {
	conn, _, err := s.dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial realtime: %w", err)
	}
	defer conn.Close()

	var writeMu sync.Mutex
	write := func(msg phxMessage) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(msg)
	}

	for _, table := range s.tables {
		if err := write(s.joinMessage(table)); err != nil {
			return fmt.Errorf("join %s: %w", table, err)
		}
	}
	s.log.Info().Strs("tables", s.tables).Msg("realtime subscribed")

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		ticker := time.NewTicker(heartbeatPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-sessionCtx.Done():
				_ = conn.Close()
				return
			case <-ticker.C:
				ref := s.nextRef()
				if err := write(phxMessage{Topic: "phoenix", Event: "heartbeat", Payload: json.RawMessage(`{}`), Ref: &ref}); err != nil {
					_ = conn.Close()
					return
				}
			}
		}
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		var msg phxMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		if n, ok := parseChange(msg); ok {
			select {
			case out <- n:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (s *SupabaseSource) joinMessage(table string) phxMessage {
	payload, _ := json.Marshal(map[string]any{
		"config": map[string]any{
			"postgres_changes": []map[string]string{
				{"event": "*", "schema": "public", "table": table},
			},
		},
	})
	ref := s.nextRef()
	return phxMessage{
		Topic:   "realtime:public:" + table,
		Event:   "phx_join",
		Payload: payload,
		Ref:     &ref,
	}
}

// parseChange extracts a notification from a postgres_changes frame.
func parseChange(msg phxMessage) (Notification, bool) {
	if msg.Event != "postgres_changes" {
		return Notification{}, false
	}

	var payload changePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return Notification{}, false
	}

	table := payload.Data.Table
	if table == "" {
		table = strings.TrimPrefix(msg.Topic, "realtime:public:")
	}
	if !known(table) {
		return Notification{}, false
	}

	n := Notification{Table: table, Event: payload.Data.Type}
	if key, ok := payload.Data.Record["nation_key"].(string); ok {
		n.NationKey = key
	}
	return n, true
}
