package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/example/blazehunter/internal/realtime"
)

const keepAlivePeriod = 25 * time.Second

// EventsHandler streams change events to browsers as server-sent events.
type EventsHandler struct {
	broker *realtime.Broker
	done   <-chan struct{}
}

// NewEventsHandler builds an EventsHandler. Streams end when done is closed.
func NewEventsHandler(broker *realtime.Broker, done <-chan struct{}) *EventsHandler {
	return &EventsHandler{broker: broker, done: done}
}

// Stream holds the connection open and writes one event per refresh.
func (h *EventsHandler) Stream(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	events, cancel := h.broker.Subscribe()

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()

		if _, err := fmt.Fprint(w, "retry: 5000\n: connected\n\n"); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}

		ticker := time.NewTicker(keepAlivePeriod)
		defer ticker.Stop()

		for {
			select {
			case <-h.done:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := writeEvent(w, ev); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

// writeEvent writes ev in the event-stream format and flushes it.
func writeEvent(w *bufio.Writer, ev realtime.Event) error {
	data, err := json.Marshal(ev.Payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return err
	}
	return w.Flush()
}
