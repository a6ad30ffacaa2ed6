package ctlapi

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/plexsphere/wgsession/internal/notify"
)

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ch, unsubscribe := h.broadcaster.Subscribe(notify.DefaultSubscriberBuffer)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprintf(w, "retry: %d\n\n", retryInterval.Milliseconds()); err != nil {
		return
	}

	// The current event goes first unless a resuming client has seen it;
	// anything already delivered to ch with the same or an older sequence
	// number is skipped.
	current := h.broadcaster.Last()
	lastSeq := lastEventSeq(r)
	if current.Seq == 0 || current.Seq > lastSeq {
		if err := writeSSEEvent(w, current); err != nil {
			return
		}
		lastSeq = current.Seq
	}
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			if e.Seq != 0 && e.Seq <= lastSeq {
				continue
			}
			lastSeq = e.Seq
			if err := writeSSEEvent(w, e); err != nil {
				h.logger.Debug("event stream closed", "error", err)
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// retryInterval is announced to clients as the reconnect delay.
const retryInterval = time.Second

// lastEventSeq parses the Last-Event-ID header sent by a resuming client.
func lastEventSeq(r *http.Request) uint64 {
	seq, err := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64)
	if err != nil {
		return 0
	}
	return seq
}

func writeSSEEvent(w io.Writer, e notify.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", e.Seq, notify.Topic, data)
	return err
}

// SSEEvent represents a single parsed SSE event.
type SSEEvent struct {
	Type string // from "event:" field, defaults to "message"
	Data string // concatenated data fields
	ID   string // from "id:" field
}

// SSEParser reads from an io.Reader and emits parsed SSE events.
type SSEParser struct {
	scanner     *bufio.Scanner
	lastEventID string
	retry       time.Duration
}

// NewSSEParser creates a parser reading from the given reader.
func NewSSEParser(r io.Reader) *SSEParser {
	return &SSEParser{scanner: bufio.NewScanner(r)}
}

// LastEventID returns the most recently received event ID.
func (p *SSEParser) LastEventID() string { return p.lastEventID }

// Retry returns the last retry interval announced by the server, or zero.
func (p *SSEParser) Retry() time.Duration { return p.retry }

// Next reads lines until a complete event is found. Returns the event
// and true, or a zero event and false when the reader is exhausted.
func (p *SSEParser) Next() (SSEEvent, bool) {
	var eventType, id string
	var data []string

	for p.scanner.Scan() {
		line := p.scanner.Text()

		if line == "" {
			if len(data) == 0 {
				eventType, id = "", ""
				continue
			}
			if eventType == "" {
				eventType = "message"
			}
			if id != "" {
				p.lastEventID = id
			}
			return SSEEvent{Type: eventType, Data: strings.Join(data, "\n"), ID: id}, true
		}

		// Comments double as keep-alives.
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			eventType = value
		case "data":
			data = append(data, value)
		case "id":
			id = value
		case "retry":
			if ms, err := strconv.Atoi(value); err == nil {
				p.retry = time.Duration(ms) * time.Millisecond
			}
		}
	}
	return SSEEvent{}, false
}

// Err returns the scanner error that ended the stream, if any.
func (p *SSEParser) Err() error { return p.scanner.Err() }
