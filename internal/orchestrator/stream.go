package orchestrator

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// EventType distinguishes the kinds of lines a streaming caller may receive.
type EventType string

const (
	EventInfo    EventType = "info"
	EventStatus  EventType = "status"
	EventMessage EventType = "message"
	EventError   EventType = "error"
)

// Event is one unit of streamed progress. Message events carry the complete
// text each time: a later message event is a full replacement of the rendered
// reply, not a delta to append.
type Event struct {
	Type     EventType `json:"type"`
	Content  string    `json:"content"`
	ThreadID string    `json:"threadId,omitempty"`
}

// Sink receives events in the order they are produced. Implementations must
// not reorder or drop events; a failing sink stops local delivery only and
// never cancels the in-flight remote run.
type Sink interface {
	Send(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

func (f SinkFunc) Send(e Event) {
	f(e)
}

// discardSink is used on the non-streaming path.
type discardSink struct{}

func (discardSink) Send(Event) {}

// sseSink writes events as Server-Sent-Events lines and flushes after each
// one so callers observe progress as it happens.
type sseSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSESink(w http.ResponseWriter) *sseSink {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, _ := w.(http.Flusher)
	return &sseSink{w: w, flusher: flusher}
}

func (s *sseSink) Send(e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		return
	}
	fmt.Fprintf(s.w, "data: %s\n\n", payload)
	if s.flusher != nil {
		s.flusher.Flush()
	}
}
