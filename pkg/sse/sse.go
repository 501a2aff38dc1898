// Package sse writes Server-Sent Events. It is the fallback event stream for
// clients that cannot hold a WebSocket open.
//
//	stream, err := sse.New(w, r)
//	if err != nil { return }
//	for snap := range snaps {
//	    if err := stream.Send("snapshot", snap.Version, snap); err != nil { return }
//	}
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// Stream is an open event stream to one client.
type Stream struct {
	w  http.ResponseWriter
	rc *http.ResponseController
	r  *http.Request
}

// New sets the event-stream headers and flushes them. It fails when no
// writer in the chain supports flushing.
func New(w http.ResponseWriter, r *http.Request) (*Stream, error) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no") // disable nginx buffering

	s := &Stream{w: w, rc: http.NewResponseController(w), r: r}
	w.WriteHeader(http.StatusOK)
	if err := s.rc.Flush(); err != nil {
		return nil, fmt.Errorf("sse: %w", err)
	}
	return s, nil
}

// Send writes one event with a JSON payload. id may be zero to omit it.
func (s *Stream) Send(event string, id uint64, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("sse: marshal: %w", err)
	}

	var idLine string
	if id > 0 {
		idLine = "id: " + strconv.FormatUint(id, 10) + "\n"
	}
	if _, err := fmt.Fprintf(s.w, "%sevent: %s\ndata: %s\n\n", idLine, event, payload); err != nil {
		return err
	}
	return s.rc.Flush()
}

// Comment writes a comment line, used as a keepalive.
func (s *Stream) Comment(msg string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", msg); err != nil {
		return err
	}
	return s.rc.Flush()
}

// Done is closed when the client goes away.
func (s *Stream) Done() <-chan struct{} { return s.r.Context().Done() }
