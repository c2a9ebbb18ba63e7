package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirenia/clear-dark-sky/internal/metrics"
)

// writeTimeout bounds each write so a stalled reader frees its slot.
const writeTimeout = 30 * time.Second

// eventWriter frames SSE events on one connection. Every data event gets
// a monotonically increasing id.
type eventWriter struct {
	w      io.Writer
	flush  func()
	rc     *http.ResponseController
	ip     string
	logger *slog.Logger

	seq int64
}

func newEventWriter(w http.ResponseWriter, ip string, logger *slog.Logger) *eventWriter {
	rc := http.NewResponseController(w)
	return &eventWriter{
		w: w,
		flush: func() {
			if err := rc.Flush(); err != nil {
				logger.Debug("flush failed", "error", err)
			}
		},
		rc:     rc,
		ip:     ip,
		logger: logger,
	}
}

// retry sets the client's reconnection delay.
func (e *eventWriter) retry(d time.Duration) error {
	e.extendDeadline()
	if _, err := fmt.Fprintf(e.w, "retry: %d\n\n", d.Milliseconds()); err != nil {
		return fmt.Errorf("retry write: %w", err)
	}
	e.flush()
	return nil
}

// send writes v as a named event.
func (e *eventWriter) send(event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}

	e.extendDeadline()
	e.seq++
	if _, err := fmt.Fprintf(e.w, "event: %s\nid: %d\ndata: %s\n\n", event, e.seq, data); err != nil {
		return fmt.Errorf("%s write: %w", event, err)
	}
	e.flush()
	metrics.IncStreamMessages()
	return nil
}

// comment writes an SSE comment line, used as a keepalive.
func (e *eventWriter) comment() error {
	e.extendDeadline()
	if _, err := io.WriteString(e.w, ":\n\n"); err != nil {
		return fmt.Errorf("keepalive write: %w", err)
	}
	e.flush()
	return nil
}

func (e *eventWriter) extendDeadline() {
	if err := e.rc.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		e.logger.Debug("could not set write deadline", "error", err)
	}
}
