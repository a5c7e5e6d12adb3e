package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// DefaultSpanLogSize is the number of finished spans a SpanLog keeps.
const DefaultSpanLogSize = 256

// SpanRecord is a finished span as seen by the SpanLog.
type SpanRecord struct {
	Name    string        `json:"name"`
	Product string        `json:"product,omitempty"`
	Start   time.Time     `json:"start"`
	End     time.Time     `json:"end"`
	Elapsed time.Duration `json:"elapsed"`
	Error   string        `json:"error,omitempty"`
}

// SpanLog implements sdktrace.SpanProcessor and keeps the most recent finished spans
// in a ring for the status server.
type SpanLog struct {
	mu      sync.Mutex
	records []SpanRecord
	next    int
	full    bool
}

// NewSpanLog returns a SpanLog holding at most size spans.
func NewSpanLog(size int) *SpanLog {
	if size <= 0 {
		size = DefaultSpanLogSize
	}
	return &SpanLog{records: make([]SpanRecord, size)}
}

// OnStart is called when a span starts.
func (l *SpanLog) OnStart(_ context.Context, _ sdktrace.ReadWriteSpan) {}

// OnEnd is called when a span ends.
func (l *SpanLog) OnEnd(s sdktrace.ReadOnlySpan) {
	if !s.SpanContext().IsValid() {
		return
	}

	rec := SpanRecord{
		Name:    s.Name(),
		Start:   s.StartTime(),
		End:     s.EndTime(),
		Elapsed: s.EndTime().Sub(s.StartTime()),
	}
	for _, kv := range s.Attributes() {
		if string(kv.Key) == ProductAttribute {
			rec.Product = kv.Value.AsString()
		}
	}
	if s.Status().Code == codes.Error {
		rec.Error = s.Status().Description
		if rec.Error == "" {
			rec.Error = "span failed"
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[l.next] = rec
	l.next = (l.next + 1) % len(l.records)
	if l.next == 0 {
		l.full = true
	}
}

// Recent returns the retained spans, oldest first.
func (l *SpanLog) Recent() []SpanRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.full {
		return append([]SpanRecord(nil), l.records[:l.next]...)
	}
	out := make([]SpanRecord, 0, len(l.records))
	out = append(out, l.records[l.next:]...)
	return append(out, l.records[:l.next]...)
}

// ForceFlush does nothing.
func (l *SpanLog) ForceFlush(context.Context) error {
	return nil
}

// Shutdown does nothing.
func (l *SpanLog) Shutdown(context.Context) error {
	return nil
}
