// Package telemetry collects key/value readings published by the subsystems each tick.
//
// Keys are flattened with a dot, e.g. "spindexer.position". A Sink buffers values put during a
// tick and Flush hands them on once at the end of the tick.
package telemetry

import (
	"reflect"
	"sort"
	"sync"

	"go.viam.com/spindexer/logging"
)

// A Sink accepts readings. Put never fails; Flush ends a tick.
type Sink interface {
	Put(key string, value any)
	Flush()
}

// Discard is a sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Put(string, any) {}
func (discard) Flush()          {}

type prefixed struct {
	prefix string
	sink   Sink
}

// WithPrefix returns a sink that puts every key as prefix.key into sink. Flush is forwarded.
func WithPrefix(sink Sink, prefix string) Sink {
	return &prefixed{prefix: prefix + ".", sink: sink}
}

func (p *prefixed) Put(key string, value any) {
	p.sink.Put(p.prefix+key, value)
}

func (p *prefixed) Flush() {
	p.sink.Flush()
}

// LogSink writes readings to a logger at debug level. Like the on-disk diagnostics format it
// only writes a value when it differs from the one last written for the same key.
type LogSink struct {
	logger  logging.Logger
	pending map[string]any
	last    map[string]any
}

// NewLogSink returns a sink writing to logger.
func NewLogSink(logger logging.Logger) *LogSink {
	return &LogSink{logger: logger, pending: map[string]any{}, last: map[string]any{}}
}

// Put buffers a reading until the next Flush.
func (s *LogSink) Put(key string, value any) {
	s.pending[key] = value
}

// Flush logs one line with every changed reading, in key order.
func (s *LogSink) Flush() {
	if len(s.pending) == 0 {
		return
	}
	keys := make([]string, 0, len(s.pending))
	for k, v := range s.pending {
		if prev, ok := s.last[k]; ok && reflect.DeepEqual(prev, v) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		kvs := make([]any, 0, 2*len(keys))
		for _, k := range keys {
			v := s.pending[k]
			kvs = append(kvs, k, v)
			s.last[k] = v
		}
		s.logger.Debugw("telemetry", kvs...)
	}
	clear(s.pending)
}

// Recorder keeps the most recently flushed value of every key in memory.
type Recorder struct {
	mu      sync.Mutex
	pending map[string]any
	values  map[string]any
	flushes int
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{pending: map[string]any{}, values: map[string]any{}}
}

// Put buffers a reading until the next Flush.
func (r *Recorder) Put(key string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[key] = value
}

// Flush publishes the buffered readings.
func (r *Recorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range r.pending {
		r.values[k] = v
	}
	clear(r.pending)
	r.flushes++
}

// Get returns the last flushed value for key.
func (r *Recorder) Get(key string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.values[key]
	return v, ok
}

// Keys returns every flushed key in order.
func (r *Recorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.values))
	for k := range r.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Flushes returns how many times Flush was called.
func (r *Recorder) Flushes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushes
}

// Multi fans readings out to several sinks.
type Multi []Sink

// Put puts into every sink.
func (m Multi) Put(key string, value any) {
	for _, s := range m {
		s.Put(key, value)
	}
}

// Flush flushes every sink.
func (m Multi) Flush() {
	for _, s := range m {
		s.Flush()
	}
}
