package app

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"desktop-shell/go-backend/internal/domains/contracts"
	"desktop-shell/go-backend/internal/platform/privacylog"
)

type NotificationEvent = contracts.NotificationEvent
type OpMetric = contracts.OpMetric

func nowUTC() time.Time {
	return time.Now().UTC()
}

type NotificationHub struct {
	mu      sync.Mutex
	nextSeq int64
	limit   int
	history []NotificationEvent
	subs    map[int]chan NotificationEvent
	nextSub int
}

func NewNotificationHub(limit int) *NotificationHub {
	if limit < 1 {
		limit = 1
	}
	return &NotificationHub{
		limit: limit,
		subs:  make(map[int]chan NotificationEvent),
	}
}

func (h *NotificationHub) Publish(method string, payload any) NotificationEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextSeq++
	event := NotificationEvent{
		Seq:       h.nextSeq,
		Method:    method,
		Payload:   payload,
		Timestamp: nowUTC(),
	}
	h.history = append(h.history, event)
	if len(h.history) > h.limit {
		h.history = append([]NotificationEvent(nil), h.history[len(h.history)-h.limit:]...)
	}

	// Slow subscribers are dropped rather than blocking the lifecycle hooks.
	for id, ch := range h.subs {
		select {
		case ch <- event:
		default:
			close(ch)
			delete(h.subs, id)
		}
	}

	return event
}

func (h *NotificationHub) Subscribe(fromSeq int64) ([]NotificationEvent, <-chan NotificationEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	replay := make([]NotificationEvent, 0)
	for _, event := range h.history {
		if event.Seq > fromSeq {
			replay = append(replay, event)
		}
	}

	id := h.nextSub
	h.nextSub++
	ch := make(chan NotificationEvent, 128)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			close(sub)
			delete(h.subs, id)
		}
	}
	return replay, ch, cancel
}

func (h *NotificationHub) BacklogSize() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.history)
}

// HostRuntime tracks whether the shell has finished starting the host.
type HostRuntime struct {
	mu        sync.RWMutex
	ready     bool
	startedAt time.Time
}

func NewHostRuntime() *HostRuntime {
	return &HostRuntime{}
}

func (r *HostRuntime) IsReady() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ready
}

func (r *HostRuntime) TryActivate() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ready {
		return false
	}
	r.ready = true
	r.startedAt = nowUTC()
	return true
}

func (r *HostRuntime) Deactivate() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.ready {
		return false
	}
	r.ready = false
	r.startedAt = time.Time{}
	return true
}

// Snapshot returns readiness and the activation time, zero when not ready.
func (r *HostRuntime) Snapshot() (bool, time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ready, r.startedAt
}

func ParseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func NewLogger(w io.Writer, level string) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	base := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLogLevel(level)})
	return slog.New(privacylog.WrapHandler(base))
}

func DefaultLogger() *slog.Logger {
	return NewLogger(os.Stdout, "info")
}

type ServiceMetricsState struct {
	mu            sync.RWMutex
	errorCounters map[string]int
	opMetrics     map[string]*OpMetric
	lastUpdatedAt time.Time
}

func NewServiceMetricsState() *ServiceMetricsState {
	return &ServiceMetricsState{
		errorCounters: map[string]int{
			contracts.ErrorCategoryAPI:         0,
			contracts.ErrorCategoryUnavailable: 0,
			contracts.ErrorCategoryNotReady:    0,
			contracts.ErrorCategoryTransport:   0,
		},
		opMetrics: map[string]*OpMetric{},
	}
}

func (m *ServiceMetricsState) Snapshot() (map[string]int, map[string]OpMetric, time.Time) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counters := make(map[string]int, len(m.errorCounters))
	for k, v := range m.errorCounters {
		counters[k] = v
	}
	ops := make(map[string]OpMetric, len(m.opMetrics))
	for name, metric := range m.opMetrics {
		ops[name] = *metric
	}
	return counters, ops, m.lastUpdatedAt
}

func (m *ServiceMetricsState) RecordError(category string) {
	m.mu.Lock()
	m.errorCounters[category] = m.errorCounters[category] + 1
	m.lastUpdatedAt = nowUTC()
	m.mu.Unlock()
}

func (m *ServiceMetricsState) RecordOp(operation string, started time.Time) {
	latency := time.Since(started).Nanoseconds()
	m.mu.Lock()
	defer m.mu.Unlock()
	metric, ok := m.opMetrics[operation]
	if !ok {
		metric = &OpMetric{}
		m.opMetrics[operation] = metric
	}
	metric.Count++
	metric.TotalNs += latency
	metric.LastNs = latency
	if latency > metric.MaxNs {
		metric.MaxNs = latency
	}
	m.lastUpdatedAt = nowUTC()
}

func (m *ServiceMetricsState) RecordOpError(operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	metric, ok := m.opMetrics[operation]
	if !ok {
		metric = &OpMetric{}
		m.opMetrics[operation] = metric
	}
	metric.Errors++
	m.lastUpdatedAt = nowUTC()
}
