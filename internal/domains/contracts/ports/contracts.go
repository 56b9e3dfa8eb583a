package ports

import (
	"context"
	"time"

	"desktop-shell/go-backend/pkg/models"
)

// BridgeAPI is the capability set a front-end may invoke on the host.
// Every namespace the host exposes binds to exactly one BridgeAPI value.
type BridgeAPI interface {
	Greet(ctx context.Context, name string) (string, error)
	GetApplicationInfo(ctx context.Context) (models.ApplicationInfo, error)
	GetSystemInfo(ctx context.Context) (models.SystemInfo, error)
}

// LifecycleAPI is driven by the desktop shell, never by the front-end.
type LifecycleAPI interface {
	Startup(ctx context.Context)
	DOMReady(ctx context.Context)
	// BeforeClose returns true to keep the window open.
	BeforeClose(ctx context.Context) bool
	Shutdown(ctx context.Context)
}

type HostService interface {
	BridgeAPI
	LifecycleAPI
	Ready() bool
	SubscribeNotifications(cursor int64) ([]NotificationEvent, <-chan NotificationEvent, func())
	Metrics() map[string]OpMetric
	Status() HostStatus
}

// HostStatus is a point-in-time snapshot for health and metrics endpoints.
type HostStatus struct {
	Ready               bool
	StartedAt           time.Time
	ErrorCounters       map[string]int
	NotificationBacklog int
}

type NotificationEvent struct {
	Seq       int64
	Method    string
	Payload   any
	Timestamp time.Time
}

type OpMetric struct {
	Count   int
	Errors  int
	TotalNs int64
	MaxNs   int64
	LastNs  int64
}

type CategorizedError struct {
	Category string
	Err      error
}

func (e *CategorizedError) Error() string {
	return e.Err.Error()
}

func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// BridgeError carries the failing capability alongside one of the bridge sentinels.
type BridgeError struct {
	Kind   error
	Method string
	Err    error
}

func (e *BridgeError) Error() string {
	if e == nil {
		return "bridge error"
	}
	switch {
	case e.Method != "" && e.Err != nil:
		return e.Method + ": " + e.Kind.Error() + ": " + e.Err.Error()
	case e.Method != "":
		return e.Method + ": " + e.Kind.Error()
	case e.Err != nil:
		return e.Kind.Error() + ": " + e.Err.Error()
	default:
		return e.Kind.Error()
	}
}

func (e *BridgeError) Is(target error) bool {
	return e != nil && e.Kind == target
}

func (e *BridgeError) Unwrap() error {
	return e.Err
}
