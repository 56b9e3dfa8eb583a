package app

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"desktop-shell/go-backend/internal/domains/contracts"
	"desktop-shell/go-backend/pkg/models"
)

const hostComponentName = "bridgehost"

const (
	NotifyReady       = "bridge.ready"
	NotifyDOMReady    = "bridge.dom_ready"
	NotifyBeforeClose = "bridge.before_close"
	NotifyShutdown    = "bridge.shutdown"
)

type Options struct {
	Info         models.ApplicationInfo
	Platform     string
	Runtime      string
	Mode         string
	WebView      string
	PreventClose bool
	Logger       *slog.Logger
}

// App is the single canonical implementation behind every bridge namespace.
type App struct {
	info         models.ApplicationInfo
	platform     string
	runtimeName  string
	mode         string
	webView      string
	preventClose bool

	runtime       *HostRuntime
	notifications *NotificationHub
	metrics       *ServiceMetricsState
	logger        *slog.Logger
}

var _ contracts.HostService = (*App)(nil)

func NewApp(opts Options) (*App, error) {
	if err := opts.Info.Validate(); err != nil {
		return nil, err
	}
	platform := strings.TrimSpace(opts.Platform)
	if platform == "" {
		platform = "desktop"
	}
	runtimeName := strings.TrimSpace(opts.Runtime)
	if runtimeName == "" {
		runtimeName = "wails"
	}
	logger := opts.Logger
	if logger == nil {
		logger = DefaultLogger()
	}
	return &App{
		info:          opts.Info,
		platform:      platform,
		runtimeName:   runtimeName,
		mode:          strings.TrimSpace(opts.Mode),
		webView:       strings.TrimSpace(opts.WebView),
		preventClose:  opts.PreventClose,
		runtime:       NewHostRuntime(),
		notifications: NewNotificationHub(64),
		metrics:       NewServiceMetricsState(),
		logger:        logger,
	}, nil
}

// Startup is called by the shell once the native runtime is up.
func (a *App) Startup(context.Context) {
	if !a.runtime.TryActivate() {
		return
	}
	a.notifications.Publish(NotifyReady, map[string]any{"ready": true})
	a.logInfo("startup", "host ready")
}

// DOMReady is called after the front-end resources have been loaded.
func (a *App) DOMReady(context.Context) {
	a.notifications.Publish(NotifyDOMReady, map[string]any{"ready": a.runtime.IsReady()})
	a.logInfo("dom_ready", "front-end loaded")
}

// BeforeClose is called when the window is about to close. Returning true keeps it open.
func (a *App) BeforeClose(context.Context) bool {
	a.notifications.Publish(NotifyBeforeClose, map[string]any{"prevent": a.preventClose})
	a.logInfo("before_close", "close requested", "prevent", a.preventClose)
	return a.preventClose
}

// Shutdown is called at application termination.
func (a *App) Shutdown(context.Context) {
	if !a.runtime.Deactivate() {
		return
	}
	a.notifications.Publish(NotifyShutdown, map[string]any{"ready": false})
	a.logInfo("shutdown", "host stopped")
}

func (a *App) Ready() bool {
	return a.runtime.IsReady()
}

func (a *App) Greet(ctx context.Context, name string) (string, error) {
	started := time.Now()
	defer a.metrics.RecordOp(contracts.CapabilityGreet, started)
	if err := ctx.Err(); err != nil {
		return "", a.callAborted(contracts.CapabilityGreet, err)
	}
	a.logger.Debug("greet", "component", hostComponentName, "operation", contracts.CapabilityGreet, "greet_name", name)
	return fmt.Sprintf("Hello %s, It's show time!", name), nil
}

func (a *App) GetApplicationInfo(ctx context.Context) (models.ApplicationInfo, error) {
	started := time.Now()
	defer a.metrics.RecordOp(contracts.CapabilityGetAppInfo, started)
	if err := ctx.Err(); err != nil {
		return models.ApplicationInfo{}, a.callAborted(contracts.CapabilityGetAppInfo, err)
	}
	if !a.runtime.IsReady() {
		err := contracts.NewBridgeError(contracts.ErrNotReady, contracts.CapabilityGetAppInfo, nil)
		a.recordError(contracts.CapabilityGetAppInfo, err)
		return models.ApplicationInfo{}, err
	}
	return a.info, nil
}

func (a *App) GetSystemInfo(ctx context.Context) (models.SystemInfo, error) {
	started := time.Now()
	defer a.metrics.RecordOp(contracts.CapabilityGetSystemInfo, started)
	if err := ctx.Err(); err != nil {
		return models.SystemInfo{}, a.callAborted(contracts.CapabilityGetSystemInfo, err)
	}
	info := models.SystemInfo{
		Platform: a.platform,
		Runtime:  a.runtimeName,
		Ready:    a.runtime.IsReady(),
	}
	if a.mode != "" {
		info.Mode = models.StringPtr(a.mode)
	}
	extensions := [][2]string{
		{models.ExtensionOS, runtime.GOOS},
		{models.ExtensionArch, runtime.GOARCH},
		{models.ExtensionGoVersion, runtime.Version()},
	}
	if a.webView != "" {
		extensions = append(extensions, [2]string{models.ExtensionWebView, a.webView})
	}
	for _, ext := range extensions {
		next, err := info.WithExtension(ext[0], ext[1])
		if err != nil {
			a.recordError(contracts.CapabilityGetSystemInfo, err)
			return models.SystemInfo{}, err
		}
		info = next
	}
	return info, nil
}

func (a *App) SubscribeNotifications(cursor int64) ([]NotificationEvent, <-chan NotificationEvent, func()) {
	return a.notifications.Subscribe(cursor)
}

func (a *App) Metrics() map[string]OpMetric {
	_, ops, _ := a.metrics.Snapshot()
	return ops
}

func (a *App) Status() contracts.HostStatus {
	ready, startedAt := a.runtime.Snapshot()
	counters, _, _ := a.metrics.Snapshot()
	return contracts.HostStatus{
		Ready:               ready,
		StartedAt:           startedAt,
		ErrorCounters:       counters,
		NotificationBacklog: a.notifications.BacklogSize(),
	}
}

func (a *App) logInfo(operation, message string, attrs ...any) {
	base := []any{
		"component", hostComponentName,
		"operation", operation,
	}
	a.logger.Info(message, append(base, attrs...)...)
}

// callAborted records a call whose context ended before the host answered.
func (a *App) callAborted(operation string, err error) error {
	err = contracts.WrapCategorizedError(contracts.ErrorCategoryTransport, err)
	a.recordError(operation, err)
	return err
}

func (a *App) recordError(operation string, err error) {
	category := contracts.ErrorCategory(err)
	a.metrics.RecordError(category)
	a.metrics.RecordOpError(operation)
	a.logger.Warn("bridge call failed",
		"component", hostComponentName,
		"operation", operation,
		"category", category,
		"error", err.Error(),
	)
}
