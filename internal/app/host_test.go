package app

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"desktop-shell/go-backend/internal/domains/contracts"
	"desktop-shell/go-backend/pkg/models"
)

func testInfo() models.ApplicationInfo {
	return models.ApplicationInfo{
		Name:        "Wails Nuxt 4 Template",
		Version:     "1.0.0",
		Description: "A modern desktop application built with Wails and Nuxt 4",
		Framework:   "Nuxt 4",
		Backend:     "Go + Wails v2",
	}
}

func newTestApp(t *testing.T, mutate func(*Options)) *App {
	t.Helper()
	opts := Options{
		Info:   testInfo(),
		Logger: NewLogger(io.Discard, "debug"),
	}
	if mutate != nil {
		mutate(&opts)
	}
	a, err := NewApp(opts)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return a
}

func TestNewAppRejectsIncompleteInfo(t *testing.T) {
	info := testInfo()
	info.Backend = ""
	if _, err := NewApp(Options{Info: info}); err == nil {
		t.Fatal("expected error for empty backend")
	}
}

func TestGreetContainsName(t *testing.T) {
	a := newTestApp(t, nil)
	got, err := a.Greet(context.Background(), "World")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Hello World, It's show time!" {
		t.Fatalf("unexpected greeting: %q", got)
	}
}

func TestGreetAcceptsEmptyNameBeforeStartup(t *testing.T) {
	a := newTestApp(t, nil)
	got, err := a.Greet(context.Background(), "")
	if err != nil {
		t.Fatalf("greet must not depend on readiness: %v", err)
	}
	if !strings.HasPrefix(got, "Hello ") {
		t.Fatalf("unexpected greeting: %q", got)
	}
}

func TestGetApplicationInfoFailsBeforeStartup(t *testing.T) {
	a := newTestApp(t, nil)
	_, err := a.GetApplicationInfo(context.Background())
	if !errors.Is(err, contracts.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if got := a.Status().ErrorCounters[contracts.ErrorCategoryNotReady]; got != 1 {
		t.Fatalf("expected not_ready counter=1, got %d", got)
	}
}

func TestGetApplicationInfoIsIdempotentWhenReady(t *testing.T) {
	a := newTestApp(t, nil)
	a.Startup(context.Background())

	first, err := a.GetApplicationInfo(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := a.GetApplicationInfo(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
	if err := first.Validate(); err != nil {
		t.Fatalf("expected all fields populated: %v", err)
	}
}

func TestGetSystemInfoReportsReadiness(t *testing.T) {
	a := newTestApp(t, func(o *Options) {
		o.Mode = "development"
		o.WebView = "webkit2gtk"
	})

	before, err := a.GetSystemInfo(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if before.Ready {
		t.Fatal("expected ready=false before startup")
	}

	a.Startup(context.Background())
	after, err := a.GetSystemInfo(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !after.Ready {
		t.Fatal("expected ready=true after startup")
	}
	if after.Platform != "desktop" || after.Runtime != "wails" {
		t.Fatalf("unexpected platform/runtime: %q/%q", after.Platform, after.Runtime)
	}
	if after.ModeOrEmpty() != "development" {
		t.Fatalf("expected mode=development, got %q", after.ModeOrEmpty())
	}
	if after.Extensions[models.ExtensionWebView] != "webkit2gtk" {
		t.Fatalf("expected webview extension, got %v", after.Extensions)
	}
	for key := range after.Extensions {
		if !contains(models.KnownExtensions(), key) {
			t.Fatalf("unexpected extension key %q", key)
		}
	}

	a.Shutdown(context.Background())
	if a.Ready() {
		t.Fatal("expected ready=false after shutdown")
	}
}

func TestGetSystemInfoOmitsModeWhenUnset(t *testing.T) {
	a := newTestApp(t, nil)
	info, err := a.GetSystemInfo(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Mode != nil {
		t.Fatalf("expected nil mode, got %q", *info.Mode)
	}
}

func TestBridgeCallsFailOnCanceledContext(t *testing.T) {
	a := newTestApp(t, nil)
	a.Startup(context.Background())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.Greet(ctx, "World"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := a.GetSystemInfo(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := a.Status().ErrorCounters[contracts.ErrorCategoryTransport]; got != 2 {
		t.Fatalf("expected transport counter=2, got %d", got)
	}
}

func TestStatusTracksStartAndBacklog(t *testing.T) {
	a := newTestApp(t, nil)
	if st := a.Status(); st.Ready || !st.StartedAt.IsZero() || st.NotificationBacklog != 0 {
		t.Fatalf("unexpected status before startup: %+v", st)
	}

	a.Startup(context.Background())
	a.DOMReady(context.Background())
	st := a.Status()
	if !st.Ready || st.StartedAt.IsZero() {
		t.Fatalf("expected ready status with start time, got %+v", st)
	}
	if st.NotificationBacklog != 2 {
		t.Fatalf("expected backlog=2, got %d", st.NotificationBacklog)
	}

	a.Shutdown(context.Background())
	if st := a.Status(); st.Ready || !st.StartedAt.IsZero() {
		t.Fatalf("expected cleared status after shutdown, got %+v", st)
	}
}

func TestLifecyclePublishesNotifications(t *testing.T) {
	a := newTestApp(t, func(o *Options) { o.PreventClose = true })

	a.Startup(context.Background())
	a.Startup(context.Background())
	a.DOMReady(context.Background())
	if !a.BeforeClose(context.Background()) {
		t.Fatal("expected BeforeClose to return preventClose=true")
	}
	a.Shutdown(context.Background())

	replay, _, cancel := a.SubscribeNotifications(0)
	defer cancel()

	methods := make([]string, 0, len(replay))
	for _, evt := range replay {
		methods = append(methods, evt.Method)
	}
	want := []string{NotifyReady, NotifyDOMReady, NotifyBeforeClose, NotifyShutdown}
	if !reflect.DeepEqual(methods, want) {
		t.Fatalf("unexpected notifications: got=%v want=%v", methods, want)
	}
}

func TestMetricsCountCalls(t *testing.T) {
	a := newTestApp(t, nil)
	for i := 0; i < 3; i++ {
		if _, err := a.Greet(context.Background(), "x"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	m := a.Metrics()[contracts.CapabilityGreet]
	if m.Count != 3 {
		t.Fatalf("expected count=3, got %d", m.Count)
	}
	if m.Errors != 0 {
		t.Fatalf("expected errors=0, got %d", m.Errors)
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
