package rpc

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"desktop-shell/go-backend/internal/domains/contracts"
	"desktop-shell/go-backend/internal/platform/ratelimiter"

	"github.com/mr-tron/base58"
)

const DefaultRPCAddr = "127.0.0.1:8787"

const (
	rpcTokenHeader     = "X-Shell-RPC-Token"
	rpcRequestIDHeader = "X-Shell-Request-ID"
)

type Options struct {
	RateLimit RateLimitConfig
	Streams   StreamLimitConfig
}

// DefaultOptions reads limits from the environment.
func DefaultOptions() Options {
	return Options{
		RateLimit: loadRPCRateLimitConfig(),
		Streams:   loadRPCStreamLimitConfig(),
	}
}

type Server struct {
	httpServer *http.Server
	service    contracts.HostService
	bindings   map[string]contracts.BridgeAPI
	initErr    error
	rpcToken   string
	requireRPC bool
	rpcLimiter *ratelimiter.MapLimiter
	streams    *rpcStreamLimiter
	metrics    *rpcMetrics

	mu        sync.Mutex
	boundAddr string

	streamsDone     chan struct{}
	closeStreamOnce sync.Once
}

func NewServerWithService(rpcAddr string, svc contracts.HostService, opts Options) *Server {
	requireRPC := requiresRPCToken()
	rpcToken, err := resolveRPCToken()
	if err != nil {
		return &Server{initErr: err}
	}
	if requireRPC && rpcToken == "" {
		return &Server{
			initErr: errors.New("SHELL_RPC_TOKEN is required unless SHELL_REQUIRE_RPC_TOKEN=false or SHELL_ENV is test/development/local"),
		}
	}
	return newServerWithOptions(rpcAddr, svc, rpcToken, requireRPC, opts)
}

func newServerWithService(rpcAddr string, svc contracts.HostService, rpcToken string, requireRPC bool) *Server {
	return newServerWithOptions(rpcAddr, svc, rpcToken, requireRPC, Options{
		RateLimit: RateLimitConfig{Enabled: false},
		Streams:   loadRPCStreamLimitConfig(),
	})
}

func newServerWithOptions(rpcAddr string, svc contracts.HostService, rpcToken string, requireRPC bool, opts Options) *Server {
	if rpcAddr == "" {
		rpcAddr = DefaultRPCAddr
	}

	mux := http.NewServeMux()
	s := &Server{
		httpServer: &http.Server{
			Addr:              rpcAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		service:    svc,
		bindings:   bindNamespaces(svc),
		rpcToken:   rpcToken,
		requireRPC: requireRPC,
		rpcLimiter: newRPCRateLimiter(opts.RateLimit),
		streams:    newRPCStreamLimiter(opts.Streams),
		metrics:    newRPCMetrics(svc),

		streamsDone: make(chan struct{}),
	}
	// Shutdown waits for idle connections; open streams never go idle on their own.
	s.httpServer.RegisterOnShutdown(s.closeStreams)
	if s.rpcToken == "" && !s.requireRPC {
		slog.Default().Warn("SHELL_RPC_TOKEN is not set; RPC auth disabled")
	}
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/rpc", s.handleRPC)
	mux.HandleFunc("/rpc/stream", s.handleRPCStream)
	mux.Handle("/metrics", s.metrics.handler())
	return s
}

// Run binds the listener, starts the host, and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if s.initErr != nil {
		return s.initErr
	}
	select {
	case <-ctx.Done():
		return nil
	default:
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.boundAddr = ln.Addr().String()
	s.mu.Unlock()

	if s.service != nil {
		s.service.Startup(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		err := s.httpServer.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
			return
		}
		errCh <- err
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.stopService(shutdownCtx)
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.stopService(shutdownCtx)
		return err
	}
}

func (s *Server) closeStreams() {
	s.closeStreamOnce.Do(func() {
		close(s.streamsDone)
	})
}

func (s *Server) stopService(ctx context.Context) {
	if s.service == nil {
		return
	}
	s.service.Shutdown(ctx)
}

// Addr returns the bound listen address once Run has started listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.boundAddr != "" {
		return s.boundAddr
	}
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.Addr
}

// Handler exposes the routed mux for embedding in another server.
func (s *Server) Handler() http.Handler {
	if s.httpServer == nil {
		return http.NotFoundHandler()
	}
	return s.httpServer.Handler
}

// InitErr reports a configuration failure detected at construction.
func (s *Server) InitErr() error {
	return s.initErr
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.handleHealth(w, r)
}

func (s *Server) HandleRPC(w http.ResponseWriter, r *http.Request) {
	s.handleRPC(w, r)
}

func (s *Server) HandleRPCStream(w http.ResponseWriter, r *http.Request) {
	s.handleRPCStream(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.applyCORS(w, r) {
		return
	}
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body := map[string]any{"status": "ok", "ready": false}
	if s.service != nil {
		status := s.service.Status()
		body["ready"] = status.Ready
		if !status.StartedAt.IsZero() {
			body["started_at"] = status.StartedAt.Format(time.RFC3339Nano)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) handleRPCStream(w http.ResponseWriter, r *http.Request) {
	if !s.applyCORS(w, r) {
		return
	}
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if !s.authorizeRPC(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.service == nil {
		http.Error(w, "service is not initialized", http.StatusServiceUnavailable)
		return
	}
	clientKey := rpcRateLimitKey(r, s.extractRPCToken(r))
	release, allowed := s.streams.acquire(clientKey)
	if !allowed {
		http.Error(w, "too many stream subscriptions", http.StatusTooManyRequests)
		return
	}
	defer release()
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming is not supported", http.StatusInternalServerError)
		return
	}

	cursor := int64(0)
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			http.Error(w, "invalid cursor", http.StatusBadRequest)
			return
		}
		cursor = v
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.metrics.streamOpened()
	defer s.metrics.streamClosed()

	replay, ch, cancel := s.service.SubscribeNotifications(cursor)
	defer cancel()

	for _, evt := range replay {
		if err := writeSSEEvent(w, evt); err != nil {
			return
		}
		flusher.Flush()
	}
	flusher.Flush()

	heartbeat := time.NewTicker(20 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.streamsDone:
			drainSSEEvents(w, ch)
			flusher.Flush()
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := writeSSEEvent(w, evt); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			_, _ = fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

// drainSSEEvents writes events already queued for the subscriber, such as
// the shutdown notification published just before the server stops.
func drainSSEEvents(w http.ResponseWriter, ch <-chan contracts.NotificationEvent) {
	for {
		select {
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := writeSSEEvent(w, evt); err != nil {
				return
			}
		default:
			return
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, evt contracts.NotificationEvent) error {
	notification := map[string]any{
		"jsonrpc": "2.0",
		"method":  evt.Method,
		"params": map[string]any{
			"version":   rpcNotificationVersion,
			"seq":       evt.Seq,
			"timestamp": evt.Timestamp,
			"payload":   evt.Payload,
		},
	}
	data, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "id: %d\n", evt.Seq); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", string(data)); err != nil {
		return err
	}
	return nil
}

func (s *Server) applyCORS(w http.ResponseWriter, r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin != "" && !isAllowedOrigin(origin) {
		slog.Default().Warn("rpc origin rejected", "origin", origin)
		http.Error(w, "origin is not allowed", http.StatusForbidden)
		return false
	}
	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
	}
	w.Header().Set("Vary", "Origin")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization, "+rpcTokenHeader+", "+rpcRequestIDHeader)
	w.Header().Set("Access-Control-Expose-Headers", rpcRequestIDHeader)
	return true
}

func (s *Server) authorizeRPC(w http.ResponseWriter, r *http.Request) bool {
	if s.rpcToken == "" && !s.requireRPC {
		return true
	}
	token := s.extractRPCToken(r)
	if token != s.rpcToken {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

func (s *Server) extractRPCToken(r *http.Request) string {
	token := strings.TrimSpace(r.Header.Get(rpcTokenHeader))
	if token != "" {
		return token
	}
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[len("bearer "):])
	}
	return ""
}

func requiresRPCToken() bool {
	if v, ok := parseBoolEnv("SHELL_REQUIRE_RPC_TOKEN"); ok {
		if !v && !isNonProdEnv() {
			// Fail-closed in production-like environments.
			return true
		}
		return v
	}
	if isNonProdEnv() {
		return false
	}
	return true
}

func isNonProdEnv() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("SHELL_ENV"))) {
	case "test", "testing", "dev", "development", "local":
		return true
	default:
		return false
	}
}

// isAllowedOrigin admits loopback dev servers and the shell's own webview scheme.
func isAllowedOrigin(raw string) bool {
	if raw == "null" {
		allowNull, _ := parseBoolEnv("SHELL_ALLOW_NULL_ORIGIN")
		return allowNull
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.TrimSpace(u.Hostname())
	if host == "" {
		return false
	}
	if u.Scheme == "wails" && host == "wails" {
		return true
	}
	switch host {
	case "localhost", "127.0.0.1", "::1", "wails.localhost":
		return true
	default:
		return false
	}
}

func parseBoolEnv(name string) (bool, bool) {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	switch v {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

func resolveRPCToken() (string, error) {
	token := strings.TrimSpace(os.Getenv("SHELL_RPC_TOKEN"))
	rotate := strings.EqualFold(token, "auto")
	if !rotate {
		if v, ok := parseBoolEnv("SHELL_RPC_TOKEN_ROTATE_ON_START"); ok && v {
			rotate = true
		}
	}
	if rotate {
		generated, err := generateRPCToken()
		if err != nil {
			return "", err
		}
		token = generated
		_ = os.Setenv("SHELL_RPC_TOKEN", token)
		if err := persistRPCToken(token); err != nil {
			return "", err
		}
	}
	return token, nil
}

func generateRPCToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "rpc_" + base58.Encode(buf), nil
}

func persistRPCToken(token string) error {
	pathValue := strings.TrimSpace(os.Getenv("SHELL_RPC_TOKEN_FILE"))
	if pathValue == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(pathValue), 0o700); err != nil {
		return err
	}
	return os.WriteFile(pathValue, []byte(token), 0o600)
}
