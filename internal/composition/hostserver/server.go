// Package hostserver wires configuration, logging, the bridge host and the
// RPC transport into one runnable server.
package hostserver

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"desktop-shell/go-backend/internal/adapters/rpc"
	"desktop-shell/go-backend/internal/app"
	"desktop-shell/go-backend/internal/bootstrap/hostconfig"
)

// NewRPCServer builds the host from cfg and binds both namespaces to it.
// The logger also becomes slog's default so the transport logs through it.
func NewRPCServer(cfg hostconfig.Config, logOut io.Writer) (*rpc.Server, *app.App, error) {
	if logOut == nil {
		logOut = os.Stderr
	}
	logger := app.NewLogger(logOut, cfg.LogLevel)
	slog.SetDefault(logger)

	host, err := app.NewApp(app.Options{
		Info:         cfg.App,
		Platform:     cfg.Platform,
		Runtime:      cfg.Runtime,
		Mode:         cfg.Mode,
		WebView:      cfg.WebView,
		PreventClose: cfg.PreventClose,
		Logger:       logger,
	})
	if err != nil {
		return nil, nil, err
	}
	srv := rpc.NewServerWithService(cfg.RPCAddr, host, RPCOptions(cfg))
	if err := srv.InitErr(); err != nil {
		return nil, nil, err
	}
	return srv, host, nil
}

// RPCOptions layers cfg over the built-in limits. Environment variables keep
// precedence over file values.
func RPCOptions(cfg hostconfig.Config) rpc.Options {
	opts := rpc.DefaultOptions()
	if cfg.RateLimitEnabled != nil && envUnset("SHELL_RPC_RATE_LIMIT_ENABLED") {
		opts.RateLimit.Enabled = *cfg.RateLimitEnabled
	}
	if cfg.RateLimitRPS > 0 && envUnset("SHELL_RPC_RATE_LIMIT_RPS") {
		opts.RateLimit.RPS = cfg.RateLimitRPS
	}
	if cfg.RateLimitBurst > 0 && envUnset("SHELL_RPC_RATE_LIMIT_BURST") {
		opts.RateLimit.Burst = cfg.RateLimitBurst
	}
	if cfg.StreamMaxGlobal > 0 && envUnset("SHELL_RPC_STREAM_MAX_GLOBAL") {
		opts.Streams.MaxGlobal = cfg.StreamMaxGlobal
	}
	if cfg.StreamPerClient > 0 && envUnset("SHELL_RPC_STREAM_MAX_PER_CLIENT") {
		opts.Streams.MaxPerClient = cfg.StreamPerClient
	}
	return opts
}

func envUnset(key string) bool {
	return strings.TrimSpace(os.Getenv(key)) == ""
}
