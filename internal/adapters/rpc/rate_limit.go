package rpc

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"desktop-shell/go-backend/internal/platform/ratelimiter"
)

const (
	rpcRateLimitEnabledEnv = "SHELL_RPC_RATE_LIMIT_ENABLED"
	rpcRateLimitRPSEnv     = "SHELL_RPC_RATE_LIMIT_RPS"
	rpcRateLimitBurstEnv   = "SHELL_RPC_RATE_LIMIT_BURST"
)

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

func loadRPCRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled: true,
		RPS:     30,
		Burst:   60,
	}
	if env, ok := parseBoolEnv(rpcRateLimitEnabledEnv); ok {
		cfg.Enabled = env
	} else if strings.EqualFold(strings.TrimSpace(os.Getenv("SHELL_ENV")), "test") {
		cfg.Enabled = false
	}
	if raw := strings.TrimSpace(os.Getenv(rpcRateLimitRPSEnv)); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 {
			cfg.RPS = parsed
		}
	}
	if raw := strings.TrimSpace(os.Getenv(rpcRateLimitBurstEnv)); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			cfg.Burst = parsed
		}
	}
	return cfg
}

func newRPCRateLimiter(cfg RateLimitConfig) *ratelimiter.MapLimiter {
	if !cfg.Enabled {
		return nil
	}
	return ratelimiter.New(cfg.RPS, cfg.Burst, 10*time.Minute)
}

func rpcRateLimitKey(r *http.Request, token string) string {
	if strings.TrimSpace(token) != "" {
		return "token:" + token
	}
	remote := strings.TrimSpace(r.RemoteAddr)
	if remote == "" {
		return "ip:unknown"
	}
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		return "ip:" + remote
	}
	if strings.TrimSpace(host) == "" {
		return "ip:unknown"
	}
	return "ip:" + host
}
