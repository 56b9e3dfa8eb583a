// Package privacylog wraps a slog.Handler so bridge logs never carry
// credentials, greeting text or client addresses in plain form.
package privacylog

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"unicode"
)

const (
	redactedValue = "[REDACTED]"

	// Caller-controlled identifiers are clipped to this many runes.
	maxCallerValueLen = 64
)

type policy int

const (
	policyKeep policy = iota
	policyRedact
	policyFingerprint
	policyClientKey
	policyOrigin
	policyCallerValue
)

var (
	bootNonce = randomNonce()

	keyPolicies = map[string]policy{
		"greet_name":  policyFingerprint,
		"remote_addr": policyFingerprint,
		"client_key":  policyClientKey,
		"origin":      policyOrigin,
		"request_id":  policyCallerValue,
		"rpc_id":      policyCallerValue,
		"method":      policyCallerValue,
	}
	sensitiveKeyParts = []string{"token", "secret", "authorization", "cookie"}
)

type SanitizingHandler struct {
	next slog.Handler
}

func WrapHandler(next slog.Handler) slog.Handler {
	if next == nil {
		return nil
	}
	return &SanitizingHandler{next: next}
}

func (h *SanitizingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *SanitizingHandler) Handle(ctx context.Context, rec slog.Record) error {
	out := slog.NewRecord(rec.Time, rec.Level, rec.Message, rec.PC)
	rec.Attrs(func(attr slog.Attr) bool {
		out.AddAttrs(SanitizeAttr(attr))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *SanitizingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SanitizingHandler{next: h.next.WithAttrs(sanitizeAttrs(attrs))}
}

func (h *SanitizingHandler) WithGroup(name string) slog.Handler {
	return &SanitizingHandler{next: h.next.WithGroup(name)}
}

func SanitizeAttr(attr slog.Attr) slog.Attr {
	key := strings.TrimSpace(attr.Key)
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		return slog.Attr{Key: key, Value: slog.GroupValue(sanitizeAttrs(value.Group())...)}
	}
	switch policyFor(key) {
	case policyRedact:
		return slog.String(key, redactedValue)
	case policyFingerprint:
		return slog.String(key+"_fp", FingerprintID(value.String()))
	case policyClientKey:
		return slog.String(key, sanitizeClientKey(value.String()))
	case policyOrigin:
		return slog.String(key, sanitizeOrigin(value.String()))
	case policyCallerValue:
		return slog.String(key, clipCallerValue(value.String()))
	default:
		return slog.Attr{Key: key, Value: value}
	}
}

// FingerprintID is stable within one process and unlinkable across restarts.
func FingerprintID(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(trimmed + "|" + bootNonce))
	return "fp_" + hex.EncodeToString(sum[:8])
}

func policyFor(key string) policy {
	lower := strings.ToLower(key)
	for _, part := range sensitiveKeyParts {
		if strings.Contains(lower, part) {
			return policyRedact
		}
	}
	return keyPolicies[lower]
}

func sanitizeAttrs(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, SanitizeAttr(attr))
	}
	return out
}

// sanitizeClientKey keeps the limiter key kind ("token:" or "ip:") and
// fingerprints the rest.
func sanitizeClientKey(raw string) string {
	kind, rest, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return FingerprintID(raw)
	}
	return kind + ":" + FingerprintID(rest)
}

// sanitizeOrigin reduces an origin to scheme://host. Loopback hosts stay
// readable since they identify the dev server, anything else is fingerprinted.
func sanitizeOrigin(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "null" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return FingerprintID(raw)
	}
	host := u.Hostname()
	if host == "localhost" || host == "wails" || host == "wails.localhost" {
		return u.Scheme + "://" + u.Host
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return u.Scheme + "://" + u.Host
	}
	return u.Scheme + "://" + FingerprintID(host)
}

// clipCallerValue strips control characters and bounds the length of
// values copied from request headers or bodies.
func clipCallerValue(raw string) string {
	var b strings.Builder
	n := 0
	for _, r := range raw {
		if unicode.IsControl(r) {
			continue
		}
		if n == maxCallerValueLen {
			b.WriteString("...")
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}

func randomNonce() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "fallback_nonce"
	}
	return hex.EncodeToString(buf)
}
