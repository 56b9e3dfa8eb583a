package hostconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func boolPtr(v bool) *bool {
	return &v
}

func TestMergeOverridesOnlyProvidedFields(t *testing.T) {
	dst := DefaultConfig()
	src := HostFileConfig{
		App:  AppFileConfig{Version: "2.3.4"},
		Host: HostSection{Mode: "development"},
		RPC:  RPCFileConfig{RateLimitBurst: 12},
	}

	Merge(&dst, src)

	if dst.App.Version != "2.3.4" {
		t.Fatalf("expected version=2.3.4, got %q", dst.App.Version)
	}
	if dst.App.Name != "Wails Nuxt 4 Template" {
		t.Fatalf("unset name must keep default, got %q", dst.App.Name)
	}
	if dst.Mode != "development" {
		t.Fatalf("expected mode=development, got %q", dst.Mode)
	}
	if dst.RateLimitBurst != 12 {
		t.Fatalf("expected rateLimitBurst=12, got %d", dst.RateLimitBurst)
	}
	if dst.RateLimitEnabled != nil {
		t.Fatal("unset rateLimitEnabled must stay nil")
	}
}

func TestMergeAppliesExplicitBoolFalse(t *testing.T) {
	dst := DefaultConfig()
	dst.PreventClose = true

	Merge(&dst, HostFileConfig{
		Host: HostSection{PreventClose: boolPtr(false)},
		RPC:  RPCFileConfig{RateLimitEnabled: boolPtr(false)},
	})

	if dst.PreventClose {
		t.Fatal("expected preventClose=false from explicit config")
	}
	if dst.RateLimitEnabled == nil || *dst.RateLimitEnabled {
		t.Fatal("expected rateLimitEnabled=false from explicit config")
	}
}

func TestLoadFromPathReadsYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
app:
  name: Shell
  framework: Nuxt 4
host:
  mode: production
  preventClose: true
rpc:
  addr: 127.0.0.1:9999
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := LoadFromPath(path)

	if cfg.App.Name != "Shell" {
		t.Fatalf("expected name=Shell, got %q", cfg.App.Name)
	}
	if cfg.App.Backend != "Go + Wails v2" {
		t.Fatalf("expected default backend, got %q", cfg.App.Backend)
	}
	if cfg.Mode != "production" || !cfg.PreventClose {
		t.Fatalf("unexpected host section: mode=%q preventClose=%v", cfg.Mode, cfg.PreventClose)
	}
	if cfg.RPCAddr != "127.0.0.1:9999" {
		t.Fatalf("expected rpc addr override, got %q", cfg.RPCAddr)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log level debug, got %q", cfg.LogLevel)
	}
}

func TestLoadFromPathFallsBackToDefaultsOnInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("app: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := LoadFromPath(path)
	if cfg.App != DefaultConfig().App {
		t.Fatalf("expected default app info, got %+v", cfg.App)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SHELL_MODE", "development")
	t.Setenv("SHELL_RPC_ADDR", "127.0.0.1:7000")
	t.Setenv("SHELL_PREVENT_CLOSE", "true")

	cfg := DefaultConfig()
	ApplyEnvOverrides(&cfg)

	if cfg.Mode != "development" {
		t.Fatalf("expected mode from env, got %q", cfg.Mode)
	}
	if cfg.RPCAddr != "127.0.0.1:7000" {
		t.Fatalf("expected rpc addr from env, got %q", cfg.RPCAddr)
	}
	if !cfg.PreventClose {
		t.Fatal("expected preventClose=true from env")
	}
}

func TestApplyEnvOverridesIgnoresInvalidBool(t *testing.T) {
	t.Setenv("SHELL_PREVENT_CLOSE", "invalid")
	cfg := DefaultConfig()
	ApplyEnvOverrides(&cfg)
	if cfg.PreventClose {
		t.Fatal("invalid env value must not change preventClose")
	}
}
