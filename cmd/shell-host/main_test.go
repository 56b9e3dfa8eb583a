package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"desktop-shell/go-backend/internal/bootstrap/hostconfig"
	"desktop-shell/go-backend/internal/composition/hostserver"
	"desktop-shell/go-backend/internal/domains/contracts"

	"github.com/pterm/pterm"
)

func startHost(t *testing.T, ready bool) string {
	t.Helper()
	t.Setenv("SHELL_ENV", "test")
	t.Setenv("SHELL_RPC_TOKEN", "")
	srv, host, err := hostserver.NewRPCServer(hostconfig.DefaultConfig(), io.Discard)
	if err != nil {
		t.Fatalf("new rpc server: %v", err)
	}
	if ready {
		host.Startup(context.Background())
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	if err := root.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out.String(), "shell-host version=dev") {
		t.Fatalf("unexpected version output: %q", out.String())
	}
}

func TestRootRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "probe", "doctor", "version"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Fatalf("expected subcommand %s, got %v err=%v", name, cmd, err)
		}
	}
}

func TestProbePrintsEveryCapability(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()
	addr := startHost(t, true)

	var out bytes.Buffer
	err := runProbe(context.Background(), &out, probeFlags{
		rpcAddr:   addr,
		namespace: contracts.NamespaceRuntime,
		name:      "World",
		timeout:   time.Second,
	})
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	for _, want := range []string{"Hello World", "wails", "Wails Nuxt 4 Template", "go_version"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected %q in probe output:\n%s", want, out.String())
		}
	}
}

func TestProbeWarnsWhenHostNotReady(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()
	addr := startHost(t, false)

	var out bytes.Buffer
	err := runProbe(context.Background(), &out, probeFlags{rpcAddr: addr, namespace: contracts.NamespaceFramework, name: "x"})
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if !strings.Contains(out.String(), "not ready") {
		t.Fatalf("expected not ready warning:\n%s", out.String())
	}
}

func TestProbeZeroTimeoutMeansNoDeadline(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()
	addr := startHost(t, true)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"probe", "--rpc-addr", addr, "--timeout", "0"})
	if err := root.Execute(); err != nil {
		t.Fatalf("probe with --timeout 0: %v", err)
	}
	if !strings.Contains(out.String(), "Hello World") {
		t.Fatalf("expected greeting in probe output:\n%s", out.String())
	}

	ctx, cancel := commandContext(context.Background(), 0)
	defer cancel()
	if _, ok := ctx.Deadline(); ok {
		t.Fatal("expected no deadline for a zero timeout")
	}
	ctx, cancel = commandContext(context.Background(), time.Second)
	defer cancel()
	if _, ok := ctx.Deadline(); !ok {
		t.Fatal("expected a deadline for a positive timeout")
	}
}

func TestProbeFailsForUnknownNamespace(t *testing.T) {
	addr := startHost(t, true)

	err := runProbe(context.Background(), io.Discard, probeFlags{rpcAddr: addr, namespace: "window.App"})
	if !errors.Is(err, contracts.ErrBridgeUnavailable) {
		t.Fatalf("expected ErrBridgeUnavailable, got %v", err)
	}
}

func TestDoctorJSONReport(t *testing.T) {
	addr := startHost(t, true)

	var out bytes.Buffer
	if err := runDoctor(context.Background(), &out, doctorFlags{rpcAddr: addr, jsonOut: true}); err != nil {
		t.Fatalf("doctor: %v", err)
	}
	var report struct {
		Ready  bool `json:"ready"`
		Checks []struct {
			Name string `json:"name"`
			Pass bool   `json:"pass"`
		} `json:"checks"`
	}
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if !report.Ready || len(report.Checks) == 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestDoctorFailsWhenHostNotReady(t *testing.T) {
	addr := startHost(t, false)

	err := runDoctor(context.Background(), io.Discard, doctorFlags{rpcAddr: addr})
	if !errors.Is(err, errDoctorFailed) {
		t.Fatalf("expected errDoctorFailed, got %v", err)
	}
}

func TestLoadServeConfigFlagsOverrideFile(t *testing.T) {
	t.Setenv("SHELL_MODE", "")
	t.Setenv("SHELL_RPC_ADDR", "")
	cfg := loadServeConfig(serveFlags{
		configPath: "does-not-exist.yaml",
		rpcAddr:    "127.0.0.1:9999",
		mode:       "debug",
	})
	if cfg.RPCAddr != "127.0.0.1:9999" || cfg.Mode != "debug" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}
