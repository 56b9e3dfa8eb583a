package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"desktop-shell/go-backend/internal/bootstrap/hostconfig"
	"desktop-shell/go-backend/internal/composition/hostserver"

	"github.com/spf13/cobra"
)

type serveFlags struct {
	configPath string
	rpcAddr    string
	rpcToken   string
	mode       string
	logLevel   string
}

func newServeCmd() *cobra.Command {
	var flags serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bridge host until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, flags)
		},
	}
	cmd.Flags().StringVar(&flags.configPath, "config", "", "Path to config.yaml (optional)")
	cmd.Flags().StringVar(&flags.rpcAddr, "rpc-addr", "", "JSON-RPC listen address (default 127.0.0.1:8787)")
	cmd.Flags().StringVar(&flags.rpcToken, "rpc-token", "", "RPC token for Authorization/X-Shell-RPC-Token; \"auto\" generates one")
	cmd.Flags().StringVar(&flags.mode, "mode", "", "Build mode reported by GetSystemInfo")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "debug | info | warn | error")
	return cmd
}

func loadServeConfig(flags serveFlags) hostconfig.Config {
	cfg := hostconfig.LoadFromPath(flags.configPath)
	if v := strings.TrimSpace(flags.rpcAddr); v != "" {
		cfg.RPCAddr = v
	}
	if v := strings.TrimSpace(flags.mode); v != "" {
		cfg.Mode = v
	}
	if v := strings.TrimSpace(flags.logLevel); v != "" {
		cfg.LogLevel = v
	}
	return cfg
}

func runServe(ctx context.Context, flags serveFlags) error {
	if flags.rpcToken != "" {
		_ = os.Setenv("SHELL_RPC_TOKEN", flags.rpcToken)
	}
	cfg := loadServeConfig(flags)

	srv, _, err := hostserver.NewRPCServer(cfg, os.Stderr)
	if err != nil {
		return err
	}

	slog.Info("shell-host starting", "component", "cli", "rpc_addr", cfg.RPCAddr, "mode", cfg.Mode)
	if err := srv.Run(ctx); err != nil {
		return err
	}
	slog.Info("shell-host stopped", "component", "cli")
	return nil
}
