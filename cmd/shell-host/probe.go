package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"desktop-shell/go-backend/internal/bridgeclient"
	"desktop-shell/go-backend/internal/domains/contracts"
	"desktop-shell/go-backend/pkg/models"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type probeFlags struct {
	rpcAddr   string
	rpcToken  string
	namespace string
	name      string
	timeout   time.Duration
	wait      bool
}

func addClientFlags(cmd *cobra.Command, addr, token *string, timeout *time.Duration) {
	cmd.Flags().StringVar(addr, "rpc-addr", "127.0.0.1:8787", "Bridge host address")
	cmd.Flags().StringVar(token, "rpc-token", "", "RPC token (defaults to SHELL_RPC_TOKEN)")
	cmd.Flags().DurationVar(timeout, "timeout", 5*time.Second, "Overall deadline for the probe (0 disables it)")
}

// commandContext applies --timeout. A non-positive value means no deadline.
func commandContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

func newProbeCmd() *cobra.Command {
	var flags probeFlags
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Call every bridge capability through one namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd.Context(), flags.timeout)
			defer cancel()
			return runProbe(ctx, cmd.OutOrStdout(), flags)
		},
	}
	addClientFlags(cmd, &flags.rpcAddr, &flags.rpcToken, &flags.timeout)
	cmd.Flags().StringVar(&flags.namespace, "namespace", contracts.NamespaceFramework, "wails.App | go.main.App")
	cmd.Flags().StringVar(&flags.name, "name", "World", "Name passed to Greet")
	cmd.Flags().BoolVar(&flags.wait, "wait", false, "Wait for the host to report ready before calling GetAppInfo")
	return cmd
}

func runProbe(ctx context.Context, out io.Writer, flags probeFlags) error {
	client := bridgeclient.New(flags.rpcAddr,
		bridgeclient.WithToken(resolveToken(flags.rpcToken)),
		bridgeclient.WithNamespace(flags.namespace),
	)
	bridge, err := client.Bridge(ctx)
	if err != nil {
		return fmt.Errorf("namespace %s: %w", flags.namespace, err)
	}

	greeting, err := bridge.Greet(ctx, flags.name)
	if err != nil {
		return err
	}
	if flags.wait {
		if _, err := client.WaitReady(ctx, 100*time.Millisecond); err != nil {
			return err
		}
	}
	sys, err := bridge.GetSystemInfo(ctx)
	if err != nil {
		return err
	}

	rows := pterm.TableData{
		{"Capability", "Field", "Value"},
		{contracts.CapabilityGreet, "greeting", greeting},
	}
	rows = append(rows, systemInfoRows(sys)...)

	info, infoErr := bridge.GetApplicationInfo(ctx)
	if infoErr == nil {
		rows = append(rows, appInfoRows(info)...)
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return err
	}
	title := pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint(flags.namespace)
	if _, err := fmt.Fprintln(out, pterm.DefaultBox.WithTitle(title).WithTopPadding(1).WithBottomPadding(1).WithLeftPadding(1).WithRightPadding(1).Sprint(table)); err != nil {
		return err
	}
	if infoErr != nil {
		_, _ = fmt.Fprintln(out, pterm.Warning.Sprintf("GetAppInfo: %v", infoErr))
	}
	return nil
}

func systemInfoRows(sys models.SystemInfo) [][]string {
	rows := [][]string{
		{contracts.CapabilityGetSystemInfo, "platform", sys.Platform},
		{contracts.CapabilityGetSystemInfo, "runtime", sys.Runtime},
		{contracts.CapabilityGetSystemInfo, "ready", strconv.FormatBool(sys.Ready)},
	}
	if sys.Mode != nil {
		rows = append(rows, []string{contracts.CapabilityGetSystemInfo, "mode", sys.ModeOrEmpty()})
	}
	keys := make([]string, 0, len(sys.Extensions))
	for k := range sys.Extensions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rows = append(rows, []string{contracts.CapabilityGetSystemInfo, "extensions." + k, sys.Extensions[k]})
	}
	return rows
}

func appInfoRows(info models.ApplicationInfo) [][]string {
	return [][]string{
		{contracts.CapabilityGetAppInfo, "name", info.Name},
		{contracts.CapabilityGetAppInfo, "version", info.Version},
		{contracts.CapabilityGetAppInfo, "description", info.Description},
		{contracts.CapabilityGetAppInfo, "framework", info.Framework},
		{contracts.CapabilityGetAppInfo, "backend", info.Backend},
	}
}
