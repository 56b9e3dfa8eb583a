package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"desktop-shell/go-backend/internal/bridgeclient"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var errDoctorFailed = errors.New("bridge host is not ready")

type doctorFlags struct {
	rpcAddr  string
	rpcToken string
	timeout  time.Duration
	jsonOut  bool
}

func newDoctorCmd() *cobra.Command {
	var flags doctorFlags
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that both namespaces are bound and agree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd.Context(), flags.timeout)
			defer cancel()
			return runDoctor(ctx, cmd.OutOrStdout(), flags)
		},
	}
	addClientFlags(cmd, &flags.rpcAddr, &flags.rpcToken, &flags.timeout)
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "Print the report as JSON")
	return cmd
}

func runDoctor(ctx context.Context, out io.Writer, flags doctorFlags) error {
	client := bridgeclient.New(flags.rpcAddr, bridgeclient.WithToken(resolveToken(flags.rpcToken)))
	report := client.Doctor(ctx)

	if flags.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		for _, check := range report.Checks {
			line := check.Name
			if check.Reason != "" {
				line += ": " + check.Reason
			}
			if check.Pass {
				_, _ = fmt.Fprintln(out, pterm.Success.Sprint(line))
			} else {
				_, _ = fmt.Fprintln(out, pterm.Error.Sprint(line))
			}
		}
	}
	if !report.Ready {
		return errDoctorFailed
	}
	return nil
}

func resolveToken(flagValue string) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	return strings.TrimSpace(os.Getenv("SHELL_RPC_TOKEN"))
}
