package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "shell-host",
		Short:         "Bridge host for the desktop shell",
		Long:          `shell-host exposes the bridge capabilities (Greet, GetAppInfo, GetSystemInfo) under the wails.App and go.main.App namespaces over local JSON-RPC.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.AddCommand(newServeCmd(), newProbeCmd(), newDoctorCmd(), newVersionCmd())
	return root
}
