package main

import (
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "0.1.0"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bytecommctl",
		Short: "Fixed-size message relay over TCP, UDP and serial links",
		Long: `bytecommctl runs a framed byte relay: it acquires a device from the
configured transport, reads fixed-size messages from it and writes queued
messages back, reconnecting whenever the device breaks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newInitCmd(), newValidateCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show bytecommctl version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Printf("bytecommctl version %s\n", version)
			return nil
		},
	}
}
