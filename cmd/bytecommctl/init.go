package main

import (
	"fmt"

	"github.com/TaciturnJian/bytecomm/internal/config"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var (
		kind  string
		out   string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config template for a transport kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteTemplate(out, kind, force); err != nil {
				return err
			}
			cmd.Printf("wrote %s config to %s\n", kind, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", config.KindTCPListen,
		fmt.Sprintf("transport kind: %s|%s|%s|%s", config.KindTCPListen, config.KindTCPDial, config.KindUDP, config.KindSerial))
	cmd.Flags().StringVarP(&out, "out", "o", "bytecomm.toml", "output path")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate a config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if _, err := config.SessionConfig(cfg); err != nil {
				return err
			}
			if _, err := config.NewProvider(cfg.Transport); err != nil {
				return err
			}
			cmd.Printf("validated %s config at %s\n", cfg.Transport.Kind, path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", "bytecomm.toml", "config file (.toml, .yaml or .yml)")
	return cmd
}
