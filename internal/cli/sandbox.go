package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexbotov/bunqledger/internal/sandbox"
)

func newSandboxCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Run a local fake of the bunq API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Sandbox
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}

			srv, err := sandbox.New(cfg, a.log.Named("sandbox"))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Sandbox API on %s (api key %q, user %d)\n", cfg.Addr, cfg.APIKey, cfg.UserID)
			return srv.ListenAndServe(cmd.Context(), cfg.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8090", "address to listen on")
	return cmd
}
