package cli

import (
	"github.com/spf13/cobra"
)

func newAccountsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List monetary accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			accounts, err := svc.Accounts(cmd.Context())
			if err != nil {
				return err
			}
			return printAccounts(cmd.OutOrStdout(), accounts)
		},
	}
}
