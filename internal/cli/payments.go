package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newPaymentsCommand(a *app) *cobra.Command {
	var (
		accountID int64
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "payments",
		Short: "List payments of one or all accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			var filter *int64
			if cmd.Flags().Changed("account") {
				filter = &accountID
			}

			result, err := svc.Payments(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			return printPayments(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().Int64Var(&accountID, "account", 0, "only list payments of this account id")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print payments as JSON")
	return cmd
}
