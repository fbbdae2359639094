package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/alexbotov/bunqledger/internal/ledger"
	"github.com/alexbotov/bunqledger/pkg/bunq"
)

var (
	bold  = color.New(color.Bold).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()
)

func formatAmount(a *bunq.Amount) string {
	if a == nil {
		return "-"
	}
	if a.Value.IsNegative() {
		return red(a.String())
	}
	return green(a.String())
}

func printAccounts(w io.Writer, accounts []bunq.Account) error {
	if len(accounts) == 0 {
		_, err := fmt.Fprintln(w, "No accounts.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, bold("ID\tTYPE\tDESCRIPTION\tSTATUS\tBALANCE"))
	for _, acc := range accounts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", acc.ID, acc.Type, acc.Description, acc.Status, formatAmount(acc.Balance))
	}
	return tw.Flush()
}

func printPayments(w io.Writer, groups []ledger.AccountPayments) error {
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s %s\n", bold(fmt.Sprintf("%s (%d)", g.Account.Description, g.Account.ID)),
			faint(fmt.Sprintf("%d payments", len(g.Payments))))

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, p := range g.Payments {
			amount := p.Amount
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", p.Created, formatAmount(&amount), p.CounterpartyAlias.DisplayName, p.Description)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
