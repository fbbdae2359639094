package sandbox

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alexbotov/bunqledger/pkg/bunq"
)

// seedEpoch is the creation time of the oldest seeded payment
var seedEpoch = time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)

var counterparties = []string{
	"Albert Heijn", "NS Reizen", "Vattenfall", "Thuisbezorgd", "Bol.com", "Gemeente Amsterdam", "J. de Vries",
}

// account is a seeded monetary account with its payments, newest first
type account struct {
	bunq.Account
	IBAN     string
	payments []bunq.Payment
}

// seed builds n accounts with perAccount payments each. The data depends on
// its arguments only.
func seed(userID int64, displayName string, n, perAccount int) []*account {
	accounts := make([]*account, 0, n)
	nextPaymentID := int64(1000)

	for i := 0; i < n; i++ {
		id := int64(100 + i)
		iban := fmt.Sprintf("NL%02dBUNQ%010d", 10+i, 2000000000+id)
		acc := &account{
			Account: bunq.Account{
				ID:          id,
				Type:        bunq.AccountTypeBank,
				Description: fmt.Sprintf("Account %d", i+1),
				Currency:    "EUR",
				Status:      "ACTIVE",
			},
			IBAN: iban,
		}

		balance := decimal.NewFromInt(int64(1000 * (i + 1)))
		oldestFirst := make([]bunq.Payment, 0, perAccount)
		for j := 0; j < perAccount; j++ {
			amount := paymentAmount(i, j)
			balance = balance.Add(amount)
			created := seedEpoch.Add(time.Duration(j)*26*time.Hour + time.Duration(i)*time.Minute).
				Format("2006-01-02 15:04:05.000000")

			oldestFirst = append(oldestFirst, bunq.Payment{
				ID:                   nextPaymentID,
				MonetaryAccountID:    id,
				Created:              created,
				Updated:              created,
				Description:          fmt.Sprintf("Payment %d", j+1),
				Type:                 "BUNQ",
				SubType:              "PAYMENT",
				Amount:               bunq.Amount{Value: amount, Currency: "EUR"},
				BalanceAfterMutation: bunq.Amount{Value: balance, Currency: "EUR"},
				Alias:                bunq.CounterpartyLabel{IBAN: &iban, DisplayName: displayName},
				CounterpartyAlias: bunq.CounterpartyLabel{
					DisplayName: counterparties[(i+j)%len(counterparties)],
				},
			})
			nextPaymentID++
		}

		acc.Balance = &bunq.Amount{Value: balance, Currency: "EUR"}
		acc.payments = make([]bunq.Payment, len(oldestFirst))
		for k := range oldestFirst {
			acc.payments[k] = oldestFirst[len(oldestFirst)-1-k]
		}
		accounts = append(accounts, acc)
	}
	return accounts
}

// paymentAmount alternates small debits with an occasional credit
func paymentAmount(account, n int) decimal.Decimal {
	if n%5 == 4 {
		return decimal.NewFromInt(int64(250 + 10*account))
	}
	cents := int64(125*(n+1) + 7*account)
	return decimal.New(-cents, -2)
}
