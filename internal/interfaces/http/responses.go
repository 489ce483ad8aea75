package http

import (
	"time"

	"github.com/samber/lo"

	"bridgesync/internal/domain/account"
	"bridgesync/internal/domain/transaction"
)

type AccountResponse struct {
	*account.Account
	FormattedBalance string `json:"formattedBalance"`
}

type TransactionResponse struct {
	*transaction.Transaction
	Date            string `json:"date"`
	FormattedAmount string `json:"formattedAmount"`
}

func toAccountResponse(a *account.Account) AccountResponse {
	return AccountResponse{
		Account:          a,
		FormattedBalance: formatMoney(a.Balance, a.Currency),
	}
}

func toAccountResponses(accounts []*account.Account) []AccountResponse {
	return lo.Map(accounts, func(a *account.Account, _ int) AccountResponse {
		return toAccountResponse(a)
	})
}

func toTransactionResponses(txs []*transaction.Transaction) []TransactionResponse {
	return lo.Map(txs, func(tx *transaction.Transaction, _ int) TransactionResponse {
		return TransactionResponse{
			Transaction:     tx,
			Date:            tx.Date.Format(transaction.DateLayout),
			FormattedAmount: formatMoney(tx.Amount, tx.Currency),
		}
	})
}

type HealthResponse struct {
	Status   string    `json:"status"`
	Database string    `json:"database"`
	Time     time.Time `json:"time"`
}
