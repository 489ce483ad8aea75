package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"bridgesync/internal/domain/transaction"
	bridgeclient "bridgesync/internal/infrastructure/bridge"
)

// SyncTransactions pulls transactions and upserts them by provider transaction id.
// since is handed to the provider as-is; it is not validated here.
func (s *SyncService) SyncTransactions(ctx context.Context, accessToken, since string) (result *SyncResult, err error) {
	ctx, span := startSpan(ctx, EntityTransactions)
	result = &SyncResult{Entity: EntityTransactions}
	defer func() { endSpan(span, result, err) }()

	resp, err := s.client.GetTransactions(ctx, accessToken, since)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	result.Found = len(resp.Resources)

	params, err := mapAll(resp.Resources, mapTransaction)
	if err != nil {
		return nil, err
	}

	err = upsertAll(ctx, result, params,
		func(p transaction.UpsertParams) int64 { return p.TransactionID },
		func(ctx context.Context, p transaction.UpsertParams) (bool, error) {
			_, created, err := s.transactions.Upsert(ctx, p)
			return created, err
		},
	)
	if err != nil {
		return result, err
	}

	log.Info().
		Str("since", since).
		Int("found", result.Found).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Msg("transactions synced")
	return result, nil
}

func mapTransaction(i int, r bridgeclient.Transaction) (transaction.UpsertParams, error) {
	switch {
	case r.ID == nil:
		return transaction.UpsertParams{}, missingField(EntityTransactions, i, "id")
	case r.AccountID == nil:
		return transaction.UpsertParams{}, missingField(EntityTransactions, i, "account_id")
	case r.Description == nil:
		return transaction.UpsertParams{}, missingField(EntityTransactions, i, "description")
	case !r.Amount.Valid:
		return transaction.UpsertParams{}, missingField(EntityTransactions, i, "amount")
	case r.Currency == nil:
		return transaction.UpsertParams{}, missingField(EntityTransactions, i, "currency")
	case r.Date == nil:
		return transaction.UpsertParams{}, missingField(EntityTransactions, i, "date")
	}

	date, err := time.Parse(transaction.DateLayout, *r.Date)
	if err != nil {
		return transaction.UpsertParams{}, fmt.Errorf("%w: %s[%d] has invalid date %q", ErrMalformedPayload, EntityTransactions, i, *r.Date)
	}

	isDeleted := false
	if r.IsDeleted != nil {
		isDeleted = *r.IsDeleted
	}

	return transaction.UpsertParams{
		TransactionID: *r.ID,
		AccountID:     *r.AccountID,
		Description:   *r.Description,
		Amount:        r.Amount.Decimal,
		Currency:      *r.Currency,
		Date:          date,
		OperationType: r.OperationType,
		CategoryID:    r.CategoryID,
		IsDeleted:     isDeleted,
	}, nil
}
