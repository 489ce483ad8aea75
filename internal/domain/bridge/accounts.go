package bridge

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"bridgesync/internal/domain/account"
	bridgeclient "bridgesync/internal/infrastructure/bridge"
)

// SyncAccounts pulls every account visible to the token and upserts it by
// provider account id. Selection state is left untouched.
func (s *SyncService) SyncAccounts(ctx context.Context, accessToken string) (result *SyncResult, err error) {
	ctx, span := startSpan(ctx, EntityAccounts)
	result = &SyncResult{Entity: EntityAccounts}
	defer func() { endSpan(span, result, err) }()

	resp, err := s.client.GetAccounts(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	result.Found = len(resp.Resources)

	params, err := mapAll(resp.Resources, mapAccount)
	if err != nil {
		return nil, err
	}

	err = upsertAll(ctx, result, params,
		func(p account.UpsertParams) int64 { return p.AccountID },
		func(ctx context.Context, p account.UpsertParams) (bool, error) {
			_, created, err := s.accounts.Upsert(ctx, p)
			return created, err
		},
	)
	if err != nil {
		return result, err
	}

	log.Info().
		Int("found", result.Found).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Msg("accounts synced")
	return result, nil
}

func mapAccount(i int, r bridgeclient.Account) (account.UpsertParams, error) {
	switch {
	case r.ID == nil:
		return account.UpsertParams{}, missingField(EntityAccounts, i, "id")
	case r.ItemID == nil:
		return account.UpsertParams{}, missingField(EntityAccounts, i, "item_id")
	case r.Name == nil:
		return account.UpsertParams{}, missingField(EntityAccounts, i, "name")
	case !r.Balance.Valid:
		return account.UpsertParams{}, missingField(EntityAccounts, i, "balance")
	case r.Currency == nil:
		return account.UpsertParams{}, missingField(EntityAccounts, i, "currency")
	case r.Type == nil:
		return account.UpsertParams{}, missingField(EntityAccounts, i, "type")
	case r.Status == nil:
		return account.UpsertParams{}, missingField(EntityAccounts, i, "status")
	}

	return account.UpsertParams{
		AccountID: *r.ID,
		ItemID:    *r.ItemID,
		Name:      *r.Name,
		Balance:   r.Balance.Decimal,
		Currency:  *r.Currency,
		Type:      *r.Type,
		Status:    r.Status.String(),
		IBAN:      r.IBAN,
	}, nil
}
