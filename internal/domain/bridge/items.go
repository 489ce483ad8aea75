package bridge

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"bridgesync/internal/domain/item"
	bridgeclient "bridgesync/internal/infrastructure/bridge"
)

// SyncItems pulls the user's items and upserts them by provider item id.
func (s *SyncService) SyncItems(ctx context.Context, userUUID, accessToken string) (result *SyncResult, err error) {
	ctx, span := startSpan(ctx, EntityItems)
	result = &SyncResult{Entity: EntityItems}
	defer func() { endSpan(span, result, err) }()

	resp, err := s.client.GetItems(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch items: %w", err)
	}
	result.Found = len(resp.Resources)

	params, err := mapAll(resp.Resources, func(i int, r bridgeclient.Item) (item.UpsertParams, error) {
		return mapItem(i, r, userUUID)
	})
	if err != nil {
		return nil, err
	}

	err = upsertAll(ctx, result, params,
		func(p item.UpsertParams) int64 { return p.ItemID },
		func(ctx context.Context, p item.UpsertParams) (bool, error) {
			_, created, err := s.items.Upsert(ctx, p)
			return created, err
		},
	)
	if err != nil {
		return result, err
	}

	log.Info().
		Str("user_uuid", userUUID).
		Int("found", result.Found).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Msg("items synced")
	return result, nil
}

func mapItem(i int, r bridgeclient.Item, userUUID string) (item.UpsertParams, error) {
	if r.ID == nil {
		return item.UpsertParams{}, missingField(EntityItems, i, "id")
	}
	if r.Status == nil {
		return item.UpsertParams{}, missingField(EntityItems, i, "status")
	}

	return item.UpsertParams{
		ItemID:                *r.ID,
		UserUUID:              userUUID,
		Status:                r.Status.String(),
		StatusCodeInfo:        r.StatusCodeInfo,
		StatusCodeDescription: r.StatusCodeDescription,
	}, nil
}
