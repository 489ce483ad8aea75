// Package bridge pulls provider resources into local storage.
package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"bridgesync/internal/domain/account"
	"bridgesync/internal/domain/item"
	"bridgesync/internal/domain/transaction"
	bridgeclient "bridgesync/internal/infrastructure/bridge"
	"bridgesync/internal/shared/apperr"
)

var (
	syncTracer             = otel.Tracer("bridgesync/sync")
	syncMeter              = otel.Meter("bridgesync/sync")
	syncRecordsUpserted, _ = syncMeter.Int64Counter("sync.records.upserted",
		metric.WithDescription("Provider records written to the store"),
	)
)

// ErrMalformedPayload is returned when a provider resource lacks a required
// field or carries a value that cannot be mapped. Nothing from that page is written.
var ErrMalformedPayload = apperr.Wrap(apperr.ErrUpstream, "malformed provider payload")

const (
	EntityItems        = "items"
	EntityAccounts     = "accounts"
	EntityTransactions = "transactions"
)

// SyncResult contains the results of a sync operation
type SyncResult struct {
	Entity  string `json:"entity"`
	Found   int    `json:"found"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
}

func (r *SyncResult) record(ctx context.Context, created bool) {
	outcome := "updated"
	if created {
		r.Created++
		outcome = "created"
	} else {
		r.Updated++
	}
	syncRecordsUpserted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", r.Entity),
		attribute.String("outcome", outcome),
	))
}

// UserSyncResult aggregates the three sub-operations of SyncUserData.
// A nil part means that sub-operation failed before writing anything.
type UserSyncResult struct {
	UserUUID     string      `json:"userUuid"`
	Items        *SyncResult `json:"items,omitempty"`
	Accounts     *SyncResult `json:"accounts,omitempty"`
	Transactions *SyncResult `json:"transactions,omitempty"`
	Errors       []string    `json:"errors,omitempty"`
}

// SyncService reconciles provider items, accounts and transactions into the store.
type SyncService struct {
	client       bridgeclient.ClientInterface
	items        item.Repository
	accounts     account.Repository
	transactions transaction.Repository
}

// NewSyncService creates a new sync service
func NewSyncService(
	client bridgeclient.ClientInterface,
	items item.Repository,
	accounts account.Repository,
	transactions transaction.Repository,
) *SyncService {
	return &SyncService{
		client:       client,
		items:        items,
		accounts:     accounts,
		transactions: transactions,
	}
}

// SyncUserData runs items, accounts and transactions in that order. Each part
// runs even if an earlier one failed; committed writes are never rolled back.
// The returned error joins every failed part.
func (s *SyncService) SyncUserData(ctx context.Context, userUUID, accessToken string) (*UserSyncResult, error) {
	ctx, span := syncTracer.Start(ctx, "sync.user_data",
		trace.WithAttributes(attribute.String("user.uuid", userUUID)),
	)
	defer span.End()

	result := &UserSyncResult{UserUUID: userUUID}
	var errs []error

	itemsResult, err := s.SyncItems(ctx, userUUID, accessToken)
	if err != nil {
		errs = append(errs, fmt.Errorf("items: %w", err))
	} else {
		result.Items = itemsResult
	}

	accountsResult, err := s.SyncAccounts(ctx, accessToken)
	if err != nil {
		errs = append(errs, fmt.Errorf("accounts: %w", err))
	} else {
		result.Accounts = accountsResult
	}

	txResult, err := s.SyncTransactions(ctx, accessToken, "")
	if err != nil {
		errs = append(errs, fmt.Errorf("transactions: %w", err))
	} else {
		result.Transactions = txResult
	}

	for _, e := range errs {
		result.Errors = append(result.Errors, e.Error())
	}

	joined := errors.Join(errs...)
	if joined != nil {
		span.RecordError(joined)
		span.SetStatus(codes.Error, joined.Error())
		log.Warn().Err(joined).Str("user_uuid", userUUID).Int("failed_parts", len(errs)).Msg("user sync finished with errors")
		return result, joined
	}

	log.Info().Str("user_uuid", userUUID).Msg("user sync complete")
	return result, nil
}

// upsertAll writes mapped records one at a time. The first failing write stops
// the loop; records written before it stay committed.
func upsertAll[P any](ctx context.Context, result *SyncResult, params []P, key func(P) int64, upsert func(context.Context, P) (bool, error)) error {
	for _, p := range params {
		created, err := upsert(ctx, p)
		if err != nil {
			return fmt.Errorf("failed to upsert %s %d: %w", result.Entity, key(p), err)
		}
		result.record(ctx, created)
	}
	return nil
}

// mapAll maps a whole page before anything is written.
func mapAll[R, P any](resources []R, mapFn func(int, R) (P, error)) ([]P, error) {
	out := make([]P, 0, len(resources))
	for i, r := range resources {
		p, err := mapFn(i, r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func missingField(entity string, index int, field string) error {
	return fmt.Errorf("%w: %s[%d] has no %q", ErrMalformedPayload, entity, index, field)
}

// startSpan opens the span shared by each sub-operation.
func startSpan(ctx context.Context, entity string) (context.Context, trace.Span) {
	return syncTracer.Start(ctx, "sync."+entity, trace.WithAttributes(attribute.String("sync.entity", entity)))
}

func endSpan(span trace.Span, result *SyncResult, err error) {
	if result != nil {
		span.SetAttributes(
			attribute.Int("sync.found", result.Found),
			attribute.Int("sync.created", result.Created),
			attribute.Int("sync.updated", result.Updated),
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
