// Package webhook applies provider item notifications to stored items.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/netip"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"bridgesync/internal/domain/item"
)

var (
	webhookTracer         = otel.Tracer("bridgesync/webhook")
	webhookMeter          = otel.Meter("bridgesync/webhook")
	webhookEventsTotal, _ = webhookMeter.Int64Counter("webhook.events.total",
		metric.WithDescription("Webhook events handled, by kind and outcome"),
	)
)

// RefreshTrigger schedules a background sync of a user's data.
type RefreshTrigger interface {
	TriggerUserSync(ctx context.Context, userUUID string) error
}

// Reconciler validates webhook sources and applies events to items.
type Reconciler struct {
	allowed map[netip.Addr]struct{}
	items   item.Repository
	refresh RefreshTrigger
}

type Option func(*Reconciler)

// WithRefreshTrigger makes applied item.refresh.completed events that name a
// user enqueue a sync of that user.
func WithRefreshTrigger(t RefreshTrigger) Option {
	return func(r *Reconciler) {
		r.refresh = t
	}
}

// NewReconciler builds a reconciler accepting events only from allowedIPs.
func NewReconciler(allowedIPs []string, items item.Repository, opts ...Option) (*Reconciler, error) {
	allowed := make(map[netip.Addr]struct{}, len(allowedIPs))
	for _, raw := range allowedIPs {
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid webhook allowed IP %q: %w", raw, err)
		}
		allowed[addr.Unmap()] = struct{}{}
	}

	r := &Reconciler{allowed: allowed, items: items}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// ValidateSource reports whether sourceIP is on the allow-list. sourceIP may
// carry a port.
func (r *Reconciler) ValidateSource(sourceIP string) bool {
	addr, err := netip.ParseAddr(sourceIP)
	if err != nil {
		ap, perr := netip.ParseAddrPort(sourceIP)
		if perr != nil {
			return false
		}
		addr = ap.Addr()
	}
	_, ok := r.allowed[addr.Unmap()]
	return ok
}

// Handle applies an event. Unknown items and unrecognized types are logged and
// reported through the Outcome, never as errors; only store failures return one.
func (r *Reconciler) Handle(ctx context.Context, ev Event) (outcome Outcome, err error) {
	kind := ParseKind(ev.Type)

	ctx, span := webhookTracer.Start(ctx, "webhook.handle", trace.WithAttributes(
		attribute.String("webhook.kind", kind.String()),
		attribute.Int64("item.id", ev.itemID()),
	))
	defer func() {
		webhookEventsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", kind.String()),
			attribute.String("outcome", string(outcome)),
		))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.String("webhook.outcome", string(outcome)))
		span.End()
	}()

	if kind != KindUnrecognized && ev.ItemID == nil {
		log.Warn().Str("event_type", ev.Type).Msg("webhook without item_id ignored")
		return OutcomeIgnored, nil
	}

	switch kind {
	case KindStatusUpdated, KindRefreshCompleted:
		outcome, err = r.applyStatus(ctx, ev)
	case KindRefreshFailed, KindItemError:
		log.Error().
			Str("event_type", ev.Type).
			Int64("item_id", ev.itemID()).
			Str("status", ev.Status.String()).
			Str("status_code_info", ev.StatusCodeInfo.String()).
			Msg("provider reported item failure")
		outcome, err = r.applyStatus(ctx, ev)
	default:
		log.Warn().Str("event_type", ev.Type).Int64("item_id", ev.itemID()).Msg("unrecognized webhook event ignored")
		return OutcomeIgnored, nil
	}
	if err != nil || outcome != OutcomeApplied {
		return outcome, err
	}

	if kind == KindRefreshCompleted {
		r.triggerRefresh(ctx, ev)
	}
	return outcome, nil
}

func (r *Reconciler) applyStatus(ctx context.Context, ev Event) (Outcome, error) {
	var update item.StatusUpdate
	if ev.Status != nil {
		s := ev.Status.String()
		update.Status = &s
	}
	if ev.StatusCodeInfo != nil {
		info := ev.StatusCodeInfo.String()
		update.StatusCodeInfo = &info
	}

	updated, err := r.items.UpdateStatus(ctx, *ev.ItemID, update)
	if errors.Is(err, item.ErrItemNotFound) {
		log.Warn().Str("event_type", ev.Type).Int64("item_id", ev.itemID()).Msg("webhook for unknown item dropped")
		return OutcomeItemNotFound, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to apply webhook to item %d: %w", *ev.ItemID, err)
	}

	log.Info().
		Str("event_type", ev.Type).
		Int64("item_id", ev.itemID()).
		Str("status", updated.Status).
		Msg("item status updated from webhook")
	return OutcomeApplied, nil
}

func (r *Reconciler) triggerRefresh(ctx context.Context, ev Event) {
	if r.refresh == nil || ev.UserUUID == nil || *ev.UserUUID == "" {
		return
	}
	if err := r.refresh.TriggerUserSync(ctx, *ev.UserUUID); err != nil {
		log.Error().Err(err).Str("user_uuid", *ev.UserUUID).Int64("item_id", ev.itemID()).Msg("failed to trigger refresh sync")
		return
	}
	log.Info().Str("user_uuid", *ev.UserUUID).Int64("item_id", ev.itemID()).Msg("refresh sync queued")
}
