package webhook

import (
	bridgeclient "bridgesync/internal/infrastructure/bridge"
)

// Event is an inbound provider notification. It is a superset of the fields
// used across event types; each kind reads only what it needs. Only Type is
// always present: test pings and user-level events carry no item.
type Event struct {
	Type           string                   `json:"type"`
	ItemID         *int64                   `json:"item_id,omitempty"`
	UserUUID       *string                  `json:"user_uuid,omitempty"`
	Status         *bridgeclient.FlexString `json:"status,omitempty"`
	StatusCodeInfo *bridgeclient.FlexString `json:"status_code_info,omitempty"`
	AccountID      *int64                   `json:"account_id,omitempty"`
}

// itemID is the event's item id, or 0 when absent. For log fields only.
func (e Event) itemID() int64 {
	if e.ItemID == nil {
		return 0
	}
	return *e.ItemID
}

// Kind is the parsed event type.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindStatusUpdated
	KindRefreshCompleted
	KindRefreshFailed
	KindItemError
)

var kindNames = map[string]Kind{
	"item.status.updated":    KindStatusUpdated,
	"item.refresh.completed": KindRefreshCompleted,
	"item.refresh.failed":    KindRefreshFailed,
	"item.error":             KindItemError,
}

// ParseKind maps an event type string to its Kind. Unknown strings yield
// KindUnrecognized.
func ParseKind(eventType string) Kind {
	if k, ok := kindNames[eventType]; ok {
		return k
	}
	return KindUnrecognized
}

func (k Kind) String() string {
	switch k {
	case KindStatusUpdated:
		return "item.status.updated"
	case KindRefreshCompleted:
		return "item.refresh.completed"
	case KindRefreshFailed:
		return "item.refresh.failed"
	case KindItemError:
		return "item.error"
	default:
		return "unrecognized"
	}
}

// Outcome describes what Handle did with an event.
type Outcome string

const (
	OutcomeApplied      Outcome = "applied"
	OutcomeItemNotFound Outcome = "item_not_found"
	OutcomeIgnored      Outcome = "ignored"
)
