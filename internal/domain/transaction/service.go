package transaction

import (
	"context"
	"time"
)

// Service exposes read access to stored transactions.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListByAccount lists an account's transactions. since is optional and must be
// a YYYY-MM-DD date when present.
func (s *Service) ListByAccount(ctx context.Context, accountID int64, since string) ([]*Transaction, error) {
	var sinceDate *time.Time
	if since != "" {
		d, err := time.Parse(DateLayout, since)
		if err != nil {
			return nil, ErrInvalidSince
		}
		sinceDate = &d
	}
	return s.repo.ListByAccountID(ctx, accountID, sinceDate)
}
