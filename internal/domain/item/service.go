package item

import "context"

// Service exposes read access to stored items.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListByUser(ctx context.Context, userUUID string) ([]*Item, error) {
	return s.repo.ListByUserUUID(ctx, userUUID)
}

func (s *Service) Get(ctx context.Context, itemID int64) (*Item, error) {
	return s.repo.GetByItemID(ctx, itemID)
}
