package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// SelectionService enforces that an item has at most one selected account.
type SelectionService struct {
	repo Repository
}

// NewSelectionService creates a new selection service
func NewSelectionService(repo Repository) *SelectionService {
	return &SelectionService{repo: repo}
}

// Select marks accountID as the item's selected account.
// Selecting an already-selected account succeeds without change. Changing the
// selection requires an explicit Deselect first.
func (s *SelectionService) Select(ctx context.Context, accountID, itemID int64) (*Account, error) {
	acc, err := s.repo.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acc.ItemID != itemID {
		return nil, ErrItemMismatch
	}
	if acc.IsSelected {
		return acc, nil
	}

	ok, err := s.repo.TrySelect(ctx, itemID, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to select account: %w", err)
	}
	if !ok {
		// The winner of a concurrent race may have been this same account.
		current, err := s.repo.GetByAccountID(ctx, accountID)
		if err == nil && current.IsSelected {
			return current, nil
		}
		log.Info().
			Int64("account_id", accountID).
			Int64("item_id", itemID).
			Msg("selection rejected, item already has a selected account")
		return nil, ErrSelectionExists
	}

	selected, err := s.repo.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload selected account: %w", err)
	}

	log.Info().
		Int64("account_id", accountID).
		Int64("item_id", itemID).
		Msg("account selected")
	return selected, nil
}

// Deselect clears the selection flag. Deselecting an unselected account is a no-op.
func (s *SelectionService) Deselect(ctx context.Context, accountID int64) error {
	if err := s.repo.Deselect(ctx, accountID); err != nil {
		return err
	}
	log.Info().Int64("account_id", accountID).Msg("account deselected")
	return nil
}

// GetSelected returns ErrNoSelectedAccount when the item has no selection.
func (s *SelectionService) GetSelected(ctx context.Context, itemID int64) (*Account, error) {
	return s.repo.GetSelected(ctx, itemID)
}

func (s *SelectionService) HasSelected(ctx context.Context, itemID int64) (bool, error) {
	_, err := s.repo.GetSelected(ctx, itemID)
	if errors.Is(err, ErrNoSelectedAccount) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListAvailable returns every account of the item, selected or not.
func (s *SelectionService) ListAvailable(ctx context.Context, itemID int64) ([]*Account, error) {
	return s.repo.ListByItemID(ctx, itemID)
}
