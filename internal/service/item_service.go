package service

import (
	"context"
	"time"

	"lendit/internal/domain"
	"lendit/internal/models"

	"github.com/rs/zerolog"
)

type ItemService struct {
	repo   domain.Repository
	logger *zerolog.Logger
	now    func() time.Time
}

func NewItemService(repo domain.Repository, logger *zerolog.Logger) *ItemService {
	return &ItemService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// GetItem returns an item with its booking context. The last and next
// booking windows are only visible to the item owner, and exclude the
// viewer's own bookings.
func (s *ItemService) GetItem(ctx context.Context, itemID, viewerID int64) (*models.ItemDetails, error) {
	if _, err := s.repo.GetUserByID(ctx, viewerID); err != nil {
		return nil, err
	}

	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	details := &models.ItemDetails{Item: *item}
	if item.OwnerID != viewerID {
		return details, nil
	}

	now := s.now()
	last, err := s.repo.LastBooking(ctx, itemID, viewerID, now)
	if err != nil {
		return nil, err
	}
	next, err := s.repo.NextBooking(ctx, itemID, viewerID, now)
	if err != nil {
		return nil, err
	}

	details.LastBooking = last
	details.NextBooking = next
	return details, nil
}

func (s *ItemService) GetItems(ctx context.Context) ([]*models.Item, error) {
	return s.repo.GetItems(ctx)
}
