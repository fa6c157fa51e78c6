package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lendit/internal/database"
	"lendit/internal/domain"
	"lendit/internal/events"
	"lendit/internal/metrics"
	"lendit/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	repo       domain.Repository
	eventBus   domain.EventPublisher
	syncWorker domain.SyncWorker
	logger     *zerolog.Logger
	now        func() time.Time
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, syncWorker domain.SyncWorker, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:       repo,
		eventBus:   eventBus,
		syncWorker: syncWorker,
		logger:     logger,
		now:        time.Now,
	}
}

// validateInterval rejects intervals that start or end in the past,
// or where the end does not come strictly after the start.
func (s *BookingService) validateInterval(start, end time.Time, now time.Time) error {
	if !start.After(now) {
		return fmt.Errorf("start %s: %w", start.Format(time.RFC3339), database.ErrStartInPast)
	}
	if !end.After(now) {
		return fmt.Errorf("end %s: %w", end.Format(time.RFC3339), database.ErrEndInPast)
	}
	if !end.After(start) {
		return fmt.Errorf("end %s start %s: %w", end.Format(time.RFC3339), start.Format(time.RFC3339), database.ErrEndBeforeStart)
	}
	return nil
}

func (s *BookingService) CreateBooking(ctx context.Context, bookerID, itemID int64, start, end time.Time) (*models.BookingDetails, error) {
	if err := s.validateInterval(start, end, s.now()); err != nil {
		return nil, err
	}

	booker, err := s.repo.GetUserByID(ctx, bookerID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.Available {
		return nil, fmt.Errorf("item %d: %w", itemID, database.ErrItemNotAvailable)
	}
	if item.OwnerID == bookerID {
		return nil, fmt.Errorf("user %d item %d: %w", bookerID, itemID, database.ErrOwnBooking)
	}

	// Cheap pre-check; CreateBookingTx repeats it inside the transaction.
	conflict, err := s.repo.HasApprovedOverlap(ctx, itemID, start, end)
	if err != nil {
		return nil, err
	}
	if conflict {
		metrics.BookingConflicts.Inc()
		return nil, fmt.Errorf("item %d: %w", itemID, database.ErrTimeConflict)
	}

	booking := &models.Booking{
		ItemID:   itemID,
		BookerID: bookerID,
		Start:    start,
		End:      end,
		Status:   models.StatusWaiting,
	}

	if err := s.repo.CreateBookingTx(ctx, booking); err != nil {
		if errors.Is(err, database.ErrTimeConflict) {
			metrics.BookingConflicts.Inc()
		}
		return nil, err
	}

	metrics.BookingsCreated.Inc()
	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("item_id", itemID).
		Int64("booker_id", bookerID).
		Msg("booking created")

	s.publishEvent(events.EventBookingCreated, booking, item, bookerID)
	s.enqueueSync(ctx, "upsert", booking)

	return &models.BookingDetails{Booking: *booking, Booker: *booker, Item: *item}, nil
}

func (s *BookingService) DecideBooking(ctx context.Context, ownerID, bookingID int64, approved bool) (*models.BookingDetails, error) {
	if _, err := s.repo.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}

	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.GetItemByID(ctx, booking.ItemID)
	if err != nil {
		return nil, err
	}

	if err := authorizeDecide(ownerID, booking, item); err != nil {
		return nil, err
	}

	status := models.StatusRejected
	eventType := events.EventBookingRejected
	outcome := "rejected"
	if approved {
		status = models.StatusApproved
		eventType = events.EventBookingApproved
		outcome = "approved"
	}

	if err := s.repo.DecideBookingTx(ctx, bookingID, status); err != nil {
		if errors.Is(err, database.ErrTimeConflict) {
			metrics.BookingConflicts.Inc()
		}
		return nil, err
	}

	updated, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	metrics.BookingDecisions.WithLabelValues(outcome).Inc()
	s.logger.Info().
		Int64("booking_id", bookingID).
		Int64("owner_id", ownerID).
		Str("status", string(status)).
		Msg("booking decided")

	s.publishEvent(eventType, updated, item, ownerID)
	s.enqueueSync(ctx, "update_status", updated)

	booker, err := s.repo.GetUserByID(ctx, updated.BookerID)
	if err != nil {
		return nil, err
	}

	return &models.BookingDetails{Booking: *updated, Booker: *booker, Item: *item}, nil
}

func (s *BookingService) GetBooking(ctx context.Context, actorID, bookingID int64) (*models.BookingDetails, error) {
	if _, err := s.repo.GetUserByID(ctx, actorID); err != nil {
		return nil, err
	}

	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.GetItemByID(ctx, booking.ItemID)
	if err != nil {
		return nil, err
	}

	if err := authorizeRead(actorID, booking, item); err != nil {
		return nil, err
	}

	booker, err := s.repo.GetUserByID(ctx, booking.BookerID)
	if err != nil {
		return nil, err
	}

	return &models.BookingDetails{Booking: *booking, Booker: *booker, Item: *item}, nil
}

func (s *BookingService) ListForBooker(ctx context.Context, bookerID int64, state models.BookingState, from, size int) ([]*models.BookingDetails, error) {
	if err := validatePage(from, size); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetUserByID(ctx, bookerID); err != nil {
		return nil, err
	}

	bookings, err := s.repo.ListByBooker(ctx, bookerID, state, s.now(), size, from)
	if err != nil {
		return nil, err
	}

	return s.expand(ctx, bookings)
}

func (s *BookingService) ListForOwner(ctx context.Context, ownerID int64, state models.BookingState, from, size int) ([]*models.BookingDetails, error) {
	if err := validatePage(from, size); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}

	bookings, err := s.repo.ListByOwner(ctx, ownerID, state, s.now(), size, from)
	if err != nil {
		return nil, err
	}

	return s.expand(ctx, bookings)
}

func validatePage(from, size int) error {
	if from < 0 {
		return fmt.Errorf("from %d: %w", from, database.ErrInvalidFrom)
	}
	if size < 1 {
		return fmt.Errorf("size %d: %w", size, database.ErrInvalidSize)
	}
	return nil
}

// expand joins bookers and items onto a page of bookings. Lists are
// small (bounded by the page size), so per-row lookups are fine.
func (s *BookingService) expand(ctx context.Context, bookings []*models.Booking) ([]*models.BookingDetails, error) {
	details := make([]*models.BookingDetails, 0, len(bookings))

	users := make(map[int64]*models.User)
	items := make(map[int64]*models.Item)

	for _, booking := range bookings {
		booker, ok := users[booking.BookerID]
		if !ok {
			var err error
			booker, err = s.repo.GetUserByID(ctx, booking.BookerID)
			if err != nil {
				return nil, err
			}
			users[booking.BookerID] = booker
		}

		item, ok := items[booking.ItemID]
		if !ok {
			var err error
			item, err = s.repo.GetItemByID(ctx, booking.ItemID)
			if err != nil {
				return nil, err
			}
			items[booking.ItemID] = item
		}

		details = append(details, &models.BookingDetails{Booking: *booking, Booker: *booker, Item: *item})
	}

	return details, nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, item *models.Item, actorID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID: booking.ID,
		ItemID:    booking.ItemID,
		ItemName:  item.Name,
		BookerID:  booking.BookerID,
		OwnerID:   item.OwnerID,
		Status:    string(booking.Status),
		Start:     booking.Start,
		End:       booking.End,
		ActorID:   actorID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, taskType string, booking *models.Booking) {
	if s.syncWorker == nil {
		return
	}

	if err := s.syncWorker.EnqueueBooking(ctx, taskType, booking); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Str("task", taskType).Msg("sync enqueue error")
	}
}
