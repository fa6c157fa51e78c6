package domain

import (
	"context"
	"time"

	"lendit/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Repository interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	SeedUsers(ctx context.Context, users []models.User) error

	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	GetItems(ctx context.Context) ([]*models.Item, error)
	CreateItem(ctx context.Context, item *models.Item) error
	SeedItems(ctx context.Context, items []models.Item) error

	CreateBookingTx(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	DecideBookingTx(ctx context.Context, id int64, status models.BookingStatus) error
	HasApprovedOverlap(ctx context.Context, itemID int64, start, end time.Time) (bool, error)
	ListByBooker(ctx context.Context, bookerID int64, state models.BookingState, now time.Time, limit, offset int) ([]*models.Booking, error)
	ListByOwner(ctx context.Context, ownerID int64, state models.BookingState, now time.Time, limit, offset int) ([]*models.Booking, error)
	LastBooking(ctx context.Context, itemID, viewerID int64, now time.Time) (*models.Booking, error)
	NextBooking(ctx context.Context, itemID, viewerID int64, now time.Time) (*models.Booking, error)
	ListRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)

	CreateSyncTask(ctx context.Context, task *models.SyncTask) error
	GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error)
	UpdateSyncTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
}

// RateLimiter throttles requests per actor id.
type RateLimiter interface {
	Allow(ctx context.Context, actorID int64, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SheetsWriter mirrors booking rows into an external spreadsheet ledger.
type SheetsWriter interface {
	AppendBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, bookingID int64, status string) error
}

// SyncWorker schedules asynchronous mirroring of booking changes.
type SyncWorker interface {
	EnqueueBooking(ctx context.Context, taskType string, booking *models.Booking) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type BookingService interface {
	CreateBooking(ctx context.Context, bookerID, itemID int64, start, end time.Time) (*models.BookingDetails, error)
	DecideBooking(ctx context.Context, ownerID, bookingID int64, approved bool) (*models.BookingDetails, error)
	GetBooking(ctx context.Context, actorID, bookingID int64) (*models.BookingDetails, error)
	ListForBooker(ctx context.Context, bookerID int64, state models.BookingState, from, size int) ([]*models.BookingDetails, error)
	ListForOwner(ctx context.Context, ownerID int64, state models.BookingState, from, size int) ([]*models.BookingDetails, error)
}

type ItemService interface {
	GetItem(ctx context.Context, itemID, viewerID int64) (*models.ItemDetails, error)
	GetItems(ctx context.Context) ([]*models.Item, error)
}

type UserService interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
}
