package notify

import (
	"encoding/json"
	"fmt"

	"lendit/internal/domain"
	"lendit/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramNotifier forwards booking lifecycle events to manager chats.
type TelegramNotifier struct {
	sender domain.TelegramSender
	chats  []int64
	logger *zerolog.Logger
}

func NewTelegramNotifier(sender domain.TelegramSender, chats []int64, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, chats: chats, logger: logger}
}

// Register subscribes the notifier to booking events on the bus.
func (n *TelegramNotifier) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingCreated, n.handle)
	bus.Subscribe(events.EventBookingApproved, n.handle)
	bus.Subscribe(events.EventBookingRejected, n.handle)
}

func (n *TelegramNotifier) handle(event *events.Event) error {
	var payload events.BookingEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		n.logger.Error().Err(err).Str("event_type", event.Type).Msg("decode event payload")
		return err
	}

	text := n.formatMessage(event.Type, payload)
	for _, chatID := range n.chats {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.sender.Send(msg); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send notification")
		}
	}
	return nil
}

func (n *TelegramNotifier) formatMessage(eventType string, p events.BookingEventPayload) string {
	window := fmt.Sprintf("%s - %s", p.Start.Format("02.01.2006 15:04"), p.End.Format("02.01.2006 15:04"))

	switch eventType {
	case events.EventBookingCreated:
		return fmt.Sprintf("New booking #%d\nItem: %s\nBooker: %d\nWindow: %s\nAwaiting owner decision.",
			p.BookingID, p.ItemName, p.BookerID, window)
	case events.EventBookingApproved:
		return fmt.Sprintf("Booking #%d approved\nItem: %s\nWindow: %s", p.BookingID, p.ItemName, window)
	case events.EventBookingRejected:
		return fmt.Sprintf("Booking #%d rejected\nItem: %s\nWindow: %s", p.BookingID, p.ItemName, window)
	default:
		return fmt.Sprintf("Booking #%d: %s", p.BookingID, p.Status)
	}
}
