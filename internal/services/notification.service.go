package services

import (
	"carebook/internal/events"
	"carebook/internal/logger"

	"github.com/google/uuid"
)

// NotificationService decouples write paths from websocket delivery. Every
// notification is fire-and-forget: a failed publish is logged and swallowed
// so it can never fail the booking mutation that triggered it.
type NotificationService struct {
	eventBus *events.EventBus
	log      logger.Logger
}

func NewNotificationService(eventBus *events.EventBus) *NotificationService {
	return &NotificationService{
		eventBus: eventBus,
		log:      logger.New("NotificationService"),
	}
}

// NotifyBookingChanged tells the user's live connections to refetch bookings.
func (s *NotificationService) NotifyBookingChanged(userID uuid.UUID) {
	log := s.log.Function("NotifyBookingChanged")

	go func() {
		if err := s.eventBus.PublishBookingChanged(userID); err != nil {
			log.Er("failed to publish booking change", err, "userID", userID)
		}
	}()
}

// NotifyChatChanged tells a chat participant's live connections to refetch.
func (s *NotificationService) NotifyChatChanged(userID uuid.UUID, chatID uuid.UUID) {
	log := s.log.Function("NotifyChatChanged")

	go func() {
		err := s.eventBus.Publish(events.BOOKINGS_CHANNEL, events.Event{
			Type:   events.CHAT_UPDATE,
			UserID: &userID,
			Data: map[string]any{
				"userId": userID.String(),
				"chatId": chatID.String(),
			},
		})
		if err != nil {
			log.Er("failed to publish chat change", err, "userID", userID, "chatID", chatID)
		}
	}()
}
