package chatsController

import (
	"context"
	"errors"
	"strings"
	"time"

	"carebook/config"
	"carebook/internal/database"
	"carebook/internal/logger"
	. "carebook/internal/models"
	"carebook/internal/repositories"
	"carebook/internal/services"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const MaxMessageLength = 4000

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
)

type notifier interface {
	NotifyChatChanged(userID uuid.UUID, chatID uuid.UUID)
}

type ChatsController struct {
	chatRepo     repositories.ChatRepository
	bookingRepo  repositories.BookingRepository
	notification notifier
	db           database.DB
	Config       config.Config
}

type SendMessageRequest struct {
	Content    string     `json:"content"`
	ReceiverID *uuid.UUID `json:"receiverId,omitempty"`
}

type ChatsControllerInterface interface {
	GetUserChats(ctx context.Context, user *User) ([]Chat, error)
	CreateChatForBooking(ctx context.Context, user *User, bookingID uuid.UUID) (*Chat, error)
	SendMessage(
		ctx context.Context,
		user *User,
		chatID uuid.UUID,
		request *SendMessageRequest,
	) (*Message, error)
	GetMessages(ctx context.Context, user *User, chatID uuid.UUID) ([]Message, error)
	DeleteChat(ctx context.Context, user *User, chatID uuid.UUID) error
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) ChatsControllerInterface {
	return &ChatsController{
		chatRepo:     repos.Chat,
		bookingRepo:  repos.Booking,
		notification: services.Notification,
		db:           db,
		Config:       config,
	}
}

func (c *ChatsController) GetUserChats(ctx context.Context, user *User) ([]Chat, error) {
	log := logger.NewWithContext(ctx, "chatsController").Function("GetUserChats")

	chats, err := c.chatRepo.GetUserChats(ctx, user.ID)
	if err != nil {
		return nil, log.Error("failed to get user chats", "error", err, "userID", user.ID)
	}

	return chats, nil
}

// CreateChatForBooking returns the booking's companion chat, creating it when
// the best-effort creation at booking time failed. Idempotent: an existing
// chat is returned as-is.
func (c *ChatsController) CreateChatForBooking(
	ctx context.Context,
	user *User,
	bookingID uuid.UUID,
) (*Chat, error) {
	log := logger.NewWithContext(ctx, "chatsController").Function("CreateChatForBooking")

	if bookingID == uuid.Nil {
		return nil, log.ErrorWithType(ErrValidation, "bookingId is required")
	}

	booking, err := c.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, log.ErrorWithType(ErrNotFound, "booking not found", "bookingID", bookingID)
	}

	if booking.UserID != user.ID {
		return nil, log.ErrorWithType(
			ErrForbidden,
			"booking does not belong to user",
			"bookingID",
			bookingID,
		)
	}

	if booking.Status == BookingStatusCancelled {
		return nil, log.ErrorWithType(
			ErrValidation,
			"cancelled booking has no chat",
			"bookingID",
			bookingID,
		)
	}

	existing, err := c.chatRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, log.Error("failed to look up chat", "error", err, "bookingID", bookingID)
	}
	if existing != nil {
		return existing, nil
	}

	chat := &Chat{
		BookingID:    &booking.ID,
		CenterName:   booking.CenterName,
		Role:         "guardian",
		Participants: pq.StringArray{user.ID.String()},
	}

	if err := c.chatRepo.Create(ctx, nil, chat); err != nil {
		return nil, log.Error("failed to create chat", "error", err, "bookingID", bookingID)
	}

	log.Info("Chat created for booking", "bookingID", bookingID, "chatID", chat.ID)

	return chat, nil
}

func (c *ChatsController) SendMessage(
	ctx context.Context,
	user *User,
	chatID uuid.UUID,
	request *SendMessageRequest,
) (*Message, error) {
	log := logger.NewWithContext(ctx, "chatsController").Function("SendMessage")

	if chatID == uuid.Nil {
		return nil, log.ErrorWithType(ErrValidation, "chatId is required")
	}

	content := strings.TrimSpace(request.Content)
	if content == "" {
		return nil, log.ErrorWithType(ErrValidation, "message content is required")
	}

	if len(content) > MaxMessageLength {
		return nil, log.ErrorWithType(
			ErrValidation,
			"message exceeds maximum length",
			"length",
			len(content),
			"max",
			MaxMessageLength,
		)
	}

	chat, err := c.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, log.ErrorWithType(ErrNotFound, "chat not found", "chatID", chatID)
	}

	if !chat.HasParticipant(user.ID) {
		return nil, log.ErrorWithType(
			ErrForbidden,
			"user is not a chat participant",
			"chatID",
			chatID,
		)
	}

	message := &Message{
		ChatID:     chat.ID,
		SenderID:   user.ID,
		ReceiverID: request.ReceiverID,
		Content:    content,
		SentAt:     time.Now(),
	}

	if err := c.chatRepo.AddMessage(ctx, nil, chat, message); err != nil {
		return nil, log.Error("failed to add message", "error", err, "chatID", chatID)
	}

	for _, participant := range chat.Participants {
		participantID, err := uuid.Parse(participant)
		if err != nil || participantID == user.ID {
			continue
		}
		c.notification.NotifyChatChanged(participantID, chat.ID)
	}

	log.Info("Message sent", "chatID", chatID, "messageID", message.ID)

	return message, nil
}

func (c *ChatsController) GetMessages(
	ctx context.Context,
	user *User,
	chatID uuid.UUID,
) ([]Message, error) {
	log := logger.NewWithContext(ctx, "chatsController").Function("GetMessages")

	if chatID == uuid.Nil {
		return nil, log.ErrorWithType(ErrValidation, "chatId is required")
	}

	chat, err := c.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, log.ErrorWithType(ErrNotFound, "chat not found", "chatID", chatID)
	}

	if !chat.HasParticipant(user.ID) {
		return nil, log.ErrorWithType(
			ErrForbidden,
			"user is not a chat participant",
			"chatID",
			chatID,
		)
	}

	messages, err := c.chatRepo.GetMessages(ctx, chatID, 0)
	if err != nil {
		return nil, log.Error("failed to get messages", "error", err, "chatID", chatID)
	}

	return messages, nil
}

func (c *ChatsController) DeleteChat(ctx context.Context, user *User, chatID uuid.UUID) error {
	log := logger.NewWithContext(ctx, "chatsController").Function("DeleteChat")

	if chatID == uuid.Nil {
		return log.ErrorWithType(ErrValidation, "chatId is required")
	}

	chat, err := c.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return log.ErrorWithType(ErrNotFound, "chat not found", "chatID", chatID)
	}

	if !chat.HasParticipant(user.ID) {
		return log.ErrorWithType(
			ErrForbidden,
			"user is not a chat participant",
			"chatID",
			chatID,
		)
	}

	if err := c.chatRepo.Delete(ctx, nil, chatID); err != nil {
		return log.Error("failed to delete chat", "error", err, "chatID", chatID)
	}

	log.Info("Chat deleted", "chatID", chatID, "userID", user.ID)

	return nil
}
