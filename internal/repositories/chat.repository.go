package repositories

import (
	"context"
	"errors"
	"time"

	"carebook/internal/constants"
	"carebook/internal/database"
	"carebook/internal/logger"
	. "carebook/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const CHATS_CACHE_EXPIRY = time.Hour

type ChatRepository interface {
	Create(ctx context.Context, tx *gorm.DB, chat *Chat) error
	GetByID(ctx context.Context, id uuid.UUID) (*Chat, error)
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*Chat, error)
	GetUserChats(ctx context.Context, userID uuid.UUID) ([]Chat, error)
	DeleteByBookingID(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID) ([]Chat, error)
	Delete(ctx context.Context, tx *gorm.DB, chatID uuid.UUID) error
	ClearChatListCaches(ctx context.Context, chats []Chat)
	GetMessages(ctx context.Context, chatID uuid.UUID, limit int) ([]Message, error)
	AddMessage(ctx context.Context, tx *gorm.DB, chat *Chat, message *Message) error
}

type chatRepository struct {
	db  database.DB
	log logger.Logger
}

func NewChatRepository(db database.DB) ChatRepository {
	return &chatRepository{
		db:  db,
		log: logger.New("chatRepository"),
	}
}

func (r *chatRepository) Create(ctx context.Context, tx *gorm.DB, chat *Chat) error {
	log := r.log.Function("Create")

	db := tx
	if db == nil {
		db = r.db.SQLWithContext(ctx)
	}

	if err := db.Create(chat).Error; err != nil {
		return log.Err("failed to create chat", err, "bookingID", chat.BookingID)
	}

	r.clearParticipantChatCaches(ctx, chat)

	return nil
}

func (r *chatRepository) GetByID(ctx context.Context, id uuid.UUID) (*Chat, error) {
	log := r.log.Function("GetByID")

	var chat Chat
	if err := r.db.SQLWithContext(ctx).First(&chat, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get chat by id", err, "id", id)
	}

	return &chat, nil
}

// GetByBookingID returns the booking's companion chat, or nil when the
// best-effort creation at booking time never happened.
func (r *chatRepository) GetByBookingID(
	ctx context.Context,
	bookingID uuid.UUID,
) (*Chat, error) {
	log := r.log.Function("GetByBookingID")

	var chat Chat
	err := r.db.SQLWithContext(ctx).First(&chat, "booking_id = ?", bookingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, log.Err("failed to get chat by booking id", err, "bookingID", bookingID)
	}

	return &chat, nil
}

func (r *chatRepository) GetUserChats(ctx context.Context, userID uuid.UUID) ([]Chat, error) {
	log := r.log.Function("GetUserChats")

	var cached []Chat
	found, err := database.NewCacheBuilder(r.db.Cache.General, userID.String()).
		WithContext(ctx).
		WithHash(constants.ChatsCachePrefix).
		Get(&cached)
	if err != nil {
		log.Warn("failed to get chats from cache", "userID", userID, "error", err)
	}

	if found {
		return cached, nil
	}

	var chats []Chat
	if err := r.db.SQLWithContext(ctx).
		Where("? = ANY(participants)", userID.String()).
		Order("last_message_time DESC NULLS LAST").
		Find(&chats).Error; err != nil {
		return nil, log.Err("failed to get user chats", err, "userID", userID)
	}

	err = database.NewCacheBuilder(r.db.Cache.General, userID.String()).
		WithContext(ctx).
		WithHash(constants.ChatsCachePrefix).
		WithStruct(chats).
		WithTTL(CHATS_CACHE_EXPIRY).
		Set()
	if err != nil {
		log.Warn("failed to set chats in cache", "userID", userID, "error", err)
	}

	return chats, nil
}

// DeleteByBookingID hard-deletes the booking's chats and their messages and
// returns the deleted chats. Runs inside the caller's transaction so a
// cancelled booking and its vanished chat commit together; when a transaction
// is supplied, the caller clears the participants' caches after commit via
// ClearChatListCaches.
func (r *chatRepository) DeleteByBookingID(
	ctx context.Context,
	tx *gorm.DB,
	bookingID uuid.UUID,
) ([]Chat, error) {
	log := r.log.Function("DeleteByBookingID")

	db := tx
	if db == nil {
		db = r.db.SQLWithContext(ctx)
	}

	var chats []Chat
	if err := db.Where("booking_id = ?", bookingID).Find(&chats).Error; err != nil {
		return nil, log.Err("failed to find chats for booking", err, "bookingID", bookingID)
	}

	if len(chats) == 0 {
		return nil, nil
	}

	chatIDs := make([]uuid.UUID, 0, len(chats))
	for _, chat := range chats {
		chatIDs = append(chatIDs, chat.ID)
	}

	if err := db.Unscoped().Where("chat_id IN ?", chatIDs).Delete(&Message{}).Error; err != nil {
		return nil, log.Err("failed to delete chat messages", err, "bookingID", bookingID)
	}

	if err := db.Unscoped().Where("booking_id = ?", bookingID).Delete(&Chat{}).Error; err != nil {
		return nil, log.Err("failed to delete chats", err, "bookingID", bookingID)
	}

	if tx == nil {
		r.ClearChatListCaches(ctx, chats)
	}

	log.Info("Deleted chats for booking", "bookingID", bookingID, "count", len(chats))
	return chats, nil
}

func (r *chatRepository) Delete(ctx context.Context, tx *gorm.DB, chatID uuid.UUID) error {
	log := r.log.Function("Delete")

	db := tx
	if db == nil {
		db = r.db.SQLWithContext(ctx)
	}

	var chat Chat
	if err := db.First(&chat, "id = ?", chatID).Error; err != nil {
		return log.Err("failed to find chat", err, "chatID", chatID)
	}

	if err := db.Unscoped().Where("chat_id = ?", chatID).Delete(&Message{}).Error; err != nil {
		return log.Err("failed to delete chat messages", err, "chatID", chatID)
	}

	if err := db.Unscoped().Delete(&Chat{}, "id = ?", chatID).Error; err != nil {
		return log.Err("failed to delete chat", err, "chatID", chatID)
	}

	r.clearParticipantChatCaches(ctx, &chat)

	return nil
}

func (r *chatRepository) GetMessages(
	ctx context.Context,
	chatID uuid.UUID,
	limit int,
) ([]Message, error) {
	log := r.log.Function("GetMessages")

	query := r.db.SQLWithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("sent_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var messages []Message
	if err := query.Find(&messages).Error; err != nil {
		return nil, log.Err("failed to get chat messages", err, "chatID", chatID)
	}

	return messages, nil
}

// AddMessage appends a message and refreshes the chat's last-message summary
// in the same transaction.
func (r *chatRepository) AddMessage(
	ctx context.Context,
	tx *gorm.DB,
	chat *Chat,
	message *Message,
) error {
	log := r.log.Function("AddMessage")

	db := tx
	if db == nil {
		db = r.db.SQLWithContext(ctx)
	}

	if err := db.Create(message).Error; err != nil {
		return log.Err("failed to create message", err, "chatID", message.ChatID)
	}

	updates := map[string]any{
		"last_message":      message.Content,
		"last_message_time": message.SentAt,
	}
	if err := db.Model(&Chat{}).Where("id = ?", message.ChatID).Updates(updates).Error; err != nil {
		return log.Err("failed to update chat summary", err, "chatID", message.ChatID)
	}

	r.clearParticipantChatCaches(ctx, chat)

	return nil
}

// ClearChatListCaches invalidates the chat-list cache of every participant in
// the given chats. Exposed for callers that delete chats inside a transaction
// and must invalidate only after it commits.
func (r *chatRepository) ClearChatListCaches(ctx context.Context, chats []Chat) {
	for _, chat := range chats {
		r.clearParticipantChatCaches(ctx, &chat)
	}
}

func (r *chatRepository) clearParticipantChatCaches(ctx context.Context, chat *Chat) {
	for _, participant := range chat.Participants {
		err := database.NewCacheBuilder(r.db.Cache.General, participant).
			WithContext(ctx).
			WithHash(constants.ChatsCachePrefix).
			Delete()
		if err != nil {
			r.log.Warn(
				"failed to clear participant chat cache",
				"participant",
				participant,
				"error",
				err,
			)
		}
	}
}
