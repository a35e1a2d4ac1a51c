package chatsController

import (
	"context"
	"strings"
	"testing"
	"time"

	. "carebook/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockChatRepo struct {
	chats     map[uuid.UUID]*Chat
	byBooking map[uuid.UUID]*Chat
	messages  []*Message
	created   []*Chat
	deleted   []uuid.UUID
}

func newMockChatRepo() *mockChatRepo {
	return &mockChatRepo{
		chats:     make(map[uuid.UUID]*Chat),
		byBooking: make(map[uuid.UUID]*Chat),
	}
}

func (m *mockChatRepo) Create(ctx context.Context, tx *gorm.DB, chat *Chat) error {
	chat.ID = uuid.New()
	m.created = append(m.created, chat)
	m.chats[chat.ID] = chat
	if chat.BookingID != nil {
		m.byBooking[*chat.BookingID] = chat
	}
	return nil
}

func (m *mockChatRepo) GetByID(ctx context.Context, id uuid.UUID) (*Chat, error) {
	chat, ok := m.chats[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return chat, nil
}

func (m *mockChatRepo) GetByBookingID(
	ctx context.Context,
	bookingID uuid.UUID,
) (*Chat, error) {
	return m.byBooking[bookingID], nil
}

func (m *mockChatRepo) GetUserChats(ctx context.Context, userID uuid.UUID) ([]Chat, error) {
	var out []Chat
	for _, chat := range m.chats {
		if chat.HasParticipant(userID) {
			out = append(out, *chat)
		}
	}
	return out, nil
}

func (m *mockChatRepo) DeleteByBookingID(
	ctx context.Context,
	tx *gorm.DB,
	bookingID uuid.UUID,
) ([]Chat, error) {
	return nil, nil
}

func (m *mockChatRepo) ClearChatListCaches(ctx context.Context, chats []Chat) {}

func (m *mockChatRepo) Delete(ctx context.Context, tx *gorm.DB, chatID uuid.UUID) error {
	m.deleted = append(m.deleted, chatID)
	delete(m.chats, chatID)
	return nil
}

func (m *mockChatRepo) GetMessages(
	ctx context.Context,
	chatID uuid.UUID,
	limit int,
) ([]Message, error) {
	var out []Message
	for _, message := range m.messages {
		if message.ChatID == chatID {
			out = append(out, *message)
		}
	}
	return out, nil
}

func (m *mockChatRepo) AddMessage(
	ctx context.Context,
	tx *gorm.DB,
	chat *Chat,
	message *Message,
) error {
	message.ID = uuid.New()
	m.messages = append(m.messages, message)
	return nil
}

type mockBookingRepo struct {
	bookings map[uuid.UUID]*Booking
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{bookings: make(map[uuid.UUID]*Booking)}
}

func (m *mockBookingRepo) Create(ctx context.Context, booking *Booking) error { return nil }

func (m *mockBookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	booking, ok := m.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return booking, nil
}

func (m *mockBookingRepo) GetUserBookings(
	ctx context.Context,
	userID uuid.UUID,
) ([]Booking, error) {
	return nil, nil
}

func (m *mockBookingRepo) GetByUserAndCenter(
	ctx context.Context,
	userID, centerID uuid.UUID,
) ([]Booking, error) {
	return nil, nil
}

func (m *mockBookingRepo) Update(ctx context.Context, tx *gorm.DB, booking *Booking) error {
	return nil
}

func (m *mockBookingRepo) CompleteOverdue(
	ctx context.Context,
	tx *gorm.DB,
	userID *uuid.UUID,
	now time.Time,
) (int64, error) {
	return 0, nil
}

func (m *mockBookingRepo) ClearUserBookingsCache(ctx context.Context, userID uuid.UUID) {}

type mockNotifier struct {
	notified []uuid.UUID
}

func (m *mockNotifier) NotifyChatChanged(userID uuid.UUID, chatID uuid.UUID) {
	m.notified = append(m.notified, userID)
}

type fixture struct {
	controller *ChatsController
	chats      *mockChatRepo
	bookings   *mockBookingRepo
	notify     *mockNotifier
	user       *User
}

func newFixture() *fixture {
	chats := newMockChatRepo()
	bookings := newMockBookingRepo()
	notify := &mockNotifier{}

	return &fixture{
		controller: &ChatsController{
			chatRepo:     chats,
			bookingRepo:  bookings,
			notification: notify,
		},
		chats:    chats,
		bookings: bookings,
		notify:   notify,
		user:     &User{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}},
	}
}

func (f *fixture) addBooking(status BookingStatus) *Booking {
	booking := &Booking{
		BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
		UserID:        f.user.ID,
		CenterID:      uuid.New(),
		CenterName:    "Sunny Days",
		Status:        status,
	}
	f.bookings.bookings[booking.ID] = booking
	return booking
}

func (f *fixture) addChat(participants ...uuid.UUID) *Chat {
	ids := make(pq.StringArray, len(participants))
	for i, p := range participants {
		ids[i] = p.String()
	}

	chat := &Chat{
		BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
		Participants:  ids,
	}
	f.chats.chats[chat.ID] = chat
	return chat
}

func TestCreateChatForBookingCreatesWhenAbsent(t *testing.T) {
	f := newFixture()
	booking := f.addBooking(BookingStatusConfirmed)

	chat, err := f.controller.CreateChatForBooking(context.Background(), f.user, booking.ID)

	require.NoError(t, err)
	assert.Equal(t, booking.ID, *chat.BookingID)
	assert.Equal(t, "Sunny Days", chat.CenterName)
	assert.True(t, chat.HasParticipant(f.user.ID))
	assert.Equal(t, pq.StringArray{f.user.ID.String()}, chat.Participants)
}

func TestCreateChatForBookingReturnsExisting(t *testing.T) {
	f := newFixture()
	booking := f.addBooking(BookingStatusConfirmed)

	first, err := f.controller.CreateChatForBooking(context.Background(), f.user, booking.ID)
	require.NoError(t, err)

	second, err := f.controller.CreateChatForBooking(context.Background(), f.user, booking.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.chats.created, 1)
}

func TestCreateChatForBookingErrors(t *testing.T) {
	f := newFixture()

	cancelled := f.addBooking(BookingStatusCancelled)
	foreign := f.addBooking(BookingStatusConfirmed)
	foreign.UserID = uuid.New()

	tests := []struct {
		name      string
		bookingID uuid.UUID
		expected  error
	}{
		{"unknown booking", uuid.New(), ErrNotFound},
		{"someone else's booking", foreign.ID, ErrForbidden},
		{"cancelled booking", cancelled.ID, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.controller.CreateChatForBooking(context.Background(), f.user, tt.bookingID)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestSendMessageValidation(t *testing.T) {
	f := newFixture()
	chat := f.addChat(f.user.ID, uuid.New())

	tests := []struct {
		name     string
		chatID   uuid.UUID
		content  string
		expected error
	}{
		{"empty content", chat.ID, "   ", ErrValidation},
		{"content too long", chat.ID, strings.Repeat("a", MaxMessageLength+1), ErrValidation},
		{"unknown chat", uuid.New(), "hello", ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.controller.SendMessage(
				context.Background(),
				f.user,
				tt.chatID,
				&SendMessageRequest{Content: tt.content},
			)
			assert.ErrorIs(t, err, tt.expected)
		})
	}

	assert.Empty(t, f.chats.messages)
}

func TestSendMessageForbiddenForNonParticipant(t *testing.T) {
	f := newFixture()
	chat := f.addChat(uuid.New(), uuid.New())

	_, err := f.controller.SendMessage(
		context.Background(),
		f.user,
		chat.ID,
		&SendMessageRequest{Content: "hello"},
	)

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSendMessageNotifiesOtherParticipants(t *testing.T) {
	f := newFixture()
	other := uuid.New()
	chat := f.addChat(f.user.ID, other)

	message, err := f.controller.SendMessage(
		context.Background(),
		f.user,
		chat.ID,
		&SendMessageRequest{Content: "  hello there  "},
	)

	require.NoError(t, err)
	assert.Equal(t, "hello there", message.Content)
	assert.Equal(t, f.user.ID, message.SenderID)
	assert.Equal(t, chat.ID, message.ChatID)

	// Sender is excluded from the fan-out.
	assert.Equal(t, []uuid.UUID{other}, f.notify.notified)
}

func TestGetMessages(t *testing.T) {
	f := newFixture()
	chat := f.addChat(f.user.ID, uuid.New())

	_, err := f.controller.SendMessage(
		context.Background(),
		f.user,
		chat.ID,
		&SendMessageRequest{Content: "first"},
	)
	require.NoError(t, err)

	messages, err := f.controller.GetMessages(context.Background(), f.user, chat.ID)

	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "first", messages[0].Content)

	t.Run("non-participant is rejected", func(t *testing.T) {
		stranger := &User{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}}
		_, err := f.controller.GetMessages(context.Background(), stranger, chat.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestDeleteChat(t *testing.T) {
	f := newFixture()
	chat := f.addChat(f.user.ID, uuid.New())

	t.Run("non-participant is rejected", func(t *testing.T) {
		stranger := &User{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}}
		err := f.controller.DeleteChat(context.Background(), stranger, chat.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("participant deletes chat", func(t *testing.T) {
		err := f.controller.DeleteChat(context.Background(), f.user, chat.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{chat.ID}, f.chats.deleted)
	})
}
