package bookingsController

import (
	"context"
	"errors"
	"testing"
	"time"

	. "carebook/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockBookingRepo struct {
	bookings        map[uuid.UUID]*Booking
	userBookings    []Booking
	created         []*Booking
	updated         []*Booking
	sweepCalls      []*uuid.UUID
	sweepErr        error
	getUserErr      error
	getByCenterErrs error
	byCenter        []Booking
	clearedUsers    []uuid.UUID
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{bookings: make(map[uuid.UUID]*Booking)}
}

func (m *mockBookingRepo) Create(ctx context.Context, booking *Booking) error {
	booking.ID = uuid.New()
	m.created = append(m.created, booking)
	m.bookings[booking.ID] = booking
	return nil
}

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
	if m.getUserErr != nil {
		return nil, m.getUserErr
	}
	return m.userBookings, nil
}

func (m *mockBookingRepo) GetByUserAndCenter(
	ctx context.Context,
	userID, centerID uuid.UUID,
) ([]Booking, error) {
	if m.getByCenterErrs != nil {
		return nil, m.getByCenterErrs
	}
	return m.byCenter, nil
}

func (m *mockBookingRepo) Update(ctx context.Context, tx *gorm.DB, booking *Booking) error {
	m.updated = append(m.updated, booking)
	m.bookings[booking.ID] = booking
	return nil
}

func (m *mockBookingRepo) CompleteOverdue(
	ctx context.Context,
	tx *gorm.DB,
	userID *uuid.UUID,
	now time.Time,
) (int64, error) {
	m.sweepCalls = append(m.sweepCalls, userID)
	if m.sweepErr != nil {
		return 0, m.sweepErr
	}
	return 0, nil
}

func (m *mockBookingRepo) ClearUserBookingsCache(ctx context.Context, userID uuid.UUID) {
	m.clearedUsers = append(m.clearedUsers, userID)
}

type mockChatRepo struct {
	created          []*Chat
	createErr        error
	deletedBookings  []uuid.UUID
	deleteByBkingErr error
	byBooking        map[uuid.UUID]*Chat
	clearedChats     []Chat
}

func newMockChatRepo() *mockChatRepo {
	return &mockChatRepo{byBooking: make(map[uuid.UUID]*Chat)}
}

func (m *mockChatRepo) Create(ctx context.Context, tx *gorm.DB, chat *Chat) error {
	if m.createErr != nil {
		return m.createErr
	}
	chat.ID = uuid.New()
	m.created = append(m.created, chat)
	if chat.BookingID != nil {
		m.byBooking[*chat.BookingID] = chat
	}
	return nil
}

func (m *mockChatRepo) GetByID(ctx context.Context, id uuid.UUID) (*Chat, error) {
	return nil, gorm.ErrRecordNotFound
}

func (m *mockChatRepo) GetByBookingID(
	ctx context.Context,
	bookingID uuid.UUID,
) (*Chat, error) {
	return m.byBooking[bookingID], nil
}

func (m *mockChatRepo) GetUserChats(ctx context.Context, userID uuid.UUID) ([]Chat, error) {
	return nil, nil
}

func (m *mockChatRepo) DeleteByBookingID(
	ctx context.Context,
	tx *gorm.DB,
	bookingID uuid.UUID,
) ([]Chat, error) {
	if m.deleteByBkingErr != nil {
		return nil, m.deleteByBkingErr
	}
	m.deletedBookings = append(m.deletedBookings, bookingID)
	if chat, ok := m.byBooking[bookingID]; ok {
		return []Chat{*chat}, nil
	}
	return nil, nil
}

func (m *mockChatRepo) ClearChatListCaches(ctx context.Context, chats []Chat) {
	m.clearedChats = append(m.clearedChats, chats...)
}

func (m *mockChatRepo) Delete(ctx context.Context, tx *gorm.DB, chatID uuid.UUID) error {
	return nil
}

func (m *mockChatRepo) GetMessages(
	ctx context.Context,
	chatID uuid.UUID,
	limit int,
) ([]Message, error) {
	return nil, nil
}

func (m *mockChatRepo) AddMessage(
	ctx context.Context,
	tx *gorm.DB,
	chat *Chat,
	message *Message,
) error {
	return nil
}

type mockCenterRepo struct {
	centers map[uuid.UUID]*Center
}

func newMockCenterRepo() *mockCenterRepo {
	return &mockCenterRepo{centers: make(map[uuid.UUID]*Center)}
}

func (m *mockCenterRepo) GetByID(ctx context.Context, id uuid.UUID) (*Center, error) {
	center, ok := m.centers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return center, nil
}

func (m *mockCenterRepo) GetAll(ctx context.Context) ([]Center, error) { return nil, nil }

func (m *mockCenterRepo) Create(ctx context.Context, center *Center) error { return nil }

func (m *mockCenterRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.centers[id]
	return ok, nil
}

type mockChildRepo struct {
	children map[uuid.UUID]*Child
}

func newMockChildRepo() *mockChildRepo {
	return &mockChildRepo{children: make(map[uuid.UUID]*Child)}
}

func (m *mockChildRepo) GetByID(ctx context.Context, id uuid.UUID) (*Child, error) {
	return m.children[id], nil
}

func (m *mockChildRepo) GetByParent(
	ctx context.Context,
	parentID uuid.UUID,
) ([]Child, error) {
	return nil, nil
}

func (m *mockChildRepo) Create(ctx context.Context, child *Child) error { return nil }

type mockTransactor struct {
	executed bool
	err      error
}

func (m *mockTransactor) Execute(
	ctx context.Context,
	fn func(context.Context, *gorm.DB) error,
) error {
	m.executed = true
	if m.err != nil {
		return m.err
	}
	return fn(ctx, nil)
}

type mockNotifier struct {
	notified []uuid.UUID
}

func (m *mockNotifier) NotifyBookingChanged(userID uuid.UUID) {
	m.notified = append(m.notified, userID)
}

type fixture struct {
	controller *BookingsController
	bookings   *mockBookingRepo
	chats      *mockChatRepo
	centers    *mockCenterRepo
	children   *mockChildRepo
	tx         *mockTransactor
	notify     *mockNotifier
	user       *User
}

func newFixture() *fixture {
	bookings := newMockBookingRepo()
	chats := newMockChatRepo()
	centers := newMockCenterRepo()
	children := newMockChildRepo()
	tx := &mockTransactor{}
	notify := &mockNotifier{}

	return &fixture{
		controller: &BookingsController{
			bookingRepo:  bookings,
			chatRepo:     chats,
			centerRepo:   centers,
			childRepo:    children,
			transaction:  tx,
			notification: notify,
		},
		bookings: bookings,
		chats:    chats,
		centers:  centers,
		children: children,
		tx:       tx,
		notify:   notify,
		user:     &User{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}},
	}
}

func (f *fixture) addCenter(name string) *Center {
	center := &Center{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}, Name: name}
	f.centers.centers[center.ID] = center
	return center
}

func (f *fixture) addChild(name string, parentID uuid.UUID) *Child {
	child := &Child{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}, Name: name, ParentID: parentID}
	f.children.children[child.ID] = child
	return child
}

func (f *fixture) addBooking(status BookingStatus) *Booking {
	booking := &Booking{
		BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
		UserID:        f.user.ID,
		CenterID:      uuid.New(),
		ChildID:       uuid.New(),
		StartDate:     time.Now().Add(24 * time.Hour),
		EndDate:       time.Now().Add(48 * time.Hour),
		Status:        status,
	}
	f.bookings.bookings[booking.ID] = booking
	return booking
}

func futureDates() (string, string) {
	start := time.Now().Add(24 * time.Hour).Format(time.RFC3339)
	end := time.Now().Add(48 * time.Hour).Format(time.RFC3339)
	return start, end
}

func TestValidateBookingDates(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour).Format(time.RFC3339)
	farFuture := now.Add(48 * time.Hour).Format(time.RFC3339)
	past := now.Add(-24 * time.Hour).Format(time.RFC3339)

	tests := []struct {
		name        string
		start       string
		end         string
		expectError bool
	}{
		{"valid window", future, farFuture, false},
		{"missing start", "", farFuture, true},
		{"missing end", future, "", true},
		{"malformed start", "yesterday", farFuture, true},
		{"start in past", past, farFuture, true},
		{"end before start", farFuture, future, true},
		{"zero-length window", future, future, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := validateBookingDates(tt.start, tt.end, now)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateBookingValidation(t *testing.T) {
	f := newFixture()
	start, end := futureDates()
	center := f.addCenter("Sunny Days")
	child := f.addChild("Alex", f.user.ID)

	tests := []struct {
		name     string
		request  CreateBookingRequest
		expected error
	}{
		{
			name:     "missing centerId",
			request:  CreateBookingRequest{ChildID: child.ID, StartDate: start, EndDate: end},
			expected: ErrValidation,
		},
		{
			name:     "missing childId",
			request:  CreateBookingRequest{CenterID: center.ID, StartDate: start, EndDate: end},
			expected: ErrValidation,
		},
		{
			name: "invalid dates",
			request: CreateBookingRequest{
				CenterID: center.ID, ChildID: child.ID,
				StartDate: "not-a-date", EndDate: end,
			},
			expected: ErrValidation,
		},
		{
			name: "unknown center",
			request: CreateBookingRequest{
				CenterID: uuid.New(), ChildID: child.ID,
				StartDate: start, EndDate: end,
			},
			expected: ErrNotFound,
		},
		{
			name: "unknown child",
			request: CreateBookingRequest{
				CenterID: center.ID, ChildID: uuid.New(),
				StartDate: start, EndDate: end,
			},
			expected: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.controller.CreateBooking(context.Background(), f.user, &tt.request)
			assert.ErrorIs(t, err, tt.expected)
		})
	}

	assert.Empty(t, f.bookings.created)
}

func TestCreateBookingForbiddenForOthersChild(t *testing.T) {
	f := newFixture()
	start, end := futureDates()
	center := f.addCenter("Sunny Days")
	child := f.addChild("Alex", uuid.New()) // different guardian

	_, err := f.controller.CreateBooking(context.Background(), f.user, &CreateBookingRequest{
		CenterID:  center.ID,
		ChildID:   child.ID,
		StartDate: start,
		EndDate:   end,
	})

	assert.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, f.bookings.created)
}

func TestCreateBookingSuccess(t *testing.T) {
	f := newFixture()
	start, end := futureDates()
	center := f.addCenter("Sunny Days")
	child := f.addChild("Alex", f.user.ID)

	booking, err := f.controller.CreateBooking(context.Background(), f.user, &CreateBookingRequest{
		CenterID:  center.ID,
		ChildID:   child.ID,
		StartDate: start,
		EndDate:   end,
	})

	require.NoError(t, err)
	assert.Equal(t, BookingStatusPending, booking.Status)
	assert.Equal(t, "Sunny Days", booking.CenterName)
	assert.Equal(t, "Alex", booking.ChildName)
	assert.False(t, booking.Rescheduled)

	// Companion chat created and user notified.
	require.Len(t, f.chats.created, 1)
	assert.Equal(t, booking.ID, *f.chats.created[0].BookingID)
	assert.Equal(t, []uuid.UUID{f.user.ID}, f.notify.notified)
}

func TestCreateBookingSurvivesChatFailure(t *testing.T) {
	f := newFixture()
	start, end := futureDates()
	center := f.addCenter("Sunny Days")
	child := f.addChild("Alex", f.user.ID)
	f.chats.createErr = errors.New("chat store down")

	booking, err := f.controller.CreateBooking(context.Background(), f.user, &CreateBookingRequest{
		CenterID:  center.ID,
		ChildID:   child.ID,
		StartDate: start,
		EndDate:   end,
	})

	require.NoError(t, err)
	assert.NotNil(t, booking)
	assert.Len(t, f.bookings.created, 1)
}

func TestListBookingsSweepsFirstAndFailsClosed(t *testing.T) {
	f := newFixture()
	f.bookings.sweepErr = errors.New("sweep failed")

	_, err := f.controller.ListBookings(context.Background(), f.user)

	assert.Error(t, err)
	require.Len(t, f.bookings.sweepCalls, 1)
	require.NotNil(t, f.bookings.sweepCalls[0])
	assert.Equal(t, f.user.ID, *f.bookings.sweepCalls[0])
}

func TestListBookingsCategorizes(t *testing.T) {
	f := newFixture()
	now := time.Now()
	f.bookings.userBookings = []Booking{
		{
			BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
			Status:        BookingStatusCancelled,
			StartDate:     now.Add(-48 * time.Hour),
			EndDate:       now.Add(-24 * time.Hour),
		},
		{
			BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
			Status:        BookingStatusConfirmed,
			StartDate:     now.Add(24 * time.Hour),
			EndDate:       now.Add(48 * time.Hour),
		},
	}

	buckets, err := f.controller.ListBookings(context.Background(), f.user)

	require.NoError(t, err)
	assert.Len(t, buckets.Cancelled, 1)
	assert.Len(t, buckets.Current, 1)
	assert.Empty(t, buckets.Past)
}

func TestCancelBookingNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.controller.CancelBooking(context.Background(), f.user, uuid.New())

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelBookingForbidden(t *testing.T) {
	f := newFixture()
	booking := f.addBooking(BookingStatusConfirmed)
	booking.UserID = uuid.New()

	_, err := f.controller.CancelBooking(context.Background(), f.user, booking.ID)

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCancelBookingIdempotent(t *testing.T) {
	f := newFixture()
	booking := f.addBooking(BookingStatusCancelled)

	result, err := f.controller.CancelBooking(context.Background(), f.user, booking.ID)

	require.NoError(t, err)
	assert.Equal(t, BookingStatusCancelled, result.Status)
	assert.False(t, f.tx.executed)
	assert.Empty(t, f.chats.deletedBookings)
	assert.Empty(t, f.notify.notified)
}

func TestCancelBookingCompletedConflicts(t *testing.T) {
	f := newFixture()
	booking := f.addBooking(BookingStatusCompleted)

	_, err := f.controller.CancelBooking(context.Background(), f.user, booking.ID)

	assert.ErrorIs(t, err, ErrConflict)
}

func TestCancelBookingDeletesChatInTransaction(t *testing.T) {
	f := newFixture()
	booking := f.addBooking(BookingStatusConfirmed)
	chat := &Chat{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}, BookingID: &booking.ID}
	f.chats.byBooking[booking.ID] = chat

	result, err := f.controller.CancelBooking(context.Background(), f.user, booking.ID)

	require.NoError(t, err)
	assert.Equal(t, BookingStatusCancelled, result.Status)
	assert.True(t, f.tx.executed)
	assert.Equal(t, []uuid.UUID{booking.ID}, f.chats.deletedBookings)
	assert.Equal(t, []uuid.UUID{f.user.ID}, f.notify.notified)

	// Caches invalidated once the transaction committed.
	assert.Equal(t, []uuid.UUID{f.user.ID}, f.bookings.clearedUsers)
	require.Len(t, f.chats.clearedChats, 1)
	assert.Equal(t, chat.ID, f.chats.clearedChats[0].ID)
}

func TestCancelBookingRollsBackOnChatDeleteFailure(t *testing.T) {
	f := newFixture()
	booking := f.addBooking(BookingStatusConfirmed)
	f.chats.deleteByBkingErr = errors.New("delete failed")

	_, err := f.controller.CancelBooking(context.Background(), f.user, booking.ID)

	assert.Error(t, err)
	assert.Empty(t, f.notify.notified)

	// A failed transaction must not invalidate caches.
	assert.Empty(t, f.bookings.clearedUsers)
	assert.Empty(t, f.chats.clearedChats)
}

func TestRescheduleBookingTerminalConflicts(t *testing.T) {
	f := newFixture()
	start, end := futureDates()

	for _, status := range []BookingStatus{BookingStatusCompleted, BookingStatusCancelled} {
		booking := f.addBooking(status)

		_, err := f.controller.RescheduleBooking(
			context.Background(),
			f.user,
			booking.ID,
			&RescheduleBookingRequest{StartDate: start, EndDate: end},
		)

		assert.ErrorIs(t, err, ErrConflict, "status %s", status)
	}
}

func TestRescheduleBookingSuccess(t *testing.T) {
	f := newFixture()
	start, end := futureDates()
	center := f.addCenter("Renamed Center")
	child := f.addChild("Renamed Child", f.user.ID)

	booking := f.addBooking(BookingStatusPending)
	booking.CenterID = center.ID
	booking.ChildID = child.ID
	booking.CenterName = "Old Center"
	booking.ChildName = "Old Child"

	result, err := f.controller.RescheduleBooking(
		context.Background(),
		f.user,
		booking.ID,
		&RescheduleBookingRequest{StartDate: start, EndDate: end},
	)

	require.NoError(t, err)
	assert.Equal(t, BookingStatusConfirmed, result.Status)
	assert.True(t, result.Rescheduled)
	assert.Equal(t, "Renamed Center", result.CenterName)
	assert.Equal(t, "Renamed Child", result.ChildName)
	assert.Equal(t, []uuid.UUID{f.user.ID}, f.notify.notified)
}

func TestCompleteBookingTerminalConflicts(t *testing.T) {
	f := newFixture()

	// Unlike cancel, complete has no idempotent repeat: both terminal
	// statuses reject the transition.
	for _, status := range []BookingStatus{BookingStatusCompleted, BookingStatusCancelled} {
		booking := f.addBooking(status)

		_, err := f.controller.CompleteBooking(context.Background(), f.user, booking.ID)

		assert.ErrorIs(t, err, ErrConflict, "status %s", status)
	}

	assert.Empty(t, f.bookings.updated)
}

func TestCompleteBookingSuccess(t *testing.T) {
	f := newFixture()
	booking := f.addBooking(BookingStatusConfirmed)

	result, err := f.controller.CompleteBooking(context.Background(), f.user, booking.ID)

	require.NoError(t, err)
	assert.Equal(t, BookingStatusCompleted, result.Status)
	assert.Equal(t, []uuid.UUID{f.user.ID}, f.notify.notified)
}

func TestCheckBookingStatus(t *testing.T) {
	f := newFixture()
	now := time.Now()

	f.bookings.byCenter = []Booking{
		{
			BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
			Status:        BookingStatusConfirmed,
			StartDate:     now.Add(-48 * time.Hour),
			EndDate:       now.Add(-24 * time.Hour),
		},
	}

	check, err := f.controller.CheckBookingStatus(context.Background(), f.user, uuid.New())

	require.NoError(t, err)
	assert.True(t, check.HasCompletedBooking)

	// Sweep ran scoped to the requesting user.
	require.Len(t, f.bookings.sweepCalls, 1)
	assert.Equal(t, f.user.ID, *f.bookings.sweepCalls[0])
}

func TestCheckBookingStatusNoCompletedStay(t *testing.T) {
	f := newFixture()
	now := time.Now()

	f.bookings.byCenter = []Booking{
		{
			BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
			Status:        BookingStatusConfirmed,
			StartDate:     now.Add(24 * time.Hour),
			EndDate:       now.Add(48 * time.Hour),
		},
	}

	check, err := f.controller.CheckBookingStatus(context.Background(), f.user, uuid.New())

	require.NoError(t, err)
	assert.False(t, check.HasCompletedBooking)
}
