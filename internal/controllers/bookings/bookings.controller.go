package bookingsController

import (
	"context"
	"errors"
	"time"

	"carebook/config"
	"carebook/internal/database"
	"carebook/internal/logger"
	. "carebook/internal/models"
	"carebook/internal/repositories"
	"carebook/internal/services"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
)

type transactor interface {
	Execute(ctx context.Context, fn func(context.Context, *gorm.DB) error) error
}

type notifier interface {
	NotifyBookingChanged(userID uuid.UUID)
}

type BookingsController struct {
	bookingRepo  repositories.BookingRepository
	chatRepo     repositories.ChatRepository
	centerRepo   repositories.CenterRepository
	childRepo    repositories.ChildRepository
	transaction  transactor
	notification notifier
	db           database.DB
	Config       config.Config
}

type CreateBookingRequest struct {
	CenterID  uuid.UUID `json:"centerId"`
	ChildID   uuid.UUID `json:"childId"`
	StartDate string    `json:"startDate"`
	EndDate   string    `json:"endDate"`
}

type RescheduleBookingRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type BookingStatusCheck struct {
	HasCompletedBooking bool `json:"hasCompletedBooking"`
}

type BookingsControllerInterface interface {
	CreateBooking(ctx context.Context, user *User, request *CreateBookingRequest) (*Booking, error)
	ListBookings(ctx context.Context, user *User) (*BookingBuckets, error)
	CancelBooking(ctx context.Context, user *User, bookingID uuid.UUID) (*Booking, error)
	RescheduleBooking(
		ctx context.Context,
		user *User,
		bookingID uuid.UUID,
		request *RescheduleBookingRequest,
	) (*Booking, error)
	CompleteBooking(ctx context.Context, user *User, bookingID uuid.UUID) (*Booking, error)
	CheckBookingStatus(
		ctx context.Context,
		user *User,
		centerID uuid.UUID,
	) (*BookingStatusCheck, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) BookingsControllerInterface {
	return &BookingsController{
		bookingRepo:  repos.Booking,
		chatRepo:     repos.Chat,
		centerRepo:   repos.Center,
		childRepo:    repos.Child,
		transaction:  services.Transaction,
		notification: services.Notification,
		db:           db,
		Config:       config,
	}
}

func parseDateTime(dateStr string) (time.Time, error) {
	if dateStr == "" {
		return time.Time{}, errors.New("datetime is required")
	}

	t, err := time.Parse(time.RFC3339, dateStr)
	if err != nil {
		return time.Time{}, errors.New("invalid datetime format, expected RFC3339")
	}

	return t, nil
}

// validateBookingDates enforces the window rules shared by create and
// reschedule: both bounds parse, neither is in the past, and the window has
// positive length.
func validateBookingDates(startStr, endStr string, now time.Time) (time.Time, time.Time, error) {
	startDate, err := parseDateTime(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid startDate: " + err.Error())
	}

	endDate, err := parseDateTime(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid endDate: " + err.Error())
	}

	if startDate.Before(now) {
		return time.Time{}, time.Time{}, errors.New("startDate cannot be in the past")
	}

	if endDate.Before(now) {
		return time.Time{}, time.Time{}, errors.New("endDate cannot be in the past")
	}

	if !endDate.After(startDate) {
		return time.Time{}, time.Time{}, errors.New("endDate must be after startDate")
	}

	return startDate, endDate, nil
}

func (c *BookingsController) CreateBooking(
	ctx context.Context,
	user *User,
	request *CreateBookingRequest,
) (*Booking, error) {
	log := logger.NewWithContext(ctx, "bookingsController").Function("CreateBooking")

	if request.CenterID == uuid.Nil {
		return nil, log.ErrorWithType(ErrValidation, "centerId is required")
	}

	if request.ChildID == uuid.Nil {
		return nil, log.ErrorWithType(ErrValidation, "childId is required")
	}

	startDate, endDate, err := validateBookingDates(request.StartDate, request.EndDate, time.Now())
	if err != nil {
		return nil, log.ErrorWithType(ErrValidation, err.Error())
	}

	center, err := c.centerRepo.GetByID(ctx, request.CenterID)
	if err != nil {
		return nil, log.ErrorWithType(ErrNotFound, "center not found", "centerID", request.CenterID)
	}

	child, err := c.childRepo.GetByID(ctx, request.ChildID)
	if err != nil {
		return nil, log.Error("failed to get child", "error", err, "childID", request.ChildID)
	}
	if child == nil {
		return nil, log.ErrorWithType(ErrNotFound, "child not found", "childID", request.ChildID)
	}

	if child.ParentID != user.ID {
		return nil, log.ErrorWithType(
			ErrForbidden,
			"child does not belong to user",
			"childID",
			request.ChildID,
		)
	}

	booking := &Booking{
		UserID:     user.ID,
		CenterID:   center.ID,
		ChildID:    child.ID,
		CenterName: center.Name,
		ChildName:  child.Name,
		StartDate:  startDate,
		EndDate:    endDate,
		Status:     BookingStatusPending,
	}

	if err := c.bookingRepo.Create(ctx, booking); err != nil {
		return nil, log.Error("failed to create booking", "error", err, "userID", user.ID)
	}

	// Companion chat creation is best-effort: a booking without a chat is
	// repaired lazily on the next chat fetch, so this failure never rolls
	// the booking back.
	c.createCompanionChat(ctx, booking, user)

	c.sweepUser(ctx, user.ID)
	c.notification.NotifyBookingChanged(user.ID)

	log.Info(
		"Booking created successfully",
		"userID",
		user.ID,
		"bookingID",
		booking.ID,
		"centerID",
		center.ID,
	)

	return booking, nil
}

func (c *BookingsController) createCompanionChat(
	ctx context.Context,
	booking *Booking,
	user *User,
) {
	log := logger.NewWithContext(ctx, "bookingsController").Function("createCompanionChat")

	chat := &Chat{
		BookingID:    &booking.ID,
		CenterName:   booking.CenterName,
		Role:         "guardian",
		Participants: pq.StringArray{user.ID.String()},
	}

	if err := c.chatRepo.Create(ctx, nil, chat); err != nil {
		log.Warn(
			"failed to create companion chat, will repair on next chat fetch",
			"bookingID",
			booking.ID,
			"error",
			err,
		)
	}
}

func (c *BookingsController) ListBookings(
	ctx context.Context,
	user *User,
) (*BookingBuckets, error) {
	log := logger.NewWithContext(ctx, "bookingsController").Function("ListBookings")

	// Sweep before read so the persisted statuses agree with what the
	// categorized view reports. A failed sweep fails the read: serving a
	// list that contradicts the database is worse than a 500.
	if _, err := c.bookingRepo.CompleteOverdue(ctx, nil, &user.ID, time.Now()); err != nil {
		return nil, log.Error("failed to sweep overdue bookings", "error", err, "userID", user.ID)
	}

	bookings, err := c.bookingRepo.GetUserBookings(ctx, user.ID)
	if err != nil {
		return nil, log.Error("failed to get user bookings", "error", err, "userID", user.ID)
	}

	buckets := CategorizeBookings(bookings, time.Now())
	return &buckets, nil
}

func (c *BookingsController) CancelBooking(
	ctx context.Context,
	user *User,
	bookingID uuid.UUID,
) (*Booking, error) {
	log := logger.NewWithContext(ctx, "bookingsController").Function("CancelBooking")

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

	// Cancelling twice is a no-op, not an error.
	if booking.Status == BookingStatusCancelled {
		return booking, nil
	}

	if booking.Status == BookingStatusCompleted {
		return nil, log.ErrorWithType(
			ErrConflict,
			"completed booking cannot be cancelled",
			"bookingID",
			bookingID,
		)
	}

	var deletedChats []Chat
	err = c.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		booking.Status = BookingStatusCancelled
		if err := c.bookingRepo.Update(ctx, tx, booking); err != nil {
			return err
		}

		chats, err := c.chatRepo.DeleteByBookingID(ctx, tx, booking.ID)
		if err != nil {
			return err
		}
		deletedChats = chats

		return nil
	})
	if err != nil {
		return nil, log.Error("failed to cancel booking", "error", err, "bookingID", bookingID)
	}

	// Invalidate only after the transaction commits; clearing inside it would
	// let a concurrent read re-cache the pre-commit state.
	c.bookingRepo.ClearUserBookingsCache(ctx, user.ID)
	c.chatRepo.ClearChatListCaches(ctx, deletedChats)

	c.notification.NotifyBookingChanged(user.ID)

	log.Info("Booking cancelled successfully", "userID", user.ID, "bookingID", bookingID)

	return booking, nil
}

func (c *BookingsController) RescheduleBooking(
	ctx context.Context,
	user *User,
	bookingID uuid.UUID,
	request *RescheduleBookingRequest,
) (*Booking, error) {
	log := logger.NewWithContext(ctx, "bookingsController").Function("RescheduleBooking")

	if bookingID == uuid.Nil {
		return nil, log.ErrorWithType(ErrValidation, "bookingId is required")
	}

	startDate, endDate, err := validateBookingDates(request.StartDate, request.EndDate, time.Now())
	if err != nil {
		return nil, log.ErrorWithType(ErrValidation, err.Error())
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

	if booking.Status.IsTerminal() {
		return nil, log.ErrorWithType(
			ErrConflict,
			"booking can no longer be rescheduled",
			"bookingID",
			bookingID,
			"status",
			booking.Status,
		)
	}

	// Refresh name snapshots: a reschedule is the one lifecycle point where
	// stale center or child names get corrected.
	if center, err := c.centerRepo.GetByID(ctx, booking.CenterID); err == nil {
		booking.CenterName = center.Name
	}
	if child, err := c.childRepo.GetByID(ctx, booking.ChildID); err == nil && child != nil {
		booking.ChildName = child.Name
	}

	booking.StartDate = startDate
	booking.EndDate = endDate
	booking.Status = BookingStatusConfirmed
	booking.Rescheduled = true

	if err := c.bookingRepo.Update(ctx, nil, booking); err != nil {
		return nil, log.Error("failed to reschedule booking", "error", err, "bookingID", bookingID)
	}

	c.sweepUser(ctx, user.ID)
	c.notification.NotifyBookingChanged(user.ID)

	log.Info("Booking rescheduled successfully", "userID", user.ID, "bookingID", bookingID)

	return booking, nil
}

func (c *BookingsController) CompleteBooking(
	ctx context.Context,
	user *User,
	bookingID uuid.UUID,
) (*Booking, error) {
	log := logger.NewWithContext(ctx, "bookingsController").Function("CompleteBooking")

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

	// Unlike cancel, a repeat complete is not an idempotent no-op: only
	// active bookings may be completed.
	if booking.Status.IsTerminal() {
		return nil, log.ErrorWithType(
			ErrConflict,
			"booking can no longer be completed",
			"bookingID",
			bookingID,
			"status",
			booking.Status,
		)
	}

	booking.Status = BookingStatusCompleted
	if err := c.bookingRepo.Update(ctx, nil, booking); err != nil {
		return nil, log.Error("failed to complete booking", "error", err, "bookingID", bookingID)
	}

	c.sweepUser(ctx, user.ID)
	c.notification.NotifyBookingChanged(user.ID)

	log.Info("Booking completed successfully", "userID", user.ID, "bookingID", bookingID)

	return booking, nil
}

func (c *BookingsController) CheckBookingStatus(
	ctx context.Context,
	user *User,
	centerID uuid.UUID,
) (*BookingStatusCheck, error) {
	log := logger.NewWithContext(ctx, "bookingsController").Function("CheckBookingStatus")

	if centerID == uuid.Nil {
		return nil, log.ErrorWithType(ErrValidation, "centerId is required")
	}

	if _, err := c.bookingRepo.CompleteOverdue(ctx, nil, &user.ID, time.Now()); err != nil {
		return nil, log.Error("failed to sweep overdue bookings", "error", err, "userID", user.ID)
	}

	bookings, err := c.bookingRepo.GetByUserAndCenter(ctx, user.ID, centerID)
	if err != nil {
		return nil, log.Error(
			"failed to get bookings for center",
			"error",
			err,
			"userID",
			user.ID,
			"centerID",
			centerID,
		)
	}

	return &BookingStatusCheck{
		HasCompletedBooking: HasCompletedBooking(bookings, time.Now()),
	}, nil
}

// sweepUser opportunistically promotes the user's overdue bookings after a
// mutation. The mutation has already committed, so a sweep failure is logged
// and not surfaced; the hourly job and the next read will catch up.
func (c *BookingsController) sweepUser(ctx context.Context, userID uuid.UUID) {
	log := logger.NewWithContext(ctx, "bookingsController").Function("sweepUser")

	if _, err := c.bookingRepo.CompleteOverdue(ctx, nil, &userID, time.Now()); err != nil {
		log.Warn("post-mutation sweep failed", "userID", userID, "error", err)
	}
}
