package repositories

import (
	"context"
	"time"

	"carebook/internal/constants"
	"carebook/internal/database"
	"carebook/internal/logger"
	. "carebook/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const BOOKINGS_CACHE_EXPIRY = time.Hour

type BookingRepository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID) ([]Booking, error)
	GetByUserAndCenter(ctx context.Context, userID, centerID uuid.UUID) ([]Booking, error)
	Update(ctx context.Context, tx *gorm.DB, booking *Booking) error
	CompleteOverdue(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, now time.Time) (int64, error)
	ClearUserBookingsCache(ctx context.Context, userID uuid.UUID)
}

type bookingRepository struct {
	db  database.DB
	log logger.Logger
}

func NewBookingRepository(db database.DB) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: logger.New("bookingRepository"),
	}
}

func (r *bookingRepository) Create(ctx context.Context, booking *Booking) error {
	log := r.log.Function("Create")

	if err := r.db.SQLWithContext(ctx).Create(booking).Error; err != nil {
		return log.Err(
			"failed to create booking",
			err,
			"userID",
			booking.UserID,
			"centerID",
			booking.CenterID,
		)
	}

	r.ClearUserBookingsCache(ctx, booking.UserID)

	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	log := r.log.Function("GetByID")

	var booking Booking
	if err := r.db.SQLWithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get booking by id", err, "id", id)
	}

	return &booking, nil
}

func (r *bookingRepository) GetUserBookings(
	ctx context.Context,
	userID uuid.UUID,
) ([]Booking, error) {
	log := r.log.Function("GetUserBookings")

	var cached []Booking
	found, err := database.NewCacheBuilder(r.db.Cache.General, userID.String()).
		WithContext(ctx).
		WithHash(constants.BookingsCachePrefix).
		Get(&cached)
	if err != nil {
		log.Warn("failed to get bookings from cache", "userID", userID, "error", err)
	}

	if found {
		return cached, nil
	}

	var bookings []Booking
	if err := r.db.SQLWithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_date DESC").
		Find(&bookings).Error; err != nil {
		return nil, log.Err("failed to get user bookings", err, "userID", userID)
	}

	err = database.NewCacheBuilder(r.db.Cache.General, userID.String()).
		WithContext(ctx).
		WithHash(constants.BookingsCachePrefix).
		WithStruct(bookings).
		WithTTL(BOOKINGS_CACHE_EXPIRY).
		Set()
	if err != nil {
		log.Warn("failed to set bookings in cache", "userID", userID, "error", err)
	}

	return bookings, nil
}

func (r *bookingRepository) GetByUserAndCenter(
	ctx context.Context,
	userID, centerID uuid.UUID,
) ([]Booking, error) {
	log := r.log.Function("GetByUserAndCenter")

	var bookings []Booking
	if err := r.db.SQLWithContext(ctx).
		Where("user_id = ? AND center_id = ?", userID, centerID).
		Order("start_date DESC").
		Find(&bookings).Error; err != nil {
		return nil, log.Err(
			"failed to get bookings by user and center",
			err,
			"userID",
			userID,
			"centerID",
			centerID,
		)
	}

	return bookings, nil
}

func (r *bookingRepository) Update(
	ctx context.Context,
	tx *gorm.DB,
	booking *Booking,
) error {
	log := r.log.Function("Update")

	db := tx
	if db == nil {
		db = r.db.SQLWithContext(ctx)
	}

	if err := db.Save(booking).Error; err != nil {
		return log.Err("failed to update booking", err, "bookingID", booking.ID)
	}

	// Inside a transaction the caller invalidates after commit; clearing here
	// would let a concurrent read re-cache pre-commit state.
	if tx == nil {
		r.ClearUserBookingsCache(ctx, booking.UserID)
	}

	return nil
}

// CompleteOverdue promotes every active booking whose end date has elapsed to
// completed in a single UPDATE. A nil userID sweeps the whole table; a non-nil
// userID narrows the sweep to that user's rows. Returns the number promoted.
func (r *bookingRepository) CompleteOverdue(
	ctx context.Context,
	tx *gorm.DB,
	userID *uuid.UUID,
	now time.Time,
) (int64, error) {
	log := r.log.Function("CompleteOverdue")

	db := tx
	if db == nil {
		db = r.db.SQLWithContext(ctx)
	}

	var staleUsers []uuid.UUID
	if userID != nil {
		staleUsers = []uuid.UUID{*userID}
	} else {
		// System-wide sweep: snapshot affected users first so their cached
		// booking lists can be invalidated after the update.
		if err := db.Model(&Booking{}).
			Distinct("user_id").
			Where("status IN ?", ActiveBookingStatuses).
			Where("end_date < ?", now).
			Pluck("user_id", &staleUsers).Error; err != nil {
			return 0, log.Err("failed to collect users with overdue bookings", err)
		}
	}

	query := db.Model(&Booking{}).
		Where("status IN ?", ActiveBookingStatuses).
		Where("end_date < ?", now)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}

	result := query.Update("status", BookingStatusCompleted)
	if result.Error != nil {
		return 0, log.Err("failed to complete overdue bookings", result.Error)
	}

	if result.RowsAffected > 0 {
		for _, staleUser := range staleUsers {
			r.ClearUserBookingsCache(ctx, staleUser)
		}
		log.Info("Completed overdue bookings", "count", result.RowsAffected)
	}

	return result.RowsAffected, nil
}

func (r *bookingRepository) ClearUserBookingsCache(ctx context.Context, userID uuid.UUID) {
	err := database.NewCacheBuilder(r.db.Cache.General, userID.String()).
		WithContext(ctx).
		WithHash(constants.BookingsCachePrefix).
		Delete()
	if err != nil {
		r.log.Warn("failed to clear user bookings cache", "userID", userID, "error", err)
	}
}
