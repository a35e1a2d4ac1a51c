package jobs

import (
	"context"
	"time"

	"carebook/internal/logger"
	"carebook/internal/repositories"
	"carebook/internal/services"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type overdueCompleter interface {
	CompleteOverdue(
		ctx context.Context,
		tx *gorm.DB,
		userID *uuid.UUID,
		now time.Time,
	) (int64, error)
}

// BookingSweepJob backstops the request-path sweeps: users who never open
// the app still get their elapsed bookings promoted to completed.
type BookingSweepJob struct {
	bookingRepo overdueCompleter
	log         logger.Logger
	schedule    services.Schedule
}

func NewBookingSweepJob(
	bookingRepo repositories.BookingRepository,
	schedule services.Schedule,
) *BookingSweepJob {
	log := logger.New("bookingSweepJob")
	log.Info("Creating new booking sweep job", "schedule", schedule)

	return &BookingSweepJob{
		bookingRepo: bookingRepo,
		log:         log,
		schedule:    schedule,
	}
}

func (j *BookingSweepJob) Name() string {
	return "BookingOverdueSweep"
}

func (j *BookingSweepJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	log.Info("Starting system-wide booking sweep")

	count, err := j.bookingRepo.CompleteOverdue(ctx, nil, nil, time.Now())
	if err != nil {
		return log.Err("booking sweep failed", err)
	}

	log.Info("Booking sweep completed", "promoted", count)
	return nil
}

func (j *BookingSweepJob) Schedule() services.Schedule {
	return j.schedule
}
