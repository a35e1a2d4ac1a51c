package reviewsController

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
)

const (
	MinRating     = 1
	MaxRating     = 5
	MaxTextLength = 2000
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
)

type ReviewsController struct {
	reviewRepo  repositories.ReviewRepository
	bookingRepo repositories.BookingRepository
	centerRepo  repositories.CenterRepository
	db          database.DB
	Config      config.Config
}

type SubmitReviewRequest struct {
	CenterID uuid.UUID `json:"centerId"`
	Rating   int       `json:"rating"`
	Text     string    `json:"text"`
}

type ReviewEligibility struct {
	CanReview bool `json:"canReview"`
}

type ReviewsControllerInterface interface {
	CanReview(ctx context.Context, user *User, centerID uuid.UUID) (*ReviewEligibility, error)
	SubmitReview(ctx context.Context, user *User, request *SubmitReviewRequest) (*Review, error)
	ListForCenter(ctx context.Context, centerID uuid.UUID) ([]Review, error)
	DeleteReview(ctx context.Context, user *User, reviewID uuid.UUID) error
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) ReviewsControllerInterface {
	return &ReviewsController{
		reviewRepo:  repos.Review,
		bookingRepo: repos.Booking,
		centerRepo:  repos.Center,
		db:          db,
		Config:      config,
	}
}

func (c *ReviewsController) CanReview(
	ctx context.Context,
	user *User,
	centerID uuid.UUID,
) (*ReviewEligibility, error) {
	log := logger.NewWithContext(ctx, "reviewsController").Function("CanReview")

	if centerID == uuid.Nil {
		return nil, log.ErrorWithType(ErrValidation, "centerId is required")
	}

	bookings, err := c.bookingRepo.GetByUserAndCenter(ctx, user.ID, centerID)
	if err != nil {
		return nil, log.Error(
			"failed to get bookings for eligibility check",
			"error",
			err,
			"userID",
			user.ID,
			"centerID",
			centerID,
		)
	}

	return &ReviewEligibility{
		CanReview: HasCompletedBooking(bookings, time.Now()),
	}, nil
}

func (c *ReviewsController) SubmitReview(
	ctx context.Context,
	user *User,
	request *SubmitReviewRequest,
) (*Review, error) {
	log := logger.NewWithContext(ctx, "reviewsController").Function("SubmitReview")

	if request.CenterID == uuid.Nil {
		return nil, log.ErrorWithType(ErrValidation, "centerId is required")
	}

	if request.Rating < MinRating || request.Rating > MaxRating {
		return nil, log.ErrorWithType(
			ErrValidation,
			"rating must be between 1 and 5",
			"rating",
			request.Rating,
		)
	}

	text := strings.TrimSpace(request.Text)
	if text == "" {
		return nil, log.ErrorWithType(ErrValidation, "review text is required")
	}

	if len(text) > MaxTextLength {
		return nil, log.ErrorWithType(
			ErrValidation,
			"review text exceeds maximum length",
			"length",
			len(text),
			"max",
			MaxTextLength,
		)
	}

	if _, err := c.centerRepo.GetByID(ctx, request.CenterID); err != nil {
		return nil, log.ErrorWithType(ErrNotFound, "center not found", "centerID", request.CenterID)
	}

	bookings, err := c.bookingRepo.GetByUserAndCenter(ctx, user.ID, request.CenterID)
	if err != nil {
		return nil, log.Error(
			"failed to get bookings for eligibility check",
			"error",
			err,
			"userID",
			user.ID,
			"centerID",
			request.CenterID,
		)
	}

	if !HasCompletedBooking(bookings, time.Now()) {
		return nil, log.ErrorWithType(
			ErrForbidden,
			"user has no completed stay at this center",
			"userID",
			user.ID,
			"centerID",
			request.CenterID,
		)
	}

	review := &Review{
		UserID:   user.ID,
		CenterID: request.CenterID,
		Rating:   request.Rating,
		Text:     text,
		Status:   ReviewStatusApproved,
	}

	if err := c.reviewRepo.Create(ctx, review); err != nil {
		return nil, log.Error("failed to create review", "error", err, "userID", user.ID)
	}

	log.Info(
		"Review submitted successfully",
		"userID",
		user.ID,
		"centerID",
		request.CenterID,
		"reviewID",
		review.ID,
	)

	return review, nil
}

func (c *ReviewsController) ListForCenter(
	ctx context.Context,
	centerID uuid.UUID,
) ([]Review, error) {
	log := logger.NewWithContext(ctx, "reviewsController").Function("ListForCenter")

	if centerID == uuid.Nil {
		return nil, log.ErrorWithType(ErrValidation, "centerId is required")
	}

	reviews, err := c.reviewRepo.GetByCenter(ctx, centerID)
	if err != nil {
		return nil, log.Error("failed to get center reviews", "error", err, "centerID", centerID)
	}

	return reviews, nil
}

func (c *ReviewsController) DeleteReview(
	ctx context.Context,
	user *User,
	reviewID uuid.UUID,
) error {
	log := logger.NewWithContext(ctx, "reviewsController").Function("DeleteReview")

	if reviewID == uuid.Nil {
		return log.ErrorWithType(ErrValidation, "reviewId is required")
	}

	review, err := c.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return log.ErrorWithType(ErrNotFound, "review not found", "reviewID", reviewID)
	}

	if review.UserID != user.ID {
		return log.ErrorWithType(
			ErrForbidden,
			"review does not belong to user",
			"reviewID",
			reviewID,
		)
	}

	if err := c.reviewRepo.Delete(ctx, user.ID, reviewID); err != nil {
		return log.Error("failed to delete review", "error", err, "reviewID", reviewID)
	}

	log.Info("Review deleted", "reviewID", reviewID, "userID", user.ID)

	return nil
}
