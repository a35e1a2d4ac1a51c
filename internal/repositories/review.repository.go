package repositories

import (
	"context"
	"fmt"
	"time"

	"carebook/internal/constants"
	"carebook/internal/database"
	"carebook/internal/logger"
	. "carebook/internal/models"

	"github.com/google/uuid"
)

const REVIEWS_CACHE_EXPIRY = time.Hour

type ReviewRepository interface {
	Create(ctx context.Context, review *Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*Review, error)
	GetByCenter(ctx context.Context, centerID uuid.UUID) ([]Review, error)
	Delete(ctx context.Context, userID, reviewID uuid.UUID) error
}

type reviewRepository struct {
	db  database.DB
	log logger.Logger
}

func NewReviewRepository(db database.DB) ReviewRepository {
	return &reviewRepository{
		db:  db,
		log: logger.New("reviewRepository"),
	}
}

func (r *reviewRepository) Create(ctx context.Context, review *Review) error {
	log := r.log.Function("Create")

	if err := r.db.SQLWithContext(ctx).Create(review).Error; err != nil {
		return log.Err(
			"failed to create review",
			err,
			"userID",
			review.UserID,
			"centerID",
			review.CenterID,
		)
	}

	r.clearCenterReviewsCache(ctx, review.CenterID)

	return nil
}

func (r *reviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*Review, error) {
	log := r.log.Function("GetByID")

	var review Review
	if err := r.db.SQLWithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get review by id", err, "id", id)
	}

	return &review, nil
}

func (r *reviewRepository) GetByCenter(
	ctx context.Context,
	centerID uuid.UUID,
) ([]Review, error) {
	log := r.log.Function("GetByCenter")

	var cached []Review
	found, err := database.NewCacheBuilder(r.db.Cache.General, centerID.String()).
		WithContext(ctx).
		WithHash(constants.ReviewsCachePrefix).
		Get(&cached)
	if err != nil {
		log.Warn("failed to get reviews from cache", "centerID", centerID, "error", err)
	}

	if found {
		return cached, nil
	}

	var reviews []Review
	if err := r.db.SQLWithContext(ctx).
		Where("center_id = ? AND status = ?", centerID, ReviewStatusApproved).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		return nil, log.Err("failed to get center reviews", err, "centerID", centerID)
	}

	err = database.NewCacheBuilder(r.db.Cache.General, centerID.String()).
		WithContext(ctx).
		WithHash(constants.ReviewsCachePrefix).
		WithStruct(reviews).
		WithTTL(REVIEWS_CACHE_EXPIRY).
		Set()
	if err != nil {
		log.Warn("failed to set reviews in cache", "centerID", centerID, "error", err)
	}

	return reviews, nil
}

func (r *reviewRepository) Delete(ctx context.Context, userID, reviewID uuid.UUID) error {
	log := r.log.Function("Delete")

	var review Review
	if err := r.db.SQLWithContext(ctx).First(&review, "id = ?", reviewID).Error; err != nil {
		return log.Err("failed to find review", err, "reviewID", reviewID)
	}

	result := r.db.SQLWithContext(ctx).
		Where("id = ? AND user_id = ?", reviewID, userID).
		Delete(&Review{})
	if result.Error != nil {
		return log.Err("failed to delete review", result.Error, "reviewID", reviewID)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("review not found or not owned by user")
	}

	r.clearCenterReviewsCache(ctx, review.CenterID)

	return nil
}

func (r *reviewRepository) clearCenterReviewsCache(ctx context.Context, centerID uuid.UUID) {
	err := database.NewCacheBuilder(r.db.Cache.General, centerID.String()).
		WithContext(ctx).
		WithHash(constants.ReviewsCachePrefix).
		Delete()
	if err != nil {
		r.log.Warn("failed to clear center reviews cache", "centerID", centerID, "error", err)
	}
}
