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

const CENTERS_CACHE_EXPIRY = 12 * time.Hour

type CenterRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Center, error)
	GetAll(ctx context.Context) ([]Center, error)
	Create(ctx context.Context, center *Center) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type centerRepository struct {
	db  database.DB
	log logger.Logger
}

func NewCenterRepository(db database.DB) CenterRepository {
	return &centerRepository{
		db:  db,
		log: logger.New("centerRepository"),
	}
}

func (r *centerRepository) GetByID(ctx context.Context, id uuid.UUID) (*Center, error) {
	log := r.log.Function("GetByID")

	var center Center
	if err := r.db.SQLWithContext(ctx).First(&center, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get center by id", err, "id", id)
	}

	return &center, nil
}

func (r *centerRepository) GetAll(ctx context.Context) ([]Center, error) {
	log := r.log.Function("GetAll")

	var cached []Center
	found, err := database.NewCacheBuilder(r.db.Cache.General, constants.CentersCacheKey).
		WithContext(ctx).
		Get(&cached)
	if err != nil {
		log.Warn("failed to get centers from cache", "error", err)
	}

	if found {
		return cached, nil
	}

	var centers []Center
	if err := r.db.SQLWithContext(ctx).Order("name ASC").Find(&centers).Error; err != nil {
		return nil, log.Err("failed to get centers", err)
	}

	err = database.NewCacheBuilder(r.db.Cache.General, constants.CentersCacheKey).
		WithContext(ctx).
		WithStruct(centers).
		WithTTL(CENTERS_CACHE_EXPIRY).
		Set()
	if err != nil {
		log.Warn("failed to set centers in cache", "error", err)
	}

	return centers, nil
}

func (r *centerRepository) Create(ctx context.Context, center *Center) error {
	log := r.log.Function("Create")

	if err := r.db.SQLWithContext(ctx).Create(center).Error; err != nil {
		return log.Err("failed to create center", err, "name", center.Name)
	}

	err := database.NewCacheBuilder(r.db.Cache.General, constants.CentersCacheKey).
		WithContext(ctx).
		Delete()
	if err != nil {
		log.Warn("failed to clear centers cache", "error", err)
	}

	return nil
}

func (r *centerRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	log := r.log.Function("Exists")

	var center Center
	err := r.db.SQLWithContext(ctx).Select("id").First(&center, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, log.Err("failed to check center existence", err, "id", id)
	}

	return true, nil
}
