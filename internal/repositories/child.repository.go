package repositories

import (
	"context"
	"errors"

	"carebook/internal/database"
	"carebook/internal/logger"
	. "carebook/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChildRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Child, error)
	GetByParent(ctx context.Context, parentID uuid.UUID) ([]Child, error)
	Create(ctx context.Context, child *Child) error
}

type childRepository struct {
	db  database.DB
	log logger.Logger
}

func NewChildRepository(db database.DB) ChildRepository {
	return &childRepository{
		db:  db,
		log: logger.New("childRepository"),
	}
}

func (r *childRepository) GetByID(ctx context.Context, id uuid.UUID) (*Child, error) {
	log := r.log.Function("GetByID")

	var child Child
	err := r.db.SQLWithContext(ctx).First(&child, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, log.Err("failed to get child by id", err, "id", id)
	}

	return &child, nil
}

func (r *childRepository) GetByParent(
	ctx context.Context,
	parentID uuid.UUID,
) ([]Child, error) {
	log := r.log.Function("GetByParent")

	var children []Child
	if err := r.db.SQLWithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("name ASC").
		Find(&children).Error; err != nil {
		return nil, log.Err("failed to get children by parent", err, "parentID", parentID)
	}

	return children, nil
}

func (r *childRepository) Create(ctx context.Context, child *Child) error {
	log := r.log.Function("Create")

	if err := r.db.SQLWithContext(ctx).Create(child).Error; err != nil {
		return log.Err("failed to create child", err, "parentID", child.ParentID)
	}

	return nil
}
