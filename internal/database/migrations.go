package database

import (
	"carebook/internal/logger"
	"carebook/internal/models"
)

// MigrateModels runs GORM AutoMigrate for all models
func (db *DB) MigrateModels() error {
	log := logger.New("database").Function("MigrateModels")
	log.Info("Starting database migration")

	modelsToMigrate := []interface{}{
		&models.User{},
		&models.Center{},
		&models.Child{},
		&models.Booking{},
		&models.Chat{},
		&models.Message{},
		&models.Review{},
	}

	for _, model := range modelsToMigrate {
		if err := db.SQL.AutoMigrate(model); err != nil {
			return log.Err("failed to migrate model", err, "model", model)
		}
	}

	log.Info("Database migration completed successfully")
	return nil
}

// CreateIndexes creates additional indexes that GORM doesn't create automatically
func (db *DB) CreateIndexes() error {
	log := logger.New("database").Function("CreateIndexes")
	log.Info("Creating additional database indexes")

	indexes := []string{
		// The sweep and the categorization read both filter on these
		"CREATE INDEX IF NOT EXISTS idx_bookings_user_status ON bookings(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_bookings_status_end_date ON bookings(status, end_date)",
		"CREATE INDEX IF NOT EXISTS idx_bookings_user_center ON bookings(user_id, center_id)",
		"CREATE INDEX IF NOT EXISTS idx_chats_booking_id ON chats(booking_id)",
		"CREATE INDEX IF NOT EXISTS idx_reviews_center_status ON reviews(center_id, status)",
	}

	for _, index := range indexes {
		if err := db.SQL.Exec(index).Error; err != nil {
			return log.Err("failed to create index", err, "index", index)
		}
	}

	log.Info("Database indexes created successfully")
	return nil
}
