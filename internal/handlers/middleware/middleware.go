package middleware

import (
	"carebook/config"
	"carebook/internal/database"
	"carebook/internal/events"
	"carebook/internal/logger"
	"carebook/internal/repositories"
	"carebook/internal/services"
)

type Middleware struct {
	DB          database.DB
	userRepo    repositories.UserRepository
	Config      config.Config
	log         logger.Logger
	eventBus    *events.EventBus
	AuthService *services.AuthService
}

func New(
	db database.DB,
	eventBus *events.EventBus,
	config config.Config,
	repos repositories.Repository,
	authService *services.AuthService,
) Middleware {
	log := logger.New("middleware")

	return Middleware{
		DB:          db,
		userRepo:    repos.User,
		Config:      config,
		log:         log,
		eventBus:    eventBus,
		AuthService: authService,
	}
}
