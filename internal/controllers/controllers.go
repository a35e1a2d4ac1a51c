package controllers

import (
	"carebook/config"
	"carebook/internal/database"
	"carebook/internal/events"
	"carebook/internal/repositories"
	"carebook/internal/services"

	bookingsController "carebook/internal/controllers/bookings"
	chatsController "carebook/internal/controllers/chats"
	reviewsController "carebook/internal/controllers/reviews"
)

type Controllers struct {
	Bookings bookingsController.BookingsControllerInterface
	Chats    chatsController.ChatsControllerInterface
	Reviews  reviewsController.ReviewsControllerInterface
}

func New(
	services services.Service,
	repos repositories.Repository,
	eventBus *events.EventBus,
	config config.Config,
	db database.DB,
) Controllers {
	return Controllers{
		Bookings: bookingsController.New(repos, services, config, db),
		Chats:    chatsController.New(repos, services, config, db),
		Reviews:  reviewsController.New(repos, services, config, db),
	}
}
