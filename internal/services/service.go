package services

import (
	"carebook/config"
	"carebook/internal/database"
	"carebook/internal/events"
)

type Service struct {
	Auth         *AuthService
	Transaction  *TransactionService
	Scheduler    *SchedulerService
	Notification *NotificationService
}

func New(db database.DB, config config.Config, eventBus *events.EventBus) (Service, error) {
	authService, err := NewAuthService(config)
	if err != nil {
		return Service{}, err
	}

	return Service{
		Auth:         authService,
		Transaction:  NewTransactionService(db),
		Scheduler:    NewSchedulerService(),
		Notification: NewNotificationService(eventBus),
	}, nil
}
