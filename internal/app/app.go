package app

import (
	"context"

	"carebook/config"
	"carebook/internal/controllers"
	"carebook/internal/database"
	"carebook/internal/events"
	"carebook/internal/handlers/middleware"
	"carebook/internal/jobs"
	"carebook/internal/logger"
	"carebook/internal/repositories"
	"carebook/internal/services"
	"carebook/internal/websockets"
)

type App struct {
	Database   database.DB
	Middleware middleware.Middleware
	Websocket  *websockets.Manager
	EventBus   *events.EventBus
	Config     config.Config

	Services    services.Service
	Repos       repositories.Repository
	Controllers controllers.Controllers
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.InitConfig()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	if err := db.MigrateModels(); err != nil {
		return &App{}, log.Err("failed to migrate models", err)
	}

	if err := db.CreateIndexes(); err != nil {
		return &App{}, log.Err("failed to create indexes", err)
	}

	eventBus := events.New(db.Cache.Events, config)

	repos := repositories.New(db)

	svcs, err := services.New(db, config, eventBus)
	if err != nil {
		return &App{}, log.Err("failed to create services", err)
	}

	websocket, err := websockets.New(db, eventBus, svcs.Auth, repos.User, config)
	if err != nil {
		return &App{}, log.Err("failed to create websocket manager", err)
	}

	middleware := middleware.New(db, eventBus, config, repos, svcs.Auth)
	ctrls := controllers.New(svcs, repos, eventBus, config, db)

	// Register jobs with scheduler if enabled
	if config.SchedulerEnabled {
		sweepJob := jobs.NewBookingSweepJob(repos.Booking, services.Hourly)
		if err := svcs.Scheduler.AddJob(sweepJob); err != nil {
			return &App{}, log.Err("failed to register booking sweep job", err)
		}
		log.Info("Registered booking sweep job with scheduler")

		if err := svcs.Scheduler.Start(context.Background()); err != nil {
			return &App{}, log.Err("failed to start scheduler", err)
		}
	}

	app := &App{
		Database:    db,
		Config:      config,
		Middleware:  middleware,
		Websocket:   websocket,
		EventBus:    eventBus,
		Services:    svcs,
		Repos:       repos,
		Controllers: ctrls,
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")

	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := []any{
		a.Websocket,
		a.EventBus,
		a.Services.Auth,
		a.Services.Transaction,
		a.Services.Scheduler,
		a.Services.Notification,
		a.Repos.User,
		a.Repos.Center,
		a.Repos.Child,
		a.Repos.Booking,
		a.Repos.Chat,
		a.Repos.Review,
		a.Controllers.Bookings,
		a.Controllers.Chats,
		a.Controllers.Reviews,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if a.Services.Scheduler != nil {
		if closeErr := a.Services.Scheduler.Stop(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
