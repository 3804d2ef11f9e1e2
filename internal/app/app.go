package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"planvista/internal/calendar/google"
	"planvista/internal/config"
	"planvista/internal/handlers"
	"planvista/internal/logger"
	"planvista/internal/middleware"
	pg "planvista/internal/repository/postgres"
	recordinmemory "planvista/internal/repository/record/inmemory"
	recordpostgres "planvista/internal/repository/record/postgres"
	scheduleinmemory "planvista/internal/repository/schedule/inmemory"
	schedulepostgres "planvista/internal/repository/schedule/postgres"
	taskinmemory "planvista/internal/repository/task/inmemory"
	taskpostgres "planvista/internal/repository/task/postgres"
	"planvista/internal/service"
	"planvista/internal/worker"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type App struct {
	config    *config.Config
	server    *http.Server
	router    *chi.Mux
	pool      *pgxpool.Pool
	worker    *worker.SyncWorker
	shutdowns []func() // функции для graceful shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	var (
		taskRepo     service.TaskRepository
		scheduleRepo service.ScheduleRepository
		recordRepo   service.RecordRepository
	)

	switch a.config.Repository.Type {
	case "postgres":
		pool, err := pg.NewPool(ctx, a.config.Database.URL,
			a.config.Database.MaxConnections,
			a.config.Database.MinConnections,
			a.config.Database.IdleTimeout)
		if err != nil {
			return fmt.Errorf("подключение к базе: %w", err)
		}
		a.pool = pool
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("Закрытие пула соединений...")
			pool.Close()
		})

		if a.config.Database.MigrationsDir != "" {
			if err := pg.Migrate(ctx, pool, a.config.Database.MigrationsDir); err != nil {
				return fmt.Errorf("применение миграций: %w", err)
			}
		}

		taskRepo = taskpostgres.New(pool)
		scheduleRepo = schedulepostgres.New(pool)
		recordRepo = recordpostgres.New(pool)
	case "inmemory":
		taskRepo = taskinmemory.NewTaskStorage()
		scheduleRepo = scheduleinmemory.NewScheduleStorage()
		recordRepo = recordinmemory.NewRecordStorage()
	default:
		return fmt.Errorf("неизвестный тип хранилища: %s", a.config.Repository.Type)
	}

	taskService := service.NewTaskService(taskRepo)
	scheduleService := service.NewScheduleService(scheduleRepo)
	recordService := service.NewRecordService(recordRepo, taskRepo)
	analysisService := service.NewAnalysisService(scheduleRepo, recordRepo)
	syncService := service.NewSyncService(google.NewSource(), scheduleService)

	a.worker = worker.NewSyncWorker(syncService, a.config.Sync.QueueSize)

	taskHandler := handlers.NewTaskHandler(taskService)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService)
	recordHandler := handlers.NewRecordHandler(recordService)
	analysisHandler := handlers.NewAnalysisHandler(analysisService)
	syncHandler := handlers.NewSyncHandler(syncService, a.worker)

	a.router = a.buildRouter(&taskHandler, &scheduleHandler, &recordHandler, &analysisHandler, &syncHandler)

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      a.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return nil
}

func (a *App) buildRouter(
	taskHandler *handlers.TaskHandler,
	scheduleHandler *handlers.ScheduleHandler,
	recordHandler *handlers.RecordHandler,
	analysisHandler *handlers.AnalysisHandler,
	syncHandler *handlers.SyncHandler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.RateLimit(a.config.Server.RatePerMinute))

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", taskHandler.GetTasks)    // GET /tasks?user_id=
		r.Post("/", taskHandler.CreateTask) // POST /tasks

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", taskHandler.GetTaskByID)   // GET /tasks/{id}
			r.Put("/", taskHandler.RenameTask)    // PUT /tasks/{id}
			r.Delete("/", taskHandler.DeleteTask) // DELETE /tasks/{id}
		})
	})

	r.Route("/schedules", func(r chi.Router) {
		r.Get("/", scheduleHandler.GetSchedules)    // GET /schedules?user_id=&filter=...
		r.Post("/", scheduleHandler.CreateSchedule) // POST /schedules

		r.Get("/estimate", scheduleHandler.GetEstimatedTaskTime) // GET /schedules/estimate?user_id=&task_name=

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", scheduleHandler.GetScheduleByID)  // GET /schedules/{id}?user_id=
			r.Put("/", scheduleHandler.UpdateSchedule)   // PUT /schedules/{id}
			r.Delete("/", scheduleHandler.DeleteSchedule) // DELETE /schedules/{id}?user_id=
		})
	})

	r.Route("/records", func(r chi.Router) {
		r.Get("/", recordHandler.GetRecords)      // GET /records?user_id=&date=|from=&to=
		r.Post("/start", recordHandler.StartRecord) // POST /records/start

		r.Get("/active", recordHandler.GetActiveRecord) // GET /records/active?user_id=

		r.Get("/by-schedule/{scheduleID}", recordHandler.GetRecordBySchedule) // GET /records/by-schedule/{scheduleID}

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", recordHandler.GetRecordByID)  // GET /records/{id}
			r.Put("/", recordHandler.UpdateRecord)   // PUT /records/{id}
			r.Delete("/", recordHandler.DeleteRecord) // DELETE /records/{id}
			r.Post("/end", recordHandler.EndRecord)  // POST /records/{id}/end
		})
	})

	r.Route("/calendar", func(r chi.Router) {
		r.Post("/sync", syncHandler.SyncNow)         // POST /calendar/sync
		r.Post("/sync/async", syncHandler.SyncAsync) // POST /calendar/sync/async
		r.Delete("/sync", syncHandler.Unsync)        // DELETE /calendar/sync?user_id=
	})

	r.Get("/analysis", analysisHandler.GetAnalysis) // GET /analysis?user_id=

	r.Get("/health", taskHandler.HealthCheck)

	return r
}

// Run блокирует до отмены контекста, затем гасит сервер и зависимости
func (a *App) Run(ctx context.Context) error {
	workerCtx, stopWorker := context.WithCancel(context.Background())
	go a.worker.Start(workerCtx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server started")
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		stopWorker()
		return fmt.Errorf("сервер остановился с ошибкой: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Остановка сервера...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownWait)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка остановки сервера", err)
	}

	stopWorker()

	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}

	return nil
}
