package service

import (
	"context"
	"time"

	"planvista/internal/calendar"
	"planvista/internal/models/record"
	"planvista/internal/models/schedule"
	"planvista/internal/models/task"
)

// Интерфейсы хранилищ объявлены на стороне потребителя,
// реализации - в internal/repository/*/{inmemory,postgres}.

type TaskRepository interface {
	Create(ctx context.Context, t *task.Task) error
	Update(ctx context.Context, t *task.Task) error
	GetByID(ctx context.Context, id int64) (*task.Task, error)
	GetByUserID(ctx context.Context, userID int64) ([]*task.Task, error)
	GetByName(ctx context.Context, userID int64, name string) (*task.Task, error)
	Delete(ctx context.Context, id int64) error
}

type ScheduleRepository interface {
	Create(ctx context.Context, s *schedule.Schedule) error
	Update(ctx context.Context, s *schedule.Schedule) error
	// UpsertSynced - идемпотентная вставка/обновление по google_event_id
	// среди неудалённых строк; повторные вызовы сходятся к одной строке
	UpsertSynced(ctx context.Context, s *schedule.Schedule) (created bool, err error)
	GetByID(ctx context.Context, id, userID int64) (*schedule.Schedule, error)
	GetByUserID(ctx context.Context, userID int64) ([]*schedule.Schedule, error)
	// GetByPeriod - пересечение интервалов: start <= to AND end >= from
	GetByPeriod(ctx context.Context, userID int64, from, to time.Time) ([]*schedule.Schedule, error)
	GetManual(ctx context.Context, userID int64) ([]*schedule.Schedule, error)
	GetSynced(ctx context.Context, userID int64) ([]*schedule.Schedule, error)
	GetByGoogleEventID(ctx context.Context, googleEventID string) (*schedule.Schedule, error)
	SearchByTitle(ctx context.Context, userID int64, title string) ([]*schedule.Schedule, error)
	SearchByTask(ctx context.Context, userID int64, taskName string) ([]*schedule.Schedule, error)
	// SoftDelete возвращает false, если живой строки с таким id нет
	SoftDelete(ctx context.Context, id, userID int64) (bool, error)
	SoftDeleteAllSynced(ctx context.Context, userID int64) (int64, error)
}

type RecordRepository interface {
	Create(ctx context.Context, r *record.Record) error
	Update(ctx context.Context, r *record.Record) error
	GetByID(ctx context.Context, id int64) (*record.Record, error)
	GetByUserID(ctx context.Context, userID int64) ([]*record.Record, error)
	// GetByDateRange - полуинтервал: start >= from AND start < to
	GetByDateRange(ctx context.Context, userID int64, from, to time.Time) ([]*record.Record, error)
	GetByTaskNameAndDateRange(ctx context.Context, userID int64, taskName string, from, to time.Time) ([]*record.Record, error)
	GetByScheduleID(ctx context.Context, scheduleID int64) (*record.Record, error)
	GetActiveByUserID(ctx context.Context, userID int64) (*record.Record, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}

// CalendarSource - внешний календарь. Ошибка транспорта прерывает
// весь батч синхронизации, в отличие от ошибок отдельных событий.
type CalendarSource interface {
	FetchEvents(ctx context.Context, accessToken string, from, to time.Time) ([]calendar.Event, error)
}
