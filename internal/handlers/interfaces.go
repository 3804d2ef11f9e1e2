package handlers

import (
	"context"
	"time"

	"planvista/internal/models/record"
	"planvista/internal/models/schedule"
	"planvista/internal/models/task"
	"planvista/internal/service"
	"planvista/internal/worker"
)

type TaskService interface {
	CreateTask(ctx context.Context, userID int64, name string) (*task.Task, error)
	Rename(ctx context.Context, taskID int64, newName string) (*task.Task, error)
	Delete(ctx context.Context, taskID int64) error
	GetByID(ctx context.Context, taskID int64) (*task.Task, error)
	ListByUser(ctx context.Context, userID int64) ([]*task.Task, error)
}

type ScheduleService interface {
	CreateManual(ctx context.Context, sch *schedule.Schedule) (*schedule.Schedule, error)
	UpdateManual(ctx context.Context, sch *schedule.Schedule) (*schedule.Schedule, error)
	Delete(ctx context.Context, id, userID int64) (bool, error)
	GetByID(ctx context.Context, id, userID int64) (*schedule.Schedule, error)
	GetAllByUser(ctx context.Context, userID int64) ([]*schedule.Schedule, error)
	GetByPeriod(ctx context.Context, userID int64, from, to time.Time) ([]*schedule.Schedule, error)
	GetManual(ctx context.Context, userID int64) ([]*schedule.Schedule, error)
	GetSynced(ctx context.Context, userID int64) ([]*schedule.Schedule, error)
	GetUpcoming(ctx context.Context, userID int64) ([]*schedule.Schedule, error)
	GetPast(ctx context.Context, userID int64) ([]*schedule.Schedule, error)
	SearchByTitle(ctx context.Context, userID int64, title string) ([]*schedule.Schedule, error)
	SearchByTask(ctx context.Context, userID int64, taskName string) ([]*schedule.Schedule, error)
	GetEstimatedTaskTime(ctx context.Context, userID int64, taskName string) (*service.TaskTimeEstimate, error)
}

type RecordService interface {
	StartRecord(ctx context.Context, userID, taskID int64, memo string) (*record.Record, error)
	EndRecord(ctx context.Context, recordID int64, scheduleID *int64) (*record.Record, error)
	UpdateRecord(ctx context.Context, recordID, taskID int64, start, end time.Time, memo, changeReason string) (*record.Record, error)
	GetActiveRecord(ctx context.Context, userID int64) (*record.Record, error)
	GetRecordByID(ctx context.Context, recordID int64) (*record.Record, error)
	GetAllRecordsByUser(ctx context.Context, userID int64) ([]*record.Record, error)
	GetRecordsByUserAndDate(ctx context.Context, userID int64, date time.Time) ([]*record.Record, error)
	GetRecordsByUserAndDateRange(ctx context.Context, userID int64, from, to time.Time) ([]*record.Record, error)
	GetRecordByScheduleID(ctx context.Context, scheduleID int64) (*record.Record, error)
	DeleteRecord(ctx context.Context, recordID int64) error
}

type AnalysisService interface {
	GetAnalysisForUser(ctx context.Context, userID int64) (*service.AnalysisResult, error)
}

type SyncService interface {
	SyncUser(ctx context.Context, accessToken string, userID int64) (*service.SyncResult, error)
	Unsync(ctx context.Context, userID int64) (int64, error)
}

type SyncQueue interface {
	Enqueue(job worker.SyncJob) bool
}
