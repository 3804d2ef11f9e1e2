package postgres

import (
	"context"
	"fmt"
	"time"

	"planvista/internal/logger"
	"planvista/internal/models/schedule"
	repo "planvista/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const scheduleColumns = `id, user_id, title, start_time, end_time, task_name, task_time, memo,
				is_synced_from_google, google_event_id, created_at, updated_at, deleted_at`

type Storage struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, sch *schedule.Schedule) error {
	start := time.Now()

	query := `INSERT INTO schedules
				(user_id, title, start_time, end_time, task_name, task_time, memo,
				 is_synced_from_google, google_event_id, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
				RETURNING id, created_at`

	err := s.pool.QueryRow(ctx, query,
		sch.UserID,
		sch.Title,
		sch.StartTime,
		sch.EndTime,
		sch.TaskName,
		sch.TaskTime,
		sch.Memo,
		sch.IsSyncedFromGoogle,
		sch.GoogleEventID,
	).Scan(&sch.ID, &sch.CreatedAt)

	if err != nil {
		logger.Error("Repository: Не удалось добавить расписание", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление расписания: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) Update(ctx context.Context, sch *schedule.Schedule) error {
	start := time.Now()

	query := `UPDATE schedules
			SET title = $1,
				start_time = $2,
				end_time = $3,
				task_name = $4,
				task_time = $5,
				memo = $6,
				updated_at = NOW()
			WHERE id = $7 AND user_id = $8 AND deleted_at IS NULL
			RETURNING updated_at`

	err := s.pool.QueryRow(ctx, query,
		sch.Title,
		sch.StartTime,
		sch.EndTime,
		sch.TaskName,
		sch.TaskTime,
		sch.Memo,
		sch.ID,
		sch.UserID,
	).Scan(&sch.UpdatedAt)

	if err != nil {
		if err == pgx.ErrNoRows {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось обновить расписание", err)
		return fmt.Errorf("обновление расписания: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

// UpsertSynced - атомарный upsert по частичному уникальному индексу
// google_event_id; конкурентные прогоны синхронизации сходятся к одной
// строке. xmax = 0 отличает вставку от обновления.
func (s *Storage) UpsertSynced(ctx context.Context, sch *schedule.Schedule) (bool, error) {
	start := time.Now()

	query := `INSERT INTO schedules
				(user_id, title, start_time, end_time, task_name, task_time, memo,
				 is_synced_from_google, google_event_id, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, NOW())
				ON CONFLICT (google_event_id) WHERE deleted_at IS NULL AND google_event_id IS NOT NULL
				DO UPDATE SET
					title = EXCLUDED.title,
					start_time = EXCLUDED.start_time,
					end_time = EXCLUDED.end_time,
					memo = EXCLUDED.memo,
					updated_at = NOW()
				RETURNING id, created_at, updated_at, (xmax = 0)`

	var created bool
	err := s.pool.QueryRow(ctx, query,
		sch.UserID,
		sch.Title,
		sch.StartTime,
		sch.EndTime,
		sch.TaskName,
		sch.TaskTime,
		sch.Memo,
		sch.GoogleEventID,
	).Scan(&sch.ID, &sch.CreatedAt, &sch.UpdatedAt, &created)

	if err != nil {
		logger.Error("Repository: Не удался upsert расписания", err, zap.Duration("ms", time.Since(start)))
		return false, fmt.Errorf("upsert расписания: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return created, nil
}

func (s *Storage) GetByID(ctx context.Context, id, userID int64) (*schedule.Schedule, error) {
	query := `SELECT ` + scheduleColumns + `
				FROM schedules
				WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`

	sch := &schedule.Schedule{}
	err := s.pool.QueryRow(ctx, query, id, userID).Scan(scheduleFields(sch)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить расписание", err)
		return nil, fmt.Errorf("получение расписания: %w", err)
	}
	return sch, nil
}

func (s *Storage) GetByUserID(ctx context.Context, userID int64) ([]*schedule.Schedule, error) {
	query := `SELECT ` + scheduleColumns + `
				FROM schedules
				WHERE user_id = $1 AND deleted_at IS NULL
				ORDER BY start_time`
	return s.queryList(ctx, query, userID)
}

// пересечение интервалов: start <= to AND end >= from
func (s *Storage) GetByPeriod(ctx context.Context, userID int64, from, to time.Time) ([]*schedule.Schedule, error) {
	query := `SELECT ` + scheduleColumns + `
				FROM schedules
				WHERE user_id = $1
					AND deleted_at IS NULL
					AND start_time <= $3
					AND end_time >= $2
				ORDER BY start_time`
	return s.queryList(ctx, query, userID, from, to)
}

func (s *Storage) GetManual(ctx context.Context, userID int64) ([]*schedule.Schedule, error) {
	query := `SELECT ` + scheduleColumns + `
				FROM schedules
				WHERE user_id = $1 AND deleted_at IS NULL AND is_synced_from_google = FALSE
				ORDER BY start_time`
	return s.queryList(ctx, query, userID)
}

func (s *Storage) GetSynced(ctx context.Context, userID int64) ([]*schedule.Schedule, error) {
	query := `SELECT ` + scheduleColumns + `
				FROM schedules
				WHERE user_id = $1 AND deleted_at IS NULL AND is_synced_from_google = TRUE
				ORDER BY start_time`
	return s.queryList(ctx, query, userID)
}

func (s *Storage) GetByGoogleEventID(ctx context.Context, googleEventID string) (*schedule.Schedule, error) {
	query := `SELECT ` + scheduleColumns + `
				FROM schedules
				WHERE google_event_id = $1 AND deleted_at IS NULL`

	sch := &schedule.Schedule{}
	err := s.pool.QueryRow(ctx, query, googleEventID).Scan(scheduleFields(sch)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить расписание по event id", err)
		return nil, fmt.Errorf("получение расписания по event id: %w", err)
	}
	return sch, nil
}

func (s *Storage) SearchByTitle(ctx context.Context, userID int64, title string) ([]*schedule.Schedule, error) {
	query := `SELECT ` + scheduleColumns + `
				FROM schedules
				WHERE user_id = $1 AND deleted_at IS NULL AND title LIKE '%' || $2 || '%'
				ORDER BY start_time`
	return s.queryList(ctx, query, userID, title)
}

func (s *Storage) SearchByTask(ctx context.Context, userID int64, taskName string) ([]*schedule.Schedule, error) {
	query := `SELECT ` + scheduleColumns + `
				FROM schedules
				WHERE user_id = $1 AND deleted_at IS NULL AND task_name = $2
				ORDER BY start_time`
	return s.queryList(ctx, query, userID, taskName)
}

// логическое удаление; false - живой строки не было
func (s *Storage) SoftDelete(ctx context.Context, id, userID int64) (bool, error) {
	start := time.Now()

	query := `UPDATE schedules
				SET deleted_at = NOW(),
					updated_at = NOW()
				WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`

	tag, err := s.pool.Exec(ctx, query, id, userID)
	if err != nil {
		logger.Error("Repository: Мягкое удаление расписания", err, zap.Duration("ms", time.Since(start)))
		return false, fmt.Errorf("мягкое удаление: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// массовое логическое удаление при отключении синхронизации
func (s *Storage) SoftDeleteAllSynced(ctx context.Context, userID int64) (int64, error) {
	start := time.Now()

	query := `UPDATE schedules
				SET deleted_at = NOW(),
					updated_at = NOW()
				WHERE user_id = $1 AND is_synced_from_google = TRUE AND deleted_at IS NULL`

	tag, err := s.pool.Exec(ctx, query, userID)
	if err != nil {
		logger.Error("Repository: Массовое удаление синхронизированных расписаний", err, zap.Duration("ms", time.Since(start)))
		return 0, fmt.Errorf("массовое мягкое удаление: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Storage) queryList(ctx context.Context, query string, args ...any) ([]*schedule.Schedule, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить расписания", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение расписаний: %w", err)
	}
	defer rows.Close()

	schedules := []*schedule.Schedule{}
	for rows.Next() {
		sch := &schedule.Schedule{}
		if err := rows.Scan(scheduleFields(sch)...); err != nil {
			logger.Warn("Repository: Ошибка сканирования расписания", zap.Error(err))
			continue
		}
		schedules = append(schedules, sch)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return schedules, nil
}

func scheduleFields(sch *schedule.Schedule) []any {
	return []any{
		&sch.ID,
		&sch.UserID,
		&sch.Title,
		&sch.StartTime,
		&sch.EndTime,
		&sch.TaskName,
		&sch.TaskTime,
		&sch.Memo,
		&sch.IsSyncedFromGoogle,
		&sch.GoogleEventID,
		&sch.CreatedAt,
		&sch.UpdatedAt,
		&sch.DeletedAt,
	}
}
