package postgres

import (
	"context"
	"fmt"
	"time"

	"planvista/internal/logger"
	"planvista/internal/models/record"
	repo "planvista/internal/repository"
	pg "planvista/internal/repository/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const recordColumns = `id, user_id, schedule_id, task_id, task_name, start_time, end_time, memo, created_at, updated_at`

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

// Create опирается на частичный уникальный индекс по (user_id) WHERE
// end_time IS NULL: вторая активная запись даёт repo.ErrDuplicate.
func (s *Storage) Create(ctx context.Context, r *record.Record) error {
	start := time.Now()

	query := `INSERT INTO records (user_id, schedule_id, task_id, task_name, start_time, end_time, memo)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING id, created_at`

	err := s.pool.QueryRow(ctx, query,
		r.UserID,
		r.ScheduleID,
		r.TaskID,
		r.TaskName,
		r.StartTime,
		r.EndTime,
		r.Memo,
	).Scan(&r.ID, &r.CreatedAt)

	if err != nil {
		if mapped := pg.MapError(err); mapped == repo.ErrDuplicate {
			logger.Warn("Repository: У пользователя уже есть активная запись",
				zap.Int64("user_id", r.UserID))
			return mapped
		}
		logger.Error("Repository: Не удалось добавить запись", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление записи: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) Update(ctx context.Context, r *record.Record) error {
	start := time.Now()

	query := `UPDATE records
			SET schedule_id = $1,
				task_id = $2,
				task_name = $3,
				start_time = $4,
				end_time = $5,
				memo = $6,
				updated_at = NOW()
			WHERE id = $7
			RETURNING updated_at`

	err := s.pool.QueryRow(ctx, query,
		r.ScheduleID,
		r.TaskID,
		r.TaskName,
		r.StartTime,
		r.EndTime,
		r.Memo,
		r.ID,
	).Scan(&r.UpdatedAt)

	if err != nil {
		if err == pgx.ErrNoRows {
			return repo.ErrNotFound
		}
		if mapped := pg.MapError(err); mapped == repo.ErrDuplicate {
			return mapped
		}
		logger.Error("Repository: Не удалось обновить запись", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("обновление записи: %w", err)
	}
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id int64) (*record.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE id = $1`

	r := &record.Record{}
	err := s.pool.QueryRow(ctx, query, id).Scan(recordFields(r)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить запись", err)
		return nil, fmt.Errorf("получение записи: %w", err)
	}
	return r, nil
}

func (s *Storage) GetByUserID(ctx context.Context, userID int64) ([]*record.Record, error) {
	query := `SELECT ` + recordColumns + `
				FROM records
				WHERE user_id = $1
				ORDER BY start_time`
	return s.queryList(ctx, query, userID)
}

// полуинтервал [from, to)
func (s *Storage) GetByDateRange(ctx context.Context, userID int64, from, to time.Time) ([]*record.Record, error) {
	query := `SELECT ` + recordColumns + `
				FROM records
				WHERE user_id = $1 AND start_time >= $2 AND start_time < $3
				ORDER BY start_time`
	return s.queryList(ctx, query, userID, from, to)
}

func (s *Storage) GetByTaskNameAndDateRange(ctx context.Context, userID int64, taskName string, from, to time.Time) ([]*record.Record, error) {
	query := `SELECT ` + recordColumns + `
				FROM records
				WHERE user_id = $1 AND task_name = $2 AND start_time >= $3 AND start_time < $4
				ORDER BY start_time`
	return s.queryList(ctx, query, userID, taskName, from, to)
}

func (s *Storage) GetByScheduleID(ctx context.Context, scheduleID int64) (*record.Record, error) {
	query := `SELECT ` + recordColumns + `
				FROM records
				WHERE schedule_id = $1
				ORDER BY id
				LIMIT 1`

	r := &record.Record{}
	err := s.pool.QueryRow(ctx, query, scheduleID).Scan(recordFields(r)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить запись по расписанию", err)
		return nil, fmt.Errorf("получение записи по расписанию: %w", err)
	}
	return r, nil
}

func (s *Storage) GetActiveByUserID(ctx context.Context, userID int64) (*record.Record, error) {
	query := `SELECT ` + recordColumns + `
				FROM records
				WHERE user_id = $1 AND end_time IS NULL`

	r := &record.Record{}
	err := s.pool.QueryRow(ctx, query, userID).Scan(recordFields(r)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить активную запись", err)
		return nil, fmt.Errorf("получение активной записи: %w", err)
	}
	return r, nil
}

func (s *Storage) ExistsByID(ctx context.Context, id int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM records WHERE id = $1)`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		logger.Error("Repository: Не удалось проверить существование записи", err)
		return false, fmt.Errorf("проверка существования записи: %w", err)
	}
	return exists, nil
}

// жёсткое удаление, записи не попадают под логическое удаление
func (s *Storage) Delete(ctx context.Context, id int64) error {
	start := time.Now()

	query := `DELETE FROM records WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить запись", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление записи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) queryList(ctx context.Context, query string, args ...any) ([]*record.Record, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить записи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение записей: %w", err)
	}
	defer rows.Close()

	records := []*record.Record{}
	for rows.Next() {
		r := &record.Record{}
		if err := rows.Scan(recordFields(r)...); err != nil {
			logger.Warn("Repository: Ошибка сканирования записи", zap.Error(err))
			continue
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return records, nil
}

func recordFields(r *record.Record) []any {
	return []any{
		&r.ID,
		&r.UserID,
		&r.ScheduleID,
		&r.TaskID,
		&r.TaskName,
		&r.StartTime,
		&r.EndTime,
		&r.Memo,
		&r.CreatedAt,
		&r.UpdatedAt,
	}
}
