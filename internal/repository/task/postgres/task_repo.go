package postgres

import (
	"context"
	"fmt"
	"time"

	"planvista/internal/logger"
	"planvista/internal/models/task"
	repo "planvista/internal/repository"
	pg "planvista/internal/repository/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

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

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	query := `INSERT INTO tasks (user_id, name)
				VALUES ($1, $2)
				RETURNING id`

	err := s.pool.QueryRow(ctx, query,
		taskToCreate.UserID,
		taskToCreate.Name,
	).Scan(&taskToCreate.ID)

	if err != nil {
		if mapped := pg.MapError(err); mapped == repo.ErrDuplicate {
			logger.Warn("Repository: Дубликат имени задачи",
				zap.Int64("user_id", taskToCreate.UserID),
				zap.String("name", taskToCreate.Name))
			return mapped
		}
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()

	query := `UPDATE tasks
			SET name = $1
			WHERE id = $2
			RETURNING id`

	var id int64
	err := s.pool.QueryRow(ctx, query, taskToUpdate.Name, taskToUpdate.ID).Scan(&id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return repo.ErrNotFound
		}
		if mapped := pg.MapError(err); mapped == repo.ErrDuplicate {
			return mapped
		}
		logger.Error("Repository: Не удалось обновить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("обновление задачи: %w", err)
	}
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	start := time.Now()

	query := `SELECT id, user_id, name FROM tasks WHERE id = $1`

	t := &task.Task{}
	err := s.pool.QueryRow(ctx, query, id).Scan(&t.ID, &t.UserID, &t.Name)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return t, nil
}

func (s *Storage) GetByUserID(ctx context.Context, userID int64) ([]*task.Task, error) {
	start := time.Now()

	query := `SELECT id, user_id, name FROM tasks WHERE user_id = $1 ORDER BY id`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t := &task.Task{}
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name); err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
			continue
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	return tasks, nil
}

func (s *Storage) GetByName(ctx context.Context, userID int64, name string) (*task.Task, error) {
	query := `SELECT id, user_id, name FROM tasks WHERE user_id = $1 AND name = $2`

	t := &task.Task{}
	err := s.pool.QueryRow(ctx, query, userID, name).Scan(&t.ID, &t.UserID, &t.Name)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу по имени", err)
		return nil, fmt.Errorf("получение задачи по имени: %w", err)
	}
	return t, nil
}

// жёсткое удаление, ссылки из расписаний и записей остаются
func (s *Storage) Delete(ctx context.Context, id int64) error {
	start := time.Now()

	query := `DELETE FROM tasks WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}
