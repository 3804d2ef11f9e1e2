package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"planvista/internal/logger"
	"planvista/internal/models/task"
	repo "planvista/internal/repository"

	"go.uber.org/zap"
)

// TaskService - реестр задач пользователя.
// Источник канонических имён задач для расписаний и записей.
type TaskService struct {
	repo TaskRepository
}

func NewTaskService(repo TaskRepository) *TaskService {
	return &TaskService{
		repo: repo,
	}
}

// CreateTask создаёт новую задачу; имя уникально в рамках пользователя
func (s *TaskService) CreateTask(ctx context.Context, userID int64, name string) (*task.Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewValidationError("name", "имя задачи не может быть пустым")
	}

	existing, err := s.repo.GetByName(ctx, userID, name)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("проверка имени задачи: %w", err)
	}
	if existing != nil {
		logger.Info("Service: Дубликат имени задачи",
			zap.Int64("user_id", userID),
			zap.String("name", name))
		return nil, NewDuplicateTaskName(name)
	}

	t := &task.Task{
		UserID: userID,
		Name:   name,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, NewDuplicateTaskName(name)
		}
		return nil, fmt.Errorf("создание задачи: %w", err)
	}
	return t, nil
}

// GetOrCreateByName - идемпотентный помощник для трекера сессий:
// имя задачи пришло без известного id
func (s *TaskService) GetOrCreateByName(ctx context.Context, userID int64, name string) (*task.Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewValidationError("name", "имя задачи не может быть пустым")
	}

	existing, err := s.repo.GetByName(ctx, userID, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("поиск задачи по имени: %w", err)
	}

	t := &task.Task{
		UserID: userID,
		Name:   name,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		// параллельный вызов успел создать задачу раньше нас
		if errors.Is(err, repo.ErrDuplicate) {
			return s.repo.GetByName(ctx, userID, name)
		}
		return nil, fmt.Errorf("создание задачи: %w", err)
	}
	return t, nil
}

// Rename переименовывает задачу. Снимки имени в расписаниях и записях
// не обновляются - они фиксируют имя на момент создания.
func (s *TaskService) Rename(ctx context.Context, taskID int64, newName string) (*task.Task, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, NewValidationError("name", "имя задачи не может быть пустым")
	}

	t, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.Int64("task_id", taskID))
			return nil, NewNotFound("задача", taskID)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	other, err := s.repo.GetByName(ctx, t.UserID, newName)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("проверка имени задачи: %w", err)
	}
	if other != nil && other.ID != t.ID {
		return nil, NewDuplicateTaskName(newName)
	}

	t.Name = newName
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("переименование задачи: %w", err)
	}
	return t, nil
}

// Delete удаляет задачу без каскада: расписания ссылаются на задачу
// строковым именем, осиротевшие ссылки допустимы
func (s *TaskService) Delete(ctx context.Context, taskID int64) error {
	if err := s.repo.Delete(ctx, taskID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.Int64("task_id", taskID))
			return NewNotFound("задача", taskID)
		}
		return fmt.Errorf("удаление задачи: %w", err)
	}
	return nil
}

func (s *TaskService) GetByID(ctx context.Context, taskID int64) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("задача", taskID)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return t, nil
}

func (s *TaskService) ListByUser(ctx context.Context, userID int64) ([]*task.Task, error) {
	tasks, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}
