package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"planvista/internal/logger"
	"planvista/internal/models/record"
	repo "planvista/internal/repository"

	"go.uber.org/zap"
)

// RecordService - записи фактического выполнения и трекер сессий.
// Инвариант "не более одной активной записи на пользователя" держится
// на двух уровнях: мьютекс на пользователя вокруг check-then-insert
// и частичный уникальный индекс records(user_id) WHERE end_time IS NULL.
type RecordService struct {
	repo     RecordRepository
	taskRepo TaskRepository

	mtx   sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewRecordService(repo RecordRepository, taskRepo TaskRepository) *RecordService {
	return &RecordService{
		repo:     repo,
		taskRepo: taskRepo,
		locks:    make(map[int64]*sync.Mutex),
	}
}

func (s *RecordService) userLock(userID int64) *sync.Mutex {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

// StartRecord открывает сессию: запись с пустым end_time
func (s *RecordService) StartRecord(ctx context.Context, userID, taskID int64, memo string) (*record.Record, error) {
	t, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.Int64("task_id", taskID))
			return nil, NewNotFound("задача", taskID)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	active, err := s.repo.GetActiveByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("поиск активной записи: %w", err)
	}
	if active != nil {
		logger.Info("Service: Активная запись уже существует",
			zap.Int64("user_id", userID),
			zap.Int64("record_id", active.ID))
		return nil, NewSessionActive(userID, active.ID)
	}

	rec := &record.Record{
		UserID:    userID,
		TaskID:    taskID,
		TaskName:  t.Name,
		StartTime: time.Now(),
		EndTime:   nil,
		Memo:      memo,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		// индекс в хранилище перехватывает гонку, которую пропустил мьютекс
		// (например, два экземпляра сервиса над одной базой)
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, NewSessionActive(userID, 0)
		}
		return nil, fmt.Errorf("создание записи: %w", err)
	}

	logger.Info("Service: Сессия начата",
		zap.Int64("user_id", userID),
		zap.Int64("record_id", rec.ID),
		zap.String("task_name", t.Name))
	return rec, nil
}

// EndRecord завершает сессию и при необходимости связывает запись
// с запланированным расписанием
func (s *RecordService) EndRecord(ctx context.Context, recordID int64, scheduleID *int64) (*record.Record, error) {
	rec, err := s.repo.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Info("Service: Запись не найдена", zap.Int64("record_id", recordID))
			return nil, NewNotFound("запись", recordID)
		}
		return nil, fmt.Errorf("получение записи: %w", err)
	}

	now := time.Now()
	rec.EndTime = &now
	if scheduleID != nil {
		rec.ScheduleID = scheduleID
	}

	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("завершение записи: %w", err)
	}

	logger.Info("Service: Сессия завершена",
		zap.Int64("user_id", rec.UserID),
		zap.Int64("record_id", rec.ID))
	return rec, nil
}

// UpdateRecord - прямой путь коррекции: клиентский таймер сообщает
// точные start/end задним числом. Снимок имени задачи пересчитывается.
func (s *RecordService) UpdateRecord(ctx context.Context, recordID, taskID int64, start, end time.Time, memo, changeReason string) (*record.Record, error) {
	rec, err := s.repo.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("запись", recordID)
		}
		return nil, fmt.Errorf("получение записи: %w", err)
	}

	t, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("задача", taskID)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	if !end.After(start) {
		return nil, NewValidationError("end_time", "время окончания должно быть позже времени начала")
	}

	rec.TaskID = taskID
	rec.TaskName = t.Name
	rec.StartTime = start
	rec.EndTime = &end
	rec.Memo = memo

	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("обновление записи: %w", err)
	}

	logger.Info("Service: Запись скорректирована",
		zap.Int64("record_id", rec.ID),
		zap.String("change_reason", changeReason))
	return rec, nil
}

// GetActiveRecord возвращает открытую сессию пользователя или nil
func (s *RecordService) GetActiveRecord(ctx context.Context, userID int64) (*record.Record, error) {
	rec, err := s.repo.GetActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("поиск активной записи: %w", err)
	}
	return rec, nil
}

func (s *RecordService) GetRecordByID(ctx context.Context, recordID int64) (*record.Record, error) {
	rec, err := s.repo.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("запись", recordID)
		}
		return nil, fmt.Errorf("получение записи: %w", err)
	}
	return rec, nil
}

func (s *RecordService) GetAllRecordsByUser(ctx context.Context, userID int64) ([]*record.Record, error) {
	records, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("получение записей: %w", err)
	}
	return records, nil
}

// GetRecordsByUserAndDate - записи за один день
func (s *RecordService) GetRecordsByUserAndDate(ctx context.Context, userID int64, date time.Time) ([]*record.Record, error) {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return s.GetRecordsByUserAndDateRange(ctx, userID, startOfDay, startOfDay.AddDate(0, 0, 1))
}

// GetRecordsByUserAndDateRange - полуинтервал [from, to)
func (s *RecordService) GetRecordsByUserAndDateRange(ctx context.Context, userID int64, from, to time.Time) ([]*record.Record, error) {
	records, err := s.repo.GetByDateRange(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("получение записей за период: %w", err)
	}
	return records, nil
}

func (s *RecordService) GetRecordByScheduleID(ctx context.Context, scheduleID int64) (*record.Record, error) {
	rec, err := s.repo.GetByScheduleID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("получение записи по расписанию: %w", err)
	}
	return rec, nil
}

// DeleteRecord - записи удаляются жёстко, без soft delete
func (s *RecordService) DeleteRecord(ctx context.Context, recordID int64) error {
	exists, err := s.repo.ExistsByID(ctx, recordID)
	if err != nil {
		return fmt.Errorf("проверка записи: %w", err)
	}
	if !exists {
		logger.Info("Service: Запись не найдена", zap.Int64("record_id", recordID))
		return NewNotFound("запись", recordID)
	}
	if err := s.repo.Delete(ctx, recordID); err != nil {
		return fmt.Errorf("удаление записи: %w", err)
	}
	return nil
}
