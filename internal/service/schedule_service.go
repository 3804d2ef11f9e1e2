package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"planvista/internal/logger"
	"planvista/internal/models/schedule"
	repo "planvista/internal/repository"

	"go.uber.org/zap"
)

// ScheduleService - хранилище расписаний: ручные записи и записи,
// синхронизированные из Google Calendar, с разными правилами изменяемости.
type ScheduleService struct {
	repo ScheduleRepository
}

func NewScheduleService(repo ScheduleRepository) *ScheduleService {
	return &ScheduleService{
		repo: repo,
	}
}

// CreateManual создаёт ручную запись расписания
func (s *ScheduleService) CreateManual(ctx context.Context, sch *schedule.Schedule) (*schedule.Schedule, error) {
	if err := validateSchedule(sch); err != nil {
		return nil, err
	}

	// ручная запись никогда не помечена как синхронизированная
	sch.IsSyncedFromGoogle = false
	sch.GoogleEventID = nil
	applyScheduleDefaults(sch)

	if err := s.repo.Create(ctx, sch); err != nil {
		return nil, fmt.Errorf("создание расписания: %w", err)
	}
	return sch, nil
}

// CreateOrUpdateSynced - upsert по googleEventID среди неудалённых строк.
// Повторные вызовы с тем же id идемпотентны, поэтому повторные проходы
// синхронизации не создают дубликатов.
func (s *ScheduleService) CreateOrUpdateSynced(ctx context.Context, sch *schedule.Schedule, googleEventID string) (*schedule.Schedule, bool, error) {
	if googleEventID == "" {
		return nil, false, NewValidationError("google_event_id", "идентификатор события не может быть пустым")
	}
	if err := validateSchedule(sch); err != nil {
		return nil, false, err
	}

	sch.IsSyncedFromGoogle = true
	eventID := googleEventID
	sch.GoogleEventID = &eventID
	applyScheduleDefaults(sch)

	created, err := s.repo.UpsertSynced(ctx, sch)
	if err != nil {
		return nil, false, fmt.Errorf("upsert синхронизированного расписания: %w", err)
	}
	return sch, created, nil
}

// UpdateManual - полная замена полей ручной записи
func (s *ScheduleService) UpdateManual(ctx context.Context, sch *schedule.Schedule) (*schedule.Schedule, error) {
	existing, err := s.repo.GetByID(ctx, sch.ID, sch.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Info("Service: Расписание не найдено", zap.Int64("schedule_id", sch.ID))
			return nil, NewNotFound("расписание", sch.ID)
		}
		return nil, fmt.Errorf("получение расписания: %w", err)
	}

	if !existing.IsEditable() {
		logger.Info("Service: Попытка изменить синхронизированное расписание",
			zap.Int64("schedule_id", sch.ID),
			zap.Int64("user_id", sch.UserID))
		return nil, NewSyncedReadonly(sch.ID)
	}

	if err := validateSchedule(sch); err != nil {
		return nil, err
	}
	sch.IsSyncedFromGoogle = false
	sch.GoogleEventID = nil
	sch.CreatedAt = existing.CreatedAt
	applyScheduleDefaults(sch)

	if err := s.repo.Update(ctx, sch); err != nil {
		return nil, fmt.Errorf("обновление расписания: %w", err)
	}
	return sch, nil
}

// Delete - логическое удаление ручной записи.
// Возвращает false, если живой строки с таким id не было.
func (s *ScheduleService) Delete(ctx context.Context, id, userID int64) (bool, error) {
	existing, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("получение расписания: %w", err)
	}

	if !existing.IsDeletable() {
		logger.Info("Service: Попытка удалить синхронизированное расписание",
			zap.Int64("schedule_id", id),
			zap.Int64("user_id", userID))
		return false, NewSyncedReadonly(id)
	}

	ok, err := s.repo.SoftDelete(ctx, id, userID)
	if err != nil {
		return false, fmt.Errorf("удаление расписания: %w", err)
	}
	return ok, nil
}

// DeleteAllSynced - массовое логическое удаление синхронизированных записей,
// используется при отключении синхронизации календаря
func (s *ScheduleService) DeleteAllSynced(ctx context.Context, userID int64) (int64, error) {
	count, err := s.repo.SoftDeleteAllSynced(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("удаление синхронизированных расписаний: %w", err)
	}
	logger.Info("Service: Синхронизированные расписания удалены",
		zap.Int64("user_id", userID),
		zap.Int64("count", count))
	return count, nil
}

func (s *ScheduleService) GetByID(ctx context.Context, id, userID int64) (*schedule.Schedule, error) {
	sch, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("расписание", id)
		}
		return nil, fmt.Errorf("получение расписания: %w", err)
	}
	return sch, nil
}

func (s *ScheduleService) GetAllByUser(ctx context.Context, userID int64) ([]*schedule.Schedule, error) {
	schedules, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("получение расписаний: %w", err)
	}
	return schedules, nil
}

// GetByPeriod - выборка по пересечению интервалов, не по строгому вложению
func (s *ScheduleService) GetByPeriod(ctx context.Context, userID int64, from, to time.Time) ([]*schedule.Schedule, error) {
	schedules, err := s.repo.GetByPeriod(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("получение расписаний за период: %w", err)
	}
	return schedules, nil
}

func (s *ScheduleService) GetManual(ctx context.Context, userID int64) ([]*schedule.Schedule, error) {
	schedules, err := s.repo.GetManual(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("получение ручных расписаний: %w", err)
	}
	return schedules, nil
}

func (s *ScheduleService) GetSynced(ctx context.Context, userID int64) ([]*schedule.Schedule, error) {
	schedules, err := s.repo.GetSynced(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("получение синхронизированных расписаний: %w", err)
	}
	return schedules, nil
}

func (s *ScheduleService) GetUpcoming(ctx context.Context, userID int64) ([]*schedule.Schedule, error) {
	now := time.Now()
	return s.GetByPeriod(ctx, userID, now, now.AddDate(10, 0, 0))
}

func (s *ScheduleService) GetPast(ctx context.Context, userID int64) ([]*schedule.Schedule, error) {
	now := time.Now()
	return s.GetByPeriod(ctx, userID, now.AddDate(-10, 0, 0), now)
}

func (s *ScheduleService) SearchByTitle(ctx context.Context, userID int64, title string) ([]*schedule.Schedule, error) {
	schedules, err := s.repo.SearchByTitle(ctx, userID, title)
	if err != nil {
		return nil, fmt.Errorf("поиск расписаний: %w", err)
	}
	return schedules, nil
}

func (s *ScheduleService) SearchByTask(ctx context.Context, userID int64, taskName string) ([]*schedule.Schedule, error) {
	schedules, err := s.repo.SearchByTask(ctx, userID, taskName)
	if err != nil {
		return nil, fmt.Errorf("поиск расписаний по задаче: %w", err)
	}
	return schedules, nil
}

func (s *ScheduleService) IsEditable(ctx context.Context, id, userID int64) (bool, error) {
	sch, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("получение расписания: %w", err)
	}
	return sch.IsEditable(), nil
}

func (s *ScheduleService) IsDeletable(ctx context.Context, id, userID int64) (bool, error) {
	sch, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("получение расписания: %w", err)
	}
	return sch.IsDeletable(), nil
}

// TaskTimeEstimate - оценка длительности задачи по прошлым расписаниям
type TaskTimeEstimate struct {
	EstimatedTime string `json:"estimated_time"`
	SampleCount   int    `json:"sample_count"`
}

// GetEstimatedTaskTime считает среднюю длительность прошлых расписаний
// с той же задачей; при отсутствии истории возвращает "00:00"/0
func (s *ScheduleService) GetEstimatedTaskTime(ctx context.Context, userID int64, taskName string) (*TaskTimeEstimate, error) {
	past, err := s.repo.SearchByTask(ctx, userID, taskName)
	if err != nil {
		return nil, fmt.Errorf("поиск прошлых расписаний: %w", err)
	}

	if len(past) == 0 {
		return &TaskTimeEstimate{EstimatedTime: "00:00", SampleCount: 0}, nil
	}

	var totalMinutes int64
	for _, sch := range past {
		totalMinutes += sch.PlannedMinutes()
	}
	avgMinutes := totalMinutes / int64(len(past))

	return &TaskTimeEstimate{
		EstimatedTime: formatMinutes(avgMinutes),
		SampleCount:   len(past),
	}, nil
}

func validateSchedule(sch *schedule.Schedule) error {
	if sch.Title == "" {
		return NewValidationError("title", "название не может быть пустым")
	}
	if sch.StartTime.IsZero() || sch.EndTime.IsZero() {
		return NewValidationError("start_time", "время начала и окончания должны быть заданы")
	}
	if !sch.EndTime.After(sch.StartTime) {
		return NewValidationError("end_time", "время окончания должно быть позже времени начала")
	}
	return nil
}

// пустая задача получает сентинел "その他", незаданная длительность - 0
func applyScheduleDefaults(sch *schedule.Schedule) {
	if sch.TaskName == "" {
		sch.TaskName = schedule.DefaultTaskName
	}
	if sch.TaskTime < 0 {
		sch.TaskTime = 0
	}
}

func formatMinutes(minutes int64) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
