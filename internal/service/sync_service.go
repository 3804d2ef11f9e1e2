package service

import (
	"context"
	"time"

	"planvista/internal/calendar"
	"planvista/internal/logger"
	"planvista/internal/models/schedule"

	"go.uber.org/zap"
)

// окно синхронизации по умолчанию: ±3 месяца от текущего момента
const syncWindowMonths = 3

// заголовок события без названия
const untitledEventTitle = "無題"

// SyncResult - итоги одного прохода синхронизации.
// При конкурентных прогонах для одного пользователя счётчики могут
// расходиться, сами строки сходятся благодаря upsert по event id.
type SyncResult struct {
	Synced  int `json:"synced"`
	Skipped int `json:"skipped"`
}

// SyncService транслирует события внешнего календаря в upsert-ы
// хранилища расписаний, переживая отказ отдельных событий.
type SyncService struct {
	source    CalendarSource
	schedules *ScheduleService
}

func NewSyncService(source CalendarSource, schedules *ScheduleService) *SyncService {
	return &SyncService{
		source:    source,
		schedules: schedules,
	}
}

// SyncUser синхронизирует окно now-3m..now+3m
func (s *SyncService) SyncUser(ctx context.Context, accessToken string, userID int64) (*SyncResult, error) {
	now := time.Now()
	return s.SyncUserRange(ctx, accessToken, userID, now.AddDate(0, -syncWindowMonths, 0), now.AddDate(0, syncWindowMonths, 0))
}

// SyncUserRange синхронизирует заданное окно. Ошибка получения списка
// прерывает весь батч, ошибка отдельного события - нет.
func (s *SyncService) SyncUserRange(ctx context.Context, accessToken string, userID int64, from, to time.Time) (*SyncResult, error) {
	start := time.Now()

	events, err := s.source.FetchEvents(ctx, accessToken, from, to)
	if err != nil {
		logger.Error("Sync: Не удалось получить события календаря", err,
			zap.Int64("user_id", userID))
		return nil, NewExternalSourceError(err)
	}

	result := &SyncResult{}

	// события обрабатываются последовательно, в порядке провайдера;
	// одно плохое событие не прерывает батч
	for _, event := range events {
		if err := s.syncEvent(ctx, userID, event); err != nil {
			logger.Warn("Sync: Событие пропущено",
				zap.Int64("user_id", userID),
				zap.String("event_id", event.ID),
				zap.Error(err))
			result.Skipped++
			continue
		}
		result.Synced++
	}

	logger.Info("Sync: Синхронизация завершена",
		zap.Int64("user_id", userID),
		zap.Int("synced", result.Synced),
		zap.Int("skipped", result.Skipped),
		zap.Duration("ms", time.Since(start)))
	return result, nil
}

func (s *SyncService) syncEvent(ctx context.Context, userID int64, event calendar.Event) error {
	sch := convertEventToSchedule(event, userID)
	_, _, err := s.schedules.CreateOrUpdateSynced(ctx, sch, event.ID)
	return err
}

// Unsync отключает синхронизацию: логически удаляет все
// синхронизированные расписания пользователя
func (s *SyncService) Unsync(ctx context.Context, userID int64) (int64, error) {
	return s.schedules.DeleteAllSynced(ctx, userID)
}

func convertEventToSchedule(event calendar.Event, userID int64) *schedule.Schedule {
	now := time.Now()

	title := event.Title
	if title == "" {
		title = untitledEventTitle
	}

	startTime := event.Start.Resolve(now)
	endTime := event.End.Resolve(now)

	return &schedule.Schedule{
		UserID:    userID,
		Title:     title,
		StartTime: startTime,
		EndTime:   endTime,
		Memo:      event.Description,
	}
}
