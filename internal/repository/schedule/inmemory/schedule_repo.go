package inmemory

import (
	"context"
	"strings"
	"sync"
	"time"

	"planvista/internal/models/schedule"
	repo "planvista/internal/repository"
)

type ScheduleStorage struct {
	storage map[int64]*schedule.Schedule
	mtx     *sync.RWMutex
	nextID  int64
}

func NewScheduleStorage() *ScheduleStorage {
	return &ScheduleStorage{
		storage: make(map[int64]*schedule.Schedule),
		mtx:     &sync.RWMutex{},
		nextID:  1,
	}
}

func (s *ScheduleStorage) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *ScheduleStorage) Create(ctx context.Context, sch *schedule.Schedule) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	sch.ID = s.nextID
	s.nextID++
	sch.CreatedAt = time.Now()
	s.storage[sch.ID] = sch
	return nil
}

func (s *ScheduleStorage) Update(ctx context.Context, sch *schedule.Schedule) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.storage[sch.ID]
	if !ok || existing.DeletedAt != nil {
		return repo.ErrNotFound
	}

	now := time.Now()
	sch.UpdatedAt = &now
	sch.CreatedAt = existing.CreatedAt
	s.storage[sch.ID] = sch
	return nil
}

// UpsertSynced - вставка или обновление по google_event_id среди живых
// строк; id и created_at существующей строки сохраняются
func (s *ScheduleStorage) UpsertSynced(ctx context.Context, sch *schedule.Schedule) (bool, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if sch.GoogleEventID != nil {
		for _, existing := range s.storage {
			if existing.DeletedAt != nil || existing.GoogleEventID == nil {
				continue
			}
			if *existing.GoogleEventID == *sch.GoogleEventID {
				now := time.Now()
				sch.ID = existing.ID
				sch.CreatedAt = existing.CreatedAt
				sch.UpdatedAt = &now
				s.storage[sch.ID] = sch
				return false, nil
			}
		}
	}

	sch.ID = s.nextID
	s.nextID++
	sch.CreatedAt = time.Now()
	s.storage[sch.ID] = sch
	return true, nil
}

func (s *ScheduleStorage) GetByID(ctx context.Context, id, userID int64) (*schedule.Schedule, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	sch, ok := s.storage[id]
	if !ok || sch.DeletedAt != nil || sch.UserID != userID {
		return nil, repo.ErrNotFound
	}
	return sch, nil
}

func (s *ScheduleStorage) GetByUserID(ctx context.Context, userID int64) ([]*schedule.Schedule, error) {
	return s.collect(func(sch *schedule.Schedule) bool {
		return sch.UserID == userID
	}), nil
}

// пересечение интервалов: start <= to AND end >= from
func (s *ScheduleStorage) GetByPeriod(ctx context.Context, userID int64, from, to time.Time) ([]*schedule.Schedule, error) {
	return s.collect(func(sch *schedule.Schedule) bool {
		return sch.UserID == userID &&
			!sch.StartTime.After(to) &&
			!sch.EndTime.Before(from)
	}), nil
}

func (s *ScheduleStorage) GetManual(ctx context.Context, userID int64) ([]*schedule.Schedule, error) {
	return s.collect(func(sch *schedule.Schedule) bool {
		return sch.UserID == userID && !sch.IsSyncedFromGoogle
	}), nil
}

func (s *ScheduleStorage) GetSynced(ctx context.Context, userID int64) ([]*schedule.Schedule, error) {
	return s.collect(func(sch *schedule.Schedule) bool {
		return sch.UserID == userID && sch.IsSyncedFromGoogle
	}), nil
}

func (s *ScheduleStorage) GetByGoogleEventID(ctx context.Context, googleEventID string) (*schedule.Schedule, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for _, sch := range s.storage {
		if sch.DeletedAt != nil || sch.GoogleEventID == nil {
			continue
		}
		if *sch.GoogleEventID == googleEventID {
			return sch, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *ScheduleStorage) SearchByTitle(ctx context.Context, userID int64, title string) ([]*schedule.Schedule, error) {
	return s.collect(func(sch *schedule.Schedule) bool {
		return sch.UserID == userID && strings.Contains(sch.Title, title)
	}), nil
}

func (s *ScheduleStorage) SearchByTask(ctx context.Context, userID int64, taskName string) ([]*schedule.Schedule, error) {
	return s.collect(func(sch *schedule.Schedule) bool {
		return sch.UserID == userID && sch.TaskName == taskName
	}), nil
}

// логическое удаление; false - живой строки не было
func (s *ScheduleStorage) SoftDelete(ctx context.Context, id, userID int64) (bool, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	sch, ok := s.storage[id]
	if !ok || sch.DeletedAt != nil || sch.UserID != userID {
		return false, nil
	}

	now := time.Now()
	sch.UpdatedAt = &now
	sch.DeletedAt = &now
	return true, nil
}

func (s *ScheduleStorage) SoftDeleteAllSynced(ctx context.Context, userID int64) (int64, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	now := time.Now()
	var count int64
	for _, sch := range s.storage {
		if sch.DeletedAt != nil || sch.UserID != userID || !sch.IsSyncedFromGoogle {
			continue
		}
		sch.UpdatedAt = &now
		sch.DeletedAt = &now
		count++
	}
	return count, nil
}

// collect обходит строки в порядке id и пропускает логически удалённые
func (s *ScheduleStorage) collect(match func(*schedule.Schedule) bool) []*schedule.Schedule {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*schedule.Schedule{}
	for id := int64(1); id < s.nextID; id++ {
		sch, ok := s.storage[id]
		if !ok || sch.DeletedAt != nil {
			continue
		}
		if match(sch) {
			res = append(res, sch)
		}
	}
	return res
}
