package inmemory

import (
	"context"
	"sync"
	"time"

	"planvista/internal/models/record"
	repo "planvista/internal/repository"
)

type RecordStorage struct {
	storage map[int64]*record.Record
	mtx     *sync.RWMutex
	nextID  int64
}

func NewRecordStorage() *RecordStorage {
	return &RecordStorage{
		storage: make(map[int64]*record.Record),
		mtx:     &sync.RWMutex{},
		nextID:  1,
	}
}

func (s *RecordStorage) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *RecordStorage) Create(ctx context.Context, rec *record.Record) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	// аналог частичного уникального индекса records(user_id) WHERE end_time IS NULL
	if rec.EndTime == nil {
		for _, existing := range s.storage {
			if existing.UserID == rec.UserID && existing.EndTime == nil {
				return repo.ErrDuplicate
			}
		}
	}

	rec.ID = s.nextID
	s.nextID++
	rec.CreatedAt = time.Now()
	s.storage[rec.ID] = rec
	return nil
}

func (s *RecordStorage) Update(ctx context.Context, rec *record.Record) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.storage[rec.ID]
	if !ok {
		return repo.ErrNotFound
	}

	now := time.Now()
	rec.UpdatedAt = &now
	rec.CreatedAt = existing.CreatedAt
	s.storage[rec.ID] = rec
	return nil
}

func (s *RecordStorage) GetByID(ctx context.Context, id int64) (*record.Record, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	rec, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return rec, nil
}

func (s *RecordStorage) GetByUserID(ctx context.Context, userID int64) ([]*record.Record, error) {
	return s.collect(func(rec *record.Record) bool {
		return rec.UserID == userID
	}), nil
}

// полуинтервал: start >= from AND start < to
func (s *RecordStorage) GetByDateRange(ctx context.Context, userID int64, from, to time.Time) ([]*record.Record, error) {
	return s.collect(func(rec *record.Record) bool {
		return rec.UserID == userID &&
			!rec.StartTime.Before(from) &&
			rec.StartTime.Before(to)
	}), nil
}

func (s *RecordStorage) GetByTaskNameAndDateRange(ctx context.Context, userID int64, taskName string, from, to time.Time) ([]*record.Record, error) {
	return s.collect(func(rec *record.Record) bool {
		return rec.UserID == userID &&
			rec.TaskName == taskName &&
			!rec.StartTime.Before(from) &&
			rec.StartTime.Before(to)
	}), nil
}

// на одно расписание ожидается не более одной записи
func (s *RecordStorage) GetByScheduleID(ctx context.Context, scheduleID int64) (*record.Record, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for id := int64(1); id < s.nextID; id++ {
		rec, ok := s.storage[id]
		if !ok || rec.ScheduleID == nil {
			continue
		}
		if *rec.ScheduleID == scheduleID {
			return rec, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *RecordStorage) GetActiveByUserID(ctx context.Context, userID int64) (*record.Record, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for _, rec := range s.storage {
		if rec.UserID == userID && rec.EndTime == nil {
			return rec, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *RecordStorage) ExistsByID(ctx context.Context, id int64) (bool, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	_, ok := s.storage[id]
	return ok, nil
}

// записи удаляются только жёстко
func (s *RecordStorage) Delete(ctx context.Context, id int64) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.storage, id)
	return nil
}

func (s *RecordStorage) collect(match func(*record.Record) bool) []*record.Record {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*record.Record{}
	for id := int64(1); id < s.nextID; id++ {
		rec, ok := s.storage[id]
		if !ok {
			continue
		}
		if match(rec) {
			res = append(res, rec)
		}
	}
	return res
}
