package inmemory

import (
	"context"
	"sync"

	"planvista/internal/models/task"
	repo "planvista/internal/repository"
)

type TaskStorage struct {
	storage map[int64]*task.Task
	mtx     *sync.RWMutex
	nextID  int64
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[int64]*task.Task),
		mtx:     &sync.RWMutex{},
		nextID:  1,
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	// уникальность имени в рамках пользователя - как индекс в Postgres
	for _, existing := range s.storage {
		if existing.UserID == taskToCreate.UserID && existing.Name == taskToCreate.Name {
			return repo.ErrDuplicate
		}
	}

	taskToCreate.ID = s.nextID
	s.nextID++
	s.storage[taskToCreate.ID] = taskToCreate
	return nil
}

func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[taskToUpdate.ID]; !ok {
		return repo.ErrNotFound
	}

	for _, existing := range s.storage {
		if existing.ID != taskToUpdate.ID &&
			existing.UserID == taskToUpdate.UserID &&
			existing.Name == taskToUpdate.Name {
			return repo.ErrDuplicate
		}
	}

	s.storage[taskToUpdate.ID] = taskToUpdate
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return taskToGet, nil
}

func (s *TaskStorage) GetByUserID(ctx context.Context, userID int64) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for id := int64(1); id < s.nextID; id++ {
		t, ok := s.storage[id]
		if !ok || t.UserID != userID {
			continue
		}
		res = append(res, t)
	}
	return res, nil
}

func (s *TaskStorage) GetByName(ctx context.Context, userID int64, name string) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for _, t := range s.storage {
		if t.UserID == userID && t.Name == name {
			return t, nil
		}
	}
	return nil, repo.ErrNotFound
}

// жёсткое удаление, без каскада в расписания и записи
func (s *TaskStorage) Delete(ctx context.Context, id int64) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.storage, id)
	return nil
}
