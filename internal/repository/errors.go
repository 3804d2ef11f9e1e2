package repository

import "errors"

var (
	// ErrNotFound - запись не найдена в хранилище
	ErrNotFound = errors.New("запись не найдена")
	// ErrDuplicate - нарушение уникальности (имя задачи, активная сессия)
	ErrDuplicate = errors.New("дубликат записи")
)
