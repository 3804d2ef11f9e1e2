package task

// Task - именованная задача пользователя.
// Имя уникально в рамках одного пользователя; расписания ссылаются
// на задачу по имени (снимок), записи - по id.
type Task struct {
	ID     int64  `json:"id" db:"id"`
	UserID int64  `json:"user_id" db:"user_id"`
	Name   string `json:"name" db:"name"`
}
