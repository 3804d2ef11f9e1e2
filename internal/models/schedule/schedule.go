package schedule

import (
	"time"
)

// DefaultTaskName подставляется, если при создании расписания задача не указана.
const DefaultTaskName = "その他"

// Schedule - запланированная запись календаря.
// Хранит как ручные записи, так и записи, синхронизированные из Google Calendar.
type Schedule struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	StartTime time.Time `json:"start_time" db:"start_time"`
	EndTime   time.Time `json:"end_time" db:"end_time"`
	TaskName  string    `json:"task_name" db:"task_name"`
	// TaskTime - кэш планируемой длительности в минутах
	TaskTime int    `json:"task_time" db:"task_time"`
	Memo     string `json:"memo" db:"memo"`
	// Синхронизированные записи доступны только для чтения
	IsSyncedFromGoogle bool       `json:"is_synced_from_google" db:"is_synced_from_google"`
	GoogleEventID      *string    `json:"google_event_id,omitempty" db:"google_event_id"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty" db:"updated_at"`
	DeletedAt          *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// IsEditable - синхронизированные из Google записи редактировать нельзя
func (s *Schedule) IsEditable() bool {
	return !s.IsSyncedFromGoogle
}

// IsDeletable - синхронизированные из Google записи удалять нельзя
func (s *Schedule) IsDeletable() bool {
	return !s.IsSyncedFromGoogle
}

// PlannedMinutes - плановая длительность в минутах
func (s *Schedule) PlannedMinutes() int64 {
	return int64(s.EndTime.Sub(s.StartTime).Minutes())
}
