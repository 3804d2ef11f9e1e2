package record

import (
	"time"
)

// Record - фактическая запись о выполнении задачи.
// Открытая сессия обозначается EndTime == nil, а не равенством
// start == end: запись нулевой длительности остаётся обычной записью.
type Record struct {
	ID         int64      `json:"id" db:"id"`
	UserID     int64      `json:"user_id" db:"user_id"`
	ScheduleID *int64     `json:"schedule_id,omitempty" db:"schedule_id"`
	TaskID     int64      `json:"task_id" db:"task_id"`
	// TaskName - снимок имени задачи на момент создания/обновления,
	// переименование задачи его не меняет
	TaskName  string     `json:"task_name" db:"task_name"`
	StartTime time.Time  `json:"start_time" db:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty" db:"end_time"`
	Memo      string     `json:"memo" db:"memo"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// IsActive - сессия запущена и ещё не завершена
func (r *Record) IsActive() bool {
	return r.EndTime == nil
}

// DurationMinutes - фактическая длительность в минутах, 0 для открытой сессии
func (r *Record) DurationMinutes() int64 {
	if r.EndTime == nil {
		return 0
	}
	return int64(r.EndTime.Sub(r.StartTime).Minutes())
}
