package calendar

import "time"

// Event - событие внешнего календаря в том виде, в котором его отдаёт
// провайдер. Ядро его не сохраняет, только транслирует в Schedule.
type Event struct {
	ID          string
	Title       string
	Description string
	Start       EventTime
	End         EventTime
}

// EventTime - момент времени события: либо точная отметка (DateTime),
// либо только дата для событий "весь день" (Date).
type EventTime struct {
	DateTime *time.Time
	Date     *time.Time
}

// Resolve возвращает момент времени события: приоритет у точной отметки,
// дата "весь день" нормализуется к полуночи, при отсутствии обеих -
// задокументированный fallback на now.
func (t EventTime) Resolve(now time.Time) time.Time {
	if t.DateTime != nil {
		return *t.DateTime
	}
	if t.Date != nil {
		d := *t.Date
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	}
	return now
}
