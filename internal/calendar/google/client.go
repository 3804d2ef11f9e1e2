package google

import (
	"context"
	"fmt"
	"time"

	"planvista/internal/calendar"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const maxEventsPerFetch = 250

// Source - реализация календарного источника поверх Google Calendar API.
// OAuth-токен приходит от вызывающего слоя при каждом запросе,
// клиент собирается на static token source.
type Source struct{}

func NewSource() *Source {
	return &Source{}
}

// FetchEvents возвращает события primary-календаря за окно [from, to],
// развёрнутые по повторениям и отсортированные по началу
func (s *Source) FetchEvents(ctx context.Context, accessToken string, from, to time.Time) ([]calendar.Event, error) {
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})

	srv, err := gcal.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("создание клиента календаря: %w", err)
	}

	events, err := srv.Events.List("primary").
		MaxResults(maxEventsPerFetch).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		OrderBy("startTime").
		SingleEvents(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("получение событий календаря: %w", err)
	}

	result := make([]calendar.Event, 0, len(events.Items))
	for _, item := range events.Items {
		result = append(result, convertEvent(item))
	}
	return result, nil
}

func convertEvent(item *gcal.Event) calendar.Event {
	return calendar.Event{
		ID:          item.Id,
		Title:       item.Summary,
		Description: item.Description,
		Start:       convertEventTime(item.Start),
		End:         convertEventTime(item.End),
	}
}

func convertEventTime(edt *gcal.EventDateTime) calendar.EventTime {
	var result calendar.EventTime
	if edt == nil {
		return result
	}

	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			local := t.Local()
			result.DateTime = &local
		}
	}
	if edt.Date != "" {
		if d, err := time.ParseInLocation("2006-01-02", edt.Date, time.Local); err == nil {
			result.Date = &d
		}
	}
	return result
}
