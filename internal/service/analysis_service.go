package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"planvista/internal/models/record"
	"planvista/internal/models/schedule"
)

// окно анализа - последние 3 месяца
const analysisWindowMonths = 3

// минимальное число записей для содержательного анализа
const minRecordsForAnalysis = 5

// AnalysisResult - единственный формат данных, который уходит
// потребителям отчётов: только карты, списки и числа
type AnalysisResult struct {
	TaskAverageTimes map[string]string `json:"task_average_times"`
	Accuracy         int               `json:"accuracy"`
	Feedbacks        []string          `json:"feedbacks"`
}

// AnalysisService сравнивает план с фактом: средние длительности по
// задачам, точность расписания и текстовая обратная связь.
type AnalysisService struct {
	scheduleRepo ScheduleRepository
	recordRepo   RecordRepository
}

func NewAnalysisService(scheduleRepo ScheduleRepository, recordRepo RecordRepository) *AnalysisService {
	return &AnalysisService{
		scheduleRepo: scheduleRepo,
		recordRepo:   recordRepo,
	}
}

func (s *AnalysisService) GetAnalysisForUser(ctx context.Context, userID int64) (*AnalysisResult, error) {
	now := time.Now()
	from := now.AddDate(0, -analysisWindowMonths, 0)

	schedules, err := s.scheduleRepo.GetByPeriod(ctx, userID, from, now)
	if err != nil {
		return nil, fmt.Errorf("получение расписаний для анализа: %w", err)
	}
	records, err := s.recordRepo.GetByDateRange(ctx, userID, from, now)
	if err != nil {
		return nil, fmt.Errorf("получение записей для анализа: %w", err)
	}

	taskAverages := calculateTaskAverageTimes(records)
	accuracy := calculateScheduleAccuracy(schedules, records)
	feedbacks := generateFeedbacks(schedules, records, taskAverages, accuracy)

	return &AnalysisResult{
		TaskAverageTimes: taskAverages,
		Accuracy:         int(roundHalfUp(accuracy)),
		Feedbacks:        feedbacks,
	}, nil
}

// calculateTaskAverageTimes - среднее арифметическое длительностей по
// имени задачи, целые минуты, формат HH:MM. Открытые сессии пропускаются,
// задачи без записей не получают нулевых строк.
func calculateTaskAverageTimes(records []*record.Record) map[string]string {
	taskDurations := make(map[string][]int64)
	for _, rec := range records {
		if rec.IsActive() {
			continue
		}
		taskDurations[rec.TaskName] = append(taskDurations[rec.TaskName], rec.DurationMinutes())
	}

	result := make(map[string]string, len(taskDurations))
	for name, durations := range taskDurations {
		var total int64
		for _, d := range durations {
			total += d
		}
		result[name] = formatMinutes(total / int64(len(durations)))
	}
	return result
}

// calculateScheduleAccuracy - средняя точность по сопоставленным парам
// расписание/запись. Пара с нулевым планом исключается из среднего
// (защита от деления на ноль), а не считается за 0% или 100%.
func calculateScheduleAccuracy(schedules []*schedule.Schedule, records []*record.Record) float64 {
	if len(schedules) == 0 || len(records) == 0 {
		return 0
	}

	recordBySchedule := matchRecordsToSchedules(records)

	comparisons := 0
	totalAccuracy := 0.0

	for _, sch := range schedules {
		rec, ok := recordBySchedule[sch.ID]
		if !ok {
			continue
		}

		plannedMinutes := sch.PlannedMinutes()
		if plannedMinutes <= 0 {
			continue
		}
		actualMinutes := rec.DurationMinutes()

		difference := float64(plannedMinutes - actualMinutes)
		if difference < 0 {
			difference = -difference
		}
		accuracy := 100.0 - difference/float64(plannedMinutes)*100.0
		if accuracy < 0 {
			accuracy = 0
		}
		totalAccuracy += accuracy
		comparisons++
	}

	if comparisons == 0 {
		return 0
	}
	return totalAccuracy / float64(comparisons)
}

// matchRecordsToSchedules строит schedule id -> запись.
// При нескольких записях на одно расписание побеждает первая встреченная.
func matchRecordsToSchedules(records []*record.Record) map[int64]*record.Record {
	m := make(map[int64]*record.Record)
	for _, rec := range records {
		if rec.ScheduleID == nil {
			continue
		}
		if _, ok := m[*rec.ScheduleID]; !ok {
			m[*rec.ScheduleID] = rec
		}
	}
	return m
}

type taskDelayInfo struct {
	totalCount        int
	delayCount        int
	totalDelayMinutes int64
}

func (i taskDelayInfo) delayRate() float64 {
	if i.totalCount == 0 {
		return 0
	}
	return float64(i.delayCount) / float64(i.totalCount)
}

// generateFeedbacks - детерминированные правила обратной связи.
// Список никогда не пуст.
func generateFeedbacks(schedules []*schedule.Schedule, records []*record.Record, taskAverages map[string]string, accuracy float64) []string {
	feedbacks := []string{}
	rounded := roundHalfUp(accuracy)

	switch {
	case accuracy < 60:
		feedbacks = append(feedbacks, fmt.Sprintf(
			"スケジュールの正確度が%d%%と低めです。予定時間を実際より20～30%%多めに見積もると、より正確なスケジュールになります。", rounded))
	case accuracy < 80:
		feedbacks = append(feedbacks, fmt.Sprintf(
			"スケジュールの正確度は%d%%です。良い精度ですが、さらに向上の余地があります。", rounded))
	default:
		feedbacks = append(feedbacks, fmt.Sprintf(
			"スケジュールの正確度が%d%%と非常に高いです！この調子で計画的なスケジュール管理を続けましょう。", rounded))
	}

	delays := analyzeTaskDelays(schedules, records)
	for _, name := range sortedTaskNames(delays) {
		info := delays[name]
		if info.delayRate() > 0.6 && info.totalCount >= 3 {
			avgDelay := info.totalDelayMinutes / int64(info.delayCount)
			feedbacks = append(feedbacks, fmt.Sprintf(
				"「%s」のタスクが予定より平均%d分長引いています。次回から%d分多めに予定を組むことをおすすめします。",
				name, avgDelay, int64(float64(avgDelay)*1.3)))
		}
	}

	if longest := longestAverageTask(taskAverages); longest != "" {
		feedbacks = append(feedbacks, fmt.Sprintf(
			"「%s」が平均%sと最も時間がかかっています。このタスクを細分化することで、より効率的に進められる可能性があります。",
			longest, taskAverages[longest]))
	}

	if len(records) < minRecordsForAnalysis {
		feedbacks = append(feedbacks,
			"記録されたデータがまだ少ないため、詳細な分析ができません。より正確な分析のために、日々の作業記録を続けることをおすすめします。")
	}

	if len(feedbacks) == 0 {
		feedbacks = append(feedbacks,
			"現在のところ、スケジュール管理は順調です。この調子で記録を続けて、より詳細な分析を行いましょう。")
	}

	return feedbacks
}

// analyzeTaskDelays - статистика перерасхода по имени задачи среди
// сопоставленных пар
func analyzeTaskDelays(schedules []*schedule.Schedule, records []*record.Record) map[string]taskDelayInfo {
	recordBySchedule := matchRecordsToSchedules(records)
	delays := make(map[string]taskDelayInfo)

	for _, sch := range schedules {
		rec, ok := recordBySchedule[sch.ID]
		if !ok {
			continue
		}

		delayMinutes := rec.DurationMinutes() - sch.PlannedMinutes()
		info := delays[rec.TaskName]
		info.totalCount++
		if delayMinutes > 0 {
			info.delayCount++
			info.totalDelayMinutes += delayMinutes
		}
		delays[rec.TaskName] = info
	}

	return delays
}

// порядок обхода карты недетерминирован, а обратная связь должна быть
// стабильной между вызовами
func sortedTaskNames(delays map[string]taskDelayInfo) []string {
	names := make([]string, 0, len(delays))
	for name := range delays {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func longestAverageTask(taskAverages map[string]string) string {
	longest := ""
	var longestMinutes int64 = -1
	names := make([]string, 0, len(taskAverages))
	for name := range taskAverages {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		minutes := parseDurationMinutes(taskAverages[name])
		if minutes > longestMinutes {
			longestMinutes = minutes
			longest = name
		}
	}
	return longest
}

func parseDurationMinutes(hhmm string) int64 {
	var hours, minutes int64
	fmt.Sscanf(hhmm, "%d:%d", &hours, &minutes)
	return hours*60 + minutes
}

func roundHalfUp(v float64) int64 {
	return int64(v + 0.5)
}
