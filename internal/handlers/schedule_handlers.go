package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"planvista/internal/handlers/dto"
	"planvista/internal/logger"
	"planvista/internal/models/schedule"

	"go.uber.org/zap"
)

type ScheduleHandler struct {
	ScheduleService ScheduleService
}

func NewScheduleHandler(scheduleService ScheduleService) ScheduleHandler {
	return ScheduleHandler{
		ScheduleService: scheduleService,
	}
}

func (h *ScheduleHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	if request.UserID <= 0 {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", "user_id"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "user_id должен быть положительным")
		return
	}

	logger.Info("HTTP: Вызов сервиса создания расписания")

	created, err := h.ScheduleService.CreateManual(r.Context(), &schedule.Schedule{
		UserID:    request.UserID,
		Title:     request.Title,
		StartTime: request.StartTime,
		EndTime:   request.EndTime,
		TaskName:  request.TaskName,
		TaskTime:  request.TaskTime,
		Memo:      request.Memo,
	})
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "create_schedule"),
			zap.String("client_ip", r.RemoteAddr),
			zap.Duration("ms", time.Since(start)))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Расписание создано",
		zap.Int64("schedule_id", created.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, toPayload("schedule", dto.FromSchedule(created)))
}

// GetSchedules выбирает выборку по query-параметрам: filter
// (manual|synced|upcoming|past), пара from/to, title или task.
// Без параметров - все живые расписания пользователя.
func (h *ScheduleHandler) GetSchedules(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, err := parseUserID(r)
	if err != nil || userID <= 0 {
		logger.Warn("HTTP: Ошибка получения параметра",
			zap.String("querry", "user_id"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "не удалось получить значение user_id")
		return
	}

	query := r.URL.Query()
	logger.Info("HTTP: Вызов сервиса для получения расписаний")

	var schedules []*schedule.Schedule
	switch {
	case query.Get("from") != "" || query.Get("to") != "":
		from, errFrom := time.Parse(time.RFC3339, query.Get("from"))
		to, errTo := time.Parse(time.RFC3339, query.Get("to"))
		if errFrom != nil || errTo != nil {
			logger.Warn("HTTP: Неверный формат периода",
				zap.String("client_ip", r.RemoteAddr))
			responseWithError(w, http.StatusBadRequest, "from и to должны быть в формате RFC3339")
			return
		}
		schedules, err = h.ScheduleService.GetByPeriod(r.Context(), userID, from, to)
	case query.Get("title") != "":
		schedules, err = h.ScheduleService.SearchByTitle(r.Context(), userID, query.Get("title"))
	case query.Get("task") != "":
		schedules, err = h.ScheduleService.SearchByTask(r.Context(), userID, query.Get("task"))
	case query.Get("filter") == "manual":
		schedules, err = h.ScheduleService.GetManual(r.Context(), userID)
	case query.Get("filter") == "synced":
		schedules, err = h.ScheduleService.GetSynced(r.Context(), userID)
	case query.Get("filter") == "upcoming":
		schedules, err = h.ScheduleService.GetUpcoming(r.Context(), userID)
	case query.Get("filter") == "past":
		schedules, err = h.ScheduleService.GetPast(r.Context(), userID)
	case query.Get("filter") != "":
		logger.Warn("HTTP: Неверное значение параметра",
			zap.String("querry", "filter"),
			zap.String("received", query.Get("filter")),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное значение filter")
		return
	default:
		schedules, err = h.ScheduleService.GetAllByUser(r.Context(), userID)
	}

	if err != nil {
		logger.Error("HTTP: Ошибка Service", err)
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Расписания получены",
		zap.Int("count", len(schedules)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("schedules", dto.FromScheduleList(schedules)))
}

func (h *ScheduleHandler) GetScheduleByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, err := parseIDParam(r, "id")
	if err != nil {
		logger.Warn("HTTP: Не удалось получить id",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "не удалось получить id: "+err.Error())
		return
	}

	userID, err := parseUserID(r)
	if err != nil || userID <= 0 {
		responseWithError(w, http.StatusBadRequest, "не удалось получить значение user_id")
		return
	}

	logger.Info("HTTP: Вызов сервиса для получения расписания")

	found, err := h.ScheduleService.GetByID(r.Context(), id, userID)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка в Service", err,
			zap.String("operation", "get_schedule"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Расписание получено",
		zap.Int64("schedule_id", found.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("schedule", dto.FromSchedule(found)))
}

func (h *ScheduleHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, err := parseIDParam(r, "id")
	if err != nil {
		logger.Warn("HTTP: Не удалось получить id",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "не удалось получить id: "+err.Error())
		return
	}

	var request dto.UpdateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	logger.Info("HTTP: запрос к сервису обновления расписания")

	updated, err := h.ScheduleService.UpdateManual(r.Context(), &schedule.Schedule{
		ID:        id,
		UserID:    request.UserID,
		Title:     request.Title,
		StartTime: request.StartTime,
		EndTime:   request.EndTime,
		TaskName:  request.TaskName,
		TaskTime:  request.TaskTime,
		Memo:      request.Memo,
	})
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "update_schedule"),
			zap.String("client_addr", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Расписание обновлено",
		zap.Int64("schedule_id", updated.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("schedule", dto.FromSchedule(updated)))
}

func (h *ScheduleHandler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, err := parseIDParam(r, "id")
	if err != nil {
		logger.Warn("HTTP: Не удалось получить id",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "не удалось получить id: "+err.Error())
		return
	}

	userID, err := parseUserID(r)
	if err != nil || userID <= 0 {
		responseWithError(w, http.StatusBadRequest, "не удалось получить значение user_id")
		return
	}

	logger.Info("HTTP: Обращение к сервису для удаления расписания")

	deleted, err := h.ScheduleService.Delete(r.Context(), id, userID)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "delete_schedule"),
			zap.String("client_addr", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// повторное удаление не ошибка, просто нечего удалять
	logger.Info("HTTP_OUT: Расписание удалено",
		zap.Int64("schedule_id", id),
		zap.Bool("deleted", deleted),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("deleted", deleted))
}

func (h *ScheduleHandler) GetEstimatedTaskTime(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, err := parseUserID(r)
	if err != nil || userID <= 0 {
		responseWithError(w, http.StatusBadRequest, "не удалось получить значение user_id")
		return
	}

	taskName := r.URL.Query().Get("task_name")
	if taskName == "" {
		logger.Warn("HTTP: Ошибка получения параметра",
			zap.String("querry", "task_name"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "task_name не может быть пустым")
		return
	}

	logger.Info("HTTP: Вызов сервиса оценки времени задачи")

	estimate, err := h.ScheduleService.GetEstimatedTaskTime(r.Context(), userID, taskName)
	if err != nil {
		logger.Error("HTTP: Ошибка Service", err)
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Оценка получена",
		zap.String("task_name", taskName),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("estimatedTime", estimate.EstimatedTime),
		toPayload("sampleCount", estimate.SampleCount),
	)
}
