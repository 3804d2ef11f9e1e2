package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"planvista/internal/handlers/dto"
	"planvista/internal/logger"
	"planvista/internal/models/record"

	"go.uber.org/zap"
)

type RecordHandler struct {
	RecordService RecordService
}

func NewRecordHandler(recordService RecordService) RecordHandler {
	return RecordHandler{
		RecordService: recordService,
	}
}

func (h *RecordHandler) StartRecord(w http.ResponseWriter, r *http.Request) {
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

	var request dto.StartRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	if request.UserID <= 0 || request.TaskID <= 0 {
		logger.Warn("HTTP: Ошибка валидации",
			zap.Int64("user_id", request.UserID),
			zap.Int64("task_id", request.TaskID),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "user_id и task_id должны быть положительными")
		return
	}

	logger.Info("HTTP: Вызов сервиса запуска записи")

	started, err := h.RecordService.StartRecord(r.Context(), request.UserID, request.TaskID, request.Memo)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "start_record"),
			zap.String("client_ip", r.RemoteAddr),
			zap.Duration("ms", time.Since(start)))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Запись начата",
		zap.Int64("record_id", started.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, toPayload("record", dto.FromRecord(started)))
}

func (h *RecordHandler) EndRecord(w http.ResponseWriter, r *http.Request) {
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

	// тело необязательное, schedule_id может отсутствовать
	var request dto.EndRecordRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&request)
	}

	logger.Info("HTTP: Вызов сервиса завершения записи")

	ended, err := h.RecordService.EndRecord(r.Context(), id, request.ScheduleID)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "end_record"),
			zap.String("client_ip", r.RemoteAddr),
			zap.Duration("ms", time.Since(start)))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Запись завершена",
		zap.Int64("record_id", ended.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("record", dto.FromRecord(ended)))
}

func (h *RecordHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
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

	var request dto.UpdateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	logger.Info("HTTP: запрос к сервису обновления записи")

	updated, err := h.RecordService.UpdateRecord(r.Context(), id, request.TaskID,
		request.StartTime, request.EndTime, request.Memo, request.ChangeReason)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "update_record"),
			zap.String("client_addr", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Запись обновлена",
		zap.Int64("record_id", updated.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("record", dto.FromRecord(updated)))
}

// GetActiveRecord отвечает 200 с record: null, когда активной записи нет
func (h *RecordHandler) GetActiveRecord(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, err := parseUserID(r)
	if err != nil || userID <= 0 {
		responseWithError(w, http.StatusBadRequest, "не удалось получить значение user_id")
		return
	}

	logger.Info("HTTP: Вызов сервиса для получения активной записи")

	active, err := h.RecordService.GetActiveRecord(r.Context(), userID)
	if err != nil {
		logger.Error("HTTP: Ошибка Service", err)
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Активная запись получена",
		zap.Bool("active", active != nil),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	if active == nil {
		responseWithJSON(w, http.StatusOK, toPayload("record", nil))
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("record", dto.FromRecord(active)))
}

func (h *RecordHandler) GetRecordByID(w http.ResponseWriter, r *http.Request) {
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

	logger.Info("HTTP: Вызов сервиса для получения записи")

	found, err := h.RecordService.GetRecordByID(r.Context(), id)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка в Service", err,
			zap.String("operation", "get_record"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Запись получена",
		zap.Int64("record_id", found.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("record", dto.FromRecord(found)))
}

// GetRecords разбирает query-параметры: date (YYYY-MM-DD) - записи за
// день, пара from/to - за период, иначе все записи пользователя.
func (h *RecordHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
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
	logger.Info("HTTP: Вызов сервиса для получения записей")

	var records []*record.Record
	switch {
	case query.Get("date") != "":
		date, errDate := time.ParseInLocation("2006-01-02", query.Get("date"), time.Local)
		if errDate != nil {
			logger.Warn("HTTP: Неверный формат даты",
				zap.String("received", query.Get("date")),
				zap.String("client_ip", r.RemoteAddr))
			responseWithError(w, http.StatusBadRequest, "date должна быть в формате YYYY-MM-DD")
			return
		}
		records, err = h.RecordService.GetRecordsByUserAndDate(r.Context(), userID, date)
	case query.Get("from") != "" || query.Get("to") != "":
		from, errFrom := time.Parse(time.RFC3339, query.Get("from"))
		to, errTo := time.Parse(time.RFC3339, query.Get("to"))
		if errFrom != nil || errTo != nil {
			logger.Warn("HTTP: Неверный формат периода",
				zap.String("client_ip", r.RemoteAddr))
			responseWithError(w, http.StatusBadRequest, "from и to должны быть в формате RFC3339")
			return
		}
		records, err = h.RecordService.GetRecordsByUserAndDateRange(r.Context(), userID, from, to)
	default:
		records, err = h.RecordService.GetAllRecordsByUser(r.Context(), userID)
	}

	if err != nil {
		logger.Error("HTTP: Ошибка Service", err)
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Записи получены",
		zap.Int("count", len(records)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("records", dto.FromRecordList(records)))
}

func (h *RecordHandler) GetRecordBySchedule(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	scheduleID, err := parseIDParam(r, "scheduleID")
	if err != nil {
		logger.Warn("HTTP: Не удалось получить id расписания",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "не удалось получить id расписания: "+err.Error())
		return
	}

	logger.Info("HTTP: Вызов сервиса для получения записи по расписанию")

	found, err := h.RecordService.GetRecordByScheduleID(r.Context(), scheduleID)
	if err != nil {
		logger.Error("HTTP: Ошибка Service", err)
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Запись по расписанию получена",
		zap.Bool("found", found != nil),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	if found == nil {
		responseWithJSON(w, http.StatusOK, toPayload("record", nil))
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("record", dto.FromRecord(found)))
}

func (h *RecordHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
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

	logger.Info("HTTP: Обращение к сервису для удаления записи")

	if err := h.RecordService.DeleteRecord(r.Context(), id); err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "delete_record"),
			zap.String("client_addr", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Запись удалена",
		zap.Int64("record_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}
