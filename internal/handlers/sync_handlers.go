package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"planvista/internal/handlers/dto"
	"planvista/internal/logger"
	"planvista/internal/worker"

	"go.uber.org/zap"
)

type SyncHandler struct {
	SyncService SyncService
	Queue       SyncQueue
}

func NewSyncHandler(syncService SyncService, queue SyncQueue) SyncHandler {
	return SyncHandler{
		SyncService: syncService,
		Queue:       queue,
	}
}

// SyncNow выполняет синхронизацию в запросе и возвращает счётчики
func (h *SyncHandler) SyncNow(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	request, ok := h.decodeSyncRequest(w, r)
	if !ok {
		return
	}

	logger.Info("HTTP: Вызов сервиса синхронизации календаря")

	result, err := h.SyncService.SyncUser(r.Context(), request.AccessToken, request.UserID)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "sync_calendar"),
			zap.String("client_ip", r.RemoteAddr),
			zap.Duration("ms", time.Since(start)))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Синхронизация выполнена",
		zap.Int("synced", result.Synced),
		zap.Int("skipped", result.Skipped),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("synced", result.Synced),
		toPayload("skipped", result.Skipped),
	)
}

// SyncAsync ставит задание в очередь воркера и сразу отвечает 202
func (h *SyncHandler) SyncAsync(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	request, ok := h.decodeSyncRequest(w, r)
	if !ok {
		return
	}

	enqueued := h.Queue.Enqueue(worker.SyncJob{
		UserID:      request.UserID,
		AccessToken: request.AccessToken,
		EnqueuedAt:  time.Now(),
	})
	if !enqueued {
		logger.Warn("HTTP: Очередь синхронизации переполнена",
			zap.Int64("user_id", request.UserID),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusServiceUnavailable, "очередь синхронизации переполнена, повторите позже")
		return
	}

	logger.Info("HTTP_OUT: Задание синхронизации поставлено в очередь",
		zap.Int64("user_id", request.UserID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusAccepted))

	responseWithJSON(w, http.StatusAccepted, toPayload("enqueued", true))
}

// Unsync удаляет все синхронизированные расписания пользователя
func (h *SyncHandler) Unsync(w http.ResponseWriter, r *http.Request) {
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

	logger.Info("HTTP: Вызов сервиса отключения синхронизации")

	removed, err := h.SyncService.Unsync(r.Context(), userID)
	if err != nil {
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "unsync_calendar"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Синхронизация отключена",
		zap.Int64("removed", removed),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("removed", removed))
}

func (h *SyncHandler) decodeSyncRequest(w http.ResponseWriter, r *http.Request) (dto.SyncRequest, bool) {
	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return dto.SyncRequest{}, false
	}

	var request dto.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return dto.SyncRequest{}, false
	}

	if request.UserID <= 0 {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", "user_id"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "user_id должен быть положительным")
		return dto.SyncRequest{}, false
	}

	if request.AccessToken == "" {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", "access_token"),
			zap.String("error", "empty_field"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "access_token не может быть пустым")
		return dto.SyncRequest{}, false
	}

	return request, true
}
