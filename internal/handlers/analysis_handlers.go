package handlers

import (
	"net/http"
	"time"

	"planvista/internal/logger"

	"go.uber.org/zap"
)

type AnalysisHandler struct {
	AnalysisService AnalysisService
}

func NewAnalysisHandler(analysisService AnalysisService) AnalysisHandler {
	return AnalysisHandler{
		AnalysisService: analysisService,
	}
}

func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
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

	logger.Info("HTTP: Вызов сервиса анализа")

	result, err := h.AnalysisService.GetAnalysisForUser(r.Context(), userID)
	if err != nil {
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "get_analysis"),
			zap.String("client_ip", r.RemoteAddr),
			zap.Duration("ms", time.Since(start)))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Анализ получен",
		zap.Int("accuracy", result.Accuracy),
		zap.Int("feedback_count", len(result.Feedbacks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("taskAverageTimes", result.TaskAverageTimes),
		toPayload("accuracy", result.Accuracy),
		toPayload("feedbacks", result.Feedbacks),
	)
}
