package handlers

import (
	"net/http"

	"planvista/internal/logger"
	"planvista/internal/service"

	"go.uber.org/zap"
)

func handleBusinessError(w http.ResponseWriter, err error) bool {
	if businessErr, ok := err.(*service.BusinessError); ok {
		statusCode := mapBusinessErrorToHTTP(businessErr.Code)

		logger.Warn("HTTP: Бизнес-ошибка",
			zap.String("error_code", businessErr.Code),
			zap.Int("http_status", statusCode))

		responseWithJSON(w, statusCode,
			toPayload("error", businessErr.Code),
			toPayload("message", businessErr.Message),
			toPayload("details", businessErr.Details),
		)
		return true
	}
	return false
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case "NOT_FOUND":
		return http.StatusNotFound
	case "VALIDATION_ERROR":
		return http.StatusBadRequest
	case "DUPLICATE_TASK_NAME", "SESSION_ACTIVE":
		return http.StatusConflict
	case "SYNCED_READONLY":
		return http.StatusForbidden
	case "EXTERNAL_SOURCE":
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}
