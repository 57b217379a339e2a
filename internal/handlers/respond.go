package handlers

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"PortalAPI/internal/apperr"
)

// respondJSON пишет успешный JSON-ответ.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody — структурированное тело ошибки для клиента.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
}

// respondError отображает ошибку ядра в HTTP-ответ. Детали 5xx уходят
// клиенту только в debug-режиме; в лог они попадают всегда.
func respondError(w http.ResponseWriter, logger *zap.SugaredLogger, debug bool, err error) {
	status := apperr.HTTPStatus(err)

	message := "internal server error"
	var e *apperr.Error
	switch {
	case status < http.StatusInternalServerError && errors.As(err, &e):
		message = e.Message
	case status < http.StatusInternalServerError:
		message = err.Error()
	case debug:
		message = err.Error()
	}

	if status >= http.StatusInternalServerError {
		logger.Errorw("request failed", "status", status, "error", err)
	} else {
		logger.Warnw("request rejected", "status", status, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: errorDetail{Message: message}})
}

// respondBadRequest пишет 400 с сообщением о невалидном входе.
func respondBadRequest(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(errorBody{Error: errorDetail{Message: message}})
}
