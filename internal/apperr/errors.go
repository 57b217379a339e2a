package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind классифицирует ошибку ядра. По виду граница HTTP выбирает статус-код,
// само ядро по нему ничего не решает.
type Kind int

const (
	KindUnknown Kind = iota
	// KindMissingSession — пользователь не определён и маршрут не является bootstrap.
	KindMissingSession
	// KindInvalidCombination — combination-id из заголовка не принадлежит пользователю.
	KindInvalidCombination
	// KindUnknownEntity — запрошенная сущность отсутствует.
	KindUnknownEntity
	// KindConflict — операция конфликтует с текущим состоянием (удаление активной настройки).
	KindConflict
	// KindUpstreamUnavailable — соединение или таймаут при обращении к внешнему API.
	KindUpstreamUnavailable
	// KindUpstreamFailed — внешний API ответил, но с ошибкой приложения.
	KindUpstreamFailed
	// KindStorageInconsistency — нарушен инвариант, который хранилище обязано поддерживать.
	KindStorageInconsistency
)

// Error — типизированная ошибка ядра: вид, операция и исходная причина.
// Причина сохраняется для логов, Message — то, что можно показать клиенту.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New создаёт ошибку без исходной причины.
func New(kind Kind, op, message string) error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap оборачивает причину, сохраняя вид и операцию.
func Wrap(kind Kind, op, message string, err error) error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// KindOf возвращает вид ошибки; для нетипизированных ошибок — KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind проверяет, относится ли ошибка к указанному виду.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus отображает вид ошибки в HTTP статус-код.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindMissingSession:
		return http.StatusUnauthorized
	case KindInvalidCombination:
		return http.StatusBadRequest
	case KindUnknownEntity:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
