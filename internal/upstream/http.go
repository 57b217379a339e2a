package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	json "github.com/goccy/go-json"

	"PortalAPI/internal/apperr"
)

// ErrInvalidAuthToken сигналит, что Data API отверг токен авторизации.
// Вызывающий сбрасывает токен настройки и аутентифицируется заново.
var ErrInvalidAuthToken = errors.New("authorization token rejected by upstream")

// postJSON отправляет JSON POST и декодирует ответ в out (если out != nil).
// Сетевые ошибки и таймауты классифицируются как UpstreamUnavailable,
// ответы вне 2xx — как UpstreamFailed. Ретраев здесь нет: решение об
// обработке сбоя принимает вызывающий.
func postJSON(ctx context.Context, hc *http.Client, op, url string, headers map[string]string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return apperr.Wrap(apperr.KindUpstreamFailed, op, "failed to encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return apperr.Wrap(apperr.KindUpstreamFailed, op, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.KindUpstreamUnavailable, op, "upstream request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Wrap(apperr.KindUpstreamUnavailable, op, "failed to read upstream response", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperr.Wrap(apperr.KindUpstreamFailed, op, "upstream rejected authorization", ErrInvalidAuthToken)
	case resp.StatusCode >= http.StatusBadRequest:
		// upstream ответил, но с ошибкой приложения — это не «недоступен»
		return apperr.Wrap(apperr.KindUpstreamFailed, op,
			fmt.Sprintf("upstream responded with status %d", resp.StatusCode), errors.New(string(raw)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.Wrap(apperr.KindUpstreamFailed, op, "failed to decode upstream response", err)
	}
	return nil
}
