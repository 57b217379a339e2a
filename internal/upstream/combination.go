package upstream

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"PortalAPI/internal/apperr"
)

// CombinationStatus — ответ Combination API на запрос статуса выгрузки.
type CombinationStatus struct {
	Status     string     `json:"status"`
	ExportTime *time.Time `json:"exportTime"`
}

// CombinationClient — клиент Combination API: статус выгрузки для набора
// модов и запуск новой выгрузки.
type CombinationClient interface {
	// Status запрашивает статус выгрузки комбинации по её набору модов.
	Status(ctx context.Context, modNames []string) (*CombinationStatus, error)

	// TriggerExport ставит выгрузку комбинации в очередь.
	TriggerExport(ctx context.Context, modNames []string) error
}

type httpCombinationClient struct {
	baseURL string
	hc      *http.Client
	breaker *gobreaker.CircuitBreaker[*CombinationStatus]
}

// NewCombinationClient создаёт HTTP-клиент Combination API с таймаутом и
// circuit breaker-ом: после серии сетевых сбоев запросы отсекаются сразу,
// не дожидаясь таймаута на каждом.
func NewCombinationClient(baseURL string, timeout time.Duration) CombinationClient {
	breaker := gobreaker.NewCircuitBreaker[*CombinationStatus](gobreaker.Settings{
		Name:    "combination-api",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// ошибки приложения не должны размыкать цепь
			return err == nil || !apperr.IsKind(err, apperr.KindUpstreamUnavailable)
		},
	})
	return &httpCombinationClient{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: timeout},
		breaker: breaker,
	}
}

type combinationRequest struct {
	ModNames []string `json:"modNames"`
}

func (c *httpCombinationClient) Status(ctx context.Context, modNames []string) (*CombinationStatus, error) {
	status, err := c.breaker.Execute(func() (*CombinationStatus, error) {
		var out CombinationStatus
		err := postJSON(ctx, c.hc, "combination.status", c.baseURL+"/status", nil, combinationRequest{ModNames: modNames}, &out)
		if err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "combination.status", "combination api circuit open", err)
		}
		return nil, err
	}
	return status, nil
}

func (c *httpCombinationClient) TriggerExport(ctx context.Context, modNames []string) error {
	_, err := c.breaker.Execute(func() (*CombinationStatus, error) {
		err := postJSON(ctx, c.hc, "combination.export", c.baseURL+"/export", nil, combinationRequest{ModNames: modNames}, nil)
		return nil, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperr.Wrap(apperr.KindUpstreamUnavailable, "combination.export", "combination api circuit open", err)
	}
	return err
}
