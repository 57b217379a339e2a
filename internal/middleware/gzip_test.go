package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// Тест: клиент без поддержки gzip получает JSON-ответ как есть
func TestWithGzip_IdentityWhenNotAccepted(t *testing.T) {
	payload := `{"setting":{"name":"Vanilla","locale":"en","recipeMode":"hybrid"}}`
	h := WithGzip(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/session/init", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status want 200, got %d", rr.Code)
	}
	if ce := rr.Header().Get("Content-Encoding"); ce != "" {
		t.Fatalf("unexpected Content-Encoding: %q", ce)
	}
	if rr.Body.String() != payload {
		t.Fatalf("unexpected body: %q", rr.Body.String())
	}
}

// Тест: JSON-тело ошибки сжимается, статус проходит насквозь,
// Content-Length исходного тела убирается
func TestWithGzip_CompressesErrorBody(t *testing.T) {
	payload := `{"error":{"message":"setting not found"}}`
	h := WithGzip(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Length", "41")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(payload))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/settings/unknown", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status passthrough failed: got %d", rr.Code)
	}
	if rr.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip Content-Encoding, got %q", rr.Header().Get("Content-Encoding"))
	}
	if cl := rr.Header().Get("Content-Length"); cl == "41" {
		t.Fatalf("stale Content-Length must be dropped, got %q", cl)
	}

	gr, err := gzip.NewReader(bytes.NewReader(rr.Body.Bytes()))
	if err != nil {
		t.Fatalf("failed to create gzip reader: %v", err)
	}
	defer gr.Close()
	data, err := io.ReadAll(gr)
	if err != nil {
		t.Fatalf("failed to read gzipped body: %v", err)
	}
	if string(data) != payload {
		t.Fatalf("unexpected ungzipped body: %q", string(data))
	}
}
