package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"PortalAPI/internal/model"
	"PortalAPI/internal/repo"
	"PortalAPI/internal/service"
)

const testBootstrapPath = "/api/session/init"

func newSessionEnv(t *testing.T, secret string) (func(http.Handler) http.Handler, *gorm.DB) {
	t.Helper()
	SetLogger(zap.NewNop().Sugar())

	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: "file:" + t.Name() + "?mode=memory&cache=shared"}
	db, err := gorm.Open(dial, &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.Combination{}, &model.User{}, &model.Setting{}, &model.SidebarEntity{}); err != nil {
		t.Fatalf("failed to automigrate: %v", err)
	}
	sessions := service.NewSessionService(
		repo.NewUserRepository(db),
		repo.NewSettingRepository(db),
		repo.NewCombinationRepository(db),
		zap.NewNop().Sugar(),
	)
	return WithSession(sessions, secret, time.Hour, testBootstrapPath), db
}

func newSessionMiddleware(t *testing.T, secret string) func(http.Handler) http.Handler {
	t.Helper()
	mw, _ := newSessionEnv(t, secret)
	return mw
}

// Тест: bootstrap без идентичности создаёт пользователя, сессия попадает
// в контекст, cookie и заголовок с id уходят клиенту
func TestWithSession_Bootstrap(t *testing.T) {
	h := newSessionMiddleware(t, "secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := GetSessionFromContext(r.Context())
		if !ok {
			t.Fatalf("session must be present in context")
		}
		if sess.User == nil || sess.Setting == nil {
			t.Fatalf("session must carry user and setting")
		}
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, testBootstrapPath, nil)
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get(HeaderUserID) == "" {
		t.Fatalf("user id header must be set")
	}
	var found bool
	for _, c := range rr.Result().Cookies() {
		if c.Name == SessionCookieName && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Fatalf("session cookie must be set")
	}
}

// Тест: cookie от bootstrap-а резолвит того же пользователя на обычном маршруте
func TestWithSession_CookieRoundTrip(t *testing.T) {
	mw := newSessionMiddleware(t, "secret")

	var firstUserID string
	boot := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := GetSessionFromContext(r.Context())
		firstUserID = sess.User.ID
	}))
	rrBoot := httptest.NewRecorder()
	boot.ServeHTTP(rrBoot, httptest.NewRequest(http.MethodPost, testBootstrapPath, nil))

	var secondUserID string
	next := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := GetSessionFromContext(r.Context())
		secondUserID = sess.User.ID
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	for _, c := range rrBoot.Result().Cookies() {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	next.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if firstUserID == "" || firstUserID != secondUserID {
		t.Fatalf("cookie must resolve the same user: %q vs %q", firstUserID, secondUserID)
	}
}

// Тест: без идентичности обычный маршрут отвечает 401 со структурированным телом
func TestWithSession_MissingSession(t *testing.T) {
	h := newSessionMiddleware(t, "secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not be reached without a session")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/settings", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"error"`) {
		t.Fatalf("expected structured error body, got %q", rr.Body.String())
	}
}

// Тест: мусор в заголовке id — то же, что отсутствие идентичности
func TestWithSession_MalformedUserIDTreatedAsAbsent(t *testing.T) {
	h := newSessionMiddleware(t, "secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	req.Header.Set(HeaderUserID, "not-a-uuid'; DROP TABLE users;--")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("malformed id must behave like an absent one, got %d", rr.Code)
	}
}

// Тест: persist после обработки переживает обрыв соединения клиентом
// (контекст запроса отменён, состояние сессии всё равно сохранено)
func TestWithSession_PersistSurvivesClientDisconnect(t *testing.T) {
	mw, db := newSessionEnv(t, "secret")

	rrBoot := httptest.NewRecorder()
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
		ServeHTTP(rrBoot, httptest.NewRequest(http.MethodPost, testBootstrapPath, nil))
	userID := rrBoot.Header().Get(HeaderUserID)
	if userID == "" {
		t.Fatalf("bootstrap must yield a user id")
	}

	// состарим отметку визита: её обновляет только persist
	old := time.Now().UTC().Add(-48 * time.Hour)
	if err := db.Model(&model.User{ID: userID}).Update("last_visit_time", old).Error; err != nil {
		t.Fatalf("failed to age user: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cancel() // клиент оборвал соединение во время обработки
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil).WithContext(ctx)
	req.Header.Set(HeaderUserID, userID)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var u model.User
	if err := db.First(&u, "id = ?", userID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if !u.LastVisitTime.After(old.Add(time.Hour)) {
		t.Fatalf("last visit time must be persisted despite the canceled context, got %v", u.LastVisitTime)
	}
}

// Тест: cookie, подписанная другим секретом, не резолвится
func TestWithSession_ForeignCookieIgnored(t *testing.T) {
	rrCookie := httptest.NewRecorder()
	_ = SetSessionCookie(rrCookie, "0b2d2c95-2f6d-4a52-9c81-f1e6a1f6a001", "secret-A", time.Hour)

	h := newSessionMiddleware(t, "secret-B")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	for _, c := range rrCookie.Result().Cookies() {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("cookie signed with a foreign secret must be ignored, got %d", rr.Code)
	}
}
