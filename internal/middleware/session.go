package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"PortalAPI/internal/apperr"
	"PortalAPI/internal/service"
)

// Транспорт идентичности сессии: непрозрачный id пользователя в заголовке
// или в подписанной cookie, id комбинации — только в заголовке.
const (
	HeaderUserID        = "X-Portal-User-Id"
	HeaderCombinationID = "X-Portal-Combination-Id"
	SessionCookieName   = "portal_session"
)

type contextKey string

const sessionContextKey contextKey = "portal_session"

// NewContextWithSession кладёт резолвленную сессию в контекст запроса.
func NewContextWithSession(ctx context.Context, sess *service.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// GetSessionFromContext достаёт резолвленную сессию из контекста.
func GetSessionFromContext(ctx context.Context) (*service.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(*service.Session)
	return sess, ok
}

// SetSessionCookie выставляет подписанную сессионную cookie с id пользователя.
func SetSessionCookie(w http.ResponseWriter, userID, secret string, ttl time.Duration) error {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// userIDFromCookie валидирует подпись cookie и возвращает id пользователя.
// Любая невалидность — просто отсутствие сессии, не ошибка.
func userIDFromCookie(r *http.Request, secret string) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return ""
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(c.Value, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return ""
	}
	return validUUID(claims.Subject)
}

// validUUID возвращает значение, только если это корректный uuid;
// мусор из недоверенного входа трактуется как «не прислано».
func validUUID(value string) string {
	if _, err := uuid.Parse(value); err != nil {
		return ""
	}
	return value
}

// WithSession резолвит (пользователь, настройка) для каждого запроса,
// кладёт пару в контекст и безусловно сохраняет состояние после обработки.
// bootstrapPath — выделенный маршрут, которому позволено создавать пользователя.
func WithSession(sessions *service.SessionService, secret string, cookieTTL time.Duration, bootstrapPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sig := service.Signals{
				UserID:        validUUID(r.Header.Get(HeaderUserID)),
				CombinationID: validUUID(r.Header.Get(HeaderCombinationID)),
				Bootstrap:     r.URL.Path == bootstrapPath,
			}
			if sig.UserID == "" {
				sig.UserID = userIDFromCookie(r, secret)
			}

			sess, err := sessions.Resolve(r.Context(), sig)
			if err != nil {
				writeSessionError(w, err)
				return
			}

			// cookie и заголовок должны уйти до записи тела
			if err := SetSessionCookie(w, sess.User.ID, secret, cookieTTL); err != nil {
				sugar.Errorw("failed to set session cookie", "error", err)
			}
			w.Header().Set(HeaderUserID, sess.User.ID)

			next.ServeHTTP(w, r.WithContext(NewContextWithSession(r.Context(), sess)))

			// изменения последнего визита и активной настройки обязаны пережить
			// запрос независимо от исхода обработки; контекст запроса к этому
			// моменту может быть уже отменён обрывом соединения
			if err := sessions.Persist(context.WithoutCancel(r.Context()), sess); err != nil {
				sugar.Errorw("failed to persist session",
					"user_id", sess.User.ID,
					"setting_id", sess.Setting.ID,
					"error", err,
				)
			}
		})
	}
}

// writeSessionError пишет структурированное тело ошибки резолва сессии.
func writeSessionError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	message := "internal server error"
	var e *apperr.Error
	if status < http.StatusInternalServerError && errors.As(err, &e) {
		message = e.Message
	}
	if status >= http.StatusInternalServerError {
		sugar.Errorw("session resolution failed", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"message": message},
	})
}
