// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// SessionCookieName はセッショントークンを保持するCookie名。
const SessionCookieName = "session_token"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var userIDContextKey = contextKey("user_id")

// TokenValidator はセッショントークンからユーザーIDを解決するインターフェース。
// 無効なトークンに対しては空文字を返す。
type TokenValidator interface {
	Validate(ctx context.Context, token string) (string, error)
}

// NewSessionMiddleware はセッショントークンを検証し、ユーザーIDをコンテキストに注入するミドルウェアを返す。
// トークンはCookieを優先し、無い場合はAuthorization: Bearerヘッダーから取得する。
// トークンが無い、無効、期限切れ、または検証に失敗した場合は401を返す。
func NewSessionMiddleware(validator TokenValidator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionTokenFromRequest(r)
			if token == "" {
				WriteErrorDetail(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			userID, err := validator.Validate(r.Context(), token)
			if err != nil {
				slog.Error("failed to validate session",
					slog.String("error", err.Error()),
				)
				WriteErrorDetail(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if userID == "" {
				WriteErrorDetail(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			setLoggedUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
		})
	}
}

// SessionTokenFromRequest はCookieまたはAuthorizationヘッダーからセッショントークンを取り出す。
func SessionTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}
