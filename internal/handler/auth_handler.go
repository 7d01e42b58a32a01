// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/hitoshi/adstudio/internal/auth"
	"github.com/hitoshi/adstudio/internal/middleware"
	"github.com/hitoshi/adstudio/internal/model"
)

// externalSessionHeader は外部IdPのセッションIDを受け取るリクエストヘッダー。
const externalSessionHeader = "X-Session-ID"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Exchange(ctx context.Context, externalSessionID string) (*auth.ExchangeResult, error)
	GetProfile(ctx context.Context, userID string) (*model.User, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はセッション交換とプロフィール取得のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// sessionResponse はセッション交換のレスポンス。
type sessionResponse struct {
	User         *model.User `json:"user"`
	SessionToken string      `json:"session_token"`
}

// CreateSession は外部セッションIDをセッショントークンに交換し、Cookieに設定する。
// POST /api/auth/session
func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	externalSessionID := strings.TrimSpace(r.Header.Get(externalSessionHeader))
	if externalSessionID == "" {
		middleware.WriteErrorDetail(w, http.StatusUnprocessableEntity, "X-Session-ID header is required")
		return
	}

	result, err := h.service.Exchange(r.Context(), externalSessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	// クロスサイトのフロントエンドから送信できるようSameSite=Noneとする
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    result.SessionToken,
		Path:     "/",
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteNoneMode,
	})

	writeJSON(w, http.StatusOK, sessionResponse{
		User:         result.User,
		SessionToken: result.SessionToken,
	})
}

// Profile は現在のログインユーザー情報を返す。
// GET /api/auth/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	user, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
