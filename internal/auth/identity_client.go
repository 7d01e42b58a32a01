package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// DefaultIdentitySessionURL は外部認証サービスのセッション情報取得エンドポイント。
const DefaultIdentitySessionURL = "https://demobackend.emergentagent.com/auth/v1/env/oauth/session-data"

// sessionIDHeader は外部セッションIDを渡すリクエストヘッダー。
const sessionIDHeader = "X-Session-ID"

// maxIdentityBodySize はセッション情報レスポンスから読み取る最大バイト数。
const maxIdentityBodySize = 64 * 1024

// ErrInvalidExternalSession は外部セッションIDが認証サービスに受け付けられなかった場合のエラー。
var ErrInvalidExternalSession = errors.New("invalid external session")

// ExternalIdentity は外部認証サービスが返すユーザー情報とセッショントークン。
type ExternalIdentity struct {
	Email        string  `json:"email"`
	Name         string  `json:"name"`
	Picture      *string `json:"picture"`
	SessionToken string  `json:"session_token"`
}

// IdentityProvider は外部セッションIDをユーザー情報に交換するインターフェース。
type IdentityProvider interface {
	FetchSessionData(ctx context.Context, externalSessionID string) (*ExternalIdentity, error)
}

// IdentityClient は外部認証サービスのHTTPクライアント。
type IdentityClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string
}

// NewIdentityClient はIdentityClientを生成する。endpointが空の場合はデフォルトを使用する。
func NewIdentityClient(httpClient *http.Client, logger *slog.Logger, endpoint string) *IdentityClient {
	if endpoint == "" {
		endpoint = DefaultIdentitySessionURL
	}
	return &IdentityClient{
		httpClient: httpClient,
		logger:     logger,
		endpoint:   endpoint,
	}
}

// FetchSessionData は外部セッションIDでユーザー情報を取得する。
// 200以外の応答、通信エラー、必須項目の欠落はすべてErrInvalidExternalSessionとして扱う。再試行はしない。
func (c *IdentityClient) FetchSessionData(ctx context.Context, externalSessionID string) (*ExternalIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity request: %w", err)
	}
	req.Header.Set(sessionIDHeader, externalSessionID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("identity service request failed",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrInvalidExternalSession, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("identity service rejected session",
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: status %d", ErrInvalidExternalSession, resp.StatusCode)
	}

	var identity ExternalIdentity
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxIdentityBodySize)).Decode(&identity); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrInvalidExternalSession, err)
	}
	if identity.Email == "" || identity.SessionToken == "" {
		return nil, fmt.Errorf("%w: missing email or session_token", ErrInvalidExternalSession)
	}
	if identity.Picture != nil && *identity.Picture == "" {
		identity.Picture = nil
	}

	return &identity, nil
}

// compile-time interface check
var _ IdentityProvider = (*IdentityClient)(nil)
