// Package auth は外部認証サービスとのセッション交換、セッション検証を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/adstudio/internal/metrics"
	"github.com/hitoshi/adstudio/internal/model"
	"github.com/hitoshi/adstudio/internal/repository"
)

// URLValidator はプロフィール画像URLの検証に使用するインターフェース。
// security.SSRFGuardの部分集合として定義する。
type URLValidator interface {
	ValidateURL(rawURL string) error
}

// ExchangeResult はセッション交換の結果。
type ExchangeResult struct {
	User         *model.User
	SessionToken string
	ExpiresAt    time.Time
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	identity IdentityProvider
	users    repository.UserRepository
	sessions *SessionStore
	urls     URLValidator
	metrics  metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// ServiceOption はServiceの任意設定。
type ServiceOption func(*Service)

// WithURLValidator はプロフィール画像URLの検証器を設定する。
func WithURLValidator(v URLValidator) ServiceOption {
	return func(s *Service) { s.urls = v }
}

// WithMetrics はメトリクスの記録先を設定する。
func WithMetrics(r metrics.Recorder) ServiceOption {
	return func(s *Service) { s.metrics = r }
}

// WithLogger はロガーを設定する。
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithClock は現在時刻の取得関数を設定する。
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService はServiceを生成する。
func NewService(identity IdentityProvider, users repository.UserRepository, sessions *SessionStore, opts ...ServiceOption) *Service {
	s := &Service{
		identity: identity,
		users:    users,
		sessions: sessions,
		metrics:  metrics.NewNoop(),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Exchange は外部セッションIDをユーザーとセッショントークンに交換する。
// 未登録のメールアドレスの場合はユーザーを作成する。既存ユーザーのプロフィールは更新しない。
// 外部サービスが受け付けない場合は認証エラー、保存に失敗した場合は汎用エラーを返す。
// ユーザー作成後にセッション保存が失敗しても、作成済みユーザーは削除しない。
func (s *Service) Exchange(ctx context.Context, externalSessionID string) (*ExchangeResult, error) {
	start := s.now()
	identity, err := s.identity.FetchSessionData(ctx, externalSessionID)
	s.metrics.RecordUpstreamLatency(metrics.UpstreamIdentity, s.now().Sub(start))
	if err != nil {
		if errors.Is(err, ErrInvalidExternalSession) {
			return nil, model.NewInvalidSessionError(err)
		}
		return nil, model.NewSessionCreationFailedError(err)
	}

	user, err := s.findOrCreateUser(ctx, identity)
	if err != nil {
		s.logger.Error("failed to resolve user for session",
			slog.String("error", err.Error()),
		)
		return nil, model.NewSessionCreationFailedError(err)
	}

	session, err := s.sessions.Create(ctx, user.ID, identity.SessionToken)
	if err != nil {
		s.logger.Error("failed to create session",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewSessionCreationFailedError(err)
	}

	s.metrics.RecordSessionCreated()
	s.logger.Info("session created",
		slog.String("user_id", user.ID),
		slog.Time("expires_at", session.ExpiresAt),
	)

	return &ExchangeResult{
		User:         user,
		SessionToken: identity.SessionToken,
		ExpiresAt:    session.ExpiresAt,
	}, nil
}

// findOrCreateUser はメールアドレスでユーザーを検索し、存在しなければ作成する。
// 同時作成で一意制約に抵触した場合は、先に作成されたユーザーを再取得する。
func (s *Service) findOrCreateUser(ctx context.Context, identity *ExternalIdentity) (*model.User, error) {
	existing, err := s.users.FindByEmail(ctx, identity.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	user := &model.User{
		ID:        uuid.New().String(),
		Email:     identity.Email,
		Name:      identity.Name,
		Picture:   s.safePicture(identity.Picture),
		CreatedAt: s.now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if raced, findErr := s.users.FindByEmail(ctx, identity.Email); findErr == nil && raced != nil {
			return raced, nil
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("new user created",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)
	return user, nil
}

// safePicture は検証を通過したプロフィール画像URLのみを返す。
func (s *Service) safePicture(picture *string) *string {
	if picture == nil || s.urls == nil {
		return picture
	}
	if err := s.urls.ValidateURL(*picture); err != nil {
		s.logger.Warn("dropping unsafe profile picture URL",
			slog.String("error", err.Error()),
		)
		return nil
	}
	return picture
}

// GetProfile はユーザー情報を返す。存在しない場合はUser not foundエラーを返す。
func (s *Service) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}
