package auth

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/hitoshi/adstudio/internal/model"
	"github.com/hitoshi/adstudio/internal/repository"
)

// DefaultSessionTTL はセッションの有効期間。
const DefaultSessionTTL = 7 * 24 * time.Hour

// HashToken はセッショントークンのBLAKE2b-256ダイジェストを16進文字列で返す。
// トークンは平文で保存せず、検索もダイジェストで行う。
func HashToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// SessionStore はセッショントークンからユーザーを解決する。
// トークンの構造は解釈せず、不透明な文字列として扱う。
type SessionStore struct {
	repo repository.SessionRepository
	ttl  time.Duration
	now  func() time.Time
}

// NewSessionStore はSessionStoreを生成する。ttlが0以下の場合はDefaultSessionTTLを使用する。
func NewSessionStore(repo repository.SessionRepository, ttl time.Duration, now func() time.Time) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if now == nil {
		now = time.Now
	}
	return &SessionStore{repo: repo, ttl: ttl, now: now}
}

// TTL はセッションの有効期間を返す。
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

// Validate はトークンに対応する有効なセッションのユーザーIDを返す。
// トークンが空、未登録、または有効期限を過ぎている場合は空文字を返す。
func (s *SessionStore) Validate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", nil
	}

	now := s.now()
	session, err := s.repo.FindActiveByTokenHash(ctx, HashToken(token), now)
	if err != nil {
		return "", fmt.Errorf("failed to validate session: %w", err)
	}
	// リポジトリの絞り込みに加えて同じ時刻で期限を確認する
	if session == nil || !session.IsActive(now) {
		return "", nil
	}
	return session.UserID, nil
}

// Create はユーザーとトークンを結び付けたセッションを作成する。有効期限は現在時刻+TTL。
func (s *SessionStore) Create(ctx context.Context, userID, token string) (*model.Session, error) {
	now := s.now()
	session := &model.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		TokenHash: HashToken(token),
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}
