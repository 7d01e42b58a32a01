// Package repository はデータ永続化のインターフェースとPostgreSQL実装を提供する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/adstudio/internal/model"
)

// HistoryLimit はコンテンツ履歴の最大取得件数。
const HistoryLimit = 50

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindActiveByTokenHash はトークンダイジェストに一致し、now時点で有効期限内のセッションを返す。
	// 見つからない、または期限切れの場合はnilを返す。
	FindActiveByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*model.Session, error)
}

// ContentRepository は生成コンテンツの永続化インターフェース。
type ContentRepository interface {
	// Create は生成コンテンツを保存する。
	Create(ctx context.Context, content *model.GeneratedContent) error

	// ListByUserID はユーザーのコンテンツをcreated_at降順で最大limit件返す。
	ListByUserID(ctx context.Context, userID string, limit int) ([]*model.GeneratedContent, error)

	// DeleteByIDAndUserID はIDと所有者の両方が一致するコンテンツを削除する。
	// 削除できた場合はtrueを返す。存在しない場合と所有者が異なる場合は区別しない。
	DeleteByIDAndUserID(ctx context.Context, id, userID string) (bool, error)
}
