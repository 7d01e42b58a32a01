package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/adstudio/internal/model"
)

// PostgresContentRepo はPostgreSQLを使用した生成コンテンツリポジトリ。
type PostgresContentRepo struct {
	db *sql.DB
}

// NewPostgresContentRepo はPostgresContentRepoを生成する。
func NewPostgresContentRepo(db *sql.DB) *PostgresContentRepo {
	return &PostgresContentRepo{db: db}
}

// Create は生成コンテンツを保存する。
func (r *PostgresContentRepo) Create(ctx context.Context, content *model.GeneratedContent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO generated_content
		 (id, user_id, content_type, business_name, text_content, image_base64, prompt_used, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		content.ID, content.UserID, string(content.ContentType), content.BusinessName,
		content.TextContent, nullString(content.ImageBase64), content.PromptUsed, content.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert generated content: %w", err)
	}
	return nil
}

// ListByUserID はユーザーのコンテンツをcreated_at降順で最大limit件返す。
// created_atが同一の場合はID（ULID）の降順で並べる。
func (r *PostgresContentRepo) ListByUserID(ctx context.Context, userID string, limit int) ([]*model.GeneratedContent, error) {
	limit = clampHistoryLimit(limit)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, content_type, business_name, text_content, image_base64, prompt_used, created_at
		 FROM generated_content
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list generated content: %w", err)
	}
	defer rows.Close()

	contents := make([]*model.GeneratedContent, 0)
	for rows.Next() {
		c := &model.GeneratedContent{}
		var contentType string
		var image sql.NullString
		if err := rows.Scan(&c.ID, &c.UserID, &contentType, &c.BusinessName,
			&c.TextContent, &image, &c.PromptUsed, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan generated content: %w", err)
		}
		c.ContentType = model.ContentType(contentType)
		c.ImageBase64 = stringPtr(image)
		contents = append(contents, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate generated content: %w", err)
	}

	return contents, nil
}

// DeleteByIDAndUserID はIDと所有者が一致するコンテンツを1文で削除する。
func (r *PostgresContentRepo) DeleteByIDAndUserID(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM generated_content WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete generated content: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// clampHistoryLimit は取得件数を1以上HistoryLimit以下に丸める。
func clampHistoryLimit(limit int) int {
	if limit <= 0 || limit > HistoryLimit {
		return HistoryLimit
	}
	return limit
}

// compile-time interface check
var _ ContentRepository = (*PostgresContentRepo)(nil)
