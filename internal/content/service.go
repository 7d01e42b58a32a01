// Package content はマーケティングコンテンツの生成、履歴取得、削除のユースケースを提供する。
package content

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hitoshi/adstudio/internal/generate"
	"github.com/hitoshi/adstudio/internal/imagestore"
	"github.com/hitoshi/adstudio/internal/metrics"
	"github.com/hitoshi/adstudio/internal/model"
	"github.com/hitoshi/adstudio/internal/prompt"
	"github.com/hitoshi/adstudio/internal/repository"
)

// MarkupInspector は事業情報のうちマークアップを含むフィールド名を返すインターフェース。
type MarkupInspector interface {
	MarkupFields(attrs model.BusinessAttributes) []string
}

// otherContentType は未知のコンテンツ種別を集計するメトリクスラベル。
const otherContentType = "other"

// Service はコンテンツ生成に関するビジネスロジックを提供する。
type Service struct {
	generator generate.ContentGenerator
	repo      repository.ContentRepository
	markup    MarkupInspector
	archive   imagestore.Archive
	metrics   metrics.Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// Deps はServiceの依存関係。GeneratorとRepo以外は省略可能。
type Deps struct {
	Generator generate.ContentGenerator
	Repo      repository.ContentRepository
	Markup    MarkupInspector
	Archive   imagestore.Archive
	Metrics   metrics.Recorder
	Logger    *slog.Logger
	Now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(deps Deps) *Service {
	s := &Service{
		generator: deps.Generator,
		repo:      deps.Repo,
		markup:    deps.Markup,
		archive:   deps.Archive,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		now:       deps.Now,
	}
	if s.archive == nil {
		s.archive = imagestore.Noop{}
	}
	if s.metrics == nil {
		s.metrics = metrics.NewNoop()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Generate はテキストを生成し、チラシの場合は画像生成も試みたうえで保存する。
// 生成処理はリクエストのキャンセルから切り離して実行する。
// テキスト生成または保存に失敗した場合は生成失敗エラーを返す。画像の失敗は画像なしとして扱う。
func (s *Service) Generate(ctx context.Context, userID string, req model.ContentRequest) (*model.GeneratedContent, error) {
	ctx = context.WithoutCancel(ctx)

	attrs := req.BusinessAttributes
	if attrs.Tone == "" {
		attrs.Tone = model.DefaultTone
	}
	s.inspectMarkup(userID, attrs)

	text, promptUsed, err := s.generator.GenerateText(ctx, req.ContentType, attrs)
	if err != nil {
		s.metrics.RecordGeneration(metricsLabel(req.ContentType), metrics.OutcomeFailure)
		return nil, model.NewGenerationFailedError(err)
	}

	var image *string
	if req.ContentType.WantsImage() {
		image = s.generator.GenerateImage(ctx, attrs.BusinessName, attrs.BusinessType, prompt.FlyerImageDescription(attrs))
	}

	content := &model.GeneratedContent{
		ID:           ulid.Make().String(),
		UserID:       userID,
		ContentType:  req.ContentType,
		BusinessName: attrs.BusinessName,
		TextContent:  text,
		ImageBase64:  image,
		PromptUsed:   promptUsed,
		// PostgreSQLの精度に合わせ、生成直後の応答と履歴の値を一致させる
		CreatedAt:    s.now().UTC().Truncate(time.Microsecond),
	}

	if err := s.repo.Create(ctx, content); err != nil {
		s.metrics.RecordGeneration(metricsLabel(req.ContentType), metrics.OutcomeFailure)
		s.logger.Error("failed to save generated content",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewGenerationFailedError(err)
	}

	s.metrics.RecordGeneration(metricsLabel(req.ContentType), metrics.OutcomeSuccess)
	s.logger.Info("content generated",
		slog.String("content_id", content.ID),
		slog.String("user_id", userID),
		slog.String("content_type", string(content.ContentType)),
		slog.Int("text_length", len(content.TextContent)),
		slog.Bool("has_image", image != nil),
	)

	if image != nil {
		s.archiveImage(ctx, content)
	}

	return content, nil
}

// inspectMarkup はマークアップを含む入力を警告ログに残す。入力は変更しない。
func (s *Service) inspectMarkup(userID string, attrs model.BusinessAttributes) {
	if s.markup == nil {
		return
	}
	if fields := s.markup.MarkupFields(attrs); len(fields) > 0 {
		s.logger.Warn("business attributes contain markup",
			slog.String("user_id", userID),
			slog.Any("fields", fields),
		)
	}
}

// metricsLabel は未知の種別をまとめ、ラベルの種類数を定義済みの種別に限定する。
func metricsLabel(ct model.ContentType) string {
	if !ct.IsKnown() {
		return otherContentType
	}
	return string(ct)
}

// archiveImage は生成画像をオブジェクトストレージに保存する。失敗はログとメトリクスのみに残す。
func (s *Service) archiveImage(ctx context.Context, content *model.GeneratedContent) {
	raw, err := base64.StdEncoding.DecodeString(*content.ImageBase64)
	if err == nil {
		_, err = s.archive.Store(ctx, content.UserID, content.ID, raw)
	}
	if err != nil {
		s.metrics.RecordArchive(metrics.OutcomeFailure)
		s.logger.Warn("failed to archive flyer image",
			slog.String("content_id", content.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	s.metrics.RecordArchive(metrics.OutcomeSuccess)
}

// History はユーザーのコンテンツを新しい順に最大50件返す。
func (s *Service) History(ctx context.Context, userID string) ([]*model.GeneratedContent, error) {
	contents, err := s.repo.ListByUserID(ctx, userID, repository.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list content history: %w", err)
	}
	return contents, nil
}

// Delete はユーザー自身のコンテンツを削除する。
// 存在しないIDと他ユーザーのIDはどちらもContent not foundとして扱う。
func (s *Service) Delete(ctx context.Context, userID, contentID string) error {
	deleted, err := s.repo.DeleteByIDAndUserID(ctx, contentID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete content: %w", err)
	}
	if !deleted {
		return model.NewContentNotFoundError()
	}

	s.metrics.RecordContentDeleted()
	if err := s.archive.Remove(ctx, userID, contentID); err != nil {
		s.logger.Warn("failed to remove archived image",
			slog.String("content_id", contentID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}
