package generate

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"time"

	"github.com/hitoshi/adstudio/internal/metrics"
	"github.com/hitoshi/adstudio/internal/model"
	"github.com/hitoshi/adstudio/internal/prompt"
)

// Backend はテキスト補完と画像生成を行う外部サービスのインターフェース。
type Backend interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Image(ctx context.Context, prompt string) ([]byte, error)
}

// ContentGenerator はマーケティングコンテンツの生成インターフェース。
//
// テキストと画像で失敗時の扱いが異なる。GenerateTextは失敗をエラーとして返し、
// 呼び出し元のリクエストを失敗させる。GenerateImageは失敗してもエラーを返さずnilを返し、
// 呼び出し元は画像なしで処理を続行する。
type ContentGenerator interface {
	// GenerateText はコンテンツ種別のプロンプトでテキストを生成し、生成結果と使用したプロンプトを返す。
	GenerateText(ctx context.Context, contentType model.ContentType, attrs model.BusinessAttributes) (text, promptUsed string, err error)

	// GenerateImage は画像を1枚生成し、base64文字列を返す。失敗時はnilを返す。
	GenerateImage(ctx context.Context, businessName, businessType, description string) *string
}

// Generator はBackendを利用したContentGeneratorの実装。
type Generator struct {
	backend Backend
	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// NewGenerator はGeneratorを生成する。
func NewGenerator(backend Backend, recorder metrics.Recorder, logger *slog.Logger) *Generator {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		backend: backend,
		metrics: recorder,
		logger:  logger,
		now:     time.Now,
	}
}

// GenerateText はペルソナをシステムメッセージ、プロンプトをユーザーメッセージとして送信する。
// 生成されたテキストは加工せずに返す。
func (g *Generator) GenerateText(ctx context.Context, contentType model.ContentType, attrs model.BusinessAttributes) (string, string, error) {
	promptUsed := prompt.Build(contentType, attrs)

	start := g.now()
	text, err := g.backend.Complete(ctx, prompt.SystemPersona, promptUsed)
	g.metrics.RecordUpstreamLatency(metrics.UpstreamAIText, g.now().Sub(start))
	if err != nil {
		g.logger.Error("text generation failed",
			slog.String("content_type", string(contentType)),
			slog.String("error", err.Error()),
		)
		return "", "", err
	}

	return text, promptUsed, nil
}

// GenerateImage は画像生成を試み、いかなる失敗でもnilを返す。
func (g *Generator) GenerateImage(ctx context.Context, businessName, businessType, description string) *string {
	start := g.now()
	img, err := g.backend.Image(ctx, prompt.ImagePrompt(businessName, businessType, description))
	g.metrics.RecordUpstreamLatency(metrics.UpstreamAIImage, g.now().Sub(start))
	if err != nil {
		reason := fallbackReason(err)
		g.metrics.RecordImageFallback(reason)
		g.logger.Warn("image generation failed, continuing without image",
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
		return nil
	}

	encoded := base64.StdEncoding.EncodeToString(img)
	return &encoded
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingCredential):
		return "missing_credential"
	case errors.Is(err, ErrEmptyImage):
		return "empty_payload"
	default:
		return "upstream_error"
	}
}

// compile-time interface checks
var (
	_ ContentGenerator = (*Generator)(nil)
	_ Backend          = (*OpenAIClient)(nil)
)
