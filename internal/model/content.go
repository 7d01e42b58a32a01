package model

import "time"

// ContentType は生成するコンテンツの種別を表す。
type ContentType string

const (
	ContentTypeSocialPost    ContentType = "social_post"
	ContentTypeFlyer         ContentType = "flyer"
	ContentTypeRadioScript   ContentType = "radio_script"
	ContentTypeMarketingPlan ContentType = "marketing_plan"
)

// DefaultTone はトーン未指定時に使用する値。
const DefaultTone = "professional"

// IsKnown は定義済みのコンテンツ種別かどうかを返す。
// 未知の種別もリクエストとしては受け付け、プロンプトはsocial_postにフォールバックする。
func (c ContentType) IsKnown() bool {
	switch c {
	case ContentTypeSocialPost, ContentTypeFlyer, ContentTypeRadioScript, ContentTypeMarketingPlan:
		return true
	default:
		return false
	}
}

// WantsImage は画像生成を試みる種別かどうかを返す。
func (c ContentType) WantsImage() bool {
	return c == ContentTypeFlyer
}

// BusinessAttributes はプロンプト構築に使う事業者情報。
type BusinessAttributes struct {
	BusinessName      string
	BusinessType      string
	TargetAudience    string
	KeyMessage        string
	Tone              string
	AdditionalDetails *string
}

// ContentRequest はコンテンツ生成リクエストを表す。
type ContentRequest struct {
	ContentType ContentType
	BusinessAttributes
}

// GeneratedContent は生成済みコンテンツを表す。
// 作成後は削除以外の変更を行わない。
type GeneratedContent struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	ContentType  ContentType `json:"content_type"`
	BusinessName string      `json:"business_name"`
	TextContent  string      `json:"text_content"`
	ImageBase64  *string     `json:"image_base64"`
	PromptUsed   string      `json:"prompt_used"`
	CreatedAt    time.Time   `json:"created_at"`
}
