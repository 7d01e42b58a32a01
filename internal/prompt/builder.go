// Package prompt はコンテンツ種別ごとの生成プロンプトを構築する。
// 全ての関数は入力のみから結果を決める純粋関数である。
package prompt

import (
	"fmt"
	"strings"

	"github.com/hitoshi/adstudio/internal/model"
)

// SystemPersona はテキスト生成時にシステムメッセージとして渡す人格設定。
const SystemPersona = "You are an expert marketing copywriter specializing in content for small and medium enterprises (SMEs). " +
	"Create professional, engaging, and effective marketing content that drives results for local businesses."

// noneDetails は追加情報が未指定の場合にプロンプトへ埋め込む値。
const noneDetails = "None"

// template はコンテンツ種別ごとのプロンプト構成要素。
type template struct {
	opening      string // 事業名と業種を埋め込む書き出し
	requirements []string
	format       string
}

var templates = map[model.ContentType]template{
	model.ContentTypeSocialPost: {
		opening: "Create an engaging social media post for %s, a %s business.",
		requirements: []string{
			"Maximum 280 characters for Twitter or 125 words for Facebook/LinkedIn",
			"Include relevant hashtags (3-5)",
			"Call-to-action",
			"Engaging and shareable content",
			"Appropriate emojis if tone allows",
		},
		format: "Format the response as a ready-to-post social media update.",
	},
	model.ContentTypeFlyer: {
		opening: "Create compelling flyer content for %s, a %s business.",
		requirements: []string{
			"Eye-catching headline",
			"Clear value proposition",
			"Contact information placeholder",
			"Call-to-action",
			"Benefits or features (3-5 bullet points)",
			"Event details if applicable",
		},
		format: "Format as structured flyer text with clear sections for headline, body, and contact info.",
	},
	model.ContentTypeRadioScript: {
		opening: "Write a radio advertisement script for %s, a %s business.",
		requirements: []string{
			"30-second format (approximately 75 words)",
			"Attention-grabbing opening",
			"Clear message delivery",
			"Strong call-to-action",
			"Easy to pronounce and remember",
			"Include timing cues in brackets",
		},
		format: "Format as a professional radio script with speaker directions.",
	},
	model.ContentTypeMarketingPlan: {
		opening: "Create a comprehensive marketing plan for %s, a %s business.",
		requirements: []string{
			"Executive Summary",
			"Target Market Analysis",
			"Marketing Objectives (3-5)",
			"Marketing Strategies and Tactics",
			"Budget Considerations",
			"Timeline (3-6 months)",
			"Success Metrics",
			"Next Steps",
		},
		format: "Format as a structured business document with clear sections and actionable recommendations.",
	},
}

// Build はコンテンツ種別と事業情報から生成プロンプトを組み立てる。
// 未知の種別はsocial_postのテンプレートで構築する。
func Build(contentType model.ContentType, attrs model.BusinessAttributes) string {
	tmpl, ok := templates[contentType]
	if !ok {
		tmpl = templates[model.ContentTypeSocialPost]
	}

	var b strings.Builder
	fmt.Fprintf(&b, tmpl.opening, attrs.BusinessName, attrs.BusinessType)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Target audience: %s\n", attrs.TargetAudience)
	fmt.Fprintf(&b, "Key message: %s\n", attrs.KeyMessage)
	fmt.Fprintf(&b, "Tone: %s\n", attrs.Tone)
	fmt.Fprintf(&b, "Additional details: %s\n", additionalDetails(attrs.AdditionalDetails))
	b.WriteString("\nRequirements:\n")
	for _, r := range tmpl.requirements {
		b.WriteString("- ")
		b.WriteString(r)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(tmpl.format)
	return b.String()
}

// additionalDetails は未指定または空文字の場合にNoneを返す。
func additionalDetails(details *string) string {
	if details == nil || *details == "" {
		return noneDetails
	}
	return *details
}

var imageStyleLines = []string{
	"Style: Modern, clean, professional marketing material",
	"Quality: High-resolution, suitable for digital marketing",
	"Colors: Vibrant but professional, good contrast",
	"Layout: Suitable for flyers or social media posts",
	"Text space: Leave room for text overlay",
	"Brand-appropriate imagery that appeals to the target demographic",
}

// ImagePrompt は画像生成サービスに渡すプロンプトを組み立てる。
func ImagePrompt(businessName, businessType, description string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Professional marketing image for %s, a %s business. \n", businessName, businessType)
	b.WriteString(description)
	for _, line := range imageStyleLines {
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}

// FlyerImageDescription はチラシ背景画像の説明文を組み立てる。
func FlyerImageDescription(attrs model.BusinessAttributes) string {
	return fmt.Sprintf("Create a professional flyer background for %s, %s. Target audience: %s. Message: %s",
		attrs.BusinessName, attrs.BusinessType, attrs.TargetAudience, attrs.KeyMessage)
}
