package security

import (
	"html"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hitoshi/adstudio/internal/model"
)

// MarkupDetector は事業情報にHTMLタグや文字参照が含まれているかを判定する。
// 入力は書き換えない。プロンプトと保存内容は送信された文字列のまま扱う。
type MarkupDetector struct {
	policy *bluemonday.Policy
}

// NewMarkupDetector はStrictPolicyで判定するMarkupDetectorを生成する。
func NewMarkupDetector() *MarkupDetector {
	return &MarkupDetector{policy: bluemonday.StrictPolicy()}
}

// ContainsMarkup はStrictPolicyを通すと内容が変わる文字列かどうかを返す。
// StrictPolicyによるエスケープは元に戻して比較する。
func (d *MarkupDetector) ContainsMarkup(input string) bool {
	if input == "" {
		return false
	}
	return html.UnescapeString(d.policy.Sanitize(input)) != input
}

// MarkupFields はマークアップを含むフィールド名をJSON名で返す。
func (d *MarkupDetector) MarkupFields(attrs model.BusinessAttributes) []string {
	var fields []string
	check := func(name, value string) {
		if d.ContainsMarkup(value) {
			fields = append(fields, name)
		}
	}
	check("business_name", attrs.BusinessName)
	check("business_type", attrs.BusinessType)
	check("target_audience", attrs.TargetAudience)
	check("key_message", attrs.KeyMessage)
	check("tone", attrs.Tone)
	if attrs.AdditionalDetails != nil {
		check("additional_details", *attrs.AdditionalDetails)
	}
	return fields
}
