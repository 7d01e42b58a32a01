// Package model はドメインモデルを定義する。
package model

import "fmt"

// ErrorKind はAPIエラーの分類を表す。HTTPステータスへの対応付けに使う。
type ErrorKind string

const (
	ErrKindAuth       ErrorKind = "auth"
	ErrKindValidation ErrorKind = "validation"
	ErrKindNotFound   ErrorKind = "not_found"
	ErrKindUpstream   ErrorKind = "upstream"
)

// APIError はクライアントに返すエラーを表す。
// レスポンスには人間向けのDetailのみを含め、機械可読なコードは返さない。
type APIError struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Detail)
}

// Unwrap は元のエラーを返す。
func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAuthRequiredError は未認証エラーを生成する。
func NewAuthRequiredError() *APIError {
	return &APIError{Kind: ErrKindAuth, Detail: "Authentication required"}
}

// NewInvalidSessionError は外部セッションIDが無効な場合のエラーを生成する。
func NewInvalidSessionError(err error) *APIError {
	return &APIError{Kind: ErrKindAuth, Detail: "Invalid session", Err: err}
}

// NewValidationError はリクエスト不正のエラーを生成する。
func NewValidationError(detail string) *APIError {
	return &APIError{Kind: ErrKindValidation, Detail: detail}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{Kind: ErrKindNotFound, Detail: "User not found"}
}

// NewContentNotFoundError はコンテンツが存在しない、または他ユーザーの所有である場合のエラーを生成する。
// 存在有無を漏らさないため、両者を区別しない。
func NewContentNotFoundError() *APIError {
	return &APIError{Kind: ErrKindNotFound, Detail: "Content not found"}
}

// NewGenerationFailedError は生成または保存に失敗した場合のエラーを生成する。
// 原因のメッセージをそのまま含める。
func NewGenerationFailedError(err error) *APIError {
	return &APIError{
		Kind:   ErrKindUpstream,
		Detail: fmt.Sprintf("Failed to generate content: %v", err),
		Err:    err,
	}
}

// NewSessionCreationFailedError はセッション作成中の内部エラーを生成する。
func NewSessionCreationFailedError(err error) *APIError {
	return &APIError{Kind: ErrKindUpstream, Detail: "Failed to create session", Err: err}
}
