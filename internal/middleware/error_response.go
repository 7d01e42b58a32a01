package middleware

import (
	"encoding/json"
	"net/http"
)

// ErrorResponseBody はAPIエラーレスポンスの形式。人間向けのメッセージのみを含む。
type ErrorResponseBody struct {
	Detail string `json:"detail"`
}

// WriteErrorDetail は{"detail": ...}形式のエラーレスポンスを書き込む。
func WriteErrorDetail(w http.ResponseWriter, statusCode int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{Detail: detail})
}

// WriteInternalServerError は内部エラーのレスポンスを書き込む。詳細はログのみに記録する。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorDetail(w, http.StatusInternalServerError, "Internal server error")
}
