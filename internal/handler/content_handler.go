package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/adstudio/internal/middleware"
	"github.com/hitoshi/adstudio/internal/model"
)

// maxGenerateBodyBytes は生成リクエストボディの上限。
const maxGenerateBodyBytes = 1 << 20

// ContentServiceInterface はコンテンツハンドラーが必要とするサービスインターフェース。
type ContentServiceInterface interface {
	Generate(ctx context.Context, userID string, req model.ContentRequest) (*model.GeneratedContent, error)
	History(ctx context.Context, userID string) ([]*model.GeneratedContent, error)
	Delete(ctx context.Context, userID, contentID string) error
}

// ContentHandler はコンテンツ生成と履歴管理のHTTPハンドラー。
type ContentHandler struct {
	service ContentServiceInterface
}

// NewContentHandler はContentHandlerを生成する。
func NewContentHandler(service ContentServiceInterface) *ContentHandler {
	return &ContentHandler{
		service: service,
	}
}

// generateRequest は生成リクエストのボディ。
// 必須項目の欠落とnullを区別せずに検出するためポインタで受ける。
type generateRequest struct {
	ContentType       *string `json:"content_type"`
	BusinessName      *string `json:"business_name"`
	BusinessType      *string `json:"business_type"`
	TargetAudience    *string `json:"target_audience"`
	KeyMessage        *string `json:"key_message"`
	Tone              *string `json:"tone"`
	AdditionalDetails *string `json:"additional_details"`
}

// toContentRequest は必須項目を検証し、ドメインのリクエストに変換する。
func (g *generateRequest) toContentRequest() (model.ContentRequest, error) {
	required := []struct {
		name  string
		value *string
	}{
		{"content_type", g.ContentType},
		{"business_name", g.BusinessName},
		{"business_type", g.BusinessType},
		{"target_audience", g.TargetAudience},
		{"key_message", g.KeyMessage},
	}
	for _, f := range required {
		if f.value == nil {
			return model.ContentRequest{}, model.NewValidationError(fmt.Sprintf("Field required: %s", f.name))
		}
	}

	req := model.ContentRequest{
		ContentType: model.ContentType(*g.ContentType),
		BusinessAttributes: model.BusinessAttributes{
			BusinessName:      *g.BusinessName,
			BusinessType:      *g.BusinessType,
			TargetAudience:    *g.TargetAudience,
			KeyMessage:        *g.KeyMessage,
			AdditionalDetails: g.AdditionalDetails,
		},
	}
	if g.Tone != nil {
		req.Tone = *g.Tone
	}
	return req, nil
}

// Generate はマーケティングコンテンツを生成して保存する。
// POST /api/content/generate
func (h *ContentHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var body generateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxGenerateBodyBytes)).Decode(&body); err != nil {
		middleware.WriteErrorDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	req, err := body.toContentRequest()
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	content, err := h.service.Generate(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, content)
}

// History はユーザーの生成履歴を新しい順に返す。
// GET /api/content/history
func (h *ContentHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	contents, err := h.service.History(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if contents == nil {
		contents = []*model.GeneratedContent{}
	}

	writeJSON(w, http.StatusOK, contents)
}

// Delete はユーザー自身のコンテンツを削除する。
// DELETE /api/content/{id}
func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	contentID := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), userID, contentID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Content deleted successfully"})
}
