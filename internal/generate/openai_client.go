// Package generate は外部AIサービスを利用したテキストと画像の生成を提供する。
package generate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultTextModel  = "gpt-4o-mini"
	DefaultImageModel = "gpt-image-1"

	// maxErrorBodySize はエラーレスポンスから読み取る最大バイト数。
	maxErrorBodySize = 4 * 1024
)

// ErrMissingCredential はAI APIキーが設定されていない場合のエラー。
var ErrMissingCredential = errors.New("AI API key not configured")

// ErrEmptyImage は画像生成APIが画像を返さなかった場合のエラー。
var ErrEmptyImage = errors.New("image generation returned no image")

// OpenAIConfig はOpenAI互換APIの接続設定。
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
}

// OpenAIClient はOpenAI互換のチャット補完APIと画像生成APIのクライアント。
type OpenAIClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	config     OpenAIConfig
}

// NewOpenAIClient はOpenAIClientを生成する。未指定の設定値にはデフォルトを使用する。
func NewOpenAIClient(httpClient *http.Client, logger *slog.Logger, config OpenAIConfig) *OpenAIClient {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.TextModel == "" {
		config.TextModel = DefaultTextModel
	}
	if config.ImageModel == "" {
		config.ImageModel = DefaultImageModel
	}
	return &OpenAIClient{
		httpClient: httpClient,
		logger:     logger,
		config:     config,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete はシステムメッセージとユーザーメッセージを送信し、生成されたテキストをそのまま返す。
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	if c.config.APIKey == "" {
		return "", ErrMissingCredential
	}

	var resp chatResponse
	err := c.post(ctx, "/chat/completions", chatRequest{
		Model: c.config.TextModel,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}, &resp)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Image は画像を1枚生成し、デコード済みの画像バイト列を返す。
func (c *OpenAIClient) Image(ctx context.Context, prompt string) ([]byte, error) {
	if c.config.APIKey == "" {
		return nil, ErrMissingCredential
	}

	var resp imageResponse
	err := c.post(ctx, "/images/generations", imageRequest{
		Model:  c.config.ImageModel,
		Prompt: prompt,
		N:      1,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, ErrEmptyImage
	}
	img, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image payload: %w", err)
	}
	if len(img) == 0 {
		return nil, ErrEmptyImage
	}
	return img, nil
}

// post はJSONリクエストを送信し、200応答のボディをoutにデコードする。
func (c *OpenAIClient) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("AI API request failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("AI API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg := readErrorMessage(resp.Body)
		c.logger.Error("AI API returned error status",
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
			slog.String("message", msg),
		)
		if msg != "" {
			return fmt.Errorf("AI API returned status %d: %s", resp.StatusCode, msg)
		}
		return fmt.Errorf("AI API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode AI API response: %w", err)
	}
	return nil
}

// readErrorMessage はOpenAI形式のエラーボディからメッセージを取り出す。
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var body apiErrorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return strings.TrimSpace(string(raw))
}
