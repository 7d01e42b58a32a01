package generate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestNewOpenAIClient_AppliesDefaults(t *testing.T) {
	c := NewOpenAIClient(http.DefaultClient, slog.Default(), OpenAIConfig{APIKey: "k", BaseURL: "https://example.com/v1/"})

	if c.config.BaseURL != "https://example.com/v1" {
		t.Errorf("BaseURL = %q", c.config.BaseURL)
	}
	if c.config.TextModel != DefaultTextModel {
		t.Errorf("TextModel = %q, want %q", c.config.TextModel, DefaultTextModel)
	}
	if c.config.ImageModel != DefaultImageModel {
		t.Errorf("ImageModel = %q, want %q", c.config.ImageModel, DefaultImageModel)
	}
}

func TestComplete_SendsPersonaAndPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "gpt-4o-mini" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Fatalf("messages = %+v", req.Messages)
		}
		if req.Messages[0].Content != "persona" || req.Messages[1].Content != "prompt" {
			t.Errorf("messages = %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Hello #coffee \n"}}]}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewOpenAIClient(server.Client(), newTestLogger(&buf), OpenAIConfig{APIKey: "test-key", BaseURL: server.URL + "/v1"})

	got, err := c.Complete(context.Background(), "persona", "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "  Hello #coffee \n" {
		t.Errorf("text = %q, want verbatim response", got)
	}
}

func TestComplete_MissingCredential(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	c := NewOpenAIClient(server.Client(), slog.Default(), OpenAIConfig{BaseURL: server.URL})

	_, err := c.Complete(context.Background(), "s", "u")
	if !errors.Is(err, ErrMissingCredential) {
		t.Errorf("err = %v, want ErrMissingCredential", err)
	}
	if called {
		t.Error("upstream must not be called without a key")
	}
}

func TestComplete_ErrorStatusEchoesMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Rate limit reached"}}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewOpenAIClient(server.Client(), newTestLogger(&buf), OpenAIConfig{APIKey: "k", BaseURL: server.URL})

	_, err := c.Complete(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "Rate limit reached") {
		t.Errorf("err = %v", err)
	}
	if !strings.Contains(buf.String(), "AI API returned error status") {
		t.Errorf("expected error log, got %s", buf.String())
	}
}

func TestComplete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	c := NewOpenAIClient(server.Client(), slog.Default(), OpenAIConfig{APIKey: "k", BaseURL: server.URL})
	if _, err := c.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestImage_DecodesPayload(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/generations" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req imageRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.N != 1 || req.Model != "gpt-image-1" || req.Prompt != "a flyer" {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"b64_json": base64.StdEncoding.EncodeToString(png)}},
		})
	}))
	defer server.Close()

	c := NewOpenAIClient(server.Client(), slog.Default(), OpenAIConfig{APIKey: "k", BaseURL: server.URL})

	got, err := c.Image(context.Background(), "a flyer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, png) {
		t.Errorf("image = %v, want %v", got, png)
	}
}

func TestImage_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"空のdata", http.StatusOK, `{"data":[]}`, ErrEmptyImage},
		{"空のb64", http.StatusOK, `{"data":[{"b64_json":""}]}`, ErrEmptyImage},
		{"デコード不能", http.StatusOK, `{"data":[{"b64_json":"***"}]}`, nil},
		{"サーバーエラー", http.StatusInternalServerError, `oops`, nil},
		{"不正なJSON", http.StatusOK, `{`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := NewOpenAIClient(server.Client(), slog.Default(), OpenAIConfig{APIKey: "k", BaseURL: server.URL})
			img, err := c.Image(context.Background(), "p")
			if err == nil {
				t.Fatal("expected error")
			}
			if img != nil {
				t.Errorf("img = %v, want nil", img)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
