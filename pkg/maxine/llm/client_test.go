package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestServer(t *testing.T, reply string, got *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if got != nil {
			if err := json.Unmarshal(body, got); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 0,
			"model":   "test",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
			"usage": map[string]any{"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerate(t *testing.T) {
	var req chatRequest
	srv := newTestServer(t, "<think>hm</think>hello", &req)

	client, err := New(Config{BaseURL: srv.URL + "/v1", ChatModel: "chat-model", ToolsModel: "tools-model"}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out, err := client.Generate(context.Background(), "be nice", "hi")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "<think>hm</think>hello" {
		t.Errorf("content = %q", out)
	}
	if req.Model != "chat-model" {
		t.Errorf("model = %q", req.Model)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "hi" {
		t.Errorf("unexpected messages %+v", req.Messages)
	}
}

func TestGenerateStrictUsesToolsModel(t *testing.T) {
	var req chatRequest
	srv := newTestServer(t, "{}", &req)

	client, _ := New(Config{BaseURL: srv.URL + "/v1", ChatModel: "chat-model", ToolsModel: "tools-model"}, nil)
	if _, err := client.GenerateStrict(context.Background(), "", "x"); err != nil {
		t.Fatalf("GenerateStrict: %v", err)
	}
	if req.Model != "tools-model" {
		t.Errorf("model = %q", req.Model)
	}
	if len(req.Messages) != 1 {
		t.Errorf("empty system prompt should be omitted, got %d messages", len(req.Messages))
	}
}

func TestGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, _ := New(Config{BaseURL: srv.URL, ChatModel: "m"}, nil)
	if _, err := client.Generate(context.Background(), "", "x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewRequiresModel(t *testing.T) {
	if _, err := New(Config{BaseURL: "http://localhost"}, nil); err == nil {
		t.Fatal("expected error without chat model")
	}
}

func TestDecodeJSON(t *testing.T) {
	type translation struct {
		InputLanguage string `json:"input_language"`
		Translation   string `json:"translation"`
	}
	tests := []struct {
		name    string
		in      string
		want    translation
		wantErr bool
	}{
		{"bare", `{"input_language":"french","translation":"hello"}`, translation{"french", "hello"}, false},
		{"fenced", "```json\n{\"input_language\":\"german\",\"translation\":\"hi\"}\n```", translation{"german", "hi"}, false},
		{"reasoning", `<think>{"nope": 1}</think> Sure! {"input_language":"es","translation":"yes"}`, translation{"es", "yes"}, false},
		{"prose after", `{"input_language":"it","translation":"ok"} hope this helps`, translation{"it", "ok"}, false},
		{"no json", "I cannot translate that.", translation{}, true},
		{"broken", `{"input_language": `, translation{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got translation
			err := DecodeJSON(tt.in, &got)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeJSON: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeJSONNoObject(t *testing.T) {
	var v map[string]any
	if err := DecodeJSON("nothing here", &v); !errors.Is(err, ErrNoJSON) {
		t.Errorf("expected ErrNoJSON, got %v", err)
	}
}
