package openai_api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"pixel_forge/entities"
)

type fakeOpenAI struct {
	mu       sync.Mutex
	requests []map[string]any
	handler  func(w http.ResponseWriter, r *http.Request, n int)
}

func (f *fakeOpenAI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	var decoded map[string]any
	_ = json.Unmarshal(body, &decoded)

	f.mu.Lock()
	f.requests = append(f.requests, decoded)
	n := len(f.requests)
	f.mu.Unlock()

	f.handler(w, r, n)
}

func (f *fakeOpenAI) recorded() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]map[string]any(nil), f.requests...)
}

func newTestAPI(t *testing.T, cfg Config, handler func(w http.ResponseWriter, r *http.Request, n int)) (OpenAIAPI, *fakeOpenAI) {
	t.Helper()

	fake := &fakeOpenAI{handler: handler}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	cfg.BaseURL = server.URL + "/v1"

	api, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return api, fake
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestDallE3VariationsAreSequentialRequests(t *testing.T) {
	api, fake := newTestAPI(t, Config{}, func(w http.ResponseWriter, r *http.Request, n int) {
		if r.URL.Path != "/v1/images/generations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		writeJSON(w, http.StatusOK, `{"created":1,"data":[{"b64_json":"IMG`+string(rune('0'+n))+`"}]}`)
	})

	images, err := api.GenerateImages(context.Background(), "sk-test", &entities.ImageRequest{
		Prompt: "a fox", Ratio: "9:16", NegativePrompt: "blur", Variations: 3,
	})
	if err != nil {
		t.Fatalf("GenerateImages: %v", err)
	}

	if len(images) != 3 || images[0] != "IMG1" || images[2] != "IMG3" {
		t.Fatalf("images = %v", images)
	}

	requests := fake.recorded()
	if len(requests) != 3 {
		t.Fatalf("made %d requests, want 3", len(requests))
	}

	first := requests[0]
	if first["n"].(float64) != 1 || first["size"] != openai.CreateImageSize1024x1792 ||
		first["response_format"] != "b64_json" || first["prompt"] != "a fox. Avoid: blur." {
		t.Fatalf("request = %v", first)
	}
}

func TestLaterVariationFailureKeepsEarlierImages(t *testing.T) {
	api, _ := newTestAPI(t, Config{}, func(w http.ResponseWriter, _ *http.Request, n int) {
		if n == 1 {
			writeJSON(w, http.StatusOK, `{"data":[{"b64_json":"ONLY"}]}`)
			return
		}

		writeJSON(w, http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached","type":"requests"}}`)
	})

	images, err := api.GenerateImages(context.Background(), "sk-test", &entities.ImageRequest{Prompt: "a fox", Variations: 2})
	if err != nil {
		t.Fatalf("GenerateImages: %v", err)
	}

	if len(images) != 1 || images[0] != "ONLY" {
		t.Fatalf("images = %v", images)
	}
}

func TestContentPolicyIsSafetyError(t *testing.T) {
	api, _ := newTestAPI(t, Config{}, func(w http.ResponseWriter, _ *http.Request, _ int) {
		writeJSON(w, http.StatusBadRequest, `{"error":{"code":"content_policy_violation","message":"Your request was rejected.","type":"invalid_request_error"}}`)
	})

	_, err := api.GenerateImages(context.Background(), "sk-test", &entities.ImageRequest{Prompt: "bad", Variations: 1})
	if !errors.Is(err, &entities.ContentSafetyError{}) {
		t.Fatalf("expected ContentSafetyError, got %v", err)
	}
}

func TestServerErrorIsAPIError(t *testing.T) {
	api, _ := newTestAPI(t, Config{ImageModel: "dall-e-2"}, func(w http.ResponseWriter, _ *http.Request, _ int) {
		writeJSON(w, http.StatusInternalServerError, `{"error":{"message":"The server had an error","type":"server_error"}}`)
	})

	_, err := api.GenerateImages(context.Background(), "sk-test", &entities.ImageRequest{Prompt: "x", Variations: 2})

	var apiErr *entities.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}

	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", apiErr.StatusCode)
	}
}

func TestCompleteText(t *testing.T) {
	api, fake := newTestAPI(t, Config{}, func(w http.ResponseWriter, r *http.Request, _ int) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		writeJSON(w, http.StatusOK, `{"id":"c1","object":"chat.completion","model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":" Copper_Fox "},"finish_reason":"stop"}]}`)
	})

	text, err := api.CompleteText(context.Background(), "sk-test", "You are a filename generator.", "name it")
	if err != nil {
		t.Fatalf("CompleteText: %v", err)
	}

	if text != "Copper_Fox" {
		t.Fatalf("text = %q", text)
	}

	messages := fake.recorded()[0]["messages"].([]any)
	if len(messages) != 2 || messages[0].(map[string]any)["role"] != "system" {
		t.Fatalf("messages = %v", messages)
	}
}

func TestMissingKey(t *testing.T) {
	api, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := api.CompleteText(context.Background(), "", "a", "b"); !errors.Is(err, &entities.ConfigurationError{}) {
		t.Fatalf("error = %v", err)
	}
}

func TestSizeForRatio(t *testing.T) {
	tests := map[string]string{
		"1:1":  openai.CreateImageSize1024x1024,
		"16:9": openai.CreateImageSize1792x1024,
		"4:3":  openai.CreateImageSize1792x1024,
		"9:16": openai.CreateImageSize1024x1792,
		"3:4":  openai.CreateImageSize1024x1792,
		"":     openai.CreateImageSize1024x1024,
	}

	for ratio, want := range tests {
		if got := SizeForRatio(ratio); got != want {
			t.Errorf("SizeForRatio(%q) = %s, want %s", ratio, got, want)
		}
	}
}
