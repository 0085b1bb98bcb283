package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/richinex/deepresearch/config"
)

const testKey = "sk-test-secret-key-12345xyz"

func testSettings(baseURL string) config.Settings {
	return config.Settings{
		APIKey:         testKey,
		BaseURL:        baseURL,
		Model:          config.DefaultModel,
		MaxToolCalls:   config.DefaultMaxToolCalls,
		RequestTimeout: 5 * time.Second,
	}
}

func TestCreateJobRequestShape(t *testing.T) {
	var captured map[string]interface{}
	var authHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/responses" {
			t.Errorf("expected path /responses, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		json.NewEncoder(w).Encode(Payload{ID: "resp_1", Status: "queued"})
	}))
	defer server.Close()

	client := NewHTTPClient(testSettings(server.URL))
	payload, err := client.CreateJob(context.Background(), CreateRequest{
		Query:              "test query",
		Model:              "o3-deep-research",
		MaxToolCalls:       25,
		UseCodeInterpreter: true,
	})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	if payload.ID != "resp_1" {
		t.Errorf("expected id 'resp_1', got %q", payload.ID)
	}
	if payload.Status != "queued" {
		t.Errorf("expected status 'queued', got %q", payload.Status)
	}
	if authHeader != "Bearer "+testKey {
		t.Errorf("expected bearer auth header, got %q", authHeader)
	}

	if captured["background"] != true {
		t.Error("expected background: true in create request")
	}
	if captured["model"] != "o3-deep-research" {
		t.Errorf("expected model 'o3-deep-research', got %v", captured["model"])
	}
	if captured["max_tool_calls"] != float64(25) {
		t.Errorf("expected max_tool_calls 25, got %v", captured["max_tool_calls"])
	}

	tools, ok := captured["tools"].([]interface{})
	if !ok || len(tools) != 2 {
		t.Fatalf("expected 2 tools (web search + code interpreter), got %v", captured["tools"])
	}
	first, _ := tools[0].(map[string]interface{})
	if first["type"] != "web_search_preview" {
		t.Errorf("expected first tool web_search_preview, got %v", first["type"])
	}
	second, _ := tools[1].(map[string]interface{})
	if second["type"] != "code_interpreter" {
		t.Errorf("expected second tool code_interpreter, got %v", second["type"])
	}

	input, ok := captured["input"].([]interface{})
	if !ok || len(input) == 0 {
		t.Fatal("expected non-empty input messages")
	}
	msg, _ := input[0].(map[string]interface{})
	content, _ := msg["content"].(string)
	if !strings.Contains(content, "test query") {
		t.Errorf("expected query embedded in input content, got %q", content)
	}
}

func TestCreateJobWithoutCodeInterpreter(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(Payload{ID: "resp_2", Status: "queued"})
	}))
	defer server.Close()

	client := NewHTTPClient(testSettings(server.URL))
	if _, err := client.CreateJob(context.Background(), CreateRequest{Query: "q", Model: "o4-mini-deep-research"}); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	tools, _ := captured["tools"].([]interface{})
	if len(tools) != 1 {
		t.Errorf("expected only web search tool, got %d tools", len(tools))
	}
}

func TestFetchJobPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/responses/resp_9" {
			t.Errorf("expected path /responses/resp_9, got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Payload{ID: "resp_9", Status: "in_progress"})
	}))
	defer server.Close()

	client := NewHTTPClient(testSettings(server.URL))
	payload, err := client.FetchJob(context.Background(), "resp_9")
	if err != nil {
		t.Fatalf("FetchJob failed: %v", err)
	}
	if payload.Status != "in_progress" {
		t.Errorf("expected status 'in_progress', got %q", payload.Status)
	}
}

func TestStatusCodeMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, ErrAuth},
		{"forbidden", http.StatusForbidden, `{}`, ErrAuth},
		{"not found", http.StatusNotFound, `{"error":{"message":"no such response"}}`, ErrNotFound},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"unsupported model"}}`, ErrRequest},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, ErrRequest},
		{"server error", http.StatusInternalServerError, `oops`, ErrUnavailable},
		{"bad gateway", http.StatusBadGateway, ``, ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewHTTPClient(testSettings(server.URL))
			_, err := client.FetchJob(context.Background(), "resp_1")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRequestErrorCarriesUpstreamDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"unsupported model: gpt-2"}}`))
	}))
	defer server.Close()

	client := NewHTTPClient(testSettings(server.URL))
	_, err := client.CreateJob(context.Background(), CreateRequest{Query: "q", Model: "gpt-2"})
	if !errors.Is(err, ErrRequest) {
		t.Fatalf("expected ErrRequest, got %v", err)
	}
	if !strings.Contains(err.Error(), "unsupported model: gpt-2") {
		t.Errorf("expected upstream detail in error, got %q", err.Error())
	}
}

func TestMalformedSuccessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all {{{`))
	}))
	defer server.Close()

	client := NewHTTPClient(testSettings(server.URL))
	_, err := client.FetchJob(context.Background(), "resp_1")
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestMissingAPIKey(t *testing.T) {
	settings := testSettings("http://unused.invalid")
	settings.APIKey = ""
	client := NewHTTPClient(settings)

	if _, err := client.CreateJob(context.Background(), CreateRequest{Query: "q"}); !errors.Is(err, ErrAuth) {
		t.Errorf("expected ErrAuth for missing key on create, got %v", err)
	}
	if _, err := client.FetchJob(context.Background(), "resp_1"); !errors.Is(err, ErrAuth) {
		t.Errorf("expected ErrAuth for missing key on fetch, got %v", err)
	}
}

func TestRequestTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(Payload{ID: "resp_1", Status: "queued"})
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := NewHTTPClient(testSettings(server.URL))
	_, err := client.FetchJob(ctx, "resp_1")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable on timeout, got %v", err)
	}
}

// TestErrorsNeverContainAPIKey verifies the security invariant: no error
// produced by the client contains the credential, regardless of how the
// upstream misbehaves.
func TestErrorsNeverContainAPIKey(t *testing.T) {
	statuses := []int{400, 401, 403, 404, 429, 500, 503}
	for _, status := range statuses {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			// A hostile body echoing the credential back must still
			// not surface through auth errors.
			w.Write([]byte(`{"error":{"message":"key was ` + testKey + `"}}`))
		}))

		client := NewHTTPClient(testSettings(server.URL))
		_, err := client.FetchJob(context.Background(), "resp_1")
		server.Close()

		if err == nil {
			t.Fatalf("status %d: expected error", status)
		}
		if strings.Contains(err.Error(), testKey) {
			t.Errorf("status %d: error leaked API key: %v", status, err)
		}
		if strings.Contains(err.Error(), "Authorization:") {
			t.Errorf("status %d: error exposed Authorization header: %v", status, err)
		}
	}
}

// FuzzFetchJobNoCredentialLeak fuzzes upstream bodies across status classes
// and asserts the credential never appears in any returned error or payload.
func FuzzFetchJobNoCredentialLeak(f *testing.F) {
	f.Add(200, `{"id":"r1","status":"completed"}`)
	f.Add(400, `{"error":{"message":"bad"}}`)
	f.Add(401, `unauthorized`)
	f.Add(404, ``)
	f.Add(500, `{"broken"`)

	f.Fuzz(func(t *testing.T, status int, body string) {
		if status < 200 || status > 599 {
			t.Skip()
		}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte(body))
		}))
		defer server.Close()

		client := NewHTTPClient(testSettings(server.URL))
		payload, err := client.FetchJob(context.Background(), "resp_1")

		if err != nil && strings.Contains(err.Error(), testKey) {
			t.Errorf("error leaked API key: %v", err)
		}
		if payload != nil {
			encoded, _ := json.Marshal(payload)
			if strings.Contains(string(encoded), testKey) {
				t.Errorf("payload leaked API key: %s", encoded)
			}
		}
	})
}
