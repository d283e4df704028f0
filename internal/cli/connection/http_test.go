package connection

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewHTTPClient(t *testing.T) {
	tests := []struct {
		name       string
		server     string
		wantPrefix string
	}{
		{"with http prefix", "http://localhost:8080", "http://localhost:8080"},
		{"with https prefix", "https://localhost:8080", "https://localhost:8080"},
		{"without prefix", "localhost:8080", "http://localhost:8080"},
		{"hostname only", "api.example.com", "http://api.example.com"},
		{"trailing slash", "http://localhost:8080/", "http://localhost:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewHTTPClient(tt.server, 0)
			if client.BaseURL() != tt.wantPrefix {
				t.Errorf("BaseURL() = %q, want %q", client.BaseURL(), tt.wantPrefix)
			}
			if client.client.Timeout != DefaultTimeout {
				t.Errorf("Timeout = %v, want %v", client.client.Timeout, DefaultTimeout)
			}
		})
	}
}

func TestHTTPClient_Methods(t *testing.T) {
	type body struct {
		Banner string `json:"banner"`
	}

	tests := []struct {
		name     string
		call     func(c *HTTPClient) (*http.Response, error)
		method   string
		wantBody bool
	}{
		{"get", func(c *HTTPClient) (*http.Response, error) {
			return c.Get(context.Background(), "/v1/state")
		}, http.MethodGet, false},
		{"post nil body", func(c *HTTPClient) (*http.Response, error) {
			return c.Post(context.Background(), "/v1/state", nil)
		}, http.MethodPost, false},
		{"put", func(c *HTTPClient) (*http.Response, error) {
			return c.Put(context.Background(), "/v1/state", body{Banner: "hello"})
		}, http.MethodPut, true},
		{"delete", func(c *HTTPClient) (*http.Response, error) {
			return c.Delete(context.Background(), "/v1/state")
		}, http.MethodDelete, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != tt.method {
					t.Errorf("method = %q, want %q", r.Method, tt.method)
				}
				if r.URL.Path != "/v1/state" {
					t.Errorf("path = %q, want /v1/state", r.URL.Path)
				}
				if ua := r.Header.Get("User-Agent"); !strings.HasPrefix(ua, "chainstate-cli/") {
					t.Errorf("User-Agent = %q", ua)
				}

				ct := r.Header.Get("Content-Type")
				if tt.wantBody {
					if ct != "application/json" {
						t.Errorf("Content-Type = %q, want application/json", ct)
					}
					var got body
					if err := json.NewDecoder(r.Body).Decode(&got); err != nil || got.Banner != "hello" {
						t.Errorf("body = %+v, err = %v", got, err)
					}
				} else if ct != "" {
					t.Errorf("Content-Type should be empty without a body, got %q", ct)
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			resp, err := tt.call(NewHTTPClient(server.URL, time.Second))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			resp.Body.Close()
		})
	}
}

func TestHTTPClient_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewHTTPClient(url, time.Second)
	if _, err := client.Get(context.Background(), "/health"); err == nil {
		t.Error("expected error for closed server")
	}
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseResponse_Data(t *testing.T) {
	var target struct {
		Chains []string `json:"chains"`
		Total  int      `json:"total"`
	}
	resp := response(http.StatusOK,
		`{"code":"OK","message":"Success","request_id":"req-1","data":{"chains":["a","b"],"total":2}}`)

	if err := ParseResponse(resp, &target); err != nil {
		t.Fatalf("ParseResponse() error = %v", err)
	}
	if target.Total != 2 || len(target.Chains) != 2 {
		t.Errorf("target = %+v", target)
	}
}

func TestParseResponse_NilTarget(t *testing.T) {
	if err := ParseResponse(response(http.StatusOK, `{"code":"OK"}`), nil); err != nil {
		t.Errorf("ParseResponse() error = %v", err)
	}
	if err := ParseResponse(response(http.StatusNoContent, ``), nil); err != nil {
		t.Errorf("ParseResponse() on empty body error = %v", err)
	}
}

func TestParseResponse_InvalidJSON(t *testing.T) {
	var target map[string]any
	if err := ParseResponse(response(http.StatusOK, `not json`), &target); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestParseResponse_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantCode   string
		wantSubstr string
	}{
		{
			name:       "error envelope",
			status:     http.StatusNotFound,
			body:       `{"code":"CS-CHAIN-4040","message":"chain not found","request_id":"req-9"}`,
			wantCode:   "CS-CHAIN-4040",
			wantSubstr: "[CS-CHAIN-4040] chain not found",
		},
		{
			name:       "with details",
			status:     http.StatusServiceUnavailable,
			body:       `{"code":"CS-STATE-5030","message":"not ready","details":"rebuild_pending"}`,
			wantCode:   "CS-STATE-5030",
			wantSubstr: "rebuild_pending",
		},
		{
			name:       "non-json body",
			status:     http.StatusBadGateway,
			body:       `<html>bad gateway</html>`,
			wantSubstr: "status 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseResponse(response(tt.status, tt.body), nil)

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("Status = %d, want %d", apiErr.Status, tt.status)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", apiErr.Code, tt.wantCode)
			}
			if !strings.Contains(err.Error(), tt.wantSubstr) {
				t.Errorf("Error() = %q, want substring %q", err.Error(), tt.wantSubstr)
			}
		})
	}
}
