package command

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/urfave/cli/v2"
)

// mockServer is a test HTTP server dispatching on "METHOD /path".
type mockServer struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []recordedRequest
}

type recordedRequest struct {
	Method string
	Path   string
	Body   []byte
}

// newMockServer creates a new mock server closed at test cleanup.
func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	m := &mockServer{
		handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		m.mu.Lock()
		m.requests = append(m.requests, recordedRequest{Method: r.Method, Path: r.URL.EscapedPath(), Body: body})
		handler, ok := m.handlers[r.Method+" "+r.URL.EscapedPath()]
		m.mu.Unlock()

		if !ok {
			errorResponse(w, http.StatusNotFound, "CS-ARG-1001", "no mock for "+r.Method+" "+r.URL.Path)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

// handle registers a handler for "METHOD /path".
func (m *mockServer) handle(pattern string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[pattern] = handler
}

// lastRequest returns the most recent request the server received.
func (m *mockServer) lastRequest(t *testing.T) recordedRequest {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		t.Fatal("server received no requests")
	}
	return m.requests[len(m.requests)-1]
}

func (m *mockServer) requestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// jsonResponse writes a success envelope around data.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"code":       "OK",
		"message":    "Success",
		"request_id": "req-test",
		"data":       data,
	})
}

// errorResponse writes an error envelope.
func errorResponse(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"code":       code,
		"message":    message,
		"request_id": "req-test",
	})
}

// runCLI runs the application against server with args and returns what
// it wrote to stdout. The CLI config file is isolated per test.
func runCLI(t *testing.T, server *mockServer, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CHAINSTATE_SERVER", "")
	t.Setenv("CHAINSTATE_OUTPUT", "")

	var stdout bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = io.Discard
	app.ExitErrHandler = func(*cli.Context, error) {}

	full := []string{"chainstate-cli",
		"--config", filepath.Join(t.TempDir(), "cli.yaml"),
		"--server", server.URL,
	}
	full = append(full, args...)
	err := app.Run(full)
	return stdout.String(), err
}

// decodeBody decodes a recorded request body.
func decodeBody(t *testing.T, req recordedRequest, target any) {
	t.Helper()
	if err := json.Unmarshal(req.Body, target); err != nil {
		t.Fatalf("decode request body %q: %v", req.Body, err)
	}
}

// decodeJSON decodes a JSON request body inside a mock handler.
func decodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
