package testutil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// MockBaleServer provides a mock Bale Bot API server for testing.
type MockBaleServer struct {
	*httptest.Server
	t        *testing.T
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	captures []Capture
}

// NewMockServer creates a mock Bale API server.
// The server is automatically closed when the test completes.
func NewMockServer(t *testing.T) *MockBaleServer {
	t.Helper()

	m := &MockBaleServer{
		t:        t,
		handlers: make(map[string]http.HandlerFunc),
	}

	m.Server = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.Server.Close)
	return m
}

func (m *MockBaleServer) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	m.mu.Lock()
	m.captures = append(m.captures, Capture{
		Method:      r.Method,
		Path:        r.URL.Path,
		Query:       r.URL.Query(),
		Headers:     r.Header.Clone(),
		Body:        body,
		ContentType: r.Header.Get("Content-Type"),
		Timestamp:   time.Now(),
	})
	handler, exists := m.handlers[r.Method+":"+r.URL.Path]
	m.mu.Unlock()

	if exists {
		handler(w, r)
		return
	}

	// Default success response
	ReplyOK(w, map[string]any{})
}

// OnMethod registers a handler for a specific HTTP method and path.
func (m *MockBaleServer) OnMethod(method, path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[method+":"+path] = handler
}

// On registers a handler for a POST request.
func (m *MockBaleServer) On(path string, handler http.HandlerFunc) {
	m.OnMethod(http.MethodPost, path, handler)
}

// OnBot registers a handler for a Bot API method called with TestToken.
//
//	server.OnBot("getMe", func(w http.ResponseWriter, r *http.Request) {
//	    testutil.ReplyUser(w)
//	})
func (m *MockBaleServer) OnBot(apiMethod string, handler http.HandlerFunc) {
	m.On(BotPath(apiMethod), handler)
}

// BotPath returns the request path of a Bot API method called with TestToken.
func BotPath(apiMethod string) string {
	return "/bot" + TestToken + "/" + apiMethod
}

// Captures returns all captured requests.
func (m *MockBaleServer) Captures() []Capture {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Capture{}, m.captures...)
}

// CapturesFor returns the captured calls of one Bot API method.
func (m *MockBaleServer) CapturesFor(apiMethod string) []Capture {
	path := BotPath(apiMethod)
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Capture
	for _, c := range m.captures {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// LastCapture returns the most recent captured request.
func (m *MockBaleServer) LastCapture() *Capture {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.captures) == 0 {
		return nil
	}
	c := m.captures[len(m.captures)-1]
	return &c
}

// CaptureAt returns the capture at the given index.
func (m *MockBaleServer) CaptureAt(index int) *Capture {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.captures) {
		return nil
	}
	c := m.captures[index]
	return &c
}

// CaptureCount returns the total number of captured requests.
func (m *MockBaleServer) CaptureCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.captures)
}

// Reset clears all captures and handlers.
func (m *MockBaleServer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.captures = nil
	m.handlers = make(map[string]http.HandlerFunc)
}

// ResetCaptures clears only captures, keeping handlers.
func (m *MockBaleServer) ResetCaptures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.captures = nil
}

// BaseURL returns the server's base URL.
// Use this as the API base URL when creating clients.
func (m *MockBaleServer) BaseURL() string {
	return m.Server.URL
}
