// Package testutil provides a mock marketplace server for tests.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// Request is one request seen by the mock server.
type Request struct {
	Method string
	Path   string
	Query  string
	Body   string
}

// MockMarketplace serves the catalog, economy and marketplace APIs from a
// single httptest server. Handlers are registered per path; cursor-paginated
// paths can be registered per cursor value.
type MockMarketplace struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc
	requests []Request
}

// NewMockMarketplace creates and starts a mock server.
func NewMockMarketplace() *MockMarketplace {
	mock := &MockMarketplace{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
		}

		mock.mu.Lock()
		mock.requests = append(mock.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Body:   string(body),
		})
		handler, exists := mock.handlers[r.Method+" "+r.URL.Path]
		mock.mu.Unlock()

		if !exists {
			// unknown paths answer like the marketplace does for missing data
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"errors":[{"code":0,"message":"not found"}]}`))
			return
		}
		handler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockMarketplace) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockMarketplace) Close() {
	m.server.Close()
}

// Handle sets a custom handler for method and path.
func (m *MockMarketplace) Handle(method, path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[method+" "+path] = handler
}

// SetResponse configures a fixed response for method and path.
func (m *MockMarketplace) SetResponse(method, path string, resp MockResponse) {
	m.Handle(method, path, resp.write)
}

// SetPages serves cursor-paginated responses for a GET path. pages maps the
// value of the cursor query parameter ("" for the first page) to a response.
// cursorParam is "Cursor" for catalog search and "cursor" elsewhere.
func (m *MockMarketplace) SetPages(path, cursorParam string, pages map[string]MockResponse) {
	m.Handle(http.MethodGet, path, func(w http.ResponseWriter, r *http.Request) {
		resp, ok := pages[r.URL.Query().Get(cursorParam)]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		resp.write(w, r)
	})
}

// Requests returns a copy of the request log.
func (m *MockMarketplace) Requests() []Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// RequestCount returns the number of requests made to the server.
func (m *MockMarketplace) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// Handler returns resp as a handler.
func (resp MockResponse) Handler() http.HandlerFunc {
	return resp.write
}

func (resp MockResponse) write(w http.ResponseWriter, r *http.Request) {
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// NewJSONResponse creates a 200 OK response with v encoded as JSON.
func NewJSONResponse(v any) MockResponse {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       string(b),
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewBadRequestResponse creates the 400 the marketplace returns when it has no data.
func NewBadRequestResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusBadRequest,
		Body:       `{"errors":[{"code":0,"message":"Invalid request"}]}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewRateLimitResponse creates a 429 response asking for an immediate retry.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"errors":[{"code":0,"message":"Too many requests"}]}`,
		Headers:    map[string]string{"Retry-After": "0"},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"errors":[{"code":0,"message":"InternalServerError"}]}`,
	}
}

// NewHTMLResponse creates a 200 response whose body is not JSON.
func NewHTMLResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       "<html><body>Service Unavailable</body></html>",
		Headers:    map[string]string{"Content-Type": "text/html"},
	}
}

// SequenceHandler answers with responses in order, repeating the last one.
func SequenceHandler(responses ...MockResponse) http.HandlerFunc {
	var mu sync.Mutex
	i := 0
	return func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		resp := responses[i]
		if i < len(responses)-1 {
			i++
		}
		mu.Unlock()
		resp.write(w, r)
	}
}
