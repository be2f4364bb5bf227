package onshape

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessKey = "accesskey123"
	testSecretKey = "secretkey123"
)

// recordedRequest is what the test server saw for one attempt.
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Accept string
	Nonce  string
	Body   string
}

// testServer verifies the signature of every request and replies from a
// scripted list of handlers. The last handler is reused once the list is
// exhausted.
type testServer struct {
	t        *testing.T
	mu       sync.Mutex
	handlers []http.HandlerFunc
	requests []recordedRequest
	srv      *httptest.Server
}

func newTestServer(t *testing.T, handlers ...http.HandlerFunc) *testServer {
	t.Helper()
	ts := &testServer{t: t, handlers: handlers}
	ts.srv = httptest.NewServer(http.HandlerFunc(ts.serve))
	t.Cleanup(ts.srv.Close)
	return ts
}

func (ts *testServer) serve(w http.ResponseWriter, r *http.Request) {
	canonical := CanonicalString(r.Method, r.Header.Get("On-Nonce"), r.Header.Get("Date"),
		r.Header.Get("Content-Type"), r.URL.EscapedPath(), r.URL.RawQuery)
	want := "On " + testAccessKey + ":HmacSHA256:" + ComputeSignature(testSecretKey, canonical)
	if r.Header.Get("Authorization") != want {
		ts.t.Errorf("bad signature for %s %s", r.Method, r.URL)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	body, _ := io.ReadAll(r.Body)

	ts.mu.Lock()
	idx := len(ts.requests)
	ts.requests = append(ts.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Accept: r.Header.Get("Accept"),
		Nonce:  r.Header.Get("On-Nonce"),
		Body:   string(body),
	})
	if idx >= len(ts.handlers) {
		idx = len(ts.handlers) - 1
	}
	handler := ts.handlers[idx]
	ts.mu.Unlock()

	handler(w, r)
}

func (ts *testServer) recorded() []recordedRequest {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]recordedRequest(nil), ts.requests...)
}

func status(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}
}

func text(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body)
	}
}

func jsonBody(v any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
}

// truncated declares a longer body than it sends and drops the connection.
func truncated(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		_, _ = io.WriteString(w, body)
		w.(http.Flusher).Flush()
		panic(http.ErrAbortHandler)
	}
}

// newTestClient returns a client for ts with an immediate fake timer.
func newTestClient(t *testing.T, ts *testServer, companyID string) (*Client, *fakeTimer, afero.Fs) {
	t.Helper()

	fs := afero.NewMemMapFs()
	c, err := NewClientForStack(Stack{
		Name: "test",
		StackCredential: StackCredential{
			URL:       ts.srv.URL + "/",
			AccessKey: testAccessKey,
			SecretKey: testSecretKey,
			CompanyID: companyID,
		},
	}, &Config{
		ScriptName: "client-test",
		FS:         fs,
		HTTPClient: ts.srv.Client(),
	})
	require.NoError(t, err)

	timer := newFakeTimer()
	c.dispatcher.timer = timer
	return c, timer, fs
}

func TestClient_RateLimitThenSuccess(t *testing.T) {
	ts := newTestServer(t,
		status(http.StatusTooManyRequests),
		status(http.StatusTooManyRequests),
		text("ok"),
	)
	c, timer, _ := newTestClient(t, ts, "")

	var body string
	err := c.Get(context.Background(), "/api/documents", &body)
	require.NoError(t, err)

	assert.Equal(t, "ok", body)
	assert.Equal(t, []time.Duration{5000 * time.Millisecond, 7500 * time.Millisecond}, timer.sleeps)
	assert.Equal(t, 11250*time.Millisecond, c.RetryState().Sleep)

	requests := ts.recorded()
	require.Len(t, requests, 3)
	assert.NotEqual(t, requests[0].Nonce, requests[1].Nonce, "every attempt is re-signed")
	assert.NotEqual(t, requests[1].Nonce, requests[2].Nonce, "every attempt is re-signed")
}

func TestClient_RateLimitExhausted(t *testing.T) {
	ts := newTestServer(t, status(http.StatusTooManyRequests))
	c, _, _ := newTestClient(t, ts, "")

	err := c.Get(context.Background(), "/api/documents", nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 429, apiErr.StatusCode)
	assert.Len(t, ts.recorded(), MaxAttempts)
}

func TestClient_ServerErrorNotRetried(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"message":"exploded"}`)
	})
	c, timer, _ := newTestClient(t, ts, "")

	err := c.Post(context.Background(), "/api/v6/drawings/create", map[string]string{"a": "b"}, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.StatusCode)
	assert.Equal(t, "Internal Server Error", apiErr.Message)
	assert.Equal(t, `{"message":"exploded"}`, apiErr.Body)
	assert.Len(t, ts.recorded(), 1)
	assert.Empty(t, timer.sleeps)
}

func TestClient_TransportError(t *testing.T) {
	ts := newTestServer(t, status(http.StatusOK))
	c, _, _ := newTestClient(t, ts, "")
	ts.srv.Close()

	err := c.Get(context.Background(), "/api/documents", nil)
	require.Error(t, err)
	assert.Equal(t, StatusUnknown, StatusCode(err))
	assert.Contains(t, err.Error(), "UNKNOWN_STATUS_CODE")
}

func TestClient_Methods(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	ts := newTestServer(t, jsonBody(payload{Name: "reply"}))
	c, _, _ := newTestClient(t, ts, "")
	ctx := context.Background()

	var out payload
	require.NoError(t, c.Get(ctx, "api/documents?q=drawing&filter=0", &out))
	assert.Equal(t, "reply", out.Name)

	require.NoError(t, c.Post(ctx, "/api/documents", payload{Name: "request"}, &out))
	require.NoError(t, c.Delete(ctx, "/api/documents/abc", nil))
	require.NoError(t, c.Get(ctx, "/api/assemblies/gltf", nil, WithAccept("model/gltf+json")))

	requests := ts.recorded()
	require.Len(t, requests, 4)

	assert.Equal(t, http.MethodGet, requests[0].Method)
	assert.Equal(t, "/api/documents", requests[0].Path)
	assert.Equal(t, "filter=0&q=drawing", requests[0].Query)
	assert.Equal(t, DefaultAccept, requests[0].Accept)

	assert.Equal(t, http.MethodPost, requests[1].Method)
	assert.JSONEq(t, `{"name":"request"}`, requests[1].Body)

	assert.Equal(t, http.MethodDelete, requests[2].Method)
	assert.Equal(t, "/api/documents/abc", requests[2].Path)

	assert.Equal(t, "model/gltf+json", requests[3].Accept)
}

func TestClient_AbsoluteURI(t *testing.T) {
	ts := newTestServer(t, text("ok"))
	c, _, _ := newTestClient(t, ts, "")

	var raw []byte
	require.NoError(t, c.Get(context.Background(), ts.srv.URL+"/api/translations/t1", &raw))
	assert.Equal(t, []byte("ok"), raw)
	assert.Equal(t, "/api/translations/t1", ts.recorded()[0].Path)
}

func TestClient_DownloadFile(t *testing.T) {
	ts := newTestServer(t,
		status(http.StatusTooManyRequests),
		text("%PDF-1.7 drawing"),
	)
	c, timer, fs := newTestClient(t, ts, "")

	dest := "exports/create-note/drawing.pdf"
	require.NoError(t, c.DownloadFile(context.Background(), "/api/documents/d/abc/externaldata/xyz", dest))

	data, err := afero.ReadFile(fs, dest)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 drawing", string(data))
	assert.Len(t, timer.sleeps, 1)
}

func TestClient_DownloadFile_Truncated(t *testing.T) {
	ts := newTestServer(t, truncated("partial"))
	c, _, fs := newTestClient(t, ts, "")

	err := c.DownloadFile(context.Background(), "api/documents/d/d1/externaldata/x1", "exports/drawing.pdf")
	require.Error(t, err)
	assert.Equal(t, StatusUnknown, StatusCode(err))

	exists, err := afero.Exists(fs, "exports/drawing.pdf")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestClient_StackURLPathPrefix(t *testing.T) {
	tests := []struct {
		name     string
		stackURL string
		path     string
		wantPath string
	}{
		{"root relative", "/proxy", "/api/companies", "/proxy/api/companies"},
		{"relative", "/proxy/", "api/companies", "/proxy/api/companies"},
		{"no prefix", "/", "/api/companies", "/api/companies"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, jsonBody(map[string]any{"items": []any{}}))
			c, err := NewClientForStack(Stack{
				Name: "proxied",
				StackCredential: StackCredential{
					URL:       ts.srv.URL + tt.stackURL,
					AccessKey: testAccessKey,
					SecretKey: testSecretKey,
				},
			}, &Config{FS: afero.NewMemMapFs(), HTTPClient: ts.srv.Client()})
			require.NoError(t, err)

			require.NoError(t, c.Get(context.Background(), tt.path, nil))

			reqs := ts.recorded()
			require.Len(t, reqs, 1)
			assert.Equal(t, tt.wantPath, reqs[0].Path)
		})
	}
}

func TestClient_EmptyPath(t *testing.T) {
	ts := newTestServer(t, text("home page"))
	c, _, _ := newTestClient(t, ts, "")

	assert.Error(t, c.Get(context.Background(), "", nil))
	assert.Error(t, c.DownloadFile(context.Background(), "", "out.pdf"))
	assert.Empty(t, ts.recorded())
}

func TestClient_BaseURL(t *testing.T) {
	ts := newTestServer(t, status(http.StatusOK))
	c, _, _ := newTestClient(t, ts, "company1")

	assert.Equal(t, ts.srv.URL+"/", c.BaseURL())
	assert.Equal(t, "test", c.Stack())
	assert.Equal(t, "company1", c.CompanyID())
	assert.True(t, strings.HasPrefix(c.BaseURL(), "http://127.0.0.1"))
}

func TestNewClient_FromCredentialFile(t *testing.T) {
	fs := writeCredentials(t, testCredentials)

	c, err := NewClient(&Config{FS: fs, Stack: "cad"})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())

	_, err = NewClient(&Config{FS: fs, Stack: "broken"})
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)

	_, err = NewClient(&Config{FS: fs, Timeout: -time.Second})
	require.ErrorAs(t, err, &cfgErr)
}

func TestFindCompanyInfo(t *testing.T) {
	companies := ListResponse[CompanyInfo]{
		Items: []CompanyInfo{
			{ID: "company1", Name: "Acme"},
			{ID: "company2", Name: "Globex"},
		},
	}

	tests := []struct {
		name      string
		stackID   string
		companyID string
		items     []CompanyInfo
		wantID    string
		wantErr   string
	}{
		{
			name:    "stack company",
			stackID: "company2",
			items:   companies.Items,
			wantID:  "company2",
		},
		{
			name:      "explicit company",
			companyID: "company1",
			items:     companies.Items,
			wantID:    "company1",
		},
		{
			name:    "ambiguous",
			items:   companies.Items,
			wantErr: "user is member of 2 companies",
		},
		{
			name:   "single membership",
			items:  companies.Items[:1],
			wantID: "company1",
		},
		{
			name:    "none",
			stackID: "company9",
			items:   companies.Items,
			wantErr: "no company membership found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, jsonBody(ListResponse[CompanyInfo]{Items: tt.items}))
			c, _, _ := newTestClient(t, ts, tt.stackID)

			info, err := c.FindCompanyInfo(context.Background(), tt.companyID)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, info.ID)
			assert.Equal(t, "/api/companies", ts.recorded()[0].Path)
		})
	}
}
