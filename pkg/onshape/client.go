package onshape

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"golang.org/x/time/rate"
)

// Client is a signed Onshape REST client for one stack.
//
// A Client is meant to be used by a single command invocation. Calls are
// issued sequentially; the rate-limit state is nevertheless guarded so that
// concurrent use cannot corrupt it.
type Client struct {
	stack          Stack
	signer         *Signer
	dispatcher     *dispatcher
	limiter        *rate.Limiter
	httpClient     *http.Client
	downloadClient *http.Client
	fs             afero.Fs
	logger         hclog.Logger
}

// NewClient resolves the configured stack and returns a client for it.
// Credential problems are reported as *ConfigurationError.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	store, err := LoadCredentials(cfg.FS, cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}

	stack, err := store.Resolve(cfg.Stack)
	if err != nil {
		return nil, err
	}

	return newClientForStack(stack, cfg), nil
}

// NewClientForStack returns a client for an already resolved stack.
func NewClientForStack(stack Stack, cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, &ConfigurationError{Err: err}
	}
	if stack.URL == "" {
		stack.URL = DefaultBaseURL
	}
	if err := stack.Validate(); err != nil {
		return nil, &ConfigurationError{Err: flattenValidation(err)}
	}

	return newClientForStack(stack, cfg), nil
}

func newClientForStack(stack Stack, cfg *Config) *Client {
	logger := cfg.Logger.Named("onshape")
	api, download := cfg.newHTTPClients()

	logger.Info("creating api client", "stack", stack.Name, "url", stack.URL)

	return &Client{
		stack:  stack,
		signer: NewSigner(stack.StackCredential, cfg.ScriptName, cfg.Version),
		dispatcher: &dispatcher{
			backOff: newRateLimitBackOff(InitialRateLimitSleep),
			logger:  logger,
		},
		limiter:        cfg.limiter(),
		httpClient:     api,
		downloadClient: download,
		fs:             cfg.FS,
		logger:         logger,
	}
}

// BaseURL returns the URL of the resolved stack. Callers compare it with the
// host of user supplied URIs and warn on mismatch.
func (c *Client) BaseURL() string {
	return c.stack.URL
}

// Stack returns the name of the resolved stack.
func (c *Client) Stack() string {
	return c.stack.Name
}

// CompanyID returns the company id of the resolved stack, if configured.
func (c *Client) CompanyID() string {
	return c.stack.CompanyID
}

// RetryState returns a snapshot of the rate-limit backoff state.
func (c *Client) RetryState() RetryState {
	return c.dispatcher.backOff.snapshot()
}

// CallOption customizes a single call.
type CallOption func(*callOptions)

type callOptions struct {
	accept string
}

// WithAccept overrides the Accept header of a call, e.g. "model/gltf+json".
func WithAccept(accept string) CallOption {
	return func(o *callOptions) {
		o.accept = accept
	}
}

// Get calls GET on path and decodes the response into out.
//
// out may be nil to discard the body, a *[]byte to receive the raw body, or
// any value accepted by json.Unmarshal.
func (c *Client) Get(ctx context.Context, path string, out any, opts ...CallOption) error {
	return c.call(ctx, http.MethodGet, path, nil, out, opts...)
}

// Post calls POST on path with body encoded as JSON and decodes the response
// into out.
func (c *Client) Post(ctx context.Context, path string, body any, out any, opts ...CallOption) error {
	return c.call(ctx, http.MethodPost, path, body, out, opts...)
}

// Delete calls DELETE on path and decodes the response into out.
func (c *Client) Delete(ctx context.Context, path string, out any, opts ...CallOption) error {
	return c.call(ctx, http.MethodDelete, path, nil, out, opts...)
}

// DownloadFile streams the binary response of GET path into destination.
// Downloads use the long download timeout.
func (c *Client) DownloadFile(ctx context.Context, path, destination string) error {
	uri, err := c.resolve(path)
	if err != nil {
		return err
	}

	c.logger.Debug("downloading", "uri", uri, "destination", destination)

	return c.dispatcher.execute(ctx, func(ctx context.Context) error {
		resp, err := c.attempt(ctx, c.downloadClient, http.MethodGet, uri, nil, "")
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if dir := filepath.Dir(destination); dir != "." {
			if err := c.fs.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("error creating download directory: %w", err)
			}
		}

		f, err := c.fs.Create(destination)
		if err != nil {
			return fmt.Errorf("error creating %s: %w", destination, err)
		}
		if _, err := io.Copy(f, resp.Body); err != nil {
			f.Close()
			if rerr := c.fs.Remove(destination); rerr != nil {
				c.logger.Warn("error removing partial download", "destination", destination, "error", rerr)
			}
			return Classify(nil, nil, fmt.Errorf("error downloading %s: %w", uri, err))
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("error closing %s: %w", destination, err)
		}
		return nil
	})
}

func (c *Client) call(ctx context.Context, method, path string, body any, out any, opts ...CallOption) error {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	uri, err := c.resolve(path)
	if err != nil {
		return err
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	c.logger.Info("calling api", "method", method, "uri", uri)

	var respBody []byte
	err = c.dispatcher.execute(ctx, func(ctx context.Context) error {
		resp, err := c.attempt(ctx, c.httpClient, method, uri, payload, o.accept)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return Classify(nil, nil, fmt.Errorf("failed to read response: %w", err))
		}
		respBody = b
		return nil
	})
	if err != nil {
		return err
	}

	return decodeBody(respBody, out)
}

// attempt signs and transmits one request. Non-2xx responses are returned as
// *APIError with the response body closed.
func (c *Client) attempt(ctx context.Context, hc *http.Client, method, uri string, payload []byte, accept string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	// Sign every attempt; a nonce and date pair is never reused.
	signed, err := c.signer.Sign(method, uri, "", accept)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, signed.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = signed.Header

	resp, err := hc.Do(req)
	if err != nil {
		return nil, Classify(nil, nil, err)
	}

	if apiErr := c.classify(resp); apiErr != nil {
		return nil, apiErr
	}

	return resp, nil
}

func (c *Client) classify(resp *http.Response) *APIError {
	if resp.StatusCode >= 100 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := Classify(resp, body, nil)
	if resp.StatusCode == http.StatusUnauthorized {
		if skew, ok := apiErr.ClockSkew(c.signer.now()); ok {
			c.logger.Warn("request signature rejected", "clock_skew", skew.String())
		}
	}
	return apiErr
}

// resolve turns an API path into an absolute URI under the stack URL. The
// path is appended to the stack URL's path, with or without a leading slash.
// Absolute http(s) URIs are returned unchanged.
func (c *Client) resolve(path string) (string, error) {
	if strings.HasPrefix(path, "http") {
		return path, nil
	}
	if path == "" || path == "/" {
		return "", errors.New("empty api path")
	}

	base, err := url.Parse(c.stack.URL)
	if err != nil {
		return "", &ConfigurationError{Err: fmt.Errorf("invalid stack url %q: %w", c.stack.URL, err)}
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
		base.RawPath = ""
	}

	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid api path %q: %w", path, err)
	}
	return base.ResolveReference(ref).String(), nil
}

func decodeBody(body []byte, out any) error {
	switch v := out.(type) {
	case nil:
		return nil
	case *[]byte:
		*v = body
		return nil
	case *string:
		*v = string(body)
		return nil
	}

	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
