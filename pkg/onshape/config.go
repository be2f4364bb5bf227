package onshape

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"golang.org/x/time/rate"
)

// Config contains configuration for the Onshape API client.
//
// Example configuration (HCL):
//
//	client {
//	  timeout             = "10m"
//	  download_timeout    = "10m"
//	  requests_per_second = 2
//	}
type Config struct {
	// CredentialsFile is the path of the credential JSON file.
	// Default: ./credentials.json
	CredentialsFile string

	// Stack selects an entry of the credential file. Empty selects the first.
	Stack string

	// ScriptName identifies the calling command in User-Agent and
	// X-Request-Id headers.
	ScriptName string

	// Version is reported in the User-Agent header.
	Version string

	// Timeout for API requests.
	// Default: 10 minutes
	Timeout time.Duration

	// DownloadTimeout for DownloadFile.
	// Default: 10 minutes
	DownloadTimeout time.Duration

	// RequestsPerSecond throttles attempts on the client side. Zero disables
	// the throttle and relies on 429 handling alone.
	RequestsPerSecond float64

	// TLSVerify controls TLS certificate verification. Set to false only for
	// development stacks with self-signed certificates.
	TLSVerify *bool

	// FS is used for the credential file and downloads.
	// Default: the OS file system
	FS afero.Fs

	Logger hclog.Logger

	// HTTPClient overrides the client used for API calls. Its transport is
	// also used for downloads.
	HTTPClient *http.Client
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	tlsVerify := true
	return &Config{
		CredentialsFile: DefaultCredentialsFile,
		ScriptName:      "main",
		Version:         "dev",
		Timeout:         10 * time.Minute,
		DownloadTimeout: 10 * time.Minute,
		TLSVerify:       &tlsVerify,
	}
}

// applyDefaults fills zero values from DefaultConfig.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.CredentialsFile == "" {
		c.CredentialsFile = defaults.CredentialsFile
	}
	if c.ScriptName == "" {
		c.ScriptName = defaults.ScriptName
	}
	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
	if c.DownloadTimeout == 0 {
		c.DownloadTimeout = defaults.DownloadTimeout
	}
	if c.TLSVerify == nil {
		c.TLSVerify = defaults.TLSVerify
	}
	if c.FS == nil {
		c.FS = afero.NewOsFs()
	}
	if c.Logger == nil {
		c.Logger = hclog.NewNullLogger()
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got: %v", c.Timeout)
	}
	if c.DownloadTimeout <= 0 {
		return fmt.Errorf("download_timeout must be positive, got: %v", c.DownloadTimeout)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must be non-negative, got: %v", c.RequestsPerSecond)
	}
	return nil
}

// limiter returns the client-side throttle for this configuration.
func (c *Config) limiter() *rate.Limiter {
	if c.RequestsPerSecond == 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(c.RequestsPerSecond), 1)
}

// newHTTPClients returns the API client and the long-timeout download client.
func (c *Config) newHTTPClients() (api *http.Client, download *http.Client) {
	if c.HTTPClient != nil {
		api = c.HTTPClient
		download = &http.Client{
			Transport: c.HTTPClient.Transport,
			Timeout:   c.DownloadTimeout,
		}
		return api, download
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	if c.TLSVerify != nil && !*c.TLSVerify {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	api = &http.Client{
		Timeout:   c.Timeout,
		Transport: transport,
	}
	download = &http.Client{
		Timeout:   c.DownloadTimeout,
		Transport: transport,
	}
	return api, download
}
