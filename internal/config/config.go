package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/onshape-drawings/pkg/jobs"
	"github.com/hashicorp-forge/onshape-drawings/pkg/onshape"
)

// DefaultFile is loaded when no -config flag is given and the file exists.
const DefaultFile = "drawings.hcl"

// Config is the tool configuration file.
//
// Example configuration:
//
//	credentials_file = "./credentials.json"
//	stack            = "cad"
//	log_dir          = "./logs"
//	output_dir       = "."
//
//	poll {
//	  timeout  = "60s"
//	  interval = "1s"
//	}
//
//	client {
//	  timeout             = "10m"
//	  download_timeout    = "10m"
//	  requests_per_second = 2
//	}
type Config struct {
	CredentialsFile string `hcl:"credentials_file,optional"`
	Stack           string `hcl:"stack,optional"`

	// LogDir is where {script}.log files are written.
	LogDir string `hcl:"log_dir,optional"`

	// OutputDir is the root of the output, reports and exports folders.
	OutputDir string `hcl:"output_dir,optional"`

	Poll   *Poll   `hcl:"poll,block"`
	Client *Client `hcl:"client,block"`
}

// Poll configures async job polling.
type Poll struct {
	Timeout  string `hcl:"timeout,optional"`
	Interval string `hcl:"interval,optional"`
}

// Client configures the API client.
type Client struct {
	Timeout           string  `hcl:"timeout,optional"`
	DownloadTimeout   string  `hcl:"download_timeout,optional"`
	RequestsPerSecond float64 `hcl:"requests_per_second,optional"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		CredentialsFile: onshape.DefaultCredentialsFile,
		LogDir:          "./logs",
		OutputDir:       ".",
		Poll: &Poll{
			Timeout:  jobs.DefaultTimeout.String(),
			Interval: jobs.DefaultInterval.String(),
		},
		Client: &Client{
			Timeout:         "10m",
			DownloadTimeout: "10m",
		},
	}
}

// Load reads the configuration at path. An empty path loads DefaultFile if it
// exists and otherwise returns the defaults. An explicit path must exist.
func Load(fs afero.Fs, path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	src, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return Default(), nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}
		return nil, fmt.Errorf("error reading configuration file: %w", err)
	}

	return Parse(path, src)
}

// Parse decodes HCL source. The filename is used in diagnostics and must end
// in .hcl.
func Parse(filename string, src []byte) (*Config, error) {
	var cfg Config
	if err := hclsimple.Decode(filename, src, nil, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration file %s: %w", filename, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.CredentialsFile == "" {
		c.CredentialsFile = d.CredentialsFile
	}
	if c.LogDir == "" {
		c.LogDir = d.LogDir
	}
	if c.OutputDir == "" {
		c.OutputDir = d.OutputDir
	}
	if c.Poll == nil {
		c.Poll = d.Poll
	}
	if c.Poll.Timeout == "" {
		c.Poll.Timeout = d.Poll.Timeout
	}
	if c.Poll.Interval == "" {
		c.Poll.Interval = d.Poll.Interval
	}
	if c.Client == nil {
		c.Client = d.Client
	}
	if c.Client.Timeout == "" {
		c.Client.Timeout = d.Client.Timeout
	}
	if c.Client.DownloadTimeout == "" {
		c.Client.DownloadTimeout = d.Client.DownloadTimeout
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if err := validation.ValidateStruct(c.Poll,
		validation.Field(&c.Poll.Timeout, validation.By(positiveDuration)),
		validation.Field(&c.Poll.Interval, validation.By(positiveDuration)),
	); err != nil {
		result = multierror.Append(result, fmt.Errorf("poll: %w", err))
	}

	if err := validation.ValidateStruct(c.Client,
		validation.Field(&c.Client.Timeout, validation.By(positiveDuration)),
		validation.Field(&c.Client.DownloadTimeout, validation.By(positiveDuration)),
		validation.Field(&c.Client.RequestsPerSecond, validation.Min(0.0)),
	); err != nil {
		result = multierror.Append(result, fmt.Errorf("client: %w", err))
	}

	return result.ErrorOrNil()
}

func positiveDuration(value interface{}) error {
	s, _ := value.(string)
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%q is not a valid duration", s)
	}
	if d <= 0 {
		return errors.New("must be positive")
	}
	return nil
}

// PollOptions returns the job poller options. Durations were checked by
// Validate.
func (c *Config) PollOptions() jobs.Options {
	timeout, _ := time.ParseDuration(c.Poll.Timeout)
	interval, _ := time.ParseDuration(c.Poll.Interval)
	return jobs.Options{
		Timeout:  timeout,
		Interval: interval,
	}
}

// ClientConfig returns the API client configuration for script.
func (c *Config) ClientConfig(script, version string) *onshape.Config {
	cfg := onshape.DefaultConfig()
	cfg.CredentialsFile = c.CredentialsFile
	cfg.Stack = c.Stack
	cfg.ScriptName = script
	cfg.Version = version
	if d, err := time.ParseDuration(c.Client.Timeout); err == nil {
		cfg.Timeout = d
	}
	if d, err := time.ParseDuration(c.Client.DownloadTimeout); err == nil {
		cfg.DownloadTimeout = d
	}
	cfg.RequestsPerSecond = c.Client.RequestsPerSecond
	return cfg
}
