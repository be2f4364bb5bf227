package base

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/onshape-drawings/internal/config"
	"github.com/hashicorp-forge/onshape-drawings/internal/version"
	"github.com/hashicorp-forge/onshape-drawings/pkg/drawing"
	"github.com/hashicorp-forge/onshape-drawings/pkg/jobs"
	"github.com/hashicorp-forge/onshape-drawings/pkg/onshape"
	"github.com/hashicorp-forge/onshape-drawings/pkg/report"
)

// ErrDrawingURIRequired is returned by Open when a command needs a drawing
// and -drawinguri was not given.
var ErrDrawingURIRequired = errors.New("drawinguri is required")

// SessionFlags are the flags shared by every command that talks to Onshape.
type SessionFlags struct {
	DrawingURI  string
	Stack       string
	Credentials string
	Config      string
}

// Add registers the shared flags on f.
func (s *SessionFlags) Add(f *FlagSet) {
	f.StringVar(&s.DrawingURI, "drawinguri", "",
		"URL of the drawing as shown in the browser address bar,\n"+
			"e.g. https://cad.onshape.com/documents/{did}/w/{wid}/e/{eid}.")
	f.StringVar(&s.Stack, "stack", "",
		"Name of the credentials.json entry to use. The first entry is used if empty.")
	f.StringVar(&s.Credentials, "credentials", "",
		"Path to the credentials file. Default: ./credentials.json")
	f.StringVar(&s.Config, "config", "",
		"Path to an HCL configuration file. Default: ./drawings.hcl if present")
}

// Session is everything a command needs to act on one stack.
type Session struct {
	Log     hclog.Logger
	Config  *config.Config
	Client  *onshape.Client
	Drawing *drawing.Service
	Reports *report.Writer

	// Target is the parsed -drawinguri. It is the zero value when the flag
	// was empty and the command does not require a drawing.
	Target drawing.Target

	closer io.Closer
}

// Close flushes the session log file.
func (s *Session) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Open loads configuration, starts the script log, resolves credentials and
// parses the drawing URI. A mismatch between the credentials base URL and
// the drawing base URL is a warning only.
func (c *Command) Open(script string, flags SessionFlags, requireDrawing bool) (*Session, error) {
	fs := c.FileSystem()

	cfg, err := config.Load(fs, flags.Config)
	if err != nil {
		return nil, err
	}
	if flags.Credentials != "" {
		cfg.CredentialsFile = flags.Credentials
	}
	if flags.Stack != "" {
		cfg.Stack = flags.Stack
	}

	log, closer, err := NewScriptLogger(fs, cfg.LogDir, script, c.console())
	if err != nil {
		return nil, err
	}
	sess := &Session{Log: log, Config: cfg, closer: closer}

	if flags.DrawingURI == "" && requireDrawing {
		sess.Close()
		return nil, ErrDrawingURIRequired
	}
	if flags.DrawingURI != "" {
		if sess.Target, err = drawing.ParseURI(flags.DrawingURI); err != nil {
			sess.Close()
			return nil, err
		}
	}

	clientCfg := cfg.ClientConfig(script, version.Version)
	clientCfg.FS = fs
	clientCfg.Logger = log
	clientCfg.HTTPClient = c.HTTPClient

	sess.Client, err = onshape.NewClient(clientCfg)
	if err != nil {
		sess.Close()
		return nil, err
	}

	if sess.Target.DocumentID != "" {
		log.Info("drawing",
			"documentId", sess.Target.DocumentID,
			string(sess.Target.WVM())+"Id", sess.Target.WVMID(),
			"elementId", sess.Target.ElementID)
		if warning := drawing.CheckBaseURL(sess.Client.BaseURL(), sess.Target); warning != "" {
			log.Warn(warning)
		}
	}

	pollOpts := cfg.PollOptions()
	pollOpts.Logger = log
	pollOpts.Clock = c.Clock
	sess.Drawing = drawing.NewService(sess.Client, jobs.NewPoller(sess.Client, pollOpts), log)
	sess.Reports = report.NewWriter(fs, cfg.OutputDir, script, log)

	return sess, nil
}

// FileSystem returns c.FS or the OS file system.
func (c *Command) FileSystem() afero.Fs {
	if c.FS == nil {
		return afero.NewOsFs()
	}
	return c.FS
}

func (c *Command) console() io.Writer {
	if c.Console == nil {
		return os.Stderr
	}
	return c.Console
}

// Fail reports err on the UI and the session log and returns the exit code
// for a failed command.
func (c *Command) Fail(sess *Session, msg string, err error) int {
	c.UI.Error(fmt.Sprintf("%s: %v", msg, err))
	if sess != nil {
		sess.Log.Error(msg, "error", err)
	}
	return 1
}
