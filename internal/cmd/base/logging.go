package base

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
)

// NewScriptLogger returns a logger that writes every level to
// {dir}/{script}.log and INFO and above to console. The returned closer
// closes the log file.
func NewScriptLogger(fs afero.Fs, dir, script string, console io.Writer) (hclog.InterceptLogger, io.Closer, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("error creating log folder: %w", err)
	}

	path := filepath.Join(dir, script+".log")
	f, err := fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening log file: %w", err)
	}

	logger := hclog.NewInterceptLogger(&hclog.LoggerOptions{
		Name:   script,
		Level:  hclog.Trace,
		Output: f,
	})
	if console != nil {
		logger.RegisterSink(hclog.NewSinkAdapter(&hclog.LoggerOptions{
			Name:   script,
			Level:  hclog.Info,
			Output: console,
		}))
	}

	logger.Debug("logging to file", "path", path)
	return logger, f, nil
}
