package base

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/onshape-drawings/pkg/jobs"
)

// Command is embedded by every subcommand.
type Command struct {
	Log hclog.Logger
	UI  cli.Ui

	// FS is the file system for configuration, credentials, logs and
	// reports. Default: the OS file system
	FS afero.Fs

	// Console receives INFO and above from session loggers.
	// Default: os.Stderr
	Console io.Writer

	// HTTPClient and Clock are overridden in tests.
	HTTPClient *http.Client
	Clock      jobs.Clock
}

// FlagSet is a flag.FlagSet that renders its own help text.
type FlagSet struct {
	*flag.FlagSet
}

func NewFlagSet(f *flag.FlagSet) *FlagSet {
	f.Usage = func() {}
	return &FlagSet{FlagSet: f}
}

// Help returns the flag section appended to a command's help.
func (f *FlagSet) Help() string {
	var buf bytes.Buffer
	buf.WriteString("\n\nOptions:\n")

	f.VisitAll(func(fl *flag.Flag) {
		name, usage := flag.UnquoteUsage(fl)
		fmt.Fprintf(&buf, "\n  -%s", fl.Name)
		if name != "" {
			fmt.Fprintf(&buf, "=<%s>", name)
		}
		if fl.DefValue != "" && fl.DefValue != "false" {
			fmt.Fprintf(&buf, "\n      Default: %s", fl.DefValue)
		}
		buf.WriteString("\n      ")
		buf.WriteString(strings.ReplaceAll(usage, "\n", "\n      "))
		buf.WriteString("\n")
	})

	return strings.TrimRight(buf.String(), "\n")
}
