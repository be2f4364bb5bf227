package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/onshape-drawings/internal/cmd/base"
	"github.com/hashicorp-forge/onshape-drawings/internal/cmd/commands/company"
	"github.com/hashicorp-forge/onshape-drawings/internal/cmd/commands/createnote"
	"github.com/hashicorp-forge/onshape-drawings/internal/cmd/commands/exportjson"
	"github.com/hashicorp-forge/onshape-drawings/internal/cmd/commands/exportpdf"
	"github.com/hashicorp-forge/onshape-drawings/internal/cmd/commands/modify"
	"github.com/hashicorp-forge/onshape-drawings/internal/cmd/commands/needsupdate"
	"github.com/hashicorp-forge/onshape-drawings/internal/cmd/commands/version"
)

// Commands is the mapping of all available commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	b := &base.Command{
		Log: log,
		UI:  ui,
	}

	Commands = map[string]cli.CommandFactory{
		"company": func() (cli.Command, error) {
			return &company.Command{Command: b}, nil
		},
		"create-note": func() (cli.Command, error) {
			return &createnote.Command{Command: b}, nil
		},
		"export-json": func() (cli.Command, error) {
			return &exportjson.Command{Command: b}, nil
		},
		"export-pdf": func() (cli.Command, error) {
			return &exportpdf.Command{Command: b}, nil
		},
		"modify": func() (cli.Command, error) {
			return &modify.Command{Command: b}, nil
		},
		"needs-update": func() (cli.Command, error) {
			return &needsupdate.Command{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
	}
}
