package version

import (
	"github.com/hashicorp-forge/onshape-drawings/internal/cmd/base"
	"github.com/hashicorp-forge/onshape-drawings/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return `Usage: drawings version

  Print the version of the drawings tool.`
}

func (c *Command) Run(args []string) int {
	c.UI.Output(version.Version)
	return 0
}
