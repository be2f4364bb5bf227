package exportpdf

import (
	"errors"
	"flag"
	"fmt"

	"github.com/hashicorp-forge/onshape-drawings/internal/cmd/base"
	"github.com/hashicorp-forge/onshape-drawings/pkg/report"
)

const script = "export-pdf"

type Command struct {
	*base.Command

	session  base.SessionFlags
	flagName string
}

func (c *Command) Synopsis() string {
	return "Export a drawing as PDF"
}

func (c *Command) Help() string {
	return `Usage: drawings export-pdf -drawinguri=<url> [options]

  Translate the drawing to PDF, wait for the translation and download the
  file to ./exports/export-pdf/.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet(script, flag.ContinueOnError))
	c.session.Add(f)

	f.StringVar(&c.flagName, "name", "",
		"File name of the PDF. Default: {elementId}.pdf")

	return f
}

func (c *Command) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	sess, err := c.Open(script, c.session, true)
	if err != nil {
		if errors.Is(err, base.ErrDrawingURIRequired) {
			c.UI.Error(c.Help())
		}
		return c.Fail(nil, "error starting export-pdf", err)
	}
	defer sess.Close()

	name := c.flagName
	if name == "" {
		name = sess.Target.ElementID + ".pdf"
	}
	destination, err := sess.Reports.Path(report.Exports, name)
	if err != nil {
		return c.Fail(sess, "error creating exports folder", err)
	}

	ctx, cancel := base.SignalContext()
	defer cancel()

	if err := sess.Drawing.ExportPDF(ctx, sess.Target, destination); err != nil {
		return c.Fail(sess, "export failed", err)
	}

	sess.Log.Info("exported drawing", "path", destination)
	c.UI.Output(fmt.Sprintf("Exported drawing to %s", destination))

	return 0
}
