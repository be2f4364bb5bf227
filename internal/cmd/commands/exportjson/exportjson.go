package exportjson

import (
	"errors"
	"flag"
	"fmt"

	"github.com/hashicorp-forge/onshape-drawings/internal/cmd/base"
)

const script = "export-json"

type Command struct {
	*base.Command

	session  base.SessionFlags
	flagName string
}

func (c *Command) Synopsis() string {
	return "Export a drawing as JSON"
}

func (c *Command) Help() string {
	return `Usage: drawings export-json -drawinguri=<url> [options]

  Translate the drawing to DRAWING_JSON, wait for the translation and
  write the export to ./output/export-json/.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet(script, flag.ContinueOnError))
	c.session.Add(f)

	f.StringVar(&c.flagName, "name", "",
		"File name of the export. Default: {elementId}.json")

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
		return c.Fail(nil, "error starting export-json", err)
	}
	defer sess.Close()

	ctx, cancel := base.SignalContext()
	defer cancel()

	export, err := sess.Drawing.ExportJSON(ctx, sess.Target)
	if err != nil {
		return c.Fail(sess, "export failed", err)
	}

	name := c.flagName
	if name == "" {
		name = sess.Target.ElementID + ".json"
	}
	path, err := sess.Reports.WriteJSON(name, export.Raw)
	if err != nil {
		return c.Fail(sess, "error writing export", err)
	}

	sheets := len(export.Data.Sheets)
	inViews := len(export.Data.AnnotationsInViews())
	sess.Log.Info("exported drawing", "path", path, "sheets", sheets, "annotations_in_views", inViews)
	c.UI.Output(fmt.Sprintf("Exported %d sheets (%d annotations in views) to %s", sheets, inViews, path))

	return 0
}
