package createnote

import (
	"errors"
	"flag"
	"fmt"

	"github.com/pkg/browser"

	"github.com/hashicorp-forge/onshape-drawings/internal/cmd/base"
	"github.com/hashicorp-forge/onshape-drawings/pkg/drawing"
)

const script = "create-note"

type Command struct {
	*base.Command

	session        base.SessionFlags
	flagText       string
	flagTextHeight float64
	flagOpen       bool

	// location picks the note position. Default: drawing.RandomLocation
	location func() []float64
}

func (c *Command) Synopsis() string {
	return "Create a note at a random location on a drawing"
}

func (c *Command) Help() string {
	return `Usage: drawings create-note -drawinguri=<url> [options]

  Create a note at a random location on the drawing and wait for the
  modify job to finish. Results are written to
  ./reports/create-note/modify_results.csv.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet(script, flag.ContinueOnError))
	c.session.Add(f)

	f.StringVar(&c.flagText, "text", "",
		"Note contents. Defaults to the note coordinates.")
	f.Float64Var(&c.flagTextHeight, "text-height", 0.12,
		"Text height of the note in inches.")
	f.BoolVar(&c.flagOpen, "open", false,
		"Open the drawing in a browser after the note is created.")

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
		return c.Fail(nil, "error starting create-note", err)
	}
	defer sess.Close()

	location := drawing.RandomLocation([2]float64{1, 1}, [2]float64{8, 8})
	if c.location != nil {
		location = c.location()
	}
	text := c.flagText
	if text == "" {
		text = fmt.Sprintf("Note at x: %g y: %g", location[0], location[1])
	}

	ctx, cancel := base.SignalContext()
	defer cancel()

	req := drawing.CreateAnnotations("Add note",
		drawing.NewNote(location, text, c.flagTextHeight))
	summary, err := sess.Drawing.ModifyAnnotations(ctx, sess.Target, req)
	if err != nil {
		return c.Fail(sess, "create note failed", err)
	}

	if err := c.ReportModify(sess, summary); err != nil {
		return c.Fail(sess, "error writing report", err)
	}
	if err := base.FailedResults(summary); err != nil {
		return c.Fail(sess, "create note failed", err)
	}

	sess.Log.Info("created note", "text", text, "logicalIds", summary.LogicalIDs())
	c.UI.Output(fmt.Sprintf("Created %q", text))

	if c.flagOpen {
		if err := browser.OpenURL(sess.Target.String()); err != nil {
			sess.Log.Warn("error opening browser", "error", err)
		}
	}

	return 0
}
