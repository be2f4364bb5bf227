package modify

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"

	"github.com/pkg/browser"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/onshape-drawings/internal/cmd/base"
	"github.com/hashicorp-forge/onshape-drawings/pkg/drawing"
)

const script = "modify"

type Command struct {
	*base.Command

	session       base.SessionFlags
	flagFile      string
	flagEditNotes bool
	flagDX        float64
	flagSuffix    string
	flagOpen      bool
}

func (c *Command) Synopsis() string {
	return "Send a modify request to a drawing"
}

func (c *Command) Help() string {
	return `Usage: drawings modify -drawinguri=<url> -file=<request.json>
       drawings modify -drawinguri=<url> -edit-notes [-dx=1.0] [-suffix=" +"]

  Send a drawing modify request and wait for the job to finish.

  With -file the request body is read from a JSON file containing
  "description" and "jsonRequests". With -edit-notes every note attached
  to a view is moved right by -dx and -suffix is appended to its text.

  Results are written to ./reports/modify/modify_results.csv.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet(script, flag.ContinueOnError))
	c.session.Add(f)

	f.StringVar(&c.flagFile, "file", "",
		"Path to a JSON modify request.")
	f.BoolVar(&c.flagEditNotes, "edit-notes", false,
		"Edit the notes attached to views instead of sending a file.")
	f.Float64Var(&c.flagDX, "dx", 1.0,
		"Distance notes are moved to the right with -edit-notes.")
	f.StringVar(&c.flagSuffix, "suffix", " +",
		"Text appended to notes with -edit-notes.")
	f.BoolVar(&c.flagOpen, "open", false,
		"Open the drawing in a browser after a successful modify.")

	return f
}

func (c *Command) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if (c.flagFile == "") == !c.flagEditNotes {
		c.UI.Error("exactly one of -file or -edit-notes is required")
		c.UI.Error(c.Help())
		return 1
	}

	var body json.RawMessage
	requested := -1
	if c.flagFile != "" {
		var err error
		body, requested, err = readRequest(c.FileSystem(), c.flagFile)
		if err != nil {
			return c.Fail(nil, "error reading modify request", err)
		}
	}

	sess, err := c.Open(script, c.session, true)
	if err != nil {
		if errors.Is(err, base.ErrDrawingURIRequired) {
			c.UI.Error(c.Help())
		}
		return c.Fail(nil, "error starting modify", err)
	}
	defer sess.Close()

	ctx, cancel := base.SignalContext()
	defer cancel()

	var summary *drawing.ModifySummary
	if c.flagEditNotes {
		export, err := sess.Drawing.ExportJSON(ctx, sess.Target)
		if err != nil {
			return c.Fail(sess, "error exporting drawing", err)
		}

		edits, err := drawing.AppendToNotes(export.Data, c.flagDX, c.flagSuffix)
		if err != nil {
			return c.Fail(sess, "error building note edits", err)
		}
		if len(edits) == 0 {
			sess.Log.Info("no notes attached to views")
			c.UI.Output("No notes to edit")
			return 0
		}

		summary, err = sess.Drawing.ModifyAnnotations(ctx, sess.Target,
			drawing.EditAnnotations("Edit notes", edits...))
		if err != nil {
			return c.Fail(sess, "edit notes failed", err)
		}
	} else {
		summary, err = sess.Drawing.Modify(ctx, sess.Target, body, requested)
		if err != nil {
			return c.Fail(sess, "modify failed", err)
		}
	}

	if err := c.ReportModify(sess, summary); err != nil {
		return c.Fail(sess, "error writing report", err)
	}
	if err := base.FailedResults(summary); err != nil {
		return c.Fail(sess, "modify failed", err)
	}

	if c.flagOpen {
		if err := browser.OpenURL(sess.Target.String()); err != nil {
			sess.Log.Warn("error opening browser", "error", err)
		}
	}
	return 0
}

// readRequest reads a modify request file and counts its annotations.
func readRequest(fs afero.Fs, path string) (json.RawMessage, int, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, 0, err
	}

	var req struct {
		JSONRequests []struct {
			Annotations []json.RawMessage `json:"annotations"`
		} `json:"jsonRequests"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, 0, fmt.Errorf("error parsing %s: %w", path, err)
	}
	if len(req.JSONRequests) == 0 {
		return nil, 0, fmt.Errorf("%s has no jsonRequests", path)
	}

	count := 0
	for _, r := range req.JSONRequests {
		count += len(r.Annotations)
	}
	return data, count, nil
}
