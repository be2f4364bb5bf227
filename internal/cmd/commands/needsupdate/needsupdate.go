package needsupdate

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/hashicorp-forge/onshape-drawings/internal/cmd/base"
	"github.com/hashicorp-forge/onshape-drawings/pkg/drawing"
)

const script = "needs-update"

// ReferencesFile lists the out of date references of a single drawing.
const ReferencesFile = "out_of_date_references.csv"

type Command struct {
	*base.Command

	session       base.SessionFlags
	flagWorkspace bool
}

func (c *Command) Synopsis() string {
	return "Detect drawings that need an update"
}

func (c *Command) Help() string {
	return `Usage: drawings needs-update -drawinguri=<url> [-workspace]

  Report whether the drawing references out of date parts or assemblies.

  With -workspace every drawing in the workspace of -drawinguri is
  checked and the element ids of drawings needing an update are listed.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet(script, flag.ContinueOnError))
	c.session.Add(f)

	f.BoolVar(&c.flagWorkspace, "workspace", false,
		"Check all drawings in the workspace instead of a single drawing.")

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
		return c.Fail(nil, "error starting needs-update", err)
	}
	defer sess.Close()

	ctx, cancel := base.SignalContext()
	defer cancel()

	if c.flagWorkspace {
		ids, err := sess.Drawing.WorkspaceDrawingsNeedingUpdate(ctx, sess.Target)
		if err != nil {
			return c.Fail(sess, "detecting workspace drawings needing an update failed", err)
		}

		sess.Log.Info("workspace drawings needing update", "count", len(ids), "elementIds", ids)
		if len(ids) == 0 {
			c.UI.Output("Workspace does NOT contain any drawings that need an update.")
			return 0
		}
		c.UI.Output(fmt.Sprintf("Workspace contains %d drawing(s) that need an update: %s",
			len(ids), strings.Join(ids, ", ")))
		return 0
	}

	refs, err := sess.Drawing.NeedsUpdate(ctx, sess.Target)
	if err != nil {
		return c.Fail(sess, "detecting if drawing needs an update failed", err)
	}

	sess.Log.Info("out of date references", "count", len(refs))
	if len(refs) == 0 {
		c.UI.Output("Drawing does NOT need an update.")
		return 0
	}

	path, err := sess.Reports.WriteCSV(ReferencesFile, referenceRows(refs))
	if err != nil {
		return c.Fail(sess, "error writing report", err)
	}
	c.UI.Output(fmt.Sprintf("Drawing needs an update: %d out of date reference(s) (report: %s)",
		len(refs), path))
	return 0
}

type referenceRow struct {
	TargetDocumentID            string
	TargetElementID             string
	TargetElementMicroversionID string
	LatestElementMicroversionID string
}

func referenceRows(refs []drawing.Reference) []referenceRow {
	rows := make([]referenceRow, len(refs))
	for i, r := range refs {
		rows[i] = referenceRow{
			TargetDocumentID:            r.TargetDocumentID,
			TargetElementID:             r.TargetElementID,
			TargetElementMicroversionID: r.TargetElementMicroversionID,
			LatestElementMicroversionID: r.LatestElementMicroversionID,
		}
	}
	return rows
}
