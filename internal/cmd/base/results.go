package base

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-multierror"

	"github.com/hashicorp-forge/onshape-drawings/pkg/drawing"
)

// ModifyResultsFile is the report written after every modify.
const ModifyResultsFile = "modify_results.csv"

// ModifyResultRow is one line of the modify results report.
type ModifyResultRow struct {
	DocumentID       string
	ElementID        string
	JobID            string
	Status           string
	LogicalID        string
	ErrorDescription string
}

// ReportModify writes the modify results report and prints a summary.
func (c *Command) ReportModify(sess *Session, summary *drawing.ModifySummary) error {
	rows := make([]ModifyResultRow, 0, len(summary.Results))
	for _, r := range summary.Results {
		rows = append(rows, ModifyResultRow{
			DocumentID:       sess.Target.DocumentID,
			ElementID:        sess.Target.ElementID,
			JobID:            summary.JobID,
			Status:           r.Status,
			LogicalID:        r.LogicalID,
			ErrorDescription: r.ErrorDescription,
		})
	}

	path, err := sess.Reports.WriteCSV(ModifyResultsFile, rows)
	if err != nil {
		return err
	}

	c.UI.Output(fmt.Sprintf("Succeeded: %d, failed: %d (report: %s)",
		summary.Succeeded, summary.Failed, path))
	if summary.Mismatch() {
		c.UI.Warn(fmt.Sprintf("Sent %d annotations but the job reported %d results",
			summary.Requested, summary.Succeeded+summary.Failed))
	}
	return nil
}

// FailedResults returns the errors of the failed requests in summary, or nil.
func FailedResults(summary *drawing.ModifySummary) error {
	var result *multierror.Error
	for _, r := range summary.Results {
		if !r.Succeeded() {
			desc := r.ErrorDescription
			if desc == "" {
				desc = r.Status
			}
			result = multierror.Append(result, errors.New(desc))
		}
	}
	return result.ErrorOrNil()
}

// SignalContext returns a context cancelled on interrupt or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
