package company

import (
	"flag"
	"fmt"

	"github.com/hashicorp-forge/onshape-drawings/internal/cmd/base"
)

const script = "company"

type Command struct {
	*base.Command

	session       base.SessionFlags
	flagCompanyID string
}

func (c *Command) Synopsis() string {
	return "Show the company of the API key's user"
}

func (c *Command) Help() string {
	return `Usage: drawings company [options]

  Look up the company the API key's user is a member of. The companyId of
  the stack in credentials.json is used as a filter when set.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet(script, flag.ContinueOnError))
	c.session.Add(f)

	f.StringVar(&c.flagCompanyID, "company-id", "",
		"Only consider this company.")

	return f
}

func (c *Command) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	sess, err := c.Open(script, c.session, false)
	if err != nil {
		return c.Fail(nil, "error starting company", err)
	}
	defer sess.Close()

	ctx, cancel := base.SignalContext()
	defer cancel()

	info, err := sess.Client.FindCompanyInfo(ctx, c.flagCompanyID)
	if err != nil {
		return c.Fail(sess, "error finding company", err)
	}

	sess.Log.Info("found company", "id", info.ID, "name", info.Name, "admin", info.Admin)
	c.UI.Output(fmt.Sprintf("Company: %s (%s)", info.Name, info.ID))
	if info.Admin {
		c.UI.Output("User is a company admin")
	}

	return 0
}
