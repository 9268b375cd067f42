package main

import (
	"fmt"

	"github.com/fwojciec/httpmon"
)

// Run prints recorded polls as CSV lines.
func (c *HistoryCmd) Run(deps *Dependencies) error {
	if deps.Polls == nil {
		return fmt.Errorf("no poll history: set --db or HTTPMON_HISTORY")
	}

	filter := httpmon.PollFilter{Limit: c.Limit}
	if c.Source != "" {
		filter.Source = &c.Source
	}

	polls, err := deps.Polls.FindPolls(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", httpmon.ErrorMessage(err))
		return err
	}

	if len(polls) == 0 {
		fmt.Fprintln(deps.Stdout, "No polls recorded.")
		return nil
	}

	for _, p := range polls {
		fmt.Fprintln(deps.Stdout, p.CSV())
	}
	return nil
}
