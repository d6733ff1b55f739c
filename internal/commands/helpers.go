package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/zurielbm/pp2ot-bridge/internal/printer"
)

// stdinIsTerminal is swapped in tests.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// interactive reports whether prompts can be shown: both stdin and the
// command's output are terminals.
func interactive(c *cli.Command) bool {
	return stdinIsTerminal() && printer.IsTerminal(c.Root().Writer)
}

// aborted reports whether err is the user cancelling a form.
func aborted(err error) bool {
	return errors.Is(err, huh.ErrUserAborted)
}

// parseIndex converts a 1-based position argument to a 0-based index.
func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid position %q: want a number from 1", s)
	}
	return n - 1, nil
}

// parsePosition reads "N" or "N.M" (entry M of group N) as 0-based indexes.
// sub is -1 when no entry is addressed.
func parsePosition(s string) (idx, sub int, err error) {
	head, tail, found := strings.Cut(s, ".")
	idx, err = parseIndex(head)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid position %q: want N or N.M", s)
	}
	if !found {
		return idx, -1, nil
	}
	sub, err = parseIndex(tail)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid position %q: want N or N.M", s)
	}
	return idx, sub, nil
}

// requireArgs returns a usage error when fewer than n arguments were given.
func requireArgs(c *cli.Command, n int) error {
	if c.Args().Len() < n {
		return fmt.Errorf("expected %d argument(s), got %d; usage: %s", n, c.Args().Len(), c.UsageText)
	}
	return nil
}

func jsonFlag(dest *bool) *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "json",
		Usage:       "output as JSON",
		Destination: dest,
	}
}
