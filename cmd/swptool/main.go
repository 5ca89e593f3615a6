// Command swptool derives sensor workload proxies from recorded test runs.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/24x6fhy/SWPtool/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		// ExitErrors were already reported by the command's formatter
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
