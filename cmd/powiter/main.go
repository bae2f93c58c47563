// SPDX-License-Identifier: MIT

// Command powiter computes the dominant eigenpair of a matrix by guarded
// power iteration. See "powiter --help".
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/katalvlaran/powiter/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		var exitErr *cli.ExitError
		// Non-convergence is an outcome, not a usage error.
		if !errors.As(err, &exitErr) || exitErr.Code != cli.ExitFailure {
			fmt.Fprintln(os.Stderr, "Error:", err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	os.Exit(cli.GetExitCode(err))
}
