// Command faultline verifies that managed node startup failures
// surface exactly one diagnostic.
package main

import (
	"fmt"
	"os"

	"github.com/faultline/faultline/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
