// Command abidiff checks the ABI compatibility of shared library builds.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/abidiff/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()

	code := cli.GetExitCode(err)
	if err != nil && code != cli.ExitFailure {
		fmt.Fprintln(os.Stderr, "abidiff:", err)
	}
	os.Exit(code)
}
