// Command piante browses and caches the plant catalog.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rshade/piante/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev" //nolint:gochecknoglobals // Set by the linker.

func run(ctx context.Context, args []string) error {
	root := cli.NewRootCmd(version)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()
	if err != nil {
		os.Exit(1)
	}
}
