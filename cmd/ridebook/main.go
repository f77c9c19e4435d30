// Command ridebook is the terminal client of the ride booking service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Overland-East-Bay/ridebook/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
