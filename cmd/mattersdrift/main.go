// Command mattersdrift reports on the matters table only.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/koustreak/schemadrift/internal/cli"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmd := &cli.Command{Name: "mattersdrift", Table: "matters"}
	code := cmd.Run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
