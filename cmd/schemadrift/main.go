// Command schemadrift prints the live columns, RLS policies and indexes of a
// Postgres table next to its reference schema file.
//
// Usage:
//
//	schemadrift [flags] <table_name>
//
// SUPABASE_HOST and SUPABASE_DB_PASSWORD are read from the environment or a
// .env file in the working directory.
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
	// A missing .env is fine: the variables may already be exported.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmd := &cli.Command{Name: "schemadrift"}
	code := cmd.Run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
