// Package cli runs the schema drift report from the command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/koustreak/schemadrift/internal/config"
	"github.com/koustreak/schemadrift/internal/database"
	"github.com/koustreak/schemadrift/internal/database/postgres"
	"github.com/koustreak/schemadrift/internal/errs"
	"github.com/koustreak/schemadrift/internal/logger"
	"github.com/koustreak/schemadrift/internal/reference"
	"github.com/koustreak/schemadrift/internal/report"
	"github.com/koustreak/schemadrift/internal/server"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Command is one report program.
type Command struct {
	Name string
	// Table is the fixed table to report on. When empty the table is the
	// single positional argument.
	Table string

	Stdout io.Writer
	Stderr io.Writer

	// Dial builds the database dialer. Nil uses postgres.Dialer.
	Dial func(cfg *database.Config) database.Dialer
}

// Run executes the command and returns the process exit code.
func (c *Command) Run(ctx context.Context, args []string) int {
	stdout, stderr := c.Stdout, c.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	fs := pflag.NewFlagSet(c.Name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	config.Flags(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			c.usage(stdout, fs)
			return 0
		}
		fmt.Fprintf(stdout, "%s\n", err)
		c.usage(stdout, fs)
		return 1
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		fmt.Fprintf(stderr, "binding flags: %v\n", err)
		return 1
	}
	cfg, err := config.Load(v)
	if err != nil {
		fmt.Fprintf(stdout, "Error: %s\n", errs.MessageOf(err))
		return 1
	}

	table := c.Table
	if cfg.Listen == "" {
		want := 1
		if c.Table != "" {
			want = 0
		}
		if fs.NArg() != want {
			c.usage(stdout, fs)
			return 1
		}
		if c.Table == "" {
			table = fs.Arg(0)
		}
	}

	logCfg := cfg.Log
	logCfg.Output = stderr
	log := logger.New(&logCfg)

	source, err := c.source(ctx, cfg)
	if err != nil {
		log.ErrorWith("opening reference source", err, nil)
		return 1
	}

	if cfg.Listen != "" {
		return c.serve(ctx, cfg, source, log)
	}

	dial := c.Dial
	if dial == nil {
		dial = postgres.Dialer
	}
	reporter := report.NewReporter(dial(&cfg.Database), source, cfg.Schema, log)

	log.With().Str("table", table).Str("database", cfg.Database.Redacted()).Logger().Debug("building report")

	rep, err := reporter.Build(ctx, table)
	if err != nil {
		if errs.IsNotFound(err) {
			fmt.Fprintf(stdout, "Error: %s\n", errs.MessageOf(err))
			return 0
		}
		log.ErrorWith("report failed", err, map[string]interface{}{"table": table})
		return 1
	}

	if err := report.Encode(stdout, rep, cfg.Format); err != nil {
		log.ErrorWith("writing report", err, nil)
		return 1
	}
	return 0
}

// serve answers report requests over HTTP until ctx is cancelled. Requests
// share a connection pool unless a Dial override is set.
func (c *Command) serve(ctx context.Context, cfg config.Config, source reference.Source, log *logger.Logger) int {
	var dial database.Dialer
	if c.Dial != nil {
		dial = c.Dial(&cfg.Database)
	} else {
		pool, err := postgres.NewPool(ctx, &cfg.Database)
		if err != nil {
			log.ErrorWith("connecting to database", err, map[string]interface{}{"database": cfg.Database.Redacted()})
			return 1
		}
		defer pool.Close()
		dial = pool.Dialer()
	}

	reporter := report.NewReporter(dial, source, cfg.Schema, log)
	if err := server.New(reporter, log).ListenAndServe(ctx, cfg.Listen); err != nil {
		log.ErrorWith("server stopped", err, nil)
		return 1
	}
	return 0
}

func (c *Command) source(ctx context.Context, cfg config.Config) (reference.Source, error) {
	if cfg.UseBucket() {
		b, err := reference.NewBucket(ctx, &cfg.Bucket)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return reference.NewDir(cfg.ReferenceDir), nil
}

func (c *Command) usage(w io.Writer, fs *pflag.FlagSet) {
	if c.Table == "" {
		fmt.Fprintf(w, "Usage: %s [flags] <table_name>\n", c.Name)
	} else {
		fmt.Fprintf(w, "Usage: %s [flags]\n", c.Name)
	}
	fmt.Fprint(w, fs.FlagUsages())
}
