// migrate applies or rolls back the embedded PostgreSQL schema.
//
// Usage:
//
//	migrate [--database-url URL] up|down
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/pflag"

	"tabrela/internal/platform/config"
	"tabrela/internal/platform/logger"
	"tabrela/internal/store/postgres"
	"tabrela/internal/store/postgres/migrations"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var timeout time.Duration
	flagSet := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.Database.URL, "database-url", cfg.Database.URL, "PostgreSQL connection URL (default: $TABRELA_DATABASE_URL)")
	flagSet.DurationVar(&timeout, "timeout", time.Minute, "overall deadline")
	flagSet.BoolP("help", "h", false, "show help")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if flagSet.NArg() != 1 {
		printHelp(flagSet)
		return errors.New("expected exactly one command: up or down")
	}
	if !cfg.Database.Enabled() {
		return errors.New("no database URL; set TABRELA_DATABASE_URL or --database-url")
	}

	log := logger.New(cfg.Environment, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	var files []string
	switch cmd := flagSet.Arg(0); cmd {
	case "up":
		files, err = postgres.ApplyMigrations(ctx, db, migrations.FS, ".")
	case "down":
		files, err = postgres.RollbackMigrations(ctx, db, migrations.FS, ".")
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Info("schema already up to date", "command", flagSet.Arg(0))
		return nil
	}
	log.Info("migrations complete", "command", flagSet.Arg(0), "files", files)
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, "migrate applies (up) or rolls back (down) the tabrela schema.\n\nUsage: migrate [flags] up|down\n\nFlags:\n")
	flagSet.PrintDefaults()
}
