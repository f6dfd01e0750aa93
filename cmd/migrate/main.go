package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/GoSim-25-26J-441/projects-backend/config"
	"github.com/GoSim-25-26J-441/projects-backend/internal/logging"
	"github.com/GoSim-25-26J-441/projects-backend/internal/storage/postgres"
)

const usage = `usage: migrate <up|down|status>

Applies, rolls back or lists the embedded schema migrations against
DATABASE_URL (or the DB_* settings).`

func main() {
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0)); err != nil {
		slog.Error("migrate failed", "command", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

func run(command string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.New(cfg.App.LogLevel, cfg.App.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.OpenSQL(ctx, postgres.DSN(&cfg.Database))
	if err != nil {
		return err
	}
	defer db.Close()

	switch command {
	case "up":
		return postgres.MigrateUp(ctx, db)
	case "down":
		return postgres.MigrateDown(ctx, db)
	case "status":
		statuses, err := postgres.Status(ctx, db)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			state := "pending"
			if s.Applied {
				state = "applied"
			}
			fmt.Printf("%05d  %-8s %s\n", s.Version, state, s.Path)
		}
		return nil
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}
