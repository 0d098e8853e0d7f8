package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"tinyrivals/internal/config"
	"tinyrivals/internal/logging"
	"tinyrivals/internal/report"
	"tinyrivals/internal/rivalry"
	"tinyrivals/internal/session"
	"tinyrivals/internal/storage"
)

func main() {
	app := &cli.App{
		Name:    "tinyrivals",
		Usage:   "board game scoreboard and head-to-head rivalry tracker",
		Version: version(),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "path to the configuration file", EnvVars: []string{"TINYRIVALS_CONFIG"}},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
		},
		Before: func(c *cli.Context) error {
			logging.Debug = c.Bool("debug")
			return nil
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			rivalryCommand(),
			hashPasswordCommand(),
			{
				Name:  "version",
				Usage: "print the build commit and date",
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, version())
					return nil
				},
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("tinyrivals failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// setup loads configuration, installs the default logger and opens the
// database.
func setup(c *cli.Context) (*config.Config, *slog.Logger, *gorm.DB, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, nil, err
	}
	log := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	db, err := storage.New(cfg.Postgres.DSN, logging.Debug)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, db, nil
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "create or update the database schema",
		Action: func(c *cli.Context) error {
			_, log, db, err := setup(c)
			if err != nil {
				return err
			}
			if err := storage.Migrate(db); err != nil {
				return err
			}
			log.Info("schema up to date")
			return nil
		},
	}
}

func rivalryCommand() *cli.Command {
	return &cli.Command{
		Name:  "rivalry",
		Usage: "print the head-to-head table of the configured rivals",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "exactly-two", Usage: "only count games with exactly two players"},
			&cli.StringFlag{Name: "xlsx", Usage: "also write both views to this workbook"},
		},
		Action: func(c *cli.Context) error {
			cfg, _, db, err := setup(c)
			if err != nil {
				return err
			}
			store := storage.NewStore(db)
			pair := rivalry.Pair{A: cfg.Rivalry.PlayerA, B: cfg.Rivalry.PlayerB}

			r, err := store.Rivalry(c.Context, pair, c.Bool("exactly-two"))
			if err != nil {
				return err
			}
			if err := printReport(c, r); err != nil {
				return err
			}

			if path := c.String("xlsx"); path != "" {
				return exportWorkbook(c.Context, store, pair, path)
			}
			return nil
		},
	}
}

func printReport(c *cli.Context, r rivalry.Report) error {
	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	for _, cells := range rivalry.Table(r.Rows) {
		for i, cell := range cells {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, cell)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total Games\t%d\n", r.Summary.TotalGames)
	fmt.Fprintf(w, "%s Wins\t%d\n", r.Pair.A, r.Summary.WinsA)
	fmt.Fprintf(w, "%s Wins\t%d\n", r.Pair.B, r.Summary.WinsB)
	fmt.Fprintf(w, "Ties\t%d\n", r.Summary.Ties)
	return w.Flush()
}

func exportWorkbook(ctx context.Context, store *storage.Store, pair rivalry.Pair, path string) error {
	all, err := store.Rivalry(ctx, pair, false)
	if err != nil {
		return err
	}
	one, err := store.Rivalry(ctx, pair, true)
	if err != nil {
		return err
	}
	book, err := report.Workbook(all, one)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, book, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	slog.Info("workbook written", slog.String("path", path))
	return nil
}

func hashPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:      "hash-password",
		Usage:     "print the bcrypt hash to use as auth.password_hash",
		ArgsUsage: "<password>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("expected exactly one password argument", 2)
			}
			h, err := session.HashPassword(c.Args().First())
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, h)
			return nil
		},
	}
}
