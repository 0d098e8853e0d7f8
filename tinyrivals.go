// Tiny Rivals: scoreboard for board game nights.
// Features:
// - Players, games and per-player outcomes stored in Postgres
// - Head-to-head rivalry between two configured players, over all shared
//   games or strictly one on one
// - Paginated game listing, XLSX export, PNG chart and JSON API
// - Password login gating every write

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"tinyrivals/internal/handlers"
	"tinyrivals/internal/metrics"
	"tinyrivals/internal/rivalry"
	"tinyrivals/internal/session"
	"tinyrivals/internal/storage"
	"tinyrivals/internal/templates"
	"tinyrivals/pkg/utils"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the web server",
		Action: func(c *cli.Context) error {
			cfg, log, db, err := setup(c)
			if err != nil {
				return err
			}
			if err := storage.Migrate(db); err != nil {
				return err
			}
			if err := templates.Load(); err != nil {
				return err
			}
			templates.SetCommit(commit)

			secret := cfg.Auth.SessionSecret
			if secret == "" {
				secret = utils.RandomHex(32)
				log.Warn("no session secret configured; sessions will not survive a restart")
			}
			if cfg.Auth.PasswordHash == "" {
				log.Warn("no admin password hash configured; login is disabled")
			}
			sessions := session.NewManager(secret, cfg.Auth.SessionTTL, cfg.Auth.SecureCookie, cfg.Auth.PasswordHash)

			var m *metrics.Metrics
			if cfg.Metrics.Enabled {
				m = metrics.New()
			}

			h := handlers.NewHandler(storage.NewStore(db), sessions, m, log, handlers.Options{
				Pair:       rivalry.Pair{A: cfg.Rivalry.PlayerA, B: cfg.Rivalry.PlayerB},
				PerPage:    cfg.Listing.PerPage,
				ErrorOut:   cfg.Listing.ErrorOut,
				TrustProxy: cfg.Server.TrustProxy,
			})

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           h.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info("Tiny Rivals listening", slog.String("addr", cfg.Server.Addr), slog.String("commit", commit))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
