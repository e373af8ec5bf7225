package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/amenity-reserve/internal/application/form"
	"github.com/example/amenity-reserve/internal/infrastructure/condo"
	"github.com/example/amenity-reserve/internal/interfaces/web"
)

func newServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reservation web UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if err := cfg.RequireCookieKeys(); err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			if listen == "" {
				listen = cfg.ListenAddr
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			backend := condo.New(condo.Options{
				BaseURL: cfg.BackendURL,
				Token:   cfg.BackendToken,
				Timeout: cfg.BackendTimeout,
				Log:     log,
			})
			forms := form.NewRegistry(form.Options{Backend: backend, Log: log, Location: loc, MaxSessions: cfg.MaxSessions})

			tmpl, err := web.ParseTemplates()
			if err != nil {
				return err
			}
			ws := web.New(web.NewSessionManager(cfg.CookieHashKey, cfg.CookieBlockKey), forms, tmpl, log)

			log.Info("serve: starting", zap.String("backend", cfg.BackendURL), zap.String("timezone", loc.String()))
			g, ctx := errgroup.WithContext(ctx)
			if cfg.SessionIdle > 0 {
				g.Go(func() error {
					if err := forms.RunSweeper(ctx, sweepInterval(cfg.SessionIdle), cfg.SessionIdle); !errors.Is(err, context.Canceled) {
						return err
					}
					return nil
				})
			}
			g.Go(func() error { return web.Start(ctx, listen, ws.Routes(), log) })
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default LISTEN_ADDR)")
	return cmd
}

// sweepInterval checks for idle sessions a few times per idle period.
func sweepInterval(idle time.Duration) time.Duration {
	iv := idle / 4
	switch {
	case iv < time.Second:
		return time.Second
	case iv > time.Minute:
		return time.Minute
	}
	return iv
}
