package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/amenity-reserve/internal/devbackend"
	"github.com/example/amenity-reserve/internal/infrastructure/postgres"
	"github.com/example/amenity-reserve/internal/interfaces/web"
)

func newBackendCmd() *cobra.Command {
	var (
		storeKind string
		seed      bool
		listen    string
	)

	cmd := &cobra.Command{
		Use:   "backend",
		Short: "Run a development reservation backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if listen == "" {
				listen = cfg.DevBackendAddr
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			var store devbackend.Store
			switch storeKind {
			case "memory":
				mem := devbackend.NewMemoryStore(devbackend.SeedAmenities, devbackend.SeedQuestions)
				defer func() {
					log.Info("backend: memory store discarded", zap.Int("reservations", len(mem.Reservations())))
				}()
				store = mem
			case "postgres":
				if cfg.DatabaseURL == "" {
					return fmt.Errorf("DATABASE_URL is required for --store postgres")
				}
				pool, err := postgres.Open(ctx, cfg.DatabaseURL)
				if err != nil {
					return err
				}
				defer pool.Close()
				if err := postgres.Migrate(ctx, pool); err != nil {
					return err
				}
				repo := postgres.NewCatalogRepo(pool)
				if seed {
					if err := repo.Seed(ctx, devbackend.SeedAmenities, devbackend.SeedQuestions); err != nil {
						return err
					}
					log.Info("backend: seeded catalog")
				}
				store = repo
			default:
				return fmt.Errorf("unknown --store %q (want memory or postgres)", storeKind)
			}

			srv := &devbackend.Server{Store: store, Token: cfg.DevBackendToken, Log: log}
			log.Info("backend: starting", zap.String("store", storeKind), zap.Bool("token", cfg.DevBackendToken != ""))
			return web.Start(ctx, listen, srv.Routes(), log)
		},
	}

	cmd.Flags().StringVar(&storeKind, "store", "memory", "storage: memory or postgres")
	cmd.Flags().BoolVar(&seed, "seed", false, "seed the postgres catalog with sample amenities and questions")
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default DEV_BACKEND_ADDR)")
	cmd.Flags().Lookup("seed").NoOptDefVal = "true"
	return cmd
}
