package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/icook/tiny-ballot/api"
	"github.com/icook/tiny-ballot/ballot"
	"github.com/icook/tiny-ballot/config"
	"github.com/icook/tiny-ballot/db"
	"github.com/icook/tiny-ballot/identity"
	"github.com/icook/tiny-ballot/service"
	"github.com/icook/tiny-ballot/storage/leveldb"
	"github.com/icook/tiny-ballot/storage/mem"
)

func init() {
	def := config.DefaultConfig()
	flags := serveCmd.Flags()
	flags.String("listen", def.API.Listen, "address the API listens on")
	flags.String("storage-scheme", def.Storage.Scheme, "storage backend (memory, file)")
	flags.String("storage-path", def.Storage.Path, "leveldb directory for the file scheme")
	flags.String("identity-header", def.Identity.Header, "request header carrying the caller's participant id")
	flags.Bool("metrics", def.Metrics.Enabled, "expose /metrics")

	bind("api.listen", flags.Lookup("listen"))
	bind("storage.scheme", flags.Lookup("storage-scheme"))
	bind("storage.path", flags.Lookup("storage-path"))
	bind("identity.header", flags.Lookup("identity-header"))
	bind("metrics.enabled", flags.Lookup("metrics"))

	rootCmd.AddCommand(serveCmd)
}

func bind(key string, flag *pflag.Flag) {
	if err := vip.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ballot API web service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg.Log)
		if err != nil {
			return errors.Wrap(err, "build logger")
		}
		defer log.Sync()

		driver, err := openDriver(cfg.Storage)
		if err != nil {
			return err
		}
		store := db.NewStore(driver)
		defer store.Close()

		gin.SetMode(gin.ReleaseMode)
		registry := service.NewRegistry(store, ballot.NewMonotonicClock(clockwork.NewRealClock()), log.Named("ledger"))
		srv := api.NewServer(registry, identity.NewHeaderSource(cfg.Identity.Header), log.Named("api"))

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log.Info("starting",
			zap.String("storage", cfg.Storage.Scheme),
			zap.String("identity_header", cfg.Identity.Header),
		)
		return srv.Serve(ctx, api.APIConfig{
			APIEndpoint: cfg.API.Listen,
			Metrics:     cfg.Metrics.Enabled,
		})
	},
}

func openDriver(cfg config.StorageConfig) (db.StorageDriver, error) {
	switch cfg.Scheme {
	case config.StorageMemory:
		return mem.NewMemStore(), nil
	case config.StorageFile:
		return leveldb.Open(cfg.Path)
	}
	return nil, errors.Errorf("unknown storage scheme %q", cfg.Scheme)
}
