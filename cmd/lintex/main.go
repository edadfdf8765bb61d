package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/swiftex-io/lintex-legolas/params"
	"github.com/swiftex-io/lintex-legolas/pkg/api"
	"github.com/swiftex-io/lintex-legolas/pkg/app/core/market"
	"github.com/swiftex-io/lintex-legolas/pkg/app/exchange"
	"github.com/swiftex-io/lintex-legolas/pkg/app/referral"
	"github.com/swiftex-io/lintex-legolas/pkg/metrics"
	"github.com/swiftex-io/lintex-legolas/pkg/storage"
	"github.com/swiftex-io/lintex-legolas/pkg/util"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:  "lintex",
		Usage: "simulated spot exchange for a single trader",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the REST and WebSocket API",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "env", Usage: "path to a .env file"},
					&cli.StringFlag{Name: "addr", Usage: "listen address, overrides API_ADDR"},
					&cli.BoolFlag{Name: "feed", Usage: "drive the engine with the mock tick feeder"},
				},
				Action: serve,
			},
			{
				Name:  "version",
				Usage: "print the build version",
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, version)
					return nil
				},
			},
			{
				Name:  "tiers",
				Usage: "print the referral tier table",
				Action: func(c *cli.Context) error {
					return printTiers(c.App.Writer)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serve(c *cli.Context) error {
	cfg := params.LoadFromEnv(c.String("env"))
	if c.IsSet("addr") {
		cfg.API.Addr = c.String("addr")
	}
	if c.Bool("feed") {
		cfg.Feed.Enabled = true
	}

	logger, err := util.NewLoggerWithFile(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.Logging.File, "level", cfg.Logging.Level)

	catalog := market.DefaultCatalog()
	if cfg.Storage.CatalogFile != "" {
		catalog, err = market.LoadCatalog(cfg.Storage.CatalogFile)
		if err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
		sugar.Infow("catalog_loaded", "file", cfg.Storage.CatalogFile, "assets", catalog.Count())
	}

	var sessions storage.SessionStore = storage.NewInMemoryStore()
	if cfg.Storage.SessionDB != "" {
		sessions, err = storage.NewPebbleStore(cfg.Storage.SessionDB)
		if err != nil {
			return fmt.Errorf("session store: %w", err)
		}
		sugar.Infow("session_store_opened", "path", cfg.Storage.SessionDB)
	}
	defer sessions.Close()

	var journal storage.Journal = storage.NewNopJournal()
	if cfg.API.AuditLog != "" {
		fj, err := storage.NewFileJournal(cfg.API.AuditLog)
		if err != nil {
			// Keep serving without an audit trail
			sugar.Warnw("audit_log_unavailable", "path", cfg.API.AuditLog, "err", err)
		} else {
			defer fj.Close()
			journal = fj
			sugar.Infow("audit_log_opened", "path", cfg.API.AuditLog)
		}
	}

	m := metrics.New()
	x := exchange.New(exchange.Config{
		Catalog:        catalog,
		Clock:          util.NewClock(),
		IDs:            util.NewIDGenerator(cfg.IDMode),
		Sessions:       sessions,
		Metrics:        m,
		Logger:         logger,
		NotifyTTL:      cfg.Notify.TTL,
		NotifyCapacity: cfg.Notify.Capacity,
	})

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := x.Initialize(ctx); err != nil {
		sugar.Warnw("session_initialize_failed", "err", err)
	}

	server := api.NewServer(x, api.Options{
		Journal:  journal,
		Metrics:  m,
		Logger:   logger,
		Origins:  cfg.API.CORSOrigins,
		MockSeed: cfg.Feed.Seed,
	})

	if cfg.Feed.Enabled {
		feedCfg := exchange.FeederConfigFor(cfg.Feed.Profile, exchange.FeederConfig{
			Interval:      cfg.Feed.Interval,
			Seed:          cfg.Feed.Seed,
			VolatilityBps: cfg.Feed.VolatilityBps,
		})
		cancelFeeder := exchange.StartTickFeeder(ctx, x, feedCfg)
		defer cancelFeeder()
	} else {
		sugar.Info("tick_feeder_disabled - waiting for POST /api/v1/ticks")
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(cfg.API.Addr) }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	sugar.Info("shutdown_requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api_server_shutdown_failed", zap.Error(err))
	}
	sugar.Infow("server_stopped", "open_orders", len(x.OpenOrders()), "trades", len(x.Trades()))
	return nil
}

func printTiers(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIER\tREFERRALS\tVOLUME\tCOMMISSION\tFEE DISCOUNT\tAPR BOOST\tAVG EARN")
	for _, b := range referral.Tiers {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d%%\t%d%%\t%s%%\t%s\n",
			b.Tier, b.Requirement, b.VolRequirement, b.Commission, b.FeeDiscount, b.APRBoost, b.AvgEarn)
	}
	return tw.Flush()
}
