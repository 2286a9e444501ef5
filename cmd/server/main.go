package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/example/blazehunter/internal/config"
	"github.com/example/blazehunter/internal/database"
	"github.com/example/blazehunter/internal/handlers"
	"github.com/example/blazehunter/internal/logger"
	"github.com/example/blazehunter/internal/realtime"
	"github.com/example/blazehunter/internal/routes"
	"github.com/example/blazehunter/internal/services"
	"github.com/example/blazehunter/internal/state"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.AppEnv)
	log := logger.Get()

	site, err := config.LoadSite(cfg.SiteConfigPath)
	if err != nil {
		log.Fatal().Err(err).Msg("site config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using in-memory sessions")
			rdb = nil
		}
	}

	var (
		sessionStore  services.SessionStore  = services.NewMemorySessionStore()
		settingsCache services.SettingsCache = services.NewMemorySettingsCache()
	)
	if rdb != nil {
		sessionStore = services.NewRedisSessionStore(rdb)
		settingsCache = services.NewRedisSettingsCache(rdb)
	}

	gateway, source := selectGateway(ctx, cfg)

	app := state.New(site.Categories(), settingsCache)
	broker := realtime.NewBroker(rdb, logger.With("events"))

	deps := routes.Deps{
		Config:  cfg,
		Site:    site,
		State:   app,
		Gateway: gateway,
		Broker:  broker,
		Done:    ctx.Done(),
	}

	if gateway != nil {
		refresher := realtime.NewRefresher(app, gateway, broker, logger.With("refresher"))
		if err := refresher.Prime(ctx); err != nil {
			log.Warn().Err(err).Msg("starting with an empty snapshot")
		}
		go refresher.Run(ctx)

		if source != nil {
			go func() {
				if err := refresher.Pump(ctx, source); err != nil {
					log.Error().Err(err).Msg("realtime source stopped")
				}
			}()
		} else {
			// without a change feed the server refreshes after its own writes
			deps.Notifier = refresher
		}

		deps.Sessions = services.NewSessionService(gateway, sessionStore, cfg.JWTSecret, cfg.SessionTTL, logger.With("session"))
		deps.Cleanup = services.NewCleanupService(gateway, sessionStore, logger.With("cleanup"))
	}

	go broker.RunRedis(ctx)

	server := fiber.New(fiber.Config{
		AppName:      "BlazeHunter",
		ErrorHandler: handlers.ErrorHandler,
	})

	server.Use(recover.New())
	server.Use(fiberlogger.New())

	routes.Register(server, deps)

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("port", cfg.AppPort).Msg("starting server")
	if err := server.Listen(":" + cfg.AppPort); err != nil {
		log.Fatal().Err(err).Msg("fiber.Listen error")
	}
}

// selectGateway picks the hosted data service when its keys are set, else the
// local database. The returned source is nil when no change feed is
// available.
func selectGateway(ctx context.Context, cfg *config.Config) (services.Gateway, realtime.Source) {
	log := logger.Get()

	if cfg.UsesSupabase() {
		gw, err := services.NewSupabaseGateway(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.GatewayTimeout, logger.With("supabase"))
		if err != nil {
			log.Fatal().Err(err).Msg("supabase gateway")
		}

		if !cfg.RealtimeEnabled() {
			log.Warn().Msg("SUPABASE_ANON_KEY not set, live updates disabled")
			return gw, nil
		}
		src, err := realtime.NewSupabaseSource(cfg.SupabaseURL, cfg.SupabaseAnonKey, logger.With("realtime"))
		if err != nil {
			log.Warn().Err(err).Msg("live updates disabled")
			return gw, nil
		}
		return gw, src
	}

	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL, cfg.AutoMigrate)
		if err != nil {
			log.Fatal().Err(err).Msg("database")
		}

		store := services.NewStoreGateway(db, realtime.NewPGNotifier(db), logger.With("store"))
		if cfg.SeedSeniorAdminEmail != "" && cfg.SeedSeniorAdminKey != "" {
			if err := store.EnsureSeniorAdmin(ctx, cfg.SeedSeniorAdminEmail, cfg.SeedSeniorAdminKey); err != nil {
				log.Error().Err(err).Msg("seed senior admin")
			}
		}
		return store, realtime.NewPGListener(cfg.DatabaseURL, logger.With("pglisten"))
	}

	log.Warn().Msg("no data service configured, admin endpoints will return 500")
	return nil, nil
}
