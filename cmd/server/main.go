package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/tanjiaxian99/nusfitness-api/internal/config"
	"github.com/tanjiaxian99/nusfitness-api/internal/database"
	"github.com/tanjiaxian99/nusfitness-api/internal/handler"
	"github.com/tanjiaxian99/nusfitness-api/internal/logging"
	"github.com/tanjiaxian99/nusfitness-api/internal/metrics"
	"github.com/tanjiaxian99/nusfitness-api/internal/queue"
	"github.com/tanjiaxian99/nusfitness-api/internal/repository"
	"github.com/tanjiaxian99/nusfitness-api/internal/router"
	"github.com/tanjiaxian99/nusfitness-api/internal/scheduler"
	"github.com/tanjiaxian99/nusfitness-api/internal/service"
	"github.com/tanjiaxian99/nusfitness-api/internal/telegram"
	"github.com/tanjiaxian99/nusfitness-api/internal/traffic"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "optional YAML config file")
	migrateOnly := pflag.Bool("migrate", false, "apply the schema and exit")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := logging.New("info", false)
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogJSON)

	if err := run(cfg, *migrateOnly, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg config.Config, migrateOnly bool, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, dialect, err := database.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, dialect); err != nil {
		return err
	}
	if migrateOnly {
		log.Info().Str("driver", string(dialect)).Msg("schema applied")
		return nil
	}

	loc, _ := cfg.Traffic.Location()
	resetDay, _ := cfg.Credits.Weekday()

	rec := metrics.New(cfg.Metrics, prometheus.DefaultRegisterer)

	users := repository.NewUserRepo(db)
	credits := repository.NewCreditRepo(db)
	bookings := repository.NewBookingRepo(db)
	samples := repository.NewTrafficRepo(db)
	sessions := repository.NewChatSessionRepo(db, dialect)

	bot := telegram.NewClient(cfg.Telegram.APIBase, cfg.Telegram.Token)
	handlers := queue.Handlers(log, bot)

	var events service.Publisher
	if cfg.Broker.Enabled {
		events = queue.NewPublisher(cfg.Broker.URL, log)
		consumer := queue.NewConsumer(cfg.Broker.URL, handlers, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("consumer stopped")
			}
		}()
	} else {
		events = queue.NewInline(handlers, log)
	}

	resolver := service.NewIdentityResolver(cfg.Auth.JWTSecret, users)
	accounts := service.NewAccountService(users, service.AccountOptions{
		JWTSecret:      cfg.Auth.JWTSecret,
		TokenTTL:       cfg.Auth.TokenTTL,
		BcryptCost:     cfg.Auth.BcryptCost,
		DefaultCredits: cfg.Credits.Default,
	}, events, log)
	bookingSvc := service.NewBookingService(bookings, service.BookingOptions{
		MaxCapacity:  cfg.Booking.MaxCapacity,
		CancelCutoff: cfg.Booking.CancelCutoff,
	}, events, rec, log)
	creditSvc := service.NewCreditService(credits, cfg.Credits.Default, rec, log)
	menus := service.NewMenuNavigator(sessions)
	trafficSvc := service.NewTrafficService(samples,
		traffic.NewScraper(cfg.Traffic.PortalURL, cfg.Traffic.NUSNetID, cfg.Traffic.Password),
		service.TrafficOptions{
			Location:   loc,
			CurrentTTL: cfg.Traffic.CurrentTTL,
			CacheBytes: cfg.Traffic.CacheMB * 1024 * 1024,
		}, rec, log)

	jobs := []scheduler.Job{scheduler.CreditResetJob(creditSvc, resetDay, loc)}
	if cfg.Traffic.PollEnable {
		jobs = append(jobs, scheduler.TrafficPollJob(trafficSvc, loc))
	}
	sched := scheduler.New(log, rec, jobs...)
	sched.Start(ctx)

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	} else {
		log.Info().Msg("redis not configured, rate limit and response cache disabled")
	}

	e := router.New(router.Handlers{
		Health:   handler.NewHealthHandler(db),
		Auth:     handler.NewAuthHandler(accounts, cfg.Auth.CookieName, cfg.Env == "production", log),
		Booking:  handler.NewBookingHandler(bookingSvc, log),
		Credits:  handler.NewCreditHandler(creditSvc, log),
		Telegram: handler.NewTelegramHandler(accounts, menus, log),
		Traffic:  handler.NewTrafficHandler(trafficSvc, log),
	}, router.Deps{
		Config:   cfg,
		Resolver: resolver,
		Redis:    rdb,
		Metrics:  rec,
		Gatherer: prometheus.DefaultGatherer,
		Log:      log,
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		stop()
		sched.Wait()
		return err
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	sched.Wait()
	return nil
}
