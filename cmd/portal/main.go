package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Spok95/school-portal/internal/account"
	"github.com/Spok95/school-portal/internal/config"
	"github.com/Spok95/school-portal/internal/ctxutil"
	"github.com/Spok95/school-portal/internal/db"
	"github.com/Spok95/school-portal/internal/httpapi"
	"github.com/Spok95/school-portal/internal/identity"
	"github.com/Spok95/school-portal/internal/jobs"
	"github.com/Spok95/school-portal/internal/logging"
	"github.com/Spok95/school-portal/internal/notify"
	"github.com/Spok95/school-portal/internal/observability"
	"github.com/Spok95/school-portal/internal/records"
	"github.com/Spok95/school-portal/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Не удалось загрузить .env файл, используем переменные окружения")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env, "portal")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Closer()
	logger := lg.Base

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, cfg.Release)
	if err != nil {
		logger.Warn("sentry init failed", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctxutil.DefaultStoreTimeout = cfg.StoreTimeout

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db open", zap.Error(err))
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	var throttle identity.Throttler = identity.NoThrottle{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, sign-in attempts are not limited", zap.Error(err))
		}
		throttle = identity.NewRedisThrottle(rdb, cfg.SignInMaxAttempts, cfg.SignInWindow)
	}

	idp := identity.NewService(
		identity.NewPGAccounts(pool),
		identity.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL),
		identity.Options{
			SignupDisabled: !cfg.SignupEnabled,
			Throttle:       throttle,
			Logger:         logger.Named("identity"),
		},
	)

	recordStore := store.NewPostgres(pool)
	repo := records.New(recordStore)

	var notifier account.SchoolNotifier
	if cfg.BotToken != "" {
		bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
		if err != nil {
			logger.Warn("telegram disabled", zap.Error(err))
		} else {
			tn := notify.NewTelegram(bot, cfg.AdminIDs, cfg.Location, logger.Named("notify"))
			defer tn.Close()
			notifier = tn
			logger.Info("telegram notifications on", zap.String("bot", bot.Self.UserName))
		}
	}

	api := httpapi.New(httpapi.Deps{
		Identity:     idp,
		Repo:         repo,
		Pinger:       recordStore,
		Notifier:     notifier,
		Log:          logger.Named("http"),
		Location:     cfg.Location,
		IdleTTL:      cfg.SessionIdleTTL,
		SecureCookie: cfg.Env == "prod",
	})
	defer api.Close()

	runner := jobs.New(ctx, logger.Named("jobs"))
	runner.Every(cfg.StorePingInterval, "store_ping", jobs.StorePing(recordStore))
	runner.Every(cfg.SessionIdleTTL/2, "session_sweep", api.Sweep)

	srv := httpapi.Start(ctx, cfg.HTTPAddr, api.Router(), logger)
	logger.Info("portal started", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.Env))

	<-ctx.Done()
	logger.Info("shutting down")
	<-srv.Done()
	runner.Wait()
}
