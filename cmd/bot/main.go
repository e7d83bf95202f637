package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/app"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/chat"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/chat/telegram"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/config"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/dedup"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/engine"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/filter"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/journal"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/logger"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/market"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/market/dexscreener"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/observability"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/router"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/scanner"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/session"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/simulator"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		entry := logger.NewWriter(os.Stderr, "info").WithComponent("main")
		var cfgErr *config.ConfigError
		if errors.As(err, &cfgErr) {
			entry = entry.WithField("field", cfgErr.Field)
		}
		entry.WithError(err).Error("Не удалось загрузить конфигурацию.")
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Runtime.Log.Level,
		Format:     cfg.Runtime.Log.Format,
		Output:     cfg.Runtime.Log.File,
		MaxSize:    cfg.Runtime.Log.MaxSize,
		MaxBackups: cfg.Runtime.Log.MaxBackups,
		MaxAge:     cfg.Runtime.Log.MaxAge,
		Compress:   cfg.Runtime.Log.Compress,
	})

	log.Info("Бот запущен.")

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, log); err != nil {
				log.WithError(err).Error("Сервер метрик завершился с ошибкой.")
			}
		}()
	}

	jr, err := journal.Open(ctx, cfg.Journal)
	if err != nil {
		log.WithError(err).Fatal("Не удалось открыть журнал сделок.")
	}
	defer jr.Close()

	scanInterval := time.Duration(cfg.Bot.ScanIntervalSec) * time.Second
	source, closeSource, err := openSource(ctx, cfg, scanInterval, log)
	if err != nil {
		log.WithError(err).Fatal("Не удалось подключить источник рынка.")
	}
	defer closeSource()

	tg, err := app.WithRetry(ctx, app.DefaultRetry, log.WithComponent("main"), func() (*telegram.Client, error) {
		return telegram.New(telegram.Config{
			Token:          cfg.Telegram.Token,
			PollTimeoutSec: cfg.Telegram.PollTimeoutSec,
			PollInterval:   time.Duration(cfg.Telegram.PollIntervalMs) * time.Millisecond,
			SendTimeout:    time.Duration(cfg.Telegram.SendTimeoutSec) * time.Second,
		}, log)
	})
	if err != nil {
		log.WithError(err).Fatal("Telegram недоступен.")
	}

	sess := session.New(cfg.Bot.Mode, cfg.Bot.ScanEnabled)
	notifier := chat.NewNotifier(tg, sess, time.Duration(cfg.Telegram.SendTimeoutSec)*time.Second)

	// Thresholds and rules are already checked by config.Validate.
	rules := engine.RulesFromConfig(cfg.Trade)
	eng := engine.New(cfg.Bot.Mode, rules, engine.Deps{
		Price:    simulator.NewSeeded(cfg.Simulation.Seed, simulator.DefaultParams()),
		Notifier: notifier,
		Scan:     sess,
		Journal:  jr,
		Metrics:  metrics,
		Log:      log,
	})

	policy := filter.FromConfig(cfg.Filter)
	sc := scanner.New(scanner.Options{
		Cooldown:  time.Duration(cfg.Bot.CooldownSec) * time.Second,
		BuyAmount: rules.BuyAmount,
	}, scanner.Deps{
		Source:    source,
		Policy:    policy,
		Registry:  dedup.New(time.Duration(cfg.Bot.DedupTTLMin)*time.Minute, time.Now),
		Positions: eng,
		Session:   sess,
		Notifier:  notifier,
		Metrics:   metrics,
		Log:       log,
	})

	rt := router.New(scanInterval, router.Deps{
		Scanner:   sc,
		Positions: eng,
		Session:   sess,
		Replier:   notifier,
		Metrics:   metrics,
		Log:       log,
	})

	a := app.New(app.Intervals{
		Scan: scanInterval,
		Tick: time.Duration(cfg.Bot.TickIntervalSec) * time.Second,
		Push: time.Duration(cfg.Bot.PositionUpdateSec) * time.Second,
	}, app.Deps{
		Poller:    tg,
		Router:    rt,
		Scanner:   sc,
		Positions: eng,
		Log:       log,
	})

	if err := a.Run(ctx); err != nil {
		log.WithError(err).Fatal("Цикл бота завершился с ошибкой.")
	}

	log.Info("Бот остановлен.")
}

func openSource(ctx context.Context, cfg *config.Config, scanInterval time.Duration, log *logger.Logger) (market.Source, func(), error) {
	if cfg.Market.Source == "ws" {
		stream := dexscreener.NewStream(cfg.Market.WSURL, 3*scanInterval, log)
		if err := stream.Connect(ctx); err != nil {
			return nil, nil, err
		}
		return stream, func() { _ = stream.Close() }, nil
	}
	timeout := time.Duration(cfg.Market.TimeoutSec) * time.Second
	return dexscreener.New(cfg.Market.BaseURL, cfg.Market.SearchQuery, timeout, log), func() {}, nil
}
