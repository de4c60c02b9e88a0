package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"tradestream/config"
	"tradestream/internal/publish"
	"tradestream/internal/stream"
	"tradestream/internal/tools"
	"tradestream/logger"
	"tradestream/pkg/alpaca"
	"tradestream/pkg/storage/postgres"
)

func main() {
	// .env for local development, ignored when absent
	_ = godotenv.Load()

	// viper config
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// zap logger, stderr only: stdout is the protocol channel
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	opts := stream.Options{
		Logger:      log,
		Connect:     makeConnect(cfg, log),
		DefaultFeed: alpaca.Feed(cfg.Alpaca.Feed),
	}

	// Credentials resolve lazily per connection, so the trading client is
	// wired the same way only if they resolve now; without them the data
	// tools still work and the order tool reports the missing capability.
	if key, secret, err := config.AlpacaCredentials(cfg.Log.Environment); err == nil {
		opts.Orders = alpaca.NewRESTClient(cfg.Alpaca.TradeURL, key, secret, cfg.Alpaca.Timeout)
	} else {
		log.Warn("trading credentials unavailable, order placement disabled", zap.Error(err))
	}

	if cfg.Recorder.Enabled {
		pg, err := postgres.InitializeAndMigrateBarRecord(cfg.Postgres, cfg.Log.Environment, cfg.Recorder.CreateDB)
		if err != nil {
			log.Fatal("failed to initialize postgres", zap.Error(err))
		}
		defer pg.Close()
		opts.Bars = pg
		log.Info("bar recorder enabled", zap.String("host", cfg.Postgres.Host))
	}

	if cfg.NATS.Enabled {
		pub, err := publish.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix, log)
		if err != nil {
			log.Fatal("failed to connect to nats", zap.Error(err))
		}
		defer pub.Close()
		opts.Publisher = pub
		log.Info("nats fan-out enabled", zap.String("url", cfg.NATS.URL))
	}

	manager := stream.NewManager(opts)

	log.Info("starting tradestream mcp server",
		zap.String("feed", cfg.Alpaca.Feed),
		zap.String("environment", cfg.Log.Environment))

	if err := server.ServeStdio(tools.NewServer(manager, log)); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

// makeConnect resolves credentials at connection time, so a key rotated or
// supplied after startup is picked up by the next stream start.
func makeConnect(cfg *config.Config, log *zap.Logger) stream.ConnectFunc {
	return func(feed alpaca.Feed) (stream.MarketStream, error) {
		key, secret, err := config.AlpacaCredentials(cfg.Log.Environment)
		if err != nil {
			return nil, fmt.Errorf("resolve credentials: %w", err)
		}
		url := alpaca.StreamURL(cfg.Alpaca.StreamURL, feed)
		return alpaca.NewWSClient(url, key, secret, log), nil
	}
}
