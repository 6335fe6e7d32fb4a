// @title                       Canteen API
// @version                     1.0
// @description                 Student wallet, cart and checkout for the school canteen.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/schoolcanteen/canteen-system/internal/api"
	"github.com/schoolcanteen/canteen-system/internal/api/handler"
	"github.com/schoolcanteen/canteen-system/internal/core/domain"
	"github.com/schoolcanteen/canteen-system/internal/core/service"
	"github.com/schoolcanteen/canteen-system/internal/infrastructure/db/mongo"
	"github.com/schoolcanteen/canteen-system/internal/infrastructure/db/redis"
	"github.com/schoolcanteen/canteen-system/internal/infrastructure/queue"
	"github.com/schoolcanteen/canteen-system/internal/pkg/config"
	"github.com/schoolcanteen/canteen-system/pkg/logger"
)

//go:embed products.json
var defaultCatalog []byte

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "canteen-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connect failed")
	}
	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("mongo indexes failed")
	}

	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connect failed")
	}

	percent, err := decimal.NewFromString(cfg.Shop.TicketDiscountPercent)
	if err != nil {
		log.Fatal().Err(err).Str("value", cfg.Shop.TicketDiscountPercent).Msg("invalid TICKET_DISCOUNT_PERCENT")
	}

	// --- Gateway ---
	feed := redis.NewWalletFeed(rdb, logger.Component(log, "wallet_feed"))
	wallets := mongo.NewWalletRepository(db, feed, logger.Component(log, "wallets"))
	accounts := mongo.NewAccountRepository(db)
	purchases := mongo.NewPurchaseRepository(db)
	products := mongo.NewProductRepository(db)
	cards := mongo.NewCardRepository(db)
	receipts := redis.NewReceiptStore(rdb)

	dispatcher := queue.NewDispatcher(cfg.Shop.DispatchWorkers, feed, logger.Component(log, "dispatcher"))
	dispatcher.Start(ctx)
	go func() {
		if err := feed.Run(ctx, dispatcher); err != nil {
			log.Error().Err(err).Msg("wallet feed stopped")
		}
	}()

	// --- Services ---
	catalog := service.NewCatalogService(products, logger.Component(log, "catalog"))
	if err := seedCatalog(ctx, catalog); err != nil {
		log.Fatal().Err(err).Msg("catalog seed failed")
	}

	sessions := service.NewSessionRegistry(wallets, feed, accounts, cfg.Shop.AccrualInterval, logger.Component(log, "sessions"))
	checkout := service.NewCheckoutService(purchases, receipts, domain.PercentPerTicket(percent), logger.Component(log, "checkout"))
	shop := service.NewShopService(sessions, products, checkout, logger.Component(log, "shop"))

	e := api.NewRouter(api.Dependencies{
		Auth:     service.NewAuthService(accounts, cfg.JWTSecret, cfg.TokenTTL),
		Shop:     shop,
		Accounts: service.NewAccountService(accounts, wallets, sessions, logger.Component(log, "accounts")),
		Catalog:  catalog,
		History:  service.NewHistoryService(purchases),
		Cards:    service.NewCardService(cards, logger.Component(log, "cards")),
		HealthChecks: map[string]handler.HealthCheck{
			"mongodb": mongo.Ping(db),
			"redis":   redis.Ping(rdb),
		},
		JWTSecret: cfg.JWTSecret,
		Log:       logger.Component(log, "http"),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("canteen api listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	sessions.CloseAll()
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("redis close")
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect")
	}
}

func seedCatalog(ctx context.Context, catalog *service.CatalogService) error {
	var seed []domain.Product
	if err := json.Unmarshal(defaultCatalog, &seed); err != nil {
		return fmt.Errorf("decode default catalog: %w", err)
	}
	_, err := catalog.SeedIfEmpty(ctx, seed)
	return err
}
