package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/fulfillment-sync/internal/application/jobs"
	"github.com/jhoicas/fulfillment-sync/internal/application/orders"
	"github.com/jhoicas/fulfillment-sync/internal/application/outbound"
	"github.com/jhoicas/fulfillment-sync/internal/application/reconcile"
	"github.com/jhoicas/fulfillment-sync/internal/infrastructure/alert"
	"github.com/jhoicas/fulfillment-sync/internal/infrastructure/mailer"
	"github.com/jhoicas/fulfillment-sync/internal/infrastructure/postgres"
	"github.com/jhoicas/fulfillment-sync/internal/infrastructure/shipwise"
	httpRouter "github.com/jhoicas/fulfillment-sync/internal/interfaces/http"
	"github.com/jhoicas/fulfillment-sync/pkg/config"
	"github.com/jhoicas/fulfillment-sync/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Repositorios
	stockRepo := postgres.NewStockRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	geoRepo := postgres.NewGeoRepository(pool)
	runRepo := postgres.NewSyncRunRepository(pool)

	// Proveedor de fulfillment
	swClient := shipwise.NewClient(shipwise.Config{
		BaseURL: cfg.Shipwise.BaseURL,
		APIKey:  cfg.Shipwise.APIKey,
		Timeout: cfg.Shipwise.Timeout,
	})
	feed := shipwise.NewFeedService(swClient)
	gateway := shipwise.NewGateway(swClient, geoRepo)

	// Canales de notificación
	alerter := alert.NewSlackAlerter(alert.Config{
		WebhookURL: cfg.Slack.WebhookURL,
		Channel:    cfg.Slack.Channel,
		Username:   cfg.Slack.Username,
	}, log)
	mailCfg := mailer.Config{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		To:       cfg.Mail.To,
	}
	reportMailer := mailer.NewSMTPMailer(mailCfg, log)
	reviewSender := mailer.NewReviewNotifier(mailCfg, orderRepo, log)

	// Jobs + dispatcher saliente
	runner := jobs.NewRunner(log, cfg.Sync.PostRetries)
	dispatcher := outbound.NewDispatcher(orderRepo, gateway, log)
	enqueuer := jobs.NewEnqueuer(ctx, runner, dispatcher, log)
	notifier := jobs.NewReviewEnqueuer(ctx, runner, reviewSender)

	orderSvc := orders.NewService(orderRepo, enqueuer, log)

	// Motores de reconciliación
	inventoryRec := reconcile.NewInventoryReconciler(stockRepo, orderRepo, alerter, log)
	shipmentRec := reconcile.NewShipmentReconciler(orderRepo, geoRepo, orderSvc, notifier, reportMailer, log)
	returnsRec := reconcile.NewReturnsReconciler(orderRepo, orderSvc, log)

	puller := reconcile.NewPuller(feed, runRepo, inventoryRec, shipmentRec, returnsRec, reconcile.PullerConfig{
		OrdersWindow:  cfg.Sync.OrdersWindow,
		ReturnsWindow: cfg.Sync.ReturnsWindow,
	}, log)

	// Pulls periódicos
	runner.Every(ctx, "inventory_puller", cfg.Sync.InventoryInterval, func(ctx context.Context) error {
		_, err := puller.PullInventory(ctx)
		return err
	})
	runner.Every(ctx, "orders_puller", cfg.Sync.OrdersInterval, func(ctx context.Context) error {
		_, err := puller.PullOrders(ctx)
		return err
	})
	runner.Every(ctx, "returns_puller", cfg.Sync.ReturnsInterval, func(ctx context.Context) error {
		_, err := puller.PullReturns(ctx)
		return err
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	syncHandler := httpRouter.NewSyncHandler(ctx, puller, runRepo, runner)
	httpRouter.Router(app, httpRouter.RouterDeps{
		Sync:      syncHandler,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	runner.Wait()
	log.Info().Msg("aplicación detenida")
}
