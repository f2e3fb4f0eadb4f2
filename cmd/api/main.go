package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jhoicas/tienda-pos/internal/application/chatbot"
	"github.com/jhoicas/tienda-pos/internal/application/inventory"
	"github.com/jhoicas/tienda-pos/internal/application/ports"
	"github.com/jhoicas/tienda-pos/internal/application/sales"
	"github.com/jhoicas/tienda-pos/internal/application/usecase"
	"github.com/jhoicas/tienda-pos/internal/bootstrap"
	infraai "github.com/jhoicas/tienda-pos/internal/infrastructure/ai"
	infracache "github.com/jhoicas/tienda-pos/internal/infrastructure/cache"
	infrapdf "github.com/jhoicas/tienda-pos/internal/infrastructure/pdf"
	httpRouter "github.com/jhoicas/tienda-pos/internal/interfaces/http"
	"github.com/jhoicas/tienda-pos/pkg/config"
	"github.com/jhoicas/tienda-pos/pkg/logger"
	"github.com/jhoicas/tienda-pos/pkg/telemetry"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	zl := log.Zerolog()
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar trazas")
	}

	storage, err := bootstrap.OpenStorage(ctx, cfg.DB, cfg.DB.AutoMigrate, zl)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacenamiento")
	}
	defer storage.Close()

	checks := map[string]httpRouter.Pinger{"db": pingFunc(storage.Ping)}

	// Caché opcional de estadísticas; si Redis no responde se sigue sin caché.
	var statsCache ports.Cache
	if cfg.Redis.URL != "" {
		rc, err := infracache.NewRedisCache(ctx, cfg.Redis.URL, cfg.App.Name+":")
		if err != nil {
			log.Warn().Err(err).Msg("redis no disponible, estadísticas sin caché")
		} else {
			defer rc.Close()
			statsCache = rc
			checks["redis"] = rc
		}
	}

	// Respaldo LLM del chatbot solo con API key.
	var llm ports.LLMService
	if cfg.AI.APIKey != "" {
		llm = infraai.NewAnthropicService(cfg.AI.APIKey, cfg.AI.Model)
	}

	processSale := sales.NewProcessSaleUseCase(storage.TxRunner, sales.Config{
		MaxAttempts:  cfg.Sales.MaxAttempts,
		RetryBackoff: cfg.Sales.RetryBackoff,
		MaxLines:     cfg.Sales.MaxLines,
	}, zl, telemetry.Tracer("tienda-pos/sales"))
	saleQuery := sales.NewQueryUseCase(storage.Sales)
	receiptUC := sales.NewReceiptUseCase(saleQuery, infrapdf.NewReceiptGenerator(), cfg.App.StoreName)
	productUC := usecase.NewProductUseCase(storage.Products, storage.TxRunner, zl)
	statsUC := usecase.NewStatsUseCase(storage.Stats, statsCache, cfg.Redis.StatsTTL, zl)
	chatbotUC := chatbot.NewUseCase(storage.Products, statsUC, llm, zl)
	replenishmentUC := inventory.NewReplenishmentUseCase(storage.Products, storage.Stats)

	app := httpRouter.NewApp(httpRouter.ServerConfig{
		Name:        cfg.App.Name,
		SwaggerFile: "./docs/swagger.json",
	}, zl, httpRouter.RouterDeps{
		Sales:     httpRouter.NewSaleHandler(processSale, saleQuery, receiptUC),
		Products:  httpRouter.NewProductHandler(productUC),
		Stats:     httpRouter.NewStatsHandler(statsUC),
		Inventory: httpRouter.NewInventoryHandler(replenishmentUC),
		Chatbot:   httpRouter.NewChatbotHandler(chatbotUC),
		Checks:    checks,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("vaciar trazas")
	}

	log.Info().Msg("aplicación detenida")
}
