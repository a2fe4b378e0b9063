package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/negocio-inventario/internal/application/inventory"
	"github.com/jhoicas/negocio-inventario/internal/application/ports"
	"github.com/jhoicas/negocio-inventario/internal/application/recipe"
	"github.com/jhoicas/negocio-inventario/internal/application/reconcile"
	"github.com/jhoicas/negocio-inventario/internal/application/shift"
	"github.com/jhoicas/negocio-inventario/internal/domain/folio"
	"github.com/jhoicas/negocio-inventario/internal/infrastructure/memory"
	"github.com/jhoicas/negocio-inventario/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/negocio-inventario/internal/interfaces/http"
	"github.com/jhoicas/negocio-inventario/internal/observability"
	"github.com/jhoicas/negocio-inventario/pkg/config"
	"github.com/jhoicas/negocio-inventario/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config: " + err.Error())
	}

	appLog := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
	log := appLog.Zerolog()
	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Env).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	loc, err := cfg.Folio.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("zona horaria de folios")
	}
	folios := folio.NewGenerator(loc)

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics()
	}

	ctx := context.Background()
	txRunner, closeStore := openStore(ctx, cfg, appLog, metrics)
	defer closeStore()

	var saleMetrics inventory.Recorder
	if metrics != nil {
		saleMetrics = metrics
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(appLog.Component("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Negocio Inventario API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		SaleInventory:    inventory.NewSaleInventoryUseCase(txRunner, folios, log, saleMetrics),
		RegisterMovement: inventory.NewRegisterMovementUseCase(txRunner, folios, log),
		Movements:        inventory.NewMovementUseCase(txRunner, folios, log),
		Replenishment:    inventory.NewReplenishmentUseCase(txRunner),
		Recipes:          recipe.NewUseCase(txRunner, folios, log),
		Shifts:           shift.NewUseCase(txRunner, folios, log),
		Metrics:          metrics,
		JWTSecret:        cfg.JWT.Secret,
		ServiceName:      cfg.App.Name,
		Log:              log,
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

	log.Info().Msg("aplicación detenida")
}

// openStore construye el TxRunner según STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config, appLog *logger.Logger, metrics *observability.Metrics) (ports.TxRunner, func()) {
	log := appLog.Zerolog()
	recorder := reconcileRecorder(metrics)

	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		store := memory.NewStore(appLog.Component("memory"), recorder)
		if cfg.Store.MemorySeed != "" {
			f, err := os.Open(cfg.Store.MemorySeed)
			if err != nil {
				log.Fatal().Err(err).Str("seed", cfg.Store.MemorySeed).Msg("abrir semilla")
			}
			defer f.Close()
			if err := store.LoadSeed(f); err != nil {
				log.Fatal().Err(err).Str("seed", cfg.Store.MemorySeed).Msg("cargar semilla")
			}
		}
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
		return store, func() {}
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a base de datos")
		}
		log.Info().Msg("conexión a PostgreSQL establecida")
		return postgres.NewTxRunner(pool, appLog.Component("postgres"), recorder), pool.Close
	}
}

// reconcileRecorder evita pasar un *Metrics nil envuelto en la interfaz.
func reconcileRecorder(m *observability.Metrics) reconcile.Recorder {
	if m == nil {
		return nil
	}
	return m
}
