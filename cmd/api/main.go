package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/invorya-transformaciones/internal/application/inventory"
	"github.com/jhoicas/invorya-transformaciones/internal/application/transformation"
	"github.com/jhoicas/invorya-transformaciones/internal/application/usecase"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/repository"
	"github.com/jhoicas/invorya-transformaciones/internal/infrastructure/events"
	"github.com/jhoicas/invorya-transformaciones/internal/infrastructure/memory"
	"github.com/jhoicas/invorya-transformaciones/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/invorya-transformaciones/internal/infrastructure/pdf"
	"github.com/jhoicas/invorya-transformaciones/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/invorya-transformaciones/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/invorya-transformaciones/internal/interfaces/http"
	"github.com/jhoicas/invorya-transformaciones/pkg/config"
	"github.com/jhoicas/invorya-transformaciones/pkg/logger"
)

// storage persistencia elegida al arrancar: PostgreSQL si está configurado, memoria si no.
type storage struct {
	txRunner   inventory.TxRunner
	repos      inventory.TxRepos
	warehouses repository.WarehouseRepository
	ping       func(ctx context.Context) error
	close      func()
}

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
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st := openStorage(ctx, cfg, log)
	defer st.close()

	validator := transformation.NewValidator(st.repos.Templates, st.repos.Orders, st.repos.Stock, st.repos.Items)

	var locker transformation.Locker = memory.NewLocker()
	if cfg.Redis.Address != "" {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		locker = infraredis.NewLocker(rdb)
		log.Info().Str("addr", cfg.Redis.Address).Msg("bloqueo distribuido de órdenes en Redis")
	}

	var publisher transformation.EventPublisher = events.LogPublisher{Log: log.Component("events")}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.Kafka)
		defer kp.Close()
		publisher = kp
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("eventos publicados en Kafka")
	}

	var (
		engineMetrics  transformation.Metrics
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		reg := metrics.NewRegistry()
		engineMetrics, metricsHandler = reg, reg.Handler()
	}

	templateUC := transformation.NewTemplateUseCase(st.repos.Templates, st.repos.Items, validator)
	orderUC := transformation.NewOrderUseCase(transformation.OrderDeps{
		TxRunner:   st.txRunner,
		Orders:     st.repos.Orders,
		Templates:  st.repos.Templates,
		Warehouses: st.warehouses,
		Items:      st.repos.Items,
		Lineage:    st.repos.Lineage,
		Validator:  validator,
		Reports:    infrapdf.NewMarotoPDFGenerator(),
		Log:        log.Component("orders"),
	})
	poster := inventory.NewStockPoster(st.txRunner, cfg.Ledger.MaxRetries)
	orchestrator := transformation.NewOrchestrator(transformation.OrchestratorDeps{
		TxRunner:  st.txRunner,
		Poster:    poster,
		Validator: validator,
		Locker:    locker,
		LockTTL:   cfg.Redis.LockTTL,
		Events:    publisher,
		Metrics:   engineMetrics,
		Log:       log.Component("orchestrator"),
	})
	stockQuery := inventory.NewStockQueryUseCase(
		inventory.NewStockLedger(st.txRunner, st.repos.Stock, cfg.Ledger.MaxRetries),
		st.repos.Items, st.warehouses, st.repos.Transactions,
	)
	adjustStock := inventory.NewAdjustStockUseCase(poster, st.repos.Items, st.warehouses)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Invorya Transformaciones API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		TemplateUC:   templateUC,
		OrderUC:      orderUC,
		Orchestrator: orchestrator,
		StockQuery:   stockQuery,
		AdjustStock:  adjustStock,
		WarehouseUC:  usecase.NewWarehouseUseCase(st.warehouses),
		ItemUC:       usecase.NewItemUseCase(st.repos.Items),
		JWTSecret:    cfg.JWT.Secret,
		Metrics:      metricsHandler,
		Ping:         st.ping,
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

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) storage {
	if !cfg.DB.Enabled() {
		log.Warn().Msg("sin base de datos configurada: usando almacenamiento en memoria")
		store := memory.NewStore()
		if cfg.App.Env == "development" {
			if err := seedDemo(ctx, store); err != nil {
				log.Fatal().Err(err).Msg("datos de demostración")
			}
			log.Info().Str("company_id", demoCompanyID).Str("warehouse_id", demoWarehouseID).Msg("datos de demostración cargados")
		}
		return storage{
			txRunner:   store,
			repos:      store.Repos(),
			warehouses: store.Warehouses(),
			close:      func() {},
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.DB, cfg.App.Name)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		log.Fatal().Err(err).Msg("migraciones")
	}
	return storage{
		txRunner:   postgres.NewTxRunner(pool),
		repos:      postgres.Repos(pool),
		warehouses: postgres.NewWarehouseRepository(pool),
		ping:       pool.Ping,
		close:      pool.Close,
	}
}
