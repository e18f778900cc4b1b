package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/olliwhaller-hue/newborbbq-bot/internal/bot"
	"github.com/olliwhaller-hue/newborbbq-bot/internal/catalog"
	"github.com/olliwhaller-hue/newborbbq-bot/internal/config"
	"github.com/olliwhaller-hue/newborbbq-bot/internal/db"
	"github.com/olliwhaller-hue/newborbbq-bot/internal/draft"
	"github.com/olliwhaller-hue/newborbbq-bot/internal/export"
	"github.com/olliwhaller-hue/newborbbq-bot/internal/health"
	"github.com/olliwhaller-hue/newborbbq-bot/internal/logger"
	"github.com/olliwhaller-hue/newborbbq-bot/internal/metrics"
	"github.com/olliwhaller-hue/newborbbq-bot/internal/model"
	"github.com/olliwhaller-hue/newborbbq-bot/internal/repository"
	"github.com/olliwhaller-hue/newborbbq-bot/internal/service"
	"github.com/olliwhaller-hue/newborbbq-bot/internal/token"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	// 1. Конфиг: .env, YAML, переменные окружения.
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logg, err := logger.New(cfg.Logging.Level, cfg.App.Environment)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logg.Sync()

	if err := run(cfg, logg); err != nil {
		// Fatal не выполнил бы defer, поэтому Sync вручную
		logg.Error("bot stopped", zap.Error(err))
		_ = logg.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Bot.Location()
	if err != nil {
		logg.Warn("fall back to local timezone", zap.Error(err))
	}

	// 2. Справочник домов.
	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}

	// 3. Подключаемся к БД через GORM и мигрируем схему.
	gormDB, err := db.NewGormDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}
	if err := model.AutoMigrate(gormDB); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("sql DB: %w", err)
	}
	defer sqlDB.Close()

	// 4. Черновики: Redis, если доступен, иначе память процесса.
	probes := []health.Probe{{Name: "db", Check: func(ctx context.Context) error { return db.Ping(ctx, gormDB) }}}
	var drafts draft.Store
	if cfg.Redis.Address != "" {
		client := draft.NewRedisClient(cfg.Redis)
		if err := draft.Ping(ctx, client); err != nil {
			logg.Warn("redis unavailable, drafts kept in memory", zap.Error(err))
			client.Close()
		} else {
			defer client.Close()
			drafts = draft.NewRedisStore(client, cfg.Redis.DraftTTL())
			probes = append(probes, health.Probe{Name: "redis", Check: func(ctx context.Context) error { return draft.Ping(ctx, client) }})
		}
	}
	if drafts == nil {
		mem := draft.NewMemoryStore(cfg.Redis.DraftTTL())
		go mem.Run(ctx, time.Minute)
		drafts = mem
	}

	// 5. Ядро.
	m := metrics.New()
	repo := repository.NewGormReservationRepository(gormDB)
	svc := service.NewSelectionService(repo, cat, drafts, service.Options{
		Logger:            logg,
		Recorder:          m,
		Exporter:          export.NewXLSXExporter(repo),
		Location:          loc,
		IsAdmin:           cfg.IsAdmin,
		ExportDaysBack:    cfg.Exports.DaysBack,
		ExportDaysForward: cfg.Exports.DaysForward,
	})

	// 6. Telegram: авторизация до запуска серверов.
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	api.Debug = cfg.Telegram.Debug
	logg.Info("authorized", zap.String("account", api.Self.UserName))

	// 7. Метрики и health. Останавливаются на любом выходе из run.
	srv := &servers{}
	defer srv.stop(logg)

	srv.metrics, err = startMetrics(cfg.Monitoring.PrometheusPort, m, logg)
	if err != nil {
		return err
	}
	checker := health.NewChecker(logg, probes...)
	go checker.Run(ctx, 30*time.Second)
	srv.grpc, err = startHealth(cfg.Monitoring.HealthGRPCPort, checker, logg)
	if err != nil {
		return err
	}

	limiter := bot.NewUserLimiter(cfg.Bot.RatePerSecond, cfg.Bot.Burst)
	go limiter.Run(ctx, time.Minute, 10*time.Minute)

	b := bot.New(api, svc, bot.Options{
		Logger:      logg,
		Metrics:     m,
		Limiter:     limiter,
		MaxWorkers:  cfg.Bot.MaxWorkers,
		PollTimeout: cfg.Telegram.Timeout,
	})
	b.Run(ctx)

	// 8. Грейсфул-шатдаун по сигналу: серверы гасит defer.
	logg.Info("shutting down")
	return nil
}

// servers: запущенные вспомогательные серверы; nil означает выключенный.
type servers struct {
	grpc    *grpc.Server
	metrics *http.Server
}

func (s *servers) stop(logg *zap.Logger) {
	if s.grpc != nil {
		s.grpc.GracefulStop()
	}
	if s.metrics != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.metrics.Shutdown(shutdownCtx); err != nil {
			logg.Warn("metrics shutdown", zap.Error(err))
		}
	}
}

func loadCatalog(path string) (catalog.Catalog, error) {
	var (
		cat *catalog.Static
		err error
	)
	if path == "" {
		cat, err = catalog.Default(token.CheckLabels)
	} else {
		cat, err = catalog.Load(path, token.CheckLabels)
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, nil
}

func startMetrics(port int, m *metrics.Metrics, logg *zap.Logger) (*http.Server, error) {
	if port <= 0 {
		return nil, nil
	}
	addr := fmt.Sprintf(":%d", port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logg.Info("metrics listening", zap.String("addr", addr))
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error("metrics server", zap.Error(err))
		}
	}()
	return srv, nil
}

func startHealth(port int, checker *health.Checker, logg *zap.Logger) (*grpc.Server, error) {
	if port <= 0 {
		return nil, nil
	}
	addr := fmt.Sprintf(":%d", port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, checker.Server())
	reflection.Register(grpcServer)

	go func() {
		logg.Info("health gRPC server listening", zap.String("addr", addr))
		if err := grpcServer.Serve(lis); err != nil {
			logg.Error("grpc serve", zap.Error(err))
		}
	}()
	return grpcServer, nil
}
