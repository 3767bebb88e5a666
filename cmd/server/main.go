package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fadilmartias/dealer-feedback/internal/config"
	"github.com/fadilmartias/dealer-feedback/internal/domain/fiber/handler"
	applogger "github.com/fadilmartias/dealer-feedback/internal/logger"
	"github.com/fadilmartias/dealer-feedback/internal/middleware"
	"github.com/fadilmartias/dealer-feedback/internal/model"
	"github.com/fadilmartias/dealer-feedback/internal/repository"
	"github.com/fadilmartias/dealer-feedback/internal/scheduler"
	"github.com/fadilmartias/dealer-feedback/internal/service"
	"github.com/fadilmartias/dealer-feedback/internal/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Could not load .env file")
	}

	appConfig := config.LoadAppConfig()
	zlog := applogger.New(appConfig.LogLevel, appConfig.LogFormat)
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := ConnectDB(zlog)
	sqlDB, err := db.DB()
	if err != nil {
		zlog.Fatal("could not get database instance", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName: appConfig.Name,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError

			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			message := err.Error()
			if message == "" {
				message = "Internal Server Error"
			}

			return ctx.Status(code).JSON(fiber.Map{"success": false, "message": message})
		},
	})
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: !appConfig.IsProduction(),
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(pprof.New(pprof.Config{
		Next: func(c *fiber.Ctx) bool {
			return appConfig.IsProduction()
		},
	}))
	app.Use(healthcheck.New(healthcheck.Config{
		ReadinessProbe: func(c *fiber.Ctx) bool {
			return sqlDB.PingContext(c.UserContext()) == nil
		},
	}))
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.RateLimiter(50, 1*time.Minute))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	soldVehicleRepo := repository.NewSoldVehicleRepository(db)
	lock, closeRedis := submissionLock(ctx, zlog)
	defer closeRedis()

	feedbackConfig := config.LoadFeedbackConfig()
	if feedbackConfig.ReviewURL == "" {
		zlog.Warn("FEEDBACK_REVIEW_URL is not set, positive ratings will have nowhere to go")
	}
	feedbackUC := usecase.NewFeedbackUsecase(soldVehicleRepo, lock, feedbackConfig, zlog)
	handler.NewFeedbackHandler(feedbackUC, zlog).RegisterRoutes(app)

	notifyConfig := config.LoadNotificationConfig()
	notifier, err := service.NewNotificationService(ctx, notifyConfig, zlog)
	if err != nil {
		zlog.Fatal("could not build notification service", zap.Error(err))
	}
	followUpUC := usecase.NewFollowUpUsecase(soldVehicleRepo, notifier, feedbackConfig, notifyConfig.AlertBatchSize, zlog)
	if !handler.NewFollowUpHandler(followUpUC).RegisterRoutes(app, config.LoadAdminConfig()) {
		zlog.Info("ADMIN_USER/ADMIN_PASSWORD not set, admin routes disabled")
	}

	var alerts *scheduler.AlertScheduler
	if notifier.Provider() == config.NotifyProviderNone {
		zlog.Info("NOTIFY_PROVIDER is none, manager alert dispatch disabled")
	} else {
		alerts = scheduler.NewAlertScheduler(followUpUC, notifyConfig.AlertCronSpec, zlog)
		if err := alerts.Start(); err != nil {
			zlog.Fatal("could not start alert scheduler", zap.Error(err))
		}
	}

	go func() {
		<-ctx.Done()
		zlog.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			zlog.Error("server shutdown failed", zap.Error(err))
		}
	}()

	zlog.Info("server running",
		zap.String("port", appConfig.Port),
		zap.String("env", appConfig.Env),
		zap.String("notify_provider", notifier.Provider()),
	)
	if err := app.Listen(appConfig.Port); err != nil {
		zlog.Error("server stopped", zap.Error(err))
	}
	if alerts != nil {
		alerts.Stop()
	}
}

// submissionLock returns the Redis-backed lock when REDIS_ADDR is set and
// the no-op lock otherwise.
func submissionLock(ctx context.Context, zlog *zap.Logger) (usecase.SubmissionLock, func()) {
	redisConfig := config.LoadRedisConfig()
	if !redisConfig.Enabled() {
		zlog.Info("REDIS_ADDR not set, submission lock disabled")
		return repository.NoopSubmissionLock{}, func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     redisConfig.Addr,
		Password: redisConfig.Password,
		DB:       redisConfig.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		// Requests still go through; the lock degrades per call.
		zlog.Warn("redis unreachable at startup", zap.String("addr", redisConfig.Addr), zap.Error(err))
	}
	return repository.NewRedisSubmissionLock(client, redisConfig.SubmitLockTTL, zlog), func() { _ = client.Close() }
}

func ConnectDB(zlog *zap.Logger) *gorm.DB {
	dbConfig := config.LoadDBConfig()
	appConfig := config.LoadAppConfig()

	db, err := gorm.Open(postgres.Open(dbConfig.DSN()), &gorm.Config{})
	if err != nil {
		zlog.Fatal("could not connect to database", zap.Error(err))
	}
	pgDB, err := db.DB()
	if err != nil {
		zlog.Fatal("could not get database instance", zap.Error(err))
	}
	if !appConfig.IsProduction() {
		pgDB.SetMaxIdleConns(5)
		pgDB.SetMaxOpenConns(10)
		pgDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		pgDB.SetMaxIdleConns(20)
		pgDB.SetMaxOpenConns(100)
		pgDB.SetConnMaxLifetime(time.Hour)
	}

	if err := db.AutoMigrate(&model.SoldVehicle{}); err != nil {
		zlog.Fatal("migration failed", zap.Error(err))
	}
	return db
}
