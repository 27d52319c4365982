package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/config"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/entity"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/handler"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/repository"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/service"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/sse"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/middleware"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/shared/feishu"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/shared/mq"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/shared/storage"
	"github.com/casbin/casbin/v2"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting tact-freight portal",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := db.AutoMigrate(entity.AllModels()...); err != nil {
		zapLogger.Fatal("AutoMigrate freight tables failed", zap.Error(err))
	}

	hub := sse.NewHub()
	dispatcher := service.NewDispatcher(zapLogger, cfg.Notification.Workers, cfg.Notification.QueueSize)
	opts := service.Options{
		Logger:     zapLogger,
		Dispatcher: dispatcher,
		Pusher:     hub,
		PortalURL:  cfg.Notification.PortalURL,
	}

	// Redis：跨实例的运单生成互斥
	if cfg.Redis.Host != "" {
		rdb := initRedis(cfg.Redis)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			zapLogger.Warn("Redis unavailable, using in-process synthesis guard", zap.Error(err))
			opts.Guard = service.NewMemoryGuard()
		} else {
			opts.Guard = service.NewRedisGuard(rdb)
			defer rdb.Close()
		}
	} else {
		opts.Guard = service.NewMemoryGuard()
	}

	// RabbitMQ：邮件队列，由 cmd/mailer 消费
	if url := cfg.RabbitMQ.URL(); url != "" {
		rabbit, err := mq.NewRabbitClient(url)
		if err != nil {
			zapLogger.Warn("RabbitMQ unavailable, emails will only be logged", zap.Error(err))
		} else if err := rabbit.CreateQueue(cfg.RabbitMQ.EmailQueue); err != nil {
			zapLogger.Warn("Declare email queue failed", zap.Error(err))
			rabbit.Close()
		} else {
			opts.Mailer = service.NewQueueMailer(rabbit, cfg.RabbitMQ.EmailQueue)
			defer rabbit.Close()
		}
	}

	// Kafka：领域事件
	if len(cfg.Kafka.Brokers) > 0 {
		producer := mq.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, zapLogger)
		opts.Events = producer
		defer producer.Close()
	}

	// 文件存储：优先 MinIO，否则本地 uploads 目录
	if cfg.MinIO.Endpoint != "" {
		store, err := storage.NewMinIOStore(context.Background(), storage.MinIOConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
			PublicURL: cfg.MinIO.PublicURL,
		})
		if err != nil {
			zapLogger.Warn("MinIO unavailable, falling back to local uploads", zap.Error(err))
		} else {
			opts.Files = store
		}
	}
	if opts.Files == nil {
		opts.Files = storage.NewLocalStore(cfg.Server.UploadDir, "/uploads")
	}

	// 飞书团队群
	if cfg.Feishu.AppID != "" {
		client := feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret)
		opts.Team = service.NewFeishuTeamNotifier(client, map[string]string{
			service.TeamSales:      cfg.Feishu.SalesChatID,
			service.TeamPricing:    cfg.Feishu.PricingChatID,
			service.TeamOperations: cfg.Feishu.OperationsChatID,
		})
		zapLogger.Info("Feishu team notifications enabled")
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(db, repos, opts)
	handlers := handler.NewHandlers(services, hub)

	enforcer, err := middleware.NewEnforcer()
	if err != nil {
		zapLogger.Fatal("Failed to init casbin enforcer", zap.Error(err))
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/v1/events"})))

	registerRoutes(router, handlers, enforcer, cfg)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
		// SSE 长连接，不设写超时
		WriteTimeout: 0,
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	// 等待已排队的通知、日志写完
	dispatcher.Close()

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, e *casbin.Enforcer, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// 本地上传的文件
	r.Static("/uploads", cfg.Server.UploadDir)

	api := r.Group("/api/v1", middleware.JWTAuth(cfg.JWT.Secret))
	h.RegisterRoutes(api, e)
}
