package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doctrack-platform/internal/config"
	"doctrack-platform/internal/docref"
	"doctrack-platform/internal/document"
	"doctrack-platform/internal/geo"
	"doctrack-platform/internal/handler"
	"doctrack-platform/internal/hitlog"
	"doctrack-platform/internal/middleware"
	"doctrack-platform/pkg/database"
	auth "doctrack-platform/pkg/jwt"
	"doctrack-platform/pkg/logger"
	"doctrack-platform/pkg/redis"
	"doctrack-platform/web"

	_ "doctrack-platform/docs"

	"github.com/gin-gonic/gin"
	redisClient "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title 文档追踪服务 API
// @version 1.0
// @description 生成带追踪链接的 PNG/PDF 文档并记录访问
// @BasePath /
func main() {
	defaultPath := "configs/config.yaml"
	if p, ok := os.LookupEnv("CONFIG_PATH"); ok {
		defaultPath = p
	}
	configPath := flag.String("config", defaultPath, "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置加载失败: %v\n", err)
		os.Exit(1)
	}

	logger.InitLogger(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer func() {
		if err := logger.Logger.Sync(); err != nil {
			fmt.Println("日志同步失败:", err)
		}
	}()
	sugaredLogger := zap.S()

	db, err := database.Open(database.Options{
		Driver:   cfg.Database.Driver,
		Path:     cfg.Database.Path,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Name:     cfg.Database.Name,
		Charset:  cfg.Database.Charset,
	})
	if err != nil {
		sugaredLogger.Fatalf("数据库初始化失败: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			sugaredLogger.Errorf("关闭数据库失败: %v", err)
		}
	}()
	sugaredLogger.Infof("✅ 数据库连接成功 (%s)", cfg.Database.Driver)

	var rdb *redisClient.Client
	if cfg.Cache.Host != "" {
		rdb, err = redis.NewRedisClient(&redis.Options{
			Host:     cfg.Cache.Host,
			Port:     cfg.Cache.Port,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
			PoolSize: cfg.Cache.PoolSize,
		})
		if err != nil {
			sugaredLogger.Warnf("缓存连接失败, 限流使用进程内计数: %v", err)
			rdb = nil
		} else {
			defer func() {
				if err := rdb.Close(); err != nil {
					sugaredLogger.Errorf("关闭 Redis 连接失败: %v", err)
				}
			}()
			sugaredLogger.Info("✅ 缓存连接成功")
		}
	}

	store, err := document.NewStore(cfg.Storage.OutputDir)
	if err != nil {
		sugaredLogger.Fatalf("输出目录初始化失败: %v", err)
	}

	tokenManager := auth.NewManager(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.ExpirationHours)
	authHandler, err := handler.NewAuthHandler(tokenManager, cfg.Auth.AdminPassword, cfg.Auth.CookieName, cfg.App.Mode == "production")
	if err != nil {
		sugaredLogger.Fatalf("认证初始化失败: %v", err)
	}

	recorder := hitlog.NewRecorder(db, cfg.Tracking.LogLimit)
	resolver := geo.NewResolver(cfg.Geo.BaseURL, time.Duration(cfg.Geo.TimeoutSeconds)*time.Second, sugaredLogger)
	generator := document.NewGenerator(store, docref.NewGenerator(), cfg.Storage.MaxPixels, sugaredLogger)

	if cfg.App.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.GinZapRecovery(logger.Logger, true))
	router.Use(middleware.GinZapLogger(logger.Logger))
	router.MaxMultipartMemory = cfg.Storage.MaxUploadBytes()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		sugaredLogger.Fatalf("可信代理配置错误: %v", err)
	}

	tmpl, err := web.Templates()
	if err != nil {
		sugaredLogger.Fatalf("模板加载失败: %v", err)
	}
	router.SetHTMLTemplate(tmpl)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.Use(middleware.RateLimit(rdb, &cfg.RateLimit, "global"))

	handler.RegisterRoutes(router, handler.Routes{
		Documents:  handler.NewDocumentHandler(generator, recorder, cfg.App.BaseURL, cfg.Tracking.LogLimit, cfg.Storage.MaxUploadBytes(), sugaredLogger),
		Delivery:   handler.NewDeliveryHandler(store, recorder, resolver, cfg.Tracking.RedirectURL, sugaredLogger),
		Auth:       authHandler,
		Session:    middleware.Session(tokenManager, cfg.Auth.CookieName),
		ClickLimit: middleware.RateLimit(rdb, &cfg.ClickLimit, "click"),
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		sugaredLogger.Infof("🚀 服务启动成功, 监听 %s", server.Addr)
		sugaredLogger.Infof("📚 Swagger 文档地址: http://localhost:%d/swagger/index.html", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugaredLogger.Fatalf("服务启动失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		sugaredLogger.Errorf("服务关闭失败: %v", err)
	}
	sugaredLogger.Info("服务已停止")
}
