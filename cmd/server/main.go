package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/config"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/api/handler"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/api/router"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/dining"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/model"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/repository"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/service"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/pkg/database"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/pkg/jwt"
	applogger "github.com/Cyoyuu/UMass-SmartDine-Finder/pkg/logger"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config/config.yaml）")
	rollback := flag.Int("rollback", 0, "回滚指定步数的数据库迁移后退出")
	grantAdmin := flag.String("grant-admin", "", "将指定用户名设为管理员后退出")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log, cfg.Server.Location())
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("timezone", cfg.Server.Timezone),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level == "debug", logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if *rollback > 0 {
		if err := database.RollbackMigrations(sqlDB, *rollback, logger); err != nil {
			logger.Fatal("数据库迁移回滚失败", zap.Error(err))
		}
		sqlDB.Close()
		return
	}
	if cfg.Feature.MigrateOnLaunch {
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			logger.Fatal("数据库迁移失败", zap.Error(err))
		}
	}

	// 3.2 初始化管理员（首个管理员只能通过命令行授予）
	if *grantAdmin != "" {
		if err := promoteAdmin(repository.NewRepository(db), *grantAdmin); err != nil {
			logger.Fatal("授予管理员失败", zap.String("username", *grantAdmin), zap.Error(err))
		}
		logger.Info("已授予管理员", zap.String("username", *grantAdmin))
		sqlDB.Close()
		return
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单、共享菜单缓存与分布式限流将不可用", zap.Error(err))
		rdb = nil
	}

	// 5. 初始化 JWT 管理器与推荐引擎
	jwtMgr := jwt.NewManager(&cfg.Auth)

	schedule, err := cfg.Dining.MealSchedule()
	if err != nil {
		logger.Fatal("餐段配置无效", zap.Error(err))
	}
	engine, err := dining.NewEngine(schedule, cfg.Dining.ScoringConfig())
	if err != nil {
		logger.Fatal("推荐引擎初始化失败", zap.Error(err))
	}

	// 6. 依赖注入: Repository → Service → Handler
	deps := service.Deps{
		Config: cfg,
		Repo:   repository.NewRepository(db),
		JWT:    jwtMgr,
		Engine: engine,
		Logger: logger,
	}
	// rdb 为 nil 时保持接口为 nil，避免 typed nil
	if rdb != nil {
		deps.Blacklist = rdb
		deps.Snapshots = rdb
	}
	svc := service.NewService(deps)
	h := handler.NewHandler(svc)

	// 7. 初始化路由
	r := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 8. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second, // Excel 导出可能较慢
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	sqlDB.Close()
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}

func promoteAdmin(repo *repository.Repository, username string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := repo.User.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return repo.User.UpdateRole(ctx, user.UserID, model.RoleAdmin, user.UserID)
}
