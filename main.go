package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"fintrack/api"
	"fintrack/config"
	"fintrack/database"
	"fintrack/ledger"
	"fintrack/logger"
	"fintrack/middleware"
	"fintrack/router"
	"fintrack/service"
)

// @title FinTrack 个人理财 API
// @version 1.0
// @description 收支记账、储蓄目标与成就系统
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const version = "1.0.0"

var (
	configFile  string
	port        string
	showVersion bool
)

func init() {
	flag.StringVar(&configFile, "config", "", "外部配置文件路径（可选）")
	flag.StringVar(&configFile, "c", "", "外部配置文件路径（简写）")
	flag.StringVar(&port, "port", "", "监听端口，如: 8080 或 :8080")
	flag.StringVar(&port, "p", "", "监听端口（简写）")
	flag.BoolVar(&showVersion, "version", false, "显示版本信息")
	flag.BoolVar(&showVersion, "v", false, "显示版本信息（简写）")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Printf("fintrack v%s\n", version)
		return
	}

	// 加载配置（内置配置 + 可选的外部配置覆盖）
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		slog.Error("加载配置失败", "error", err)
		os.Exit(1)
	}

	// 命令行参数覆盖端口配置
	if port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Server.Port = port
	}

	logger.Init(cfg)
	defer sentry.Flush(2 * time.Second)

	config.PrintConfig()

	if err := database.Init(cfg); err != nil {
		slog.Error("数据库初始化失败", "error", err)
		os.Exit(1)
	}

	middleware.InitJWT(cfg)

	store := ledger.NewGormStore(database.DB)
	achievements := service.NewAchievementService(store)
	trigger := service.NewAchievementTrigger(achievements, store, cfg.Achievement.EvaluationTimeout)
	goals := service.NewGoalService(store, trigger)

	r := router.SetupRouter(cfg, router.Handlers{
		Auth:        api.NewAuthHandler(cfg),
		Goal:        api.NewGoalHandler(goals),
		Achievement: api.NewAchievementHandler(achievements),
		Expense:     api.NewExpenseHandler(trigger),
		Income:      api.NewIncomeHandler(trigger),
		Summary:     api.NewSummaryHandler(store),
		Export:      api.NewExportHandler(goals),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("服务已启动",
			"addr", cfg.Server.Port,
			"swagger", fmt.Sprintf("http://localhost%s/swagger/index.html", cfg.Server.Port),
			"api", fmt.Sprintf("http://localhost%s/api/v1/", cfg.Server.Port),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("服务器启动失败", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("正在关闭服务")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP 服务关闭失败", "error", err)
	}
	// 请求已全部结束，再等待后台成就评估
	if err := trigger.Shutdown(ctx); err != nil {
		slog.Warn("等待成就评估超时", "error", err)
	}
	slog.Info("服务已退出")
}
