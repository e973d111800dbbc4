package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"

	"fintrack/config"
)

// Log 全局日志实例
var Log = slog.Default()

// Init 按配置初始化全局日志
// 开发模式默认文本格式，生产模式默认 JSON 格式
// 配置了 sentry_dsn 时 Error 级别日志同时上报 Sentry
func Init(cfg *config.Config) {
	Log = slog.New(newHandler(os.Stdout, cfg))
	slog.SetDefault(Log)
}

func newHandler(w io.Writer, cfg *config.Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Log.Level)}

	var handlers []slog.Handler
	if useJSON(cfg) {
		handlers = append(handlers, slog.NewJSONHandler(w, opts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(w, opts))
	}

	if cfg.Log.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Log.SentryDSN,
			Environment:      cfg.Server.Mode,
			TracesSampleRate: 1.0,
		})
		if err == nil {
			handlers = append(handlers, slogsentry.Option{
				Level: slog.LevelError,
			}.NewSentryHandler())
		} else {
			slog.Warn("Sentry 初始化失败", "error", err)
		}
	}

	if len(handlers) > 1 {
		return slogmulti.Fanout(handlers...)
	}
	return handlers[0]
}

func useJSON(cfg *config.Config) bool {
	switch strings.ToLower(cfg.Log.Format) {
	case "json":
		return true
	case "text":
		return false
	}
	return cfg.IsRelease()
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
