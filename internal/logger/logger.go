// 包 logger：统一初始化与获取日志器，避免各模块重复配置；通过环境变量控制日志级别、输出格式与落盘轮转
package logger

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

// 默认日志器：在进程级复用，避免多处初始化导致输出不一致
var (
	defaultLogger atomic.Pointer[slog.Logger]
	lazyOnce      sync.Once
)

// Setup：初始化默认日志器
// 背景：集中化日志配置，便于按环境统一调整级别与格式
// 约束：默认输出到标准错误；设置 LOG_FILE 时写入按大小轮转的日志文件（LOG_MAX_SIZE_MB/LOG_MAX_BACKUPS/LOG_MAX_AGE_DAYS）
func Setup() *slog.Logger {
	lvl := ParseLevel(os.Getenv("LOG_LEVEL"))
	var w io.Writer = os.Stderr
	if path := os.Getenv("LOG_FILE"); path != "" {
		w = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    envInt("LOG_MAX_SIZE_MB", 10),
			MaxBackups: envInt("LOG_MAX_BACKUPS", 3),
			MaxAge:     envInt("LOG_MAX_AGE_DAYS", 28),
			Compress:   true,
		}
	}
	l := New(w, lvl, os.Getenv("LOG_FORMAT"))
	defaultLogger.Store(l)
	return l
}

// New：按指定输出、级别与格式构建日志器，format 为 json 时输出 JSON，其余为文本
func New(w io.Writer, lvl slog.Level, format string) *slog.Logger {
	var h slog.Handler
	if strings.ToLower(format) == "json" {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	} else {
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	}
	return slog.New(h)
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// L：获取默认日志器
// 背景：为业务代码提供快捷访问；若未初始化则回退到 Setup，并发首次调用只初始化一次
func L() *slog.Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	lazyOnce.Do(func() {
		if defaultLogger.Load() == nil {
			Setup()
		}
	})
	return defaultLogger.Load()
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
