package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"tg-stats/internal/app"
	"tg-stats/internal/infra/clock"
	"tg-stats/internal/infra/config"
	"tg-stats/internal/infra/logger"
	"tg-stats/internal/infra/pr"
	"tg-stats/internal/infra/timeutil"
)

func main() {
	if err := pr.Init(); err != nil {
		logger.Fatal("failed to assigning stdout and stderr", zap.Error(err))
	}

	// envPath определяет расположение .env с учётными данными и настройками отчёта.
	envPath := flag.String("env", "assets/.env", "path to .env file")
	flag.Parse()

	if err := config.Load(*envPath); err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	env := config.Env()

	// logger.Init задаёт уровень, а SetWriters перенаправляет вывод в pr, чтобы логи не ломали строку ввода.
	logger.Init(env.LogLevel)
	logger.SetWriters(pr.Stdout(), pr.Stderr())
	if env.LogFile != "" {
		logger.EnableFile(logger.FileOptions{
			Path:       env.LogFile,
			Level:      env.LogFileLevel,
			MaxSizeMB:  env.LogFileMaxSize,
			MaxBackups: env.LogFileMaxBackups,
			MaxAgeDays: env.LogFileMaxAge,
			Compress:   env.LogFileCompress,
		})
	}
	defer logger.Sync()
	for _, msg := range config.Warnings() {
		logger.Warn(msg)
	}

	// Таймзона влияет только на вывод дат; границы месяца считаются в UTC.
	loc, err := timeutil.ParseLocation(env.DisplayTimezone)
	if err != nil {
		logger.Fatal("failed to parse DISPLAY_TIMEZONE", zap.Error(err))
	}
	clock.SetDisplayLocation(loc)

	// Контекст с обработкой системных сигналов (Ctrl+C/SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := app.NewApp(ctx, stop, config.Current())
	if runErr := a.Run(); runErr != nil {
		stop()
		logger.Fatal("app run failed", zap.Error(runErr))
	}
	stop()
	logger.Info("Graceful shutdown complete")
}
