// Package app: верхний уровень сборки клиента статистики каналов.
// Здесь связываются конфигурация, MTProto-транспорт, аутентификатор, каталог каналов,
// сборщик истории и CLI. Отсюда стартует интерактивный цикл и обеспечивается
// корректный shutdown.
package app

import (
	"context"

	"tg-stats/internal/adapters/cli"
	"tg-stats/internal/adapters/mtproto"
	"tg-stats/internal/domain/auth"
	"tg-stats/internal/domain/channels"
	"tg-stats/internal/domain/commands"
	"tg-stats/internal/domain/history"
	"tg-stats/internal/domain/remote"
	"tg-stats/internal/infra/clock"
	"tg-stats/internal/infra/config"
	"tg-stats/internal/infra/logger"
)

// App агрегирует зависимости и передаёт их Runner.
type App struct {
	cfg        *config.Config     // Конфигурация приложения
	mainCtx    context.Context    // Контекст жизненного цикла приложения.
	mainCancel context.CancelFunc // Инициирует отмену mainCtx.
	runner     *Runner
}

// NewApp создаёт каркас приложения. Сборка зависимостей выполняется в Run().
func NewApp(mainCtx context.Context, mainCancel context.CancelFunc, cfg *config.Config) *App {
	return &App{
		cfg:        cfg,
		mainCtx:    mainCtx,
		mainCancel: mainCancel,
	}
}

// Run собирает транспорт и доменные сервисы и запускает Runner.
// Блокируется до остановки приложения.
func (a *App) Run() error {
	logger.Info("tg-stats initializing...")

	env := a.cfg.Env
	settings := a.cfg.Settings()

	transport := mtproto.New(mtproto.Options{
		SessionFile: env.SessionFile,
		PeersFile:   env.PeersCacheFile,
		ThrottleRPS: env.ThrottleRPS,
		TestDC:      env.TestDC,
	})

	authenticator := auth.New(
		transport,
		cli.Prompter{},
		auth.NewSession(settings.PhoneNumber, settings.Password),
		remote.Credentials{
			AppID:        settings.AppID,
			AppHash:      settings.AppHash,
			DeviceModel:  settings.DeviceModel,
			LanguageCode: settings.LanguageCode,
			AppVersion:   settings.AppVersion,
		},
	)

	executor := commands.NewExecutor(commands.Deps{
		Transport:   transport,
		Auth:        authenticator,
		Catalog:     channels.NewCatalog(transport, authenticator),
		Collector:   history.NewCollector(transport, clock.UTC),
		SpecialDays: settings.SpecialDays,
		Now:         clock.UTC,
	})

	a.runner = NewRunner(a.mainCtx, a.mainCancel, transport, authenticator, executor, env.LogoutOnExit)
	return a.runner.Run()
}
