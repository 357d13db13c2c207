// Файл runner.go содержит точку оркестрации: здесь поднимается MTProto-транспорт,
// выполняется стартовый вход, запускается CLI и организуется корректный shutdown.
// Порядок остановки: CLI, затем выход из аккаунта (если настроен), затем закрытие
// транспорта. Транспорт закрывается ровно один раз.
package app

import (
	"context"
	"time"

	"tg-stats/internal/adapters/cli"
	"tg-stats/internal/domain/auth"
	"tg-stats/internal/domain/commands"
	"tg-stats/internal/domain/remote"
	"tg-stats/internal/infra/logger"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

const logoutTimeout = 10 * time.Second

// console: интерактивный интерфейс, который Runner запускает и останавливает.
type console interface {
	Start(ctx context.Context)
	Stop()
}

// Runner инкапсулирует сценарий запуска и остановки транспорта и CLI.
type Runner struct {
	mainCtx      context.Context    // Внешний контекст процесса: отменяется по Ctrl+C/сигналам и команде exit.
	mainCancel   context.CancelFunc // Инициирует общий shutdown.
	transport    remote.Transport
	auth         *auth.Authenticator
	cmdExecutor  commands.Executor
	logoutOnExit bool
	cliService   console
}

// NewRunner подготавливает Runner с переданными зависимостями.
func NewRunner(
	mainCtx context.Context,
	mainCancel context.CancelFunc,
	transport remote.Transport,
	authenticator *auth.Authenticator,
	executor commands.Executor,
	logoutOnExit bool,
) *Runner {
	return &Runner{
		mainCtx:      mainCtx,
		mainCancel:   mainCancel,
		transport:    transport,
		auth:         authenticator,
		cmdExecutor:  executor,
		logoutOnExit: logoutOnExit,
	}
}

// Run инициализирует сессию, пытается войти и запускает CLI. Блокируется до отмены
// mainCtx. Ошибка инициализации фатальна; неудачный вход нет: войти можно из CLI.
func (r *Runner) Run() error {
	defer r.closeTransport()

	if !r.auth.Initialize(r.mainCtx) {
		return errors.New("initialize telegram client")
	}
	if r.auth.Login(r.mainCtx) {
		logger.Info("tg-stats running...")
	} else if r.mainCtx.Err() == nil {
		logger.Warn("Login not completed, use the login command to retry")
	}

	if r.cliService == nil {
		r.cliService = cli.NewService(r.cmdExecutor, r.mainCancel)
	}
	logger.Debug("starting service cli")
	r.cliService.Start(r.mainCtx)
	logger.Debug("service cli started")

	<-r.mainCtx.Done()
	logger.Debug("Shutdown signal received, stopping runner...")
	r.shutdown()
	return nil
}

// shutdown останавливает CLI и при необходимости выходит из аккаунта.
// Выход best-effort: ошибки только логируются.
func (r *Runner) shutdown() {
	if r.cliService != nil {
		logger.Debug("stopping service cli")
		r.cliService.Stop()
		logger.Debug("service cli stopped")
	}

	if !r.logoutOnExit || !r.auth.Session().Authenticated() {
		return
	}
	// mainCtx уже отменён, поэтому для выхода нужен отдельный контекст.
	ctx, cancel := context.WithTimeout(context.Background(), logoutTimeout)
	defer cancel()
	logger.Debug("logging out before exit")
	r.auth.Logout(ctx)
}

func (r *Runner) closeTransport() {
	if err := r.transport.Close(); err != nil {
		logger.Error("close transport", zap.Error(err))
	}
}
