package commands

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"tg-stats/internal/domain/auth"
	"tg-stats/internal/domain/channels"
	"tg-stats/internal/domain/history"
	"tg-stats/internal/domain/remote"
	"tg-stats/internal/domain/stats"
	"tg-stats/internal/infra/clock"
	"tg-stats/internal/infra/config"
	"tg-stats/internal/infra/logger"
	"tg-stats/internal/infra/timeutil"
	versioninfo "tg-stats/internal/support/version"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

var (
	// ErrLoginFailed: вход не завершён; подробности уже показаны пользователю.
	ErrLoginFailed = errors.New("login failed")
	// ErrNotLoggedIn: команда требует выполненного входа.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrNoChannels: в аккаунте нет каналов для статистики.
	ErrNoChannels = errors.New("no channels available")
	// ErrBadIndex: номер канала вне последнего списка.
	ErrBadIndex = errors.New("channel number is out of range")
)

// Deps: зависимости исполнителя команд.
type Deps struct {
	Transport   remote.Transport
	Auth        *auth.Authenticator
	Catalog     *channels.Catalog
	Collector   *history.Collector
	SpecialDays []config.SpecialDay
	Now         clock.Func
}

// CommandExecutor - реализация интерфейса Executor
type CommandExecutor struct {
	d Deps

	mu      sync.Mutex
	lastSet []channels.ChannelRef // последний выведенный список для "stats <n>"
}

// NewExecutor создает новый экземпляр CommandExecutor
func NewExecutor(d Deps) *CommandExecutor {
	if d.Now == nil {
		d.Now = clock.UTC
	}
	return &CommandExecutor{d: d}
}

// Login проводит вход. Повторный вызов после успешного входа только подтверждает его.
func (e *CommandExecutor) Login(ctx context.Context) (*LoginResult, error) {
	if !e.d.Auth.Initialize(ctx) || !e.d.Auth.Login(ctx) {
		return nil, ErrLoginFailed
	}
	who, err := e.Whoami(ctx)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: *who}, nil
}

// Channels запрашивает каналы заново и запоминает список для команды Stats.
func (e *CommandExecutor) Channels(ctx context.Context) (*ChannelsResult, error) {
	list, err := e.d.Catalog.ListChannels(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list channels")
	}

	e.mu.Lock()
	e.lastSet = list
	e.mu.Unlock()

	return &ChannelsResult{Channels: list}, nil
}

// Stats строит отчёт по каналу с номером index из последнего списка.
// Если список ещё не запрашивался, он запрашивается сейчас. Когда каналов нет,
// сбор истории не выполняется.
func (e *CommandExecutor) Stats(ctx context.Context, index int) (*StatsResult, error) {
	e.mu.Lock()
	list := e.lastSet
	e.mu.Unlock()

	if list == nil {
		res, err := e.Channels(ctx)
		if err != nil {
			return nil, err
		}
		list = res.Channels
	}
	if len(list) == 0 {
		return nil, ErrNoChannels
	}
	if index < 1 || index > len(list) {
		return nil, errors.Wrap(ErrBadIndex, fmt.Sprintf("%d not in 1..%d", index, len(list)))
	}
	channel := list[index-1]

	since := timeutil.StartOfMonth(e.d.Now())
	records, err := e.d.Collector.CollectCurrentMonth(ctx, channel)
	if err != nil {
		return nil, errors.Wrap(err, "collect history")
	}

	report := stats.Aggregate(records, e.d.SpecialDays)
	logger.Info("Stats computed",
		zap.Int64("chat_id", channel.ID),
		zap.Int("messages", report.Total),
		zap.Int("days", report.Days),
	)

	res := &StatsResult{Channel: channel, Since: since, Report: report}
	if report.MostViewed != nil {
		res.MostViewedLink = e.messageLink(ctx, channel.ID, report.MostViewed.ID)
	}
	if report.MostCommented != nil {
		res.MostCommentedLink = e.messageLink(ctx, channel.ID, report.MostCommented.ID)
	}
	return res, nil
}

// messageLink получает ссылку на сообщение; при ошибке возвращает его номер.
func (e *CommandExecutor) messageLink(ctx context.Context, chatID, messageID int64) string {
	res := remote.Execute(ctx, "getMessageLink", func(ctx context.Context) (string, error) {
		return e.d.Transport.MessageLink(ctx, chatID, messageID)
	})
	if !res.OK() || strings.TrimSpace(res.Value) == "" {
		return fmt.Sprintf("message #%d", messageID)
	}
	return res.Value
}

// Whoami возвращает информацию о текущем аккаунте из сессии.
func (e *CommandExecutor) Whoami(ctx context.Context) (*WhoamiResult, error) {
	user, ok := e.d.Auth.Session().User()
	if !ok {
		return nil, ErrNotLoggedIn
	}

	fullname := strings.TrimSpace(user.DisplayName())
	if fullname == "" {
		fullname = "<unknown>"
	}

	return &WhoamiResult{
		ID:       user.ID,
		FullName: fullname,
		Username: user.PrimaryHandle(),
		Phone:    user.Phone,
	}, nil
}

// Logout выходит из аккаунта и сбрасывает запомненный список каналов.
func (e *CommandExecutor) Logout(ctx context.Context) error {
	if !e.d.Auth.Session().Authenticated() {
		return ErrNotLoggedIn
	}
	e.d.Auth.Logout(ctx)

	e.mu.Lock()
	e.lastSet = nil
	e.mu.Unlock()
	return nil
}

// Version возвращает информацию о версии приложения
func (e *CommandExecutor) Version(ctx context.Context) (*VersionResult, error) {
	return &VersionResult{
		Name:    versioninfo.Name,
		Version: versioninfo.Version,
	}, nil
}
