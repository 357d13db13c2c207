// Package commands предоставляет общий интерфейс для выполнения команд приложения.
// Команды вызываются CLI-адаптером; доменная логика (вход, каналы, сбор истории,
// статистика) живёт в соседних пакетах, здесь только оркестрация и результаты.
package commands

import (
	"context"
	"time"

	"tg-stats/internal/domain/channels"
	"tg-stats/internal/domain/stats"
)

// Executor - интерфейс для выполнения команд приложения.
type Executor interface {
	// Login проводит интерактивный вход (или подтверждает уже выполненный)
	Login(ctx context.Context) (*LoginResult, error)

	// Channels возвращает свежий список каналов, пригодных для статистики
	Channels(ctx context.Context) (*ChannelsResult, error)

	// Stats собирает историю канала за текущий месяц и строит отчёт.
	// index: номер канала (с 1) в последнем списке Channels.
	Stats(ctx context.Context, index int) (*StatsResult, error)

	// Whoami возвращает информацию о текущем аккаунте
	Whoami(ctx context.Context) (*WhoamiResult, error)

	// Logout выходит из аккаунта (best-effort)
	Logout(ctx context.Context) error

	// Version возвращает информацию о версии приложения
	Version(ctx context.Context) (*VersionResult, error)
}

// LoginResult - результат команды Login
type LoginResult struct {
	User WhoamiResult
}

// ChannelsResult - результат команды Channels
type ChannelsResult struct {
	Channels []channels.ChannelRef
}

// StatsResult - результат команды Stats
type StatsResult struct {
	Channel           channels.ChannelRef
	Since             time.Time // начало месяца (UTC)
	Report            stats.Report
	MostViewedLink    string // ссылка или "message #id", если ссылку получить не удалось
	MostCommentedLink string
}

// Empty сообщает, что за месяц в канале не было сообщений.
func (r *StatsResult) Empty() bool {
	return r.Report.Total == 0
}

// WhoamiResult - результат команды Whoami
type WhoamiResult struct {
	ID       int64  // ID пользователя
	FullName string // полное имя
	Username string // username
	Phone    string
}

// VersionResult - результат команды Version
type VersionResult struct {
	Name    string // название приложения
	Version string // версия
}
