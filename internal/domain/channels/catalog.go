// Package channels перечисляет каналы аккаунта, пригодные для статистики:
// основной список чатов, затем архив, только чаты вида broadcast group.
package channels

import (
	"context"
	"fmt"

	"tg-stats/internal/domain/remote"
	"tg-stats/internal/infra/logger"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// PageSize: сколько чатов запрашивается из каждого списка.
const PageSize = 200

var (
	// ErrNotAuthenticated: сессию не удалось довести до ready.
	ErrNotAuthenticated = errors.New("session is not authenticated")
	// ErrPrimaryList: основной список чатов недоступен; частичных данных не возвращаем.
	ErrPrimaryList = errors.New("failed to fetch primary chat list")
)

// ChannelRef: неизменяемая ссылка на канал.
type ChannelRef struct {
	ID    int64
	Title string
}

func (c ChannelRef) String() string {
	return fmt.Sprintf("%s (%d)", c.Title, c.ID)
}

// Readiness: предусловие «сессия аутентифицирована» (реализует auth.Authenticator).
type Readiness interface {
	EnsureReady(ctx context.Context) bool
}

// Catalog получает список каналов заново при каждом вызове.
type Catalog struct {
	transport remote.Transport
	ready     Readiness
}

func NewCatalog(transport remote.Transport, ready Readiness) *Catalog {
	return &Catalog{transport: transport, ready: ready}
}

// ListChannels возвращает каналы основного списка, за ними каналы архива, в порядке,
// который сообщила удалённая сторона. Ошибка архива и ошибки метаданных отдельных
// чатов не фатальны; ошибка основного списка даёт пустой результат и ErrPrimaryList.
func (c *Catalog) ListChannels(ctx context.Context) ([]ChannelRef, error) {
	if !c.ready.EnsureReady(ctx) {
		return nil, ErrNotAuthenticated
	}

	primary := remote.Execute(ctx, "getChats(primary)", func(ctx context.Context) ([]int64, error) {
		return c.transport.ListChats(ctx, remote.ChatListPrimary, PageSize)
	})
	if !primary.OK() {
		return nil, errors.Wrap(ErrPrimaryList, primary.Err)
	}
	out := c.broadcastOnly(ctx, primary.Value)

	archived := remote.Execute(ctx, "getChats(archive)", func(ctx context.Context) ([]int64, error) {
		return c.transport.ListChats(ctx, remote.ChatListArchived, PageSize)
	})
	if archived.OK() {
		out = append(out, c.broadcastOnly(ctx, archived.Value)...)
	} else {
		logger.Debug("channels: archive list skipped", zap.String("error", archived.Err))
	}

	logger.Debug("channels: listed", zap.Int("count", len(out)))
	return out, nil
}

func (c *Catalog) broadcastOnly(ctx context.Context, ids []int64) []ChannelRef {
	var out []ChannelRef
	for _, id := range ids {
		id := id
		res := remote.Execute(ctx, "getChat", func(ctx context.Context) (remote.ChatMetadata, error) {
			return c.transport.ChatMetadata(ctx, id)
		})
		if !res.OK() {
			continue
		}
		switch res.Value.Kind {
		case remote.ChatKindBroadcastGroup:
			out = append(out, ChannelRef{ID: res.Value.ID, Title: res.Value.Title})
		case remote.ChatKindPrivate, remote.ChatKindBasicGroup, remote.ChatKindUnknown:
		default:
			logger.Warn("channels: unexpected chat kind", zap.Int64("chat_id", id), zap.Stringer("kind", res.Value.Kind))
		}
	}
	return out
}
