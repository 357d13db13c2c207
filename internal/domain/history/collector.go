// Package history собирает историю сообщений канала за текущий календарный месяц UTC,
// листая ленту от свежих сообщений к старым, пока не будет пересечена граница месяца.
package history

import (
	"context"
	"sort"
	"time"

	"tg-stats/internal/domain/channels"
	"tg-stats/internal/domain/remote"
	"tg-stats/internal/infra/clock"
	"tg-stats/internal/infra/logger"
	"tg-stats/internal/infra/timeutil"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

const (
	// FirstPageSize: размер первой страницы (самые свежие сообщения).
	FirstPageSize = 50
	// PageSize: размер последующих страниц.
	PageSize = 100
)

// ErrFirstPage: не удалось получить самую свежую страницу; сбор не выполнен.
var ErrFirstPage = errors.New("failed to fetch latest messages")

// MessageRecord: неизменяемая запись об одном сообщении.
type MessageRecord struct {
	ID        int64
	Timestamp time.Time // UTC
	Views     int
	Replies   int
	Content   remote.ContentKind
}

// IsPostedOnWeekday сообщает, опубликовано ли сообщение в день недели w (UTC).
func (m MessageRecord) IsPostedOnWeekday(w time.Weekday) bool {
	return m.Timestamp.Weekday() == w
}

// Date: календарная дата публикации (UTC).
func (m MessageRecord) Date() timeutil.Date {
	return timeutil.DateOf(m.Timestamp)
}

// FromMessage строит запись из сообщения транспорта. Отрицательные счётчики
// (отсутствие данных у удалённой стороны) приводятся к нулю.
func FromMessage(m remote.Message) MessageRecord {
	return MessageRecord{
		ID:        m.ID,
		Timestamp: timeutil.FromUnix(m.Date),
		Views:     max(m.Views, 0),
		Replies:   max(m.Replies, 0),
		Content:   m.Content,
	}
}

// Collector листает историю через remote.Transport. Источник времени подменяем.
type Collector struct {
	transport remote.Transport
	now       clock.Func
}

// NewCollector создаёт Collector. now == nil означает системные часы UTC.
func NewCollector(transport remote.Transport, now clock.Func) *Collector {
	if now == nil {
		now = clock.UTC
	}
	return &Collector{transport: transport, now: now}
}

// CollectCurrentMonth возвращает сообщения канала с начала текущего месяца UTC,
// отсортированные по возрастанию времени. Пустой результат без ошибки означает
// «в этом месяце данных нет». Ошибка возвращается только если не удалось получить
// первую страницу; сбой на последующих страницах завершает сбор с уже собранными данными.
func (c *Collector) CollectCurrentMonth(ctx context.Context, channel channels.ChannelRef) ([]MessageRecord, error) {
	boundary := timeutil.StartOfMonth(c.now())
	log := logger.Logger().With(zap.Int64("chat_id", channel.ID), zap.Time("since", boundary))

	first := remote.Execute(ctx, "getChatHistory(latest)", func(ctx context.Context) ([]remote.Message, error) {
		return c.transport.MessageHistory(ctx, channel.ID, 0, FirstPageSize)
	})
	if !first.OK() {
		return nil, errors.Wrap(ErrFirstPage, first.Err)
	}
	if len(first.Value) == 0 {
		log.Debug("history: channel has no messages")
		return nil, nil
	}

	seed := FromMessage(first.Value[0])
	if seed.Timestamp.Before(boundary) {
		log.Debug("history: latest message predates the month")
		return nil, nil
	}

	records := []MessageRecord{seed}
	cursor := seed.ID
	pages := 1

loop:
	for {
		from := cursor
		page := remote.Execute(ctx, "getChatHistory", func(ctx context.Context) ([]remote.Message, error) {
			return c.transport.MessageHistory(ctx, channel.ID, from, PageSize)
		})
		if !page.OK() {
			log.Warn("history: stopped on failed page, returning partial data",
				zap.Int64("cursor", cursor),
				zap.Int("collected", len(records)),
				zap.String("error", page.Err),
			)
			break
		}
		if len(page.Value) == 0 {
			break
		}
		pages++

		for _, m := range page.Value {
			rec := FromMessage(m)
			if rec.Timestamp.Before(boundary) {
				break loop
			}
			records = append(records, rec)
			cursor = rec.ID
		}
		if cursor == from {
			log.Warn("history: cursor did not advance", zap.Int64("cursor", cursor))
			break
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.Before(records[j].Timestamp)
		}
		return records[i].ID < records[j].ID
	})

	log.Debug("history: collected", zap.Int("messages", len(records)), zap.Int("pages", pages))
	return records, nil
}
