package mtproto

import (
	"fmt"
	"strings"

	"tg-stats/internal/domain/remote"
	"tg-stats/internal/infra/logger"

	"github.com/gotd/td/telegram/peers"
	"github.com/gotd/td/tg"
	"github.com/kr/pretty"
	"go.uber.org/zap"
)

// historyBatch: нормализованный ответ MessagesGetHistory.
type historyBatch struct {
	Messages []tg.MessageClass
	Users    []tg.UserClass
	Chats    []tg.ChatClass
}

// normalizeHistory сводит варианты ответа истории к одному виду.
// NotModified трактуется как пустая страница.
func normalizeHistory(resp tg.MessagesMessagesClass) (historyBatch, error) {
	switch data := resp.(type) {
	case *tg.MessagesMessages:
		return historyBatch{Messages: data.Messages, Users: data.Users, Chats: data.Chats}, nil
	case *tg.MessagesMessagesSlice:
		return historyBatch{Messages: data.Messages, Users: data.Users, Chats: data.Chats}, nil
	case *tg.MessagesChannelMessages:
		return historyBatch{Messages: data.Messages, Users: data.Users, Chats: data.Chats}, nil
	case *tg.MessagesMessagesNotModified:
		return historyBatch{}, nil
	default:
		if logger.IsDebugEnabled() {
			logger.Debug("unexpected history payload", zap.String("dump", pretty.Sprint(resp)))
		}
		return historyBatch{}, fmt.Errorf("unexpected history response: %T", resp)
	}
}

// convertMessage переводит сообщение MTProto в remote.Message.
// Пустые сообщения (удалённые) пропускаются: ok=false.
func convertMessage(m tg.MessageClass) (remote.Message, bool) {
	switch msg := m.(type) {
	case *tg.Message:
		out := remote.Message{
			ID:      int64(msg.ID),
			Date:    int64(msg.Date),
			Content: contentKind(msg),
		}
		if views, ok := msg.GetViews(); ok {
			out.Views = views
		}
		if replies, ok := msg.GetReplies(); ok {
			out.Replies = replies.Replies
		}
		return out, true
	case *tg.MessageService:
		return remote.Message{ID: int64(msg.ID), Date: int64(msg.Date), Content: remote.ContentService}, true
	default:
		return remote.Message{}, false
	}
}

func contentKind(msg *tg.Message) remote.ContentKind {
	media, ok := msg.GetMedia()
	if !ok || media == nil {
		if strings.TrimSpace(msg.Message) != "" {
			return remote.ContentText
		}
		return remote.ContentOther
	}
	switch media.(type) {
	case *tg.MessageMediaPhoto:
		return remote.ContentPhoto
	case *tg.MessageMediaWebPage:
		// превью ссылки: по сути текстовый пост
		return remote.ContentText
	default:
		return remote.ContentOther
	}
}

// userIdentity собирает remote.UserIdentity: основной username первым,
// затем остальные активные коллекционные username.
func userIdentity(u *tg.User) remote.UserIdentity {
	id := remote.UserIdentity{
		ID:        u.ID,
		Phone:     u.Phone,
		FirstName: strings.TrimSpace(u.FirstName),
		LastName:  strings.TrimSpace(u.LastName),
		Bot:       u.Bot,
	}
	seen := make(map[string]struct{})
	add := func(name string) {
		name = strings.TrimPrefix(strings.TrimSpace(name), "@")
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		id.Handles = append(id.Handles, name)
	}
	add(u.Username)
	if names, ok := u.GetUsernames(); ok {
		for _, n := range names {
			if n.Active {
				add(n.Username)
			}
		}
	}
	return id
}

// chatMetadata классифицирует разрешённый peer. Каналы и супергруппы: broadcast group.
func chatMetadata(chatID int64, p peers.Peer) remote.ChatMetadata {
	md := remote.ChatMetadata{ID: chatID, Title: strings.TrimSpace(p.VisibleName())}
	switch p.(type) {
	case peers.Channel:
		md.Kind = remote.ChatKindBroadcastGroup
	case peers.Chat:
		md.Kind = remote.ChatKindBasicGroup
	case peers.User:
		md.Kind = remote.ChatKindPrivate
	default:
		md.Kind = remote.ChatKindUnknown
	}
	return md
}
