package peersmgr

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/gotd/td/tg"
)

// dialogFetchPageLimit: максимум диалогов в одном ответе MessagesGetDialogs.
const dialogFetchPageLimit = 100

var errDialogsNotModified = errors.New("dialogs not modified")

// FetchDialogs выгружает до limit диалогов папки folderID (0 основной список,
// 1 архив) через MessagesGetDialogs. Порядок диалогов как у сервера.
// Темп запросов ограничивает ratelimit-middleware клиента.
func FetchDialogs(ctx context.Context, api *tg.Client, folderID, limit int) (*tg.MessagesDialogs, error) {
	result := &tg.MessagesDialogs{}
	cur := newDialogCursor()

	for len(result.Dialogs) < limit {
		pageLimit := min(limit-len(result.Dialogs), dialogFetchPageLimit)

		resp, err := api.MessagesGetDialogs(ctx, cur.request(folderID, pageLimit))
		if err != nil {
			return nil, errors.Wrap(err, "get dialogs")
		}
		batch, err := normalizeDialogsResponse(resp)
		if errors.Is(err, errDialogsNotModified) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(batch.Dialogs) == 0 {
			break
		}

		result.Dialogs = append(result.Dialogs, batch.Dialogs...)
		result.Messages = append(result.Messages, batch.Messages...)
		result.Chats = append(result.Chats, batch.Chats...)
		result.Users = append(result.Users, batch.Users...)

		if len(batch.Dialogs) < pageLimit || !cur.advance(batch) {
			break
		}
	}

	if len(result.Dialogs) > limit {
		result.Dialogs = result.Dialogs[:limit]
	}
	return result, nil
}

// dialogCursor хранит смещение (offset_date, offset_id, offset_peer) между страницами
// и access_hash сущностей, встреченных на уже полученных страницах.
type dialogCursor struct {
	date, id int
	peer     tg.InputPeerClass
	users    map[int64]int64
	channels map[int64]int64
}

func newDialogCursor() *dialogCursor {
	return &dialogCursor{
		peer:     &tg.InputPeerEmpty{},
		users:    make(map[int64]int64),
		channels: make(map[int64]int64),
	}
}

func (c *dialogCursor) request(folderID, limit int) *tg.MessagesGetDialogsRequest {
	req := &tg.MessagesGetDialogsRequest{
		OffsetDate: c.date,
		OffsetID:   c.id,
		OffsetPeer: c.peer,
		Limit:      limit,
	}
	if folderID != 0 {
		req.SetFolderID(folderID)
	}
	return req
}

// advance сдвигает курсор на последний диалог страницы. Возвращает false, если
// смещение не изменилось: повторный запрос вернул бы ту же страницу.
func (c *dialogCursor) advance(batch *tg.MessagesDialogs) bool {
	for _, u := range batch.Users {
		if user, ok := u.(*tg.User); ok {
			c.users[user.ID] = user.AccessHash
		}
	}
	for _, ch := range batch.Chats {
		if channel, ok := ch.(*tg.Channel); ok {
			c.channels[channel.ID] = channel.AccessHash
		}
	}

	var (
		topMessage int
		peer       tg.PeerClass
	)
	switch dlg := batch.Dialogs[len(batch.Dialogs)-1].(type) {
	case *tg.Dialog:
		topMessage, peer = dlg.TopMessage, dlg.Peer
	case *tg.DialogFolder:
		topMessage, peer = dlg.TopMessage, dlg.Peer
	default:
		return false
	}

	prevDate, prevID := c.date, c.id
	if date := messageDate(batch.Messages, topMessage); date != 0 {
		c.date = date
	}
	if topMessage != 0 {
		c.id = topMessage
	}
	c.peer = c.inputPeer(peer)
	return c.date != prevDate || c.id != prevID
}

func (c *dialogCursor) inputPeer(peer tg.PeerClass) tg.InputPeerClass {
	switch p := peer.(type) {
	case *tg.PeerUser:
		return &tg.InputPeerUser{UserID: p.UserID, AccessHash: c.users[p.UserID]}
	case *tg.PeerChat:
		return &tg.InputPeerChat{ChatID: p.ChatID}
	case *tg.PeerChannel:
		return &tg.InputPeerChannel{ChannelID: p.ChannelID, AccessHash: c.channels[p.ChannelID]}
	default:
		return &tg.InputPeerEmpty{}
	}
}

// DialogChatIDs возвращает идентификаторы чатов (нотация TDLib) в порядке диалогов.
// Записи-папки пропускаются.
func DialogChatIDs(list []tg.DialogClass) []int64 {
	ids := make([]int64, 0, len(list))
	for _, d := range list {
		dlg, ok := d.(*tg.Dialog)
		if !ok {
			continue
		}
		if id := ChatID(dlg.Peer); id != 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

func normalizeDialogsResponse(resp tg.MessagesDialogsClass) (*tg.MessagesDialogs, error) {
	switch data := resp.(type) {
	case *tg.MessagesDialogs:
		return data, nil
	case *tg.MessagesDialogsSlice:
		return &tg.MessagesDialogs{
			Dialogs:  data.Dialogs,
			Messages: data.Messages,
			Chats:    data.Chats,
			Users:    data.Users,
		}, nil
	case *tg.MessagesDialogsNotModified:
		return nil, errDialogsNotModified
	default:
		return nil, errors.Errorf("unexpected dialogs response: %T", resp)
	}
}

func messageDate(messages []tg.MessageClass, id int) int {
	for _, msg := range messages {
		switch item := msg.(type) {
		case *tg.Message:
			if item.ID == id {
				return item.Date
			}
		case *tg.MessageService:
			if item.ID == id {
				return item.Date
			}
		}
	}
	return 0
}
