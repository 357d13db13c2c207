// Package peersmgr: обёртка над gotd peers.Manager с персистентным хранилищем на bbolt.
// Сервис отвечает за:
//   - открытие/закрытие базы данных кэша пиров;
//   - подготовку менеджера пиров (в памяти) и доступ к нему;
//   - загрузку сохранённых peers из файла в менеджер при старте;
//   - запоминание сущностей из ответов API, чтобы адресовать каналы по id между запусками.
//
// Идентификаторы чатов снаружи в нотации TDLib (каналы: -100xxxxxxxxxx).
package peersmgr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"tg-stats/internal/infra/logger"
	"tg-stats/internal/infra/storage"

	bboltdb "github.com/gotd/contrib/bbolt"
	contribstorage "github.com/gotd/contrib/storage"
	"github.com/gotd/td/constant"
	"github.com/gotd/td/telegram/peers"
	"github.com/gotd/td/telegram/query/dialogs"
	"github.com/gotd/td/tg"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

const (
	peersBucketName             = "peers"
	dbOpenTimeout               = time.Second
	dbFileMode      os.FileMode = 0o600
)

var peersBucketBytes = []byte(peersBucketName)

// ErrUnsupportedChat: идентификатор не относится ни к пользователю, ни к чату, ни к каналу.
var ErrUnsupportedChat = errors.New("peersmgr: unsupported chat id")

// Service инкапсулирует менеджер пиров и bbolt-хранилище.
type Service struct {
	db    *bbolt.DB
	store contribstorage.PeerStorage
	Mgr   *peers.Manager
}

// New создаёт сервис пиров поверх bbolt и gotd peers.Manager.
// Сетевых запросов не выполняет.
func New(api *tg.Client, dbPath string) (*Service, error) {
	if api == nil {
		return nil, errors.New("peersmgr: api client is nil")
	}
	path := strings.TrimSpace(dbPath)
	if path == "" {
		return nil, errors.New("peersmgr: db path is empty")
	}
	if err := storage.EnsureDir(path); err != nil {
		return nil, fmt.Errorf("peersmgr: %w", err)
	}

	db, err := bbolt.Open(path, dbFileMode, &bbolt.Options{Timeout: dbOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("peersmgr: open db: %w", err)
	}

	return &Service{
		db:    db,
		store: bboltdb.NewPeerStorage(db, peersBucketBytes),
		Mgr:   (peers.Options{}).Build(api),
	}, nil
}

// Close закрывает файл базы данных.
func (s *Service) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LoadFromStorage прогружает сохранённые peers из bbolt в оперативный peers.Manager.
// Повреждённый bucket (старый формат JSON) сбрасывается.
func (s *Service) LoadFromStorage(ctx context.Context) error {
	iter, exists, err := s.iterateStoredPeers(ctx)
	if err != nil {
		if isJSONUnmarshalError(err) {
			logger.Warn("peersmgr: stored peers are corrupted, resetting", zap.Error(err))
			return s.resetPeersBucket()
		}
		return fmt.Errorf("peersmgr: iterate stored peers: %w", err)
	}
	if !exists {
		return nil
	}
	defer func() {
		_ = iter.Close()
	}()

	users := make([]tg.UserClass, 0)
	chats := make([]tg.ChatClass, 0)

	for iter.Next(ctx) {
		value := iter.Value()
		switch value.Key.Kind {
		case dialogs.User:
			user := value.User
			if user == nil {
				user = &tg.User{ID: value.Key.ID, AccessHash: value.Key.AccessHash}
			}
			users = append(users, user)
		case dialogs.Chat:
			chat := value.Chat
			if chat == nil {
				chat = &tg.Chat{ID: value.Key.ID}
			}
			chats = append(chats, chat)
		case dialogs.Channel:
			channel := value.Channel
			if channel == nil {
				channel = &tg.Channel{ID: value.Key.ID, AccessHash: value.Key.AccessHash}
			}
			chats = append(chats, channel)
		}
	}

	if err = iter.Err(); err != nil {
		return fmt.Errorf("peersmgr: iterate stored peers: %w", err)
	}
	if len(users) == 0 && len(chats) == 0 {
		return nil
	}
	logger.Debug("peersmgr: peers restored", zap.Int("users", len(users)), zap.Int("chats", len(chats)))
	return s.Mgr.Apply(ctx, users, chats)
}

// Remember применяет сущности из ответа API к менеджеру и сохраняет их в bbolt.
// Ошибка записи отдельной сущности не прерывает обработку остальных.
func (s *Service) Remember(ctx context.Context, users []tg.UserClass, chats []tg.ChatClass) error {
	users = compactUsers(users)
	chats = compactChats(chats)
	if len(users) == 0 && len(chats) == 0 {
		return nil
	}
	if err := s.Mgr.Apply(ctx, users, chats); err != nil {
		return fmt.Errorf("peersmgr: apply entities: %w", err)
	}

	for _, u := range users {
		var p contribstorage.Peer
		if !p.FromUser(u) {
			continue
		}
		if err := s.store.Add(ctx, p); err != nil {
			logger.Debug("peersmgr: persist user failed", zap.Error(err))
		}
	}
	for _, c := range chats {
		var p contribstorage.Peer
		if !p.FromChat(c) {
			continue
		}
		if err := s.store.Add(ctx, p); err != nil {
			logger.Debug("peersmgr: persist chat failed", zap.Error(err))
		}
	}
	return nil
}

// ResolveChat возвращает peers.Peer по идентификатору в нотации TDLib.
func (s *Service) ResolveChat(ctx context.Context, chatID int64) (peers.Peer, error) {
	id := constant.TDLibPeerID(chatID)
	switch {
	case id.IsChannel():
		return s.ResolveChannel(ctx, chatID)
	case id.IsChat():
		chat, err := s.Mgr.ResolveChatID(ctx, id.ToPlain())
		if err != nil {
			return nil, fmt.Errorf("resolve chat %d: %w", chatID, err)
		}
		return chat, nil
	case id.IsUser():
		user, err := s.Mgr.ResolveUserID(ctx, id.ToPlain())
		if err != nil {
			return nil, fmt.Errorf("resolve user %d: %w", chatID, err)
		}
		return user, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedChat, chatID)
	}
}

// ResolveChannel возвращает канал (или супергруппу) по идентификатору в нотации TDLib.
func (s *Service) ResolveChannel(ctx context.Context, chatID int64) (peers.Channel, error) {
	id := constant.TDLibPeerID(chatID)
	if !id.IsChannel() {
		return peers.Channel{}, fmt.Errorf("%w: %d is not a channel", ErrUnsupportedChat, chatID)
	}
	channel, err := s.Mgr.ResolveChannelID(ctx, id.ToPlain())
	if err != nil {
		return peers.Channel{}, fmt.Errorf("resolve channel %d: %w", chatID, err)
	}
	return channel, nil
}

// ChatID переводит tg.PeerClass в идентификатор TDLib. Для неизвестного типа возвращает 0.
func ChatID(peer tg.PeerClass) int64 {
	var id constant.TDLibPeerID
	switch p := peer.(type) {
	case *tg.PeerUser:
		id.User(p.UserID)
	case *tg.PeerChat:
		id.Chat(p.ChatID)
	case *tg.PeerChannel:
		id.Channel(p.ChannelID)
	default:
		return 0
	}
	return int64(id)
}

func compactUsers(in []tg.UserClass) []tg.UserClass {
	out := make([]tg.UserClass, 0, len(in))
	for _, u := range in {
		if u != nil {
			out = append(out, u)
		}
	}
	return out
}

func compactChats(in []tg.ChatClass) []tg.ChatClass {
	out := make([]tg.ChatClass, 0, len(in))
	for _, c := range in {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

func (s *Service) iterateStoredPeers(ctx context.Context) (contribstorage.PeerIterator, bool, error) {
	exists := false
	if err := s.db.View(func(tx *bbolt.Tx) error {
		exists = tx.Bucket(peersBucketBytes) != nil
		return nil
	}); err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}
	iter, err := s.store.Iterate(ctx)
	if err != nil {
		return nil, false, err
	}
	return iter, true, nil
}

func isJSONUnmarshalError(err error) bool {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return true
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return true
	}
	return strings.Contains(err.Error(), "json:")
}

func (s *Service) resetPeersBucket() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(peersBucketBytes); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(peersBucketBytes)
		return err
	})
}
