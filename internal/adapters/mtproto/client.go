// Package mtproto: реализация remote.Transport поверх gotd (MTProto).
//
// gotd не ведёт машину состояний авторизации, как TDLib: адаптер вычисляет её сам.
// Без запущенного клиента состояние waitingForParameters; авторизованная сессия даёт
// ready; в остальных случаях возвращается шаг, до которого дошли Submit*.
//
// Клиент работает в собственной горутине (client.Run внутри floodwait.Waiter) от
// SetCredentials до Close. Запросы идут через ratelimit-middleware.
package mtproto

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"time"

	"tg-stats/internal/domain/remote"
	"tg-stats/internal/infra/logger"
	"tg-stats/internal/infra/telegram/peersmgr"
	"tg-stats/internal/infra/telegram/session"

	"github.com/go-faster/errors"
	"github.com/gotd/contrib/middleware/floodwait"
	"github.com/gotd/contrib/middleware/ratelimit"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/dcs"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	folderPrimary  = 0
	folderArchived = 1

	floodWaitMaxRetries = 3
	floodWaitMaxWait    = time.Minute
)

var (
	// ErrNotStarted: клиент ещё не получил параметры приложения.
	ErrNotStarted = errors.New("telegram client is not started")
	// ErrClosed: транспорт закрыт.
	ErrClosed = errors.New("telegram client is closed")
	// ErrSignUpRequired: номер не зарегистрирован; регистрация не поддерживается.
	ErrSignUpRequired = errors.New("phone number is not registered in Telegram")
)

// Options: инфраструктурные настройки транспорта.
type Options struct {
	SessionFile string
	PeersFile   string
	ThrottleRPS int
	TestDC      bool
}

// Client реализует remote.Transport.
type Client struct {
	opts    Options
	session *session.FileStorage

	mu       sync.Mutex
	client   *telegram.Client
	api      *tg.Client
	peers    *peersmgr.Service
	cancel   context.CancelFunc
	done     chan error
	pending  remote.AuthorizationState
	phone    string
	codeHash string
	closed   bool

	closeOnce sync.Once
	closeErr  error
}

var _ remote.Transport = (*Client)(nil)

// New создаёт транспорт. Сеть не трогает до SetCredentials.
func New(opts Options) *Client {
	return &Client{
		opts:    opts,
		session: &session.FileStorage{Path: opts.SessionFile},
		pending: remote.StateWaitingForParameters,
	}
}

// SetCredentials создаёт MTProto-клиент, подключается и открывает кэш пиров.
// Повторный вызов на запущенном клиенте ничего не делает.
func (c *Client) SetCredentials(ctx context.Context, creds remote.Credentials) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.client != nil {
		return nil
	}

	waiter := floodwait.NewWaiter().
		WithMaxRetries(floodWaitMaxRetries).
		WithMaxWait(floodWaitMaxWait)

	rps := max(c.opts.ThrottleRPS, 1)
	options := telegram.Options{
		SessionStorage: c.session,
		Middlewares: []telegram.Middleware{
			waiter,
			ratelimit.New(rate.Limit(rps), rps*2), //nolint:mnd // burst = 2*rate
		},
		OnDead: func() {
			logger.Warn("mtproto: connection is dead, reconnecting")
		},
		Device: telegram.DeviceConfig{
			DeviceModel:    creds.DeviceModel,
			SystemVersion:  runtime.GOOS + "/" + runtime.GOARCH,
			AppVersion:     creds.AppVersion,
			SystemLangCode: creds.LanguageCode,
			LangCode:       creds.LanguageCode,
		},
		Logger: logger.Logger().Named("mtproto").WithOptions(zap.IncreaseLevel(zap.WarnLevel)),
	}
	if c.opts.TestDC {
		options.DCList = dcs.Test()
	}

	client := telegram.NewClient(creds.AppID, creds.AppHash, options)

	runCtx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- waiter.Run(runCtx, func(ctx context.Context) error {
			return client.Run(ctx, func(ctx context.Context) error {
				close(ready)
				<-ctx.Done()
				return ctx.Err()
			})
		})
	}()

	select {
	case <-ready:
	case err := <-done:
		cancel()
		return errors.Wrap(err, "connect")
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	}

	peersSvc, err := peersmgr.New(client.API(), c.opts.PeersFile)
	if err != nil {
		cancel()
		<-done
		return errors.Wrap(err, "init peers manager")
	}
	if err := peersSvc.LoadFromStorage(ctx); err != nil {
		logger.Error("mtproto: failed to load peers from storage", zap.Error(err))
	}

	c.client = client
	c.api = client.API()
	c.peers = peersSvc
	c.cancel = cancel
	c.done = done
	c.pending = remote.StateWaitingForPhoneNumber
	logger.Info("Telegram client connected", zap.Bool("test_dc", c.opts.TestDC))
	return nil
}

// running возвращает запущенный клиент или ошибку состояния.
func (c *Client) running() (*telegram.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.closed:
		return nil, ErrClosed
	case c.client == nil:
		return nil, ErrNotStarted
	default:
		return c.client, nil
	}
}

func (c *Client) setPending(s remote.AuthorizationState) {
	c.mu.Lock()
	c.pending = s
	c.mu.Unlock()
}

// AuthorizationState вычисляет состояние авторизации.
func (c *Client) AuthorizationState(ctx context.Context) (remote.AuthorizationState, error) {
	c.mu.Lock()
	closed, client, pending := c.closed, c.client, c.pending
	c.mu.Unlock()

	if closed {
		return remote.StateClosed, nil
	}
	if client == nil {
		return remote.StateWaitingForParameters, nil
	}

	status, err := client.Auth().Status(ctx)
	if err != nil {
		return remote.StateUnknown, errors.Wrap(err, "auth status")
	}
	if status.Authorized {
		c.setPending(remote.StateReady)
		return remote.StateReady, nil
	}
	if pending == remote.StateReady {
		// сессию отозвали (logout с другого устройства)
		c.setPending(remote.StateWaitingForPhoneNumber)
		return remote.StateWaitingForPhoneNumber, nil
	}
	return pending, nil
}

func (c *Client) SubmitPhoneNumber(ctx context.Context, phone string) error {
	client, err := c.running()
	if err != nil {
		return err
	}

	sent, err := client.Auth().SendCode(ctx, phone, auth.SendCodeOptions{})
	if err != nil {
		return errors.Wrap(err, "send code")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch s := sent.(type) {
	case *tg.AuthSentCode:
		c.phone = phone
		c.codeHash = s.PhoneCodeHash
		c.pending = remote.StateWaitingForCode
		logger.Debug("mtproto: code sent", zap.String("type", s.Type.TypeName()))
	case *tg.AuthSentCodeSuccess:
		c.pending = remote.StateReady
	default:
		return errors.Errorf("unexpected sent code type %T", sent)
	}
	return nil
}

func (c *Client) SubmitCode(ctx context.Context, code string) error {
	client, err := c.running()
	if err != nil {
		return err
	}

	c.mu.Lock()
	phone, hash := c.phone, c.codeHash
	c.mu.Unlock()
	if hash == "" {
		return errors.New("verification code was not requested")
	}

	_, err = client.Auth().SignIn(ctx, phone, code, hash)
	if errors.Is(err, auth.ErrPasswordAuthNeeded) {
		c.setPending(remote.StateWaitingForPassword)
		return nil
	}
	var signUp *auth.SignUpRequired
	if errors.As(err, &signUp) {
		return ErrSignUpRequired
	}
	if err != nil {
		return errors.Wrap(err, "sign in")
	}
	c.setPending(remote.StateReady)
	return nil
}

func (c *Client) SubmitPassword(ctx context.Context, password string) error {
	client, err := c.running()
	if err != nil {
		return err
	}
	if _, err := client.Auth().Password(ctx, password); err != nil {
		return errors.Wrap(err, "check password")
	}
	c.setPending(remote.StateReady)
	return nil
}

func (c *Client) CurrentUser(ctx context.Context) (remote.UserIdentity, error) {
	client, err := c.running()
	if err != nil {
		return remote.UserIdentity{}, err
	}
	self, err := client.Self(ctx)
	if err != nil {
		return remote.UserIdentity{}, errors.Wrap(err, "get self")
	}
	return userIdentity(self), nil
}

// ListChats возвращает до limit идентификаторов чатов списка в порядке сервера.
// Сущности из ответа запоминаются в кэше пиров.
func (c *Client) ListChats(ctx context.Context, list remote.ChatList, limit int) ([]int64, error) {
	if _, err := c.running(); err != nil {
		return nil, err
	}

	folder := folderPrimary
	if list == remote.ChatListArchived {
		folder = folderArchived
	}

	res, err := peersmgr.FetchDialogs(ctx, c.api, folder, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s dialogs", list)
	}
	if err := c.peers.Remember(ctx, res.Users, res.Chats); err != nil {
		logger.Warn("mtproto: remember dialog peers", zap.Error(err))
	}
	return peersmgr.DialogChatIDs(res.Dialogs), nil
}

func (c *Client) ChatMetadata(ctx context.Context, chatID int64) (remote.ChatMetadata, error) {
	if _, err := c.running(); err != nil {
		return remote.ChatMetadata{}, err
	}
	p, err := c.peers.ResolveChat(ctx, chatID)
	if err != nil {
		return remote.ChatMetadata{}, err
	}
	return chatMetadata(chatID, p), nil
}

// MessageHistory возвращает страницу истории от новых к старым.
// fromMessageID == 0: самая свежая страница; иначе граница исключающая.
func (c *Client) MessageHistory(ctx context.Context, chatID, fromMessageID int64, limit int) ([]remote.Message, error) {
	if _, err := c.running(); err != nil {
		return nil, err
	}
	p, err := c.peers.ResolveChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	resp, err := c.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:     p.InputPeer(),
		OffsetID: int(fromMessageID),
		Limit:    limit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "get history")
	}

	batch, err := normalizeHistory(resp)
	if err != nil {
		return nil, err
	}
	if err := c.peers.Remember(ctx, batch.Users, batch.Chats); err != nil {
		logger.Debug("mtproto: remember history peers", zap.Error(err))
	}

	out := make([]remote.Message, 0, len(batch.Messages))
	for _, m := range batch.Messages {
		if msg, ok := convertMessage(m); ok {
			out = append(out, msg)
		}
	}
	return out, nil
}

// MessageLink экспортирует публичную (или приватную t.me/c/...) ссылку на пост канала.
func (c *Client) MessageLink(ctx context.Context, chatID, messageID int64) (string, error) {
	if _, err := c.running(); err != nil {
		return "", err
	}
	ch, err := c.peers.ResolveChannel(ctx, chatID)
	if err != nil {
		return "", err
	}
	link, err := c.api.ChannelsExportMessageLink(ctx, &tg.ChannelsExportMessageLinkRequest{
		Channel: ch.InputChannel(),
		ID:      int(messageID),
	})
	if err != nil {
		return "", errors.Wrap(err, "export message link")
	}
	return strings.TrimSpace(link.Link), nil
}

// LogOut завершает сессию на сервере и удаляет файл сессии.
func (c *Client) LogOut(ctx context.Context) error {
	if _, err := c.running(); err != nil {
		return err
	}
	if _, err := c.api.AuthLogOut(ctx); err != nil {
		return errors.Wrap(err, "log out")
	}
	if err := c.session.Remove(); err != nil {
		logger.Warn("mtproto: remove session file", zap.Error(err))
	}

	c.mu.Lock()
	c.pending = remote.StateWaitingForPhoneNumber
	c.phone, c.codeHash = "", ""
	c.mu.Unlock()
	return nil
}

// Close останавливает клиент и закрывает кэш пиров. Идемпотентен.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		cancel, done, peersSvc := c.cancel, c.done, c.peers
		c.mu.Unlock()

		if cancel != nil {
			cancel()
			if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
				c.closeErr = errors.Wrap(err, "client run")
			}
		}
		if peersSvc != nil {
			if err := peersSvc.Close(); err != nil && c.closeErr == nil {
				c.closeErr = errors.Wrap(err, "close peers storage")
			}
		}
		logger.Debug("mtproto: client closed")
	})
	return c.closeErr
}
