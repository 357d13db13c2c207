// Package remote описывает контракт с удалённым сервисом сообщений (Telegram) и
// единую точку вызова удалённых операций (Execute). Ядро приложения видит
// транспорт только через интерфейс Transport; конкретная реализация на gotd
// живёт в internal/adapters/telegram.
package remote

import (
	"context"
	"fmt"
)

// AuthorizationState: состояние авторизации сессии, как его сообщает удалённая сторона.
type AuthorizationState int

const (
	StateUnknown AuthorizationState = iota
	StateWaitingForParameters
	StateWaitingForPhoneNumber
	StateWaitingForCode
	StateWaitingForPassword
	StateReady
	StateClosed
)

func (s AuthorizationState) String() string {
	switch s {
	case StateWaitingForParameters:
		return "waitingForParameters"
	case StateWaitingForPhoneNumber:
		return "waitingForPhoneNumber"
	case StateWaitingForCode:
		return "waitingForCode"
	case StateWaitingForPassword:
		return "waitingForPassword"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("AuthorizationState(%d)", int(s))
	}
}

// ChatList: список чатов аккаунта.
type ChatList int

const (
	ChatListPrimary ChatList = iota
	ChatListArchived
)

func (l ChatList) String() string {
	if l == ChatListArchived {
		return "archived"
	}
	return "primary"
}

// ChatKind: тип чата. ChatKindBroadcastGroup объединяет каналы и супергруппы:
// только они пригодны для статистики.
type ChatKind int

const (
	ChatKindUnknown ChatKind = iota
	ChatKindPrivate
	ChatKindBasicGroup
	ChatKindBroadcastGroup
)

func (k ChatKind) String() string {
	switch k {
	case ChatKindPrivate:
		return "private"
	case ChatKindBasicGroup:
		return "basicGroup"
	case ChatKindBroadcastGroup:
		return "broadcastGroup"
	default:
		return "unknown"
	}
}

// ContentKind: грубая классификация содержимого сообщения для сводки отчёта.
type ContentKind int

const (
	ContentOther ContentKind = iota
	ContentText
	ContentPhoto
	ContentService
)

// Credentials: параметры приложения и паспорт устройства для инициализации клиента.
type Credentials struct {
	AppID        int
	AppHash      string
	DeviceModel  string
	LanguageCode string
	AppVersion   string
}

// UserIdentity: текущий пользователь сессии.
type UserIdentity struct {
	ID        int64
	Phone     string
	FirstName string
	LastName  string
	Handles   []string
	Bot       bool
}

// DisplayName собирает «Имя Фамилия» без лишних пробелов.
func (u UserIdentity) DisplayName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// PrimaryHandle возвращает первый активный username или пустую строку.
func (u UserIdentity) PrimaryHandle() string {
	if len(u.Handles) == 0 {
		return ""
	}
	return u.Handles[0]
}

// ChatMetadata: метаданные чата по его идентификатору.
type ChatMetadata struct {
	ID    int64
	Title string
	Kind  ChatKind
}

// Message: одно сообщение истории в том виде, как его вернул транспорт.
// Views/Replies равны нулю, если удалённая сторона не прислала данных о взаимодействиях.
type Message struct {
	ID      int64
	Date    int64 // Unix‑секунды
	Views   int
	Replies int
	Content ContentKind
}

// Transport: контракт, который ядро требует от клиента сервиса сообщений.
// Любой вызов может завершиться транспортной или протокольной ошибкой.
// История возвращается в порядке убывания свежести; fromMessageID == 0 означает
// «самая свежая страница», иначе граница исключающая.
type Transport interface {
	SetCredentials(ctx context.Context, creds Credentials) error
	AuthorizationState(ctx context.Context) (AuthorizationState, error)
	SubmitPhoneNumber(ctx context.Context, phone string) error
	SubmitCode(ctx context.Context, code string) error
	SubmitPassword(ctx context.Context, password string) error
	CurrentUser(ctx context.Context) (UserIdentity, error)
	ListChats(ctx context.Context, list ChatList, limit int) ([]int64, error)
	ChatMetadata(ctx context.Context, chatID int64) (ChatMetadata, error)
	MessageHistory(ctx context.Context, chatID, fromMessageID int64, limit int) ([]Message, error)
	MessageLink(ctx context.Context, chatID, messageID int64) (string, error)
	LogOut(ctx context.Context) error
	Close() error
}
