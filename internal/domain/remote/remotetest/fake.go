// Package remotetest содержит управляемую фейковую реализацию remote.Transport
// для тестов доменных пакетов.
package remotetest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"tg-stats/internal/domain/remote"
)

// HistoryCall фиксирует аргументы одного запроса истории.
type HistoryCall struct {
	ChatID        int64
	FromMessageID int64
	Limit         int
}

// Transport: фейк с программируемыми ответами. Все поля можно заполнять
// напрямую до использования; счётчики вызовов читаются через Calls.
//
// Машина авторизации упрощена: State меняется при успешных Submit* согласно
// NeedPassword; SetCredentials переводит waitingForParameters в waitingForPhoneNumber.
type Transport struct {
	mu sync.Mutex

	State        remote.AuthorizationState
	StateErr     error
	NeedPassword bool
	CredsErr     error
	PhoneErr     error
	CodeErr      error
	PasswordErr  error
	User         remote.UserIdentity
	UserErr      error

	Chats       map[remote.ChatList][]int64
	ChatErrs    map[remote.ChatList]error
	Metadata    map[int64]remote.ChatMetadata
	MetadataErr map[int64]error

	// Pages: ответы MessageHistory по порядку вызовов; PageErrs: ошибки по номеру вызова.
	Pages    [][]remote.Message
	PageErrs map[int]error

	Links   map[int64]string
	LinkErr error

	calls        map[string]int
	historyCalls []HistoryCall
	phones       []string
	codes        []string
	passwords    []string
	closed       bool
}

// New возвращает фейк в состоянии waitingForParameters.
func New() *Transport {
	return &Transport{
		State: remote.StateWaitingForParameters,
		calls: make(map[string]int),
	}
}

func (t *Transport) hit(name string) {
	if t.calls == nil {
		t.calls = make(map[string]int)
	}
	t.calls[name]++
}

// Calls возвращает число вызовов метода по имени.
func (t *Transport) Calls(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls[name]
}

// HistoryCalls возвращает аргументы всех запросов истории.
func (t *Transport) HistoryCalls() []HistoryCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]HistoryCall(nil), t.historyCalls...)
}

// Submitted возвращает отправленные телефоны, коды и пароли.
func (t *Transport) Submitted() (phones, codes, passwords []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.phones...), append([]string(nil), t.codes...), append([]string(nil), t.passwords...)
}

func (t *Transport) SetCredentials(_ context.Context, creds remote.Credentials) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hit("SetCredentials")
	if t.CredsErr != nil {
		return t.CredsErr
	}
	if creds.AppID == 0 || creds.AppHash == "" {
		return errors.New("empty credentials")
	}
	if t.State == remote.StateWaitingForParameters {
		t.State = remote.StateWaitingForPhoneNumber
	}
	return nil
}

func (t *Transport) AuthorizationState(context.Context) (remote.AuthorizationState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hit("AuthorizationState")
	return t.State, t.StateErr
}

func (t *Transport) SubmitPhoneNumber(_ context.Context, phone string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hit("SubmitPhoneNumber")
	t.phones = append(t.phones, phone)
	if t.PhoneErr != nil {
		return t.PhoneErr
	}
	t.State = remote.StateWaitingForCode
	return nil
}

func (t *Transport) SubmitCode(_ context.Context, code string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hit("SubmitCode")
	t.codes = append(t.codes, code)
	if t.CodeErr != nil {
		return t.CodeErr
	}
	if t.NeedPassword {
		t.State = remote.StateWaitingForPassword
	} else {
		t.State = remote.StateReady
	}
	return nil
}

func (t *Transport) SubmitPassword(_ context.Context, password string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hit("SubmitPassword")
	t.passwords = append(t.passwords, password)
	if t.PasswordErr != nil {
		return t.PasswordErr
	}
	t.State = remote.StateReady
	return nil
}

func (t *Transport) CurrentUser(context.Context) (remote.UserIdentity, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hit("CurrentUser")
	return t.User, t.UserErr
}

func (t *Transport) ListChats(_ context.Context, list remote.ChatList, limit int) ([]int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hit("ListChats:" + list.String())
	if err := t.ChatErrs[list]; err != nil {
		return nil, err
	}
	ids := t.Chats[list]
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return append([]int64(nil), ids...), nil
}

func (t *Transport) ChatMetadata(_ context.Context, chatID int64) (remote.ChatMetadata, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hit("ChatMetadata")
	if err := t.MetadataErr[chatID]; err != nil {
		return remote.ChatMetadata{}, err
	}
	md, ok := t.Metadata[chatID]
	if !ok {
		return remote.ChatMetadata{}, fmt.Errorf("chat %d not found", chatID)
	}
	return md, nil
}

func (t *Transport) MessageHistory(_ context.Context, chatID, fromMessageID int64, limit int) ([]remote.Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hit("MessageHistory")
	n := len(t.historyCalls)
	t.historyCalls = append(t.historyCalls, HistoryCall{ChatID: chatID, FromMessageID: fromMessageID, Limit: limit})
	if err := t.PageErrs[n]; err != nil {
		return nil, err
	}
	if n >= len(t.Pages) {
		return nil, nil
	}
	return append([]remote.Message(nil), t.Pages[n]...), nil
}

func (t *Transport) MessageLink(_ context.Context, _ int64, messageID int64) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hit("MessageLink")
	if t.LinkErr != nil {
		return "", t.LinkErr
	}
	if link, ok := t.Links[messageID]; ok {
		return link, nil
	}
	return fmt.Sprintf("https://t.me/c/1/%d", messageID), nil
}

func (t *Transport) LogOut(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hit("LogOut")
	t.State = remote.StateWaitingForPhoneNumber
	return nil
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hit("Close")
	t.closed = true
	t.State = remote.StateClosed
	return nil
}

// Prompter: фейк интерактивного ввода: отдаёт Answers по порядку и копит вывод.
// Если ответы закончились, AskLine возвращает ErrNoAnswer.
type Prompter struct {
	Answers []string
	Asked   []string
	Shown   []string
}

// ErrNoAnswer возвращается, когда у фейка не осталось заготовленных ответов.
var ErrNoAnswer = errors.New("no scripted answer")

func (p *Prompter) AskLine(prompt string) (string, error) {
	p.Asked = append(p.Asked, prompt)
	if len(p.Answers) == 0 {
		return "", ErrNoAnswer
	}
	answer := p.Answers[0]
	p.Answers = p.Answers[1:]
	return answer, nil
}

func (p *Prompter) Display(text string) {
	p.Shown = append(p.Shown, text)
}
