package auth

import (
	"context"
	"fmt"
	"strings"

	"tg-stats/internal/domain/remote"
	"tg-stats/internal/infra/logger"

	"go.uber.org/zap"
)

// Prompter: интерактивный ввод/вывод, который предоставляет UI.
// AskLine блокирует до ввода строки и возвращает её без пробелов по краям.
type Prompter interface {
	AskLine(prompt string) (string, error)
	Display(text string)
}

// SecretAsker: необязательное расширение Prompter для ввода без эха (пароль 2FA).
type SecretAsker interface {
	AskSecret(prompt string) (string, error)
}

const (
	phonePrompt    = "Enter your phone number (+77011112233): "
	codePrompt     = "Enter the code sent to your Telegram app (12345): "
	passwordPrompt = "Enter your 2FA password: "
)

// Authenticator ведёт машину состояний входа. Не потокобезопасен: рассчитан на
// одного вызывающего (CLI). Login блокируется на интерактивном вводе, поэтому его
// нельзя вызывать из горутины MTProto-клиента.
type Authenticator struct {
	transport remote.Transport
	prompter  Prompter
	session   *Session
	creds     remote.Credentials
}

// New собирает Authenticator. session не может быть nil.
func New(transport remote.Transport, prompter Prompter, session *Session, creds remote.Credentials) *Authenticator {
	return &Authenticator{
		transport: transport,
		prompter:  prompter,
		session:   session,
		creds:     creds,
	}
}

// Session возвращает сессию, которой управляет Authenticator.
func (a *Authenticator) Session() *Session {
	return a.session
}

// Initialize отправляет параметры приложения удалённой стороне.
// Без AppID/AppHash возвращает false, ничего не вызывая. Повторный вызов после
// успешной инициализации сразу возвращает true.
func (a *Authenticator) Initialize(ctx context.Context) bool {
	if a.session.initialized {
		return true
	}
	if a.creds.AppID == 0 || strings.TrimSpace(a.creds.AppHash) == "" {
		a.prompter.Display("API ID or API hash is not set!")
		return false
	}

	res := remote.Do(ctx, "setCredentials", func(ctx context.Context) error {
		return a.transport.SetCredentials(ctx, a.creds)
	})
	if !res.OK() {
		a.prompter.Display("Failed to initialize the Telegram client: " + res.Err)
		return false
	}

	a.session.initialized = true
	logger.Debug("auth: client parameters accepted")
	return true
}

// Login проводит сессию по состояниям авторизации до ready. Повторный вход безопасен:
// на каждом шаге состояние заново запрашивается у удалённой стороны, поэтому
// прерванный вход продолжается с того места, где его оставила удалённая сторона.
// Любой неудачный шаг (пустой ввод, ошибка отправки, неожиданное состояние) сразу
// возвращает false без частичных повторов.
func (a *Authenticator) Login(ctx context.Context) bool {
	handled := make(map[remote.AuthorizationState]bool)
	reinitialized := false
	first := true

	for {
		stateRes := remote.Execute(ctx, "getAuthorizationState", a.transport.AuthorizationState)
		if !stateRes.OK() {
			a.prompter.Display("Failed to get authorization state: " + stateRes.Err)
			return false
		}
		state := stateRes.Value
		logger.Debug("auth: authorization state", zap.Stringer("state", state))

		if state == remote.StateReady {
			return a.complete(ctx, first)
		}
		first = false

		if handled[state] {
			logger.Error("auth: authorization state did not advance", zap.Stringer("state", state))
			a.prompter.Display(fmt.Sprintf("Authorization is stuck in state %s.", state))
			return false
		}
		handled[state] = true

		switch state {
		case remote.StateWaitingForParameters:
			if reinitialized {
				a.prompter.Display("Telegram client lost its parameters twice; giving up.")
				return false
			}
			reinitialized = true
			a.session.initialized = false
			if !a.Initialize(ctx) {
				return false
			}
			// Состояние параметров можно пройти ещё раз после повторной инициализации.
			delete(handled, remote.StateWaitingForParameters)
		case remote.StateWaitingForPhoneNumber:
			if !a.submitPhone(ctx) {
				return false
			}
		case remote.StateWaitingForCode:
			if !a.submitCode(ctx) {
				return false
			}
		case remote.StateWaitingForPassword:
			if !a.submitPassword(ctx) {
				return false
			}
		case remote.StateClosed:
			a.prompter.Display("Telegram session is closed.")
			return false
		case remote.StateReady:
			// обработано выше
		case remote.StateUnknown:
			fallthrough
		default:
			logger.Error("auth: unexpected authorization state", zap.Stringer("state", state))
			a.prompter.Display(fmt.Sprintf("Unexpected authorization state: %s", state))
			return false
		}
	}
}

// EnsureReady: удобное предусловие для запросов каналов и истории:
// если сессия ещё не аутентифицирована, выполняет Initialize и Login.
func (a *Authenticator) EnsureReady(ctx context.Context) bool {
	if a.session.Authenticated() {
		return true
	}
	return a.Initialize(ctx) && a.Login(ctx)
}

// Logout выходит из аккаунта, если вход был выполнен. Итог запроса игнорируется.
func (a *Authenticator) Logout(ctx context.Context) {
	if a.session.user == nil {
		return
	}
	_ = remote.Do(ctx, "logOut", a.transport.LogOut)
	a.session.user = nil
	logger.Info("auth: logged out")
}

func (a *Authenticator) submitPhone(ctx context.Context) bool {
	phone := strings.TrimSpace(a.session.phoneNumber)
	if phone == "" {
		var ok bool
		if phone, ok = a.ask(phonePrompt, false); !ok {
			return false
		}
	}
	if phone == "" {
		a.prompter.Display("Phone number cannot be empty!")
		return false
	}

	res := remote.Do(ctx, "submitPhoneNumber", func(ctx context.Context) error {
		return a.transport.SubmitPhoneNumber(ctx, phone)
	})
	if !res.OK() {
		a.prompter.Display("Failed to send phone authentication code: " + res.Err)
		return false
	}
	a.session.phoneNumber = phone
	return true
}

func (a *Authenticator) submitCode(ctx context.Context) bool {
	code, ok := a.ask(codePrompt, false)
	if !ok {
		return false
	}
	if code == "" {
		a.prompter.Display("Phone code cannot be empty!")
		return false
	}

	res := remote.Do(ctx, "submitVerificationCode", func(ctx context.Context) error {
		return a.transport.SubmitCode(ctx, code)
	})
	if !res.OK() {
		a.prompter.Display("Failed to verify phone authentication code: " + res.Err)
		return false
	}
	return true
}

func (a *Authenticator) submitPassword(ctx context.Context) bool {
	password := strings.TrimSpace(a.session.password)
	if password == "" {
		var ok bool
		if password, ok = a.ask(passwordPrompt, true); !ok {
			return false
		}
	}
	if password == "" {
		a.prompter.Display("Password cannot be empty!")
		return false
	}

	res := remote.Do(ctx, "submitPassword", func(ctx context.Context) error {
		return a.transport.SubmitPassword(ctx, password)
	})
	if !res.OK() {
		a.prompter.Display("Failed to verify password: " + res.Err)
		return false
	}
	a.session.password = password
	return true
}

// ask запрашивает значение у пользователя. Ошибка ввода (EOF, прерывание)
// трактуется как неудачный шаг.
func (a *Authenticator) ask(prompt string, secret bool) (string, bool) {
	var (
		value string
		err   error
	)
	if sa, ok := a.prompter.(SecretAsker); ok && secret {
		value, err = sa.AskSecret(prompt)
	} else {
		value, err = a.prompter.AskLine(prompt)
	}
	if err != nil {
		logger.Debug("auth: input aborted", zap.Error(err))
		a.prompter.Display("Input aborted.")
		return "", false
	}
	return strings.TrimSpace(value), true
}

// complete вызывается, когда удалённая сторона сообщила ready: получает и кэширует
// идентичность пользователя и выводит её.
func (a *Authenticator) complete(ctx context.Context, alreadyAuthorized bool) bool {
	userRes := remote.Execute(ctx, "getCurrentUser", a.transport.CurrentUser)
	if !userRes.OK() {
		a.prompter.Display("Failed to get user information: " + userRes.Err)
		return false
	}
	user := userRes.Value
	a.session.user = &user
	a.session.initialized = true

	if alreadyAuthorized {
		a.prompter.Display("Already authorized!")
	} else {
		a.prompter.Display("Authentication successful!")
	}
	a.displayUser(user)
	logger.Info("Logged in as:",
		zap.Int64("ID", user.ID),
		zap.String("Name", user.DisplayName()),
		zap.String("Username", user.PrimaryHandle()),
	)
	return true
}

func (a *Authenticator) displayUser(u remote.UserIdentity) {
	a.prompter.Display(fmt.Sprintf("User ID: %d", u.ID))
	a.prompter.Display("User name: " + u.DisplayName())
	a.prompter.Display("Phone number: " + u.Phone)
	kind := "regular"
	if u.Bot {
		kind = "bot"
	}
	a.prompter.Display("User type: " + kind)
	a.prompter.Display("Active username: " + u.PrimaryHandle())
}
