// Package auth реализует машину состояний входа пользователя в Telegram поверх
// remote.Transport: инициализация параметров приложения, ввод телефона, кода и
// пароля 2FA, идемпотентный повторный вход и best-effort выход.
package auth

import "tg-stats/internal/domain/remote"

// Session: состояние сессии на время жизни процесса. Владеет им Authenticator;
// пароль хранится только в памяти и никуда не сохраняется.
type Session struct {
	initialized bool
	user        *remote.UserIdentity
	phoneNumber string
	password    string
}

// NewSession создаёт сессию с заранее известными телефоном и паролем (могут быть пустыми).
// Непустые значения позволяют пройти вход без интерактива.
func NewSession(phoneNumber, password string) *Session {
	return &Session{phoneNumber: phoneNumber, password: password}
}

// Initialized сообщает, были ли отправлены параметры приложения.
func (s *Session) Initialized() bool {
	return s.initialized
}

// Authenticated сообщает, подтвердила ли удалённая сторона состояние ready.
func (s *Session) Authenticated() bool {
	return s.user != nil
}

// User возвращает копию идентичности текущего пользователя.
func (s *Session) User() (remote.UserIdentity, bool) {
	if s.user == nil {
		return remote.UserIdentity{}, false
	}
	return *s.user, true
}
