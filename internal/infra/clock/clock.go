// Package clock: источник текущего времени и таймзона отображения.
// Вычисления (граница месяца, группировка по датам) ведутся в UTC; таймзона
// отображения влияет только на вывод дат пользователю.
package clock

import (
	"sync"
	"time"
)

// Func возвращает текущее время. В тестах подменяется фиксированным значением.
type Func func() time.Time

// UTC: системные часы в UTC.
func UTC() time.Time {
	return time.Now().UTC()
}

// Fixed возвращает часы, всегда показывающие t.
func Fixed(t time.Time) Func {
	return func() time.Time { return t }
}

var (
	mu         sync.RWMutex
	displayLoc = time.UTC
)

// SetDisplayLocation задаёт таймзону вывода. nil сбрасывает на UTC.
func SetDisplayLocation(loc *time.Location) {
	mu.Lock()
	defer mu.Unlock()
	if loc == nil {
		loc = time.UTC
	}
	displayLoc = loc
}

// Display переводит момент времени в таймзону вывода.
func Display(t time.Time) time.Time {
	mu.RLock()
	defer mu.RUnlock()
	return t.In(displayLoc)
}
