// Пакет timeutil содержит служебные функции для работы со временем:
// парсинг таймзон и дней недели, границы календарного месяца и календарные ключи дат.
package timeutil

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParseLocation разбирает либо IANA‑таймзону (например, "Europe/Moscow"),
// либо UTC‑смещение (например, "+03:00", "-0700", "UTC+3", "GMT-04:30").
func ParseLocation(value string) (*time.Location, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil, errors.New("empty timezone")
	}
	if loc, err := time.LoadLocation(v); err == nil {
		return loc, nil
	}
	if loc, ok := ParseUTCOffsetToLocation(v); ok {
		return loc, nil
	}
	return nil, fmt.Errorf("invalid timezone %q: not an IANA name or UTC offset", value)
}

var offsetPattern = regexp.MustCompile(`^([+-])\s*(\d{1,2})(?::?(\d{2}))?$`)

// ParseUTCOffsetToLocation парсит строки вида "+03:00", "-0700", "UTC+3", "GMT-04:30" или "Z".
func ParseUTCOffsetToLocation(value string) (*time.Location, bool) {
	v := strings.TrimSpace(strings.ToUpper(value))
	if v == "Z" || v == "UTC" || v == "GMT" {
		return time.FixedZone("UTC+00:00", 0), true
	}
	v = strings.TrimPrefix(v, "UTC")
	v = strings.TrimPrefix(v, "GMT")
	v = strings.TrimSpace(v)
	m := offsetPattern.FindStringSubmatch(v)
	if m == nil {
		return nil, false
	}
	sign := 1
	if m[1] == "-" {
		sign = -1
	}
	hours, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, false
	}
	mins := 0
	if m[3] != "" {
		if mins, err = strconv.Atoi(m[3]); err != nil {
			return nil, false
		}
	}
	if hours > 14 || mins > 59 {
		return nil, false
	}
	const (
		secInHour = 60 * 60
		secInMin  = 60
	)
	offset := sign * ((hours * secInHour) + (mins * secInMin))
	name := fmt.Sprintf("UTC%+03d:%02d", sign*hours, mins)
	return time.FixedZone(name, offset), true
}

// ParseWeekday распознаёт английское название дня недели без учёта регистра
// ("wednesday", "Wed") либо его номер в нотации time.Weekday (0: воскресенье).
func ParseWeekday(value string) (time.Weekday, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 || n > 6 {
			return 0, false
		}
		return time.Weekday(n), true
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if v == name || v == name[:3] {
			return d, true
		}
	}
	return 0, false
}

// StartOfMonth возвращает первый момент (00:00:00 UTC) календарного месяца UTC,
// в который попадает now.
func StartOfMonth(now time.Time) time.Time {
	u := now.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// FromUnix переводит Unix‑секунды в time.Time в UTC.
func FromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// Date: календарная дата без времени; используется как ключ группировки.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf возвращает календарную дату момента t в его собственной таймзоне.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// String форматирует дату как YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}
