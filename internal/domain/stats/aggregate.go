// Package stats считает описательную статистику по сообщениям канала за месяц.
// Вычисления чистые: без удалённых вызовов и без изменения входных данных.
package stats

import (
	"sort"
	"time"

	"tg-stats/internal/domain/history"
	"tg-stats/internal/domain/remote"
	"tg-stats/internal/infra/config"
	"tg-stats/internal/infra/timeutil"
)

// WeekdayActivity: активность в один день недели: среднее число постов на дату,
// в которую был хотя бы один пост.
type WeekdayActivity struct {
	Weekday   time.Weekday
	Posts     int
	Days      int
	AvgPerDay float64
}

// SpecialDayCount: число постов в настроенный «особый» день недели.
type SpecialDayCount struct {
	Label   string
	Weekday time.Weekday
	Count   int
}

// Report: итог агрегации. Для пустого входа все указатели nil, срезы пустые.
type Report struct {
	Total     int
	Days      int
	AvgPerDay float64

	// Weekdays отсортированы по убыванию AvgPerDay; при равенстве понедельник раньше воскресенья.
	Weekdays []WeekdayActivity

	MostViewed    *history.MessageRecord
	MostCommented *history.MessageRecord

	SpecialDays []SpecialDayCount

	First, Last *history.MessageRecord

	TextPosts  int
	PhotoPosts int
}

// MostActive возвращает самый активный день недели.
func (r Report) MostActive() (WeekdayActivity, bool) {
	if len(r.Weekdays) == 0 {
		return WeekdayActivity{}, false
	}
	return r.Weekdays[0], true
}

// LeastActive возвращает наименее активный день недели.
func (r Report) LeastActive() (WeekdayActivity, bool) {
	if len(r.Weekdays) == 0 {
		return WeekdayActivity{}, false
	}
	return r.Weekdays[len(r.Weekdays)-1], true
}

// Aggregate строит отчёт по записям одного месяца. Записи не изменяются.
// Дни без постов в среднее не входят: среднее берётся по датам, где посты были.
func Aggregate(records []history.MessageRecord, specialDays []config.SpecialDay) Report {
	r := Report{Total: len(records)}

	perDate := make(map[timeutil.Date]int)
	var dateOrder []timeutil.Date

	for i := range records {
		rec := &records[i]

		d := rec.Date()
		if _, ok := perDate[d]; !ok {
			dateOrder = append(dateOrder, d)
		}
		perDate[d]++

		// Строгое сравнение: при равенстве остаётся первый встреченный.
		if r.MostViewed == nil || rec.Views > r.MostViewed.Views {
			r.MostViewed = rec
		}
		if r.MostCommented == nil || rec.Replies > r.MostCommented.Replies {
			r.MostCommented = rec
		}
		if r.First == nil || rec.Timestamp.Before(r.First.Timestamp) {
			r.First = rec
		}
		if r.Last == nil || !rec.Timestamp.Before(r.Last.Timestamp) {
			r.Last = rec
		}

		switch rec.Content {
		case remote.ContentText:
			r.TextPosts++
		case remote.ContentPhoto:
			r.PhotoPosts++
		case remote.ContentOther, remote.ContentService:
		}
	}

	r.Days = len(perDate)
	if r.Days > 0 {
		r.AvgPerDay = float64(r.Total) / float64(r.Days)
	}
	r.Weekdays = rankWeekdays(dateOrder, perDate)
	r.SpecialDays = countSpecialDays(records, specialDays)
	r.MostViewed = clone(r.MostViewed)
	r.MostCommented = clone(r.MostCommented)
	r.First = clone(r.First)
	r.Last = clone(r.Last)
	return r
}

func rankWeekdays(dates []timeutil.Date, perDate map[timeutil.Date]int) []WeekdayActivity {
	byDay := make(map[time.Weekday]*WeekdayActivity)
	for _, d := range dates {
		wd := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
		a, ok := byDay[wd]
		if !ok {
			a = &WeekdayActivity{Weekday: wd}
			byDay[wd] = a
		}
		a.Posts += perDate[d]
		a.Days++
	}

	out := make([]WeekdayActivity, 0, len(byDay))
	for _, a := range byDay {
		a.AvgPerDay = float64(a.Posts) / float64(a.Days)
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgPerDay != out[j].AvgPerDay {
			return out[i].AvgPerDay > out[j].AvgPerDay
		}
		return isoIndex(out[i].Weekday) < isoIndex(out[j].Weekday)
	})
	return out
}

// isoIndex нумерует дни недели с понедельника (0) по воскресенье (6).
func isoIndex(w time.Weekday) int {
	return (int(w) + 6) % 7
}

func countSpecialDays(records []history.MessageRecord, specialDays []config.SpecialDay) []SpecialDayCount {
	out := make([]SpecialDayCount, 0, len(specialDays))
	for _, sd := range specialDays {
		c := SpecialDayCount{Label: sd.Label, Weekday: sd.Weekday}
		for _, rec := range records {
			if rec.IsPostedOnWeekday(sd.Weekday) {
				c.Count++
			}
		}
		out = append(out, c)
	}
	return out
}

// clone отвязывает отчёт от входного среза.
func clone(rec *history.MessageRecord) *history.MessageRecord {
	if rec == nil {
		return nil
	}
	c := *rec
	return &c
}
