package cli

import (
	"fmt"

	"tg-stats/internal/domain/channels"
	"tg-stats/internal/domain/commands"
	"tg-stats/internal/infra/clock"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

// formatChannels рендерит нумерованный список каналов (номера с 1 для "stats <n>").
func formatChannels(list []channels.ChannelRef) []string {
	if len(list) == 0 {
		return []string{"No channels found."}
	}
	lines := make([]string, 0, len(list)+1)
	for i, ch := range list {
		lines = append(lines, fmt.Sprintf("%3d. %s", i+1, ch))
	}
	lines = append(lines, fmt.Sprintf("Total channels: %d", len(list)))
	return lines
}

// formatReport рендерит отчёт по каналу. Даты выводятся в таймзоне отображения.
func formatReport(res *commands.StatsResult) []string {
	since := res.Since.Format(dateLayout)
	if res.Empty() {
		return []string{fmt.Sprintf("No posts in %s since %s.", res.Channel, since)}
	}

	r := res.Report
	lines := []string{
		fmt.Sprintf("Statistics for %s since %s:", res.Channel, since),
		fmt.Sprintf("  Total posts: %d", r.Total),
		fmt.Sprintf("  Average posts per day: %.2f", r.AvgPerDay),
	}
	for _, sd := range r.SpecialDays {
		lines = append(lines, fmt.Sprintf("  %s: %d", sd.Label, sd.Count))
	}
	if most, ok := r.MostActive(); ok {
		lines = append(lines, fmt.Sprintf("  Most active weekday: %s (%.2f posts/day)", most.Weekday, most.AvgPerDay))
	}
	if least, ok := r.LeastActive(); ok {
		lines = append(lines, fmt.Sprintf("  Least active weekday: %s (%.2f posts/day)", least.Weekday, least.AvgPerDay))
	}
	if r.MostViewed != nil {
		lines = append(lines, fmt.Sprintf("  Most viewed post: %s (%d views)", res.MostViewedLink, r.MostViewed.Views))
	}
	if r.MostCommented != nil {
		lines = append(lines, fmt.Sprintf("  Most commented post: %s (%d comments)", res.MostCommentedLink, r.MostCommented.Replies))
	}
	if r.First != nil && r.Last != nil {
		lines = append(lines,
			fmt.Sprintf("  First post: %s", clock.Display(r.First.Timestamp).Format(dateTimeLayout)),
			fmt.Sprintf("  Last post: %s", clock.Display(r.Last.Timestamp).Format(dateTimeLayout)),
		)
	}
	lines = append(lines, fmt.Sprintf("  Text posts: %d, photo posts: %d", r.TextPosts, r.PhotoPosts))
	return lines
}

func formatWhoami(res *commands.WhoamiResult) string {
	if res.Username != "" {
		return fmt.Sprintf("You are: %s (@%s), id=%d", res.FullName, res.Username, res.ID)
	}
	return fmt.Sprintf("You are: %s, id=%d", res.FullName, res.ID)
}
