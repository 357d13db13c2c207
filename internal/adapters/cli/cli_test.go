package cli

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"tg-stats/internal/domain/channels"
	"tg-stats/internal/domain/commands"
	"tg-stats/internal/domain/history"
	"tg-stats/internal/domain/remote"
	"tg-stats/internal/domain/stats"
	"tg-stats/internal/infra/config"
)

func TestParseCommand(t *testing.T) {
	t.Parallel()

	cases := []struct {
		line     string
		wantName string
		wantArgs []string
	}{
		{line: "", wantName: "", wantArgs: nil},
		{line: "   ", wantName: "", wantArgs: nil},
		{line: "channels", wantName: "channels", wantArgs: []string{}},
		{line: "  STATS   3 ", wantName: "stats", wantArgs: []string{"3"}},
	}

	for _, tc := range cases {
		name, args := parseCommand(tc.line)
		if name != tc.wantName || !reflect.DeepEqual(args, tc.wantArgs) {
			t.Errorf("parseCommand(%q) = %q, %#v; want %q, %#v", tc.line, name, args, tc.wantName, tc.wantArgs)
		}
	}
}

func TestParseIndex(t *testing.T) {
	t.Parallel()

	if n, err := parseIndex([]string{"2"}); err != nil || n != 2 {
		t.Fatalf("parseIndex([2]) = %d, %v", n, err)
	}
	for _, args := range [][]string{nil, {"0"}, {"-1"}, {"x"}, {"1", "2"}} {
		if _, err := parseIndex(args); !errors.Is(err, errUsage) {
			t.Errorf("parseIndex(%v) error = %v, want errUsage", args, err)
		}
	}
}

func TestHelpListsEveryCommand(t *testing.T) {
	t.Parallel()

	lines := buildCommandHelpLines(commandDescriptors)
	if len(lines) != len(commandDescriptors)+1 {
		t.Fatalf("got %d help lines, want %d", len(lines), len(commandDescriptors)+1)
	}
	if lines[0] != "Available commands:" {
		t.Fatalf("header = %q", lines[0])
	}
	if got := joinCommandNames(commandDescriptors[:2]); got != "help, login" {
		t.Fatalf("joinCommandNames() = %q", got)
	}
}

func TestFormatChannels(t *testing.T) {
	t.Parallel()

	got := formatChannels([]channels.ChannelRef{{ID: -1001, Title: "News"}, {ID: -1002, Title: "Blog"}})
	want := []string{"  1. News (-1001)", "  2. Blog (-1002)", "Total channels: 2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("formatChannels() = %#v, want %#v", got, want)
	}
	if got := formatChannels(nil); !reflect.DeepEqual(got, []string{"No channels found."}) {
		t.Fatalf("formatChannels(nil) = %#v", got)
	}
}

func TestFormatReport(t *testing.T) {
	t.Parallel()

	at := func(day, hour int) time.Time { return time.Date(2026, time.October, day, hour, 0, 0, 0, time.UTC) }
	records := []history.MessageRecord{
		{ID: 1, Timestamp: at(5, 9), Views: 10, Replies: 1, Content: remote.ContentText},
		{ID: 2, Timestamp: at(7, 10), Views: 50, Replies: 0, Content: remote.ContentPhoto},
		{ID: 3, Timestamp: at(7, 18), Views: 20, Replies: 7, Content: remote.ContentText},
	}
	special := []config.SpecialDay{{Label: "Wednesday posts", Weekday: time.Wednesday}}

	res := &commands.StatsResult{
		Channel:           channels.ChannelRef{ID: -1001, Title: "News"},
		Since:             time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC),
		Report:            stats.Aggregate(records, special),
		MostViewedLink:    "https://t.me/news/2",
		MostCommentedLink: "message #3",
	}

	want := []string{
		"Statistics for News (-1001) since 2026-10-01:",
		"  Total posts: 3",
		"  Average posts per day: 1.50",
		"  Wednesday posts: 2",
		"  Most active weekday: Wednesday (2.00 posts/day)",
		"  Least active weekday: Monday (1.00 posts/day)",
		"  Most viewed post: https://t.me/news/2 (50 views)",
		"  Most commented post: message #3 (7 comments)",
		"  First post: 2026-10-05 09:00",
		"  Last post: 2026-10-07 18:00",
		"  Text posts: 2, photo posts: 1",
	}
	if got := formatReport(res); !reflect.DeepEqual(got, want) {
		t.Fatalf("formatReport() =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestFormatReportEmpty(t *testing.T) {
	t.Parallel()

	res := &commands.StatsResult{
		Channel: channels.ChannelRef{ID: -1001, Title: "News"},
		Since:   time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC),
		Report:  stats.Aggregate(nil, nil),
	}
	want := []string{"No posts in News (-1001) since 2026-10-01."}
	if got := formatReport(res); !reflect.DeepEqual(got, want) {
		t.Fatalf("formatReport() = %#v, want %#v", got, want)
	}
}

func TestFormatWhoami(t *testing.T) {
	t.Parallel()

	if got := formatWhoami(&commands.WhoamiResult{ID: 7, FullName: "Ada L", Username: "ada"}); got != "You are: Ada L (@ada), id=7" {
		t.Fatalf("formatWhoami() = %q", got)
	}
	if got := formatWhoami(&commands.WhoamiResult{ID: 7, FullName: "Ada L"}); got != "You are: Ada L, id=7" {
		t.Fatalf("formatWhoami() = %q", got)
	}
}
