package mtproto

import (
	"reflect"
	"testing"

	"tg-stats/internal/domain/remote"

	"github.com/gotd/td/tg"
)

func TestConvertMessage(t *testing.T) {
	t.Parallel()

	withCounters := &tg.Message{ID: 10, Date: 1760000000, Message: "hello"}
	withCounters.SetViews(120)
	withCounters.SetReplies(tg.MessageReplies{Replies: 4})

	photo := &tg.Message{ID: 11, Date: 1760000100}
	photo.SetMedia(&tg.MessageMediaPhoto{})

	cases := []struct {
		name   string
		in     tg.MessageClass
		want   remote.Message
		wantOK bool
	}{
		{
			name:   "textWithCounters",
			in:     withCounters,
			want:   remote.Message{ID: 10, Date: 1760000000, Views: 120, Replies: 4, Content: remote.ContentText},
			wantOK: true,
		},
		{
			name:   "photoWithoutCounters",
			in:     photo,
			want:   remote.Message{ID: 11, Date: 1760000100, Content: remote.ContentPhoto},
			wantOK: true,
		},
		{
			name:   "service",
			in:     &tg.MessageService{ID: 12, Date: 1760000200},
			want:   remote.Message{ID: 12, Date: 1760000200, Content: remote.ContentService},
			wantOK: true,
		},
		{
			name: "empty",
			in:   &tg.MessageEmpty{ID: 13},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := convertMessage(tc.in)
			if ok != tc.wantOK || !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("convertMessage() = %#v, %v; want %#v, %v", got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestNormalizeHistory(t *testing.T) {
	t.Parallel()

	msgs := []tg.MessageClass{&tg.Message{ID: 1}}
	chats := []tg.ChatClass{&tg.Channel{ID: 5}}

	cases := []struct {
		name    string
		in      tg.MessagesMessagesClass
		want    int
		wantErr bool
	}{
		{name: "messages", in: &tg.MessagesMessages{Messages: msgs}, want: 1},
		{name: "slice", in: &tg.MessagesMessagesSlice{Messages: msgs}, want: 1},
		{name: "channel", in: &tg.MessagesChannelMessages{Messages: msgs, Chats: chats}, want: 1},
		{name: "notModified", in: &tg.MessagesMessagesNotModified{}, want: 0},
		{name: "nil", in: nil, wantErr: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := normalizeHistory(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("normalizeHistory() error = %v", err)
			}
			if len(got.Messages) != tc.want {
				t.Fatalf("got %d messages, want %d", len(got.Messages), tc.want)
			}
		})
	}
}

func TestUserIdentityHandles(t *testing.T) {
	t.Parallel()

	u := &tg.User{ID: 7, Phone: "77011112233", FirstName: " Ada ", Username: "ada"}
	u.SetUsernames([]tg.Username{
		{Username: "ada", Active: true},
		{Username: "lovelace", Active: true},
		{Username: "old", Active: false},
	})

	got := userIdentity(u)
	want := remote.UserIdentity{ID: 7, Phone: "77011112233", FirstName: "Ada", Handles: []string{"ada", "lovelace"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("userIdentity() = %#v, want %#v", got, want)
	}
}
