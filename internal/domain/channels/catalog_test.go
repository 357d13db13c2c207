package channels_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"tg-stats/internal/domain/channels"
	"tg-stats/internal/domain/remote"
	"tg-stats/internal/domain/remote/remotetest"
)

type readiness bool

func (r readiness) EnsureReady(context.Context) bool { return bool(r) }

func newTransport() *remotetest.Transport {
	tr := remotetest.New()
	tr.State = remote.StateReady
	tr.Metadata = map[int64]remote.ChatMetadata{
		1: {ID: 1, Title: "News", Kind: remote.ChatKindBroadcastGroup},
		2: {ID: 2, Title: "Alice", Kind: remote.ChatKindPrivate},
		3: {ID: 3, Title: "Friends", Kind: remote.ChatKindBasicGroup},
		4: {ID: 4, Title: "Dev Chat", Kind: remote.ChatKindBroadcastGroup},
		5: {ID: 5, Title: "Old Channel", Kind: remote.ChatKindBroadcastGroup},
	}
	return tr
}

func TestListChannels(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		setup   func(tr *remotetest.Transport)
		want    []channels.ChannelRef
		wantErr error
	}{
		{
			name: "primaryThenArchive",
			setup: func(tr *remotetest.Transport) {
				tr.Chats = map[remote.ChatList][]int64{
					remote.ChatListPrimary:  {4, 2, 1, 3},
					remote.ChatListArchived: {5},
				}
			},
			want: []channels.ChannelRef{{ID: 4, Title: "Dev Chat"}, {ID: 1, Title: "News"}, {ID: 5, Title: "Old Channel"}},
		},
		{
			name: "archiveFailureTolerated",
			setup: func(tr *remotetest.Transport) {
				tr.Chats = map[remote.ChatList][]int64{remote.ChatListPrimary: {1}}
				tr.ChatErrs = map[remote.ChatList]error{remote.ChatListArchived: errors.New("FOLDER_ID_INVALID")}
			},
			want: []channels.ChannelRef{{ID: 1, Title: "News"}},
		},
		{
			name: "primaryFailureIsFatal",
			setup: func(tr *remotetest.Transport) {
				tr.Chats = map[remote.ChatList][]int64{remote.ChatListArchived: {5}}
				tr.ChatErrs = map[remote.ChatList]error{remote.ChatListPrimary: errors.New("timeout")}
			},
			wantErr: channels.ErrPrimaryList,
		},
		{
			name: "metadataFailureSkipped",
			setup: func(tr *remotetest.Transport) {
				tr.Chats = map[remote.ChatList][]int64{remote.ChatListPrimary: {1, 99, 4}}
				tr.MetadataErr = map[int64]error{1: errors.New("CHANNEL_PRIVATE")}
			},
			want: []channels.ChannelRef{{ID: 4, Title: "Dev Chat"}},
		},
		{
			name: "noBroadcastChats",
			setup: func(tr *remotetest.Transport) {
				tr.Chats = map[remote.ChatList][]int64{
					remote.ChatListPrimary:  {2, 3},
					remote.ChatListArchived: {2},
				}
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tr := newTransport()
			tc.setup(tr)
			got, err := channels.NewCatalog(tr, readiness(true)).ListChannels(context.Background())
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("ListChannels() error = %v, want %v", err, tc.wantErr)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ListChannels() = %#v, want %#v", got, tc.want)
			}
			if n := tr.Calls("MessageHistory"); n != 0 {
				t.Fatalf("history requested %d times while listing channels", n)
			}
		})
	}
}

func TestListChannelsRequiresSession(t *testing.T) {
	t.Parallel()

	tr := newTransport()
	got, err := channels.NewCatalog(tr, readiness(false)).ListChannels(context.Background())
	if !errors.Is(err, channels.ErrNotAuthenticated) || got != nil {
		t.Fatalf("ListChannels() = %v, %v", got, err)
	}
	if n := tr.Calls("ListChats:primary"); n != 0 {
		t.Fatalf("chat list requested %d times without a session", n)
	}
}

func TestChannelRefString(t *testing.T) {
	t.Parallel()

	if got := (channels.ChannelRef{ID: -1001234, Title: "News"}).String(); got != "News (-1001234)" {
		t.Fatalf("String() = %q", got)
	}
}
