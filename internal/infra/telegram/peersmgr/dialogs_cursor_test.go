package peersmgr

import (
	"reflect"
	"testing"

	"github.com/gotd/td/tg"
)

func TestDialogCursorAdvance(t *testing.T) {
	t.Parallel()

	cur := newDialogCursor()
	batch := &tg.MessagesDialogs{
		Dialogs: []tg.DialogClass{
			&tg.Dialog{Peer: &tg.PeerUser{UserID: 7}, TopMessage: 90},
			&tg.Dialog{Peer: &tg.PeerChannel{ChannelID: 55}, TopMessage: 40},
		},
		Messages: []tg.MessageClass{
			&tg.Message{ID: 90, Date: 1760000900},
			&tg.MessageService{ID: 40, Date: 1760000400},
		},
		Chats: []tg.ChatClass{&tg.Channel{ID: 55, AccessHash: 555}},
		Users: []tg.UserClass{&tg.User{ID: 7, AccessHash: 777}},
	}

	if !cur.advance(batch) {
		t.Fatal("advance() = false on the first page")
	}
	req := cur.request(1, 20)
	want := &tg.MessagesGetDialogsRequest{
		OffsetDate: 1760000400,
		OffsetID:   40,
		OffsetPeer: &tg.InputPeerChannel{ChannelID: 55, AccessHash: 555},
		Limit:      20,
	}
	want.SetFolderID(1)
	if !reflect.DeepEqual(req, want) {
		t.Fatalf("request() = %#v, want %#v", req, want)
	}

	if cur.advance(batch) {
		t.Fatal("advance() = true for the same page, want stalled cursor")
	}
}

func TestDialogCursorPrimaryFolderHasNoFolderID(t *testing.T) {
	t.Parallel()

	req := newDialogCursor().request(0, 100)
	if _, ok := req.GetFolderID(); ok {
		t.Fatal("primary list request carries folder_id")
	}
	if _, ok := req.OffsetPeer.(*tg.InputPeerEmpty); !ok {
		t.Fatalf("initial offset peer = %T, want InputPeerEmpty", req.OffsetPeer)
	}
}

func TestNormalizeDialogsResponse(t *testing.T) {
	t.Parallel()

	slice := &tg.MessagesDialogsSlice{Dialogs: []tg.DialogClass{&tg.Dialog{}}}
	got, err := normalizeDialogsResponse(slice)
	if err != nil || len(got.Dialogs) != 1 {
		t.Fatalf("normalizeDialogsResponse(slice) = %#v, %v", got, err)
	}
	if _, err := normalizeDialogsResponse(&tg.MessagesDialogsNotModified{}); err != errDialogsNotModified {
		t.Fatalf("normalizeDialogsResponse(notModified) error = %v", err)
	}
}
