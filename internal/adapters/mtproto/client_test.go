package mtproto_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"tg-stats/internal/adapters/mtproto"
	"tg-stats/internal/domain/remote"
)

func newClient(t *testing.T) *mtproto.Client {
	t.Helper()
	dir := t.TempDir()
	return mtproto.New(mtproto.Options{
		SessionFile: filepath.Join(dir, "session.json"),
		PeersFile:   filepath.Join(dir, "peers.bbolt"),
		ThrottleRPS: 3,
	})
}

func TestClientBeforeStart(t *testing.T) {
	t.Parallel()

	c := newClient(t)
	ctx := context.Background()

	state, err := c.AuthorizationState(ctx)
	if err != nil || state != remote.StateWaitingForParameters {
		t.Fatalf("AuthorizationState() = %s, %v; want waitingForParameters", state, err)
	}
	if err := c.SubmitPhoneNumber(ctx, "+1"); !errors.Is(err, mtproto.ErrNotStarted) {
		t.Fatalf("SubmitPhoneNumber() error = %v, want ErrNotStarted", err)
	}
	if _, err := c.ListChats(ctx, remote.ChatListPrimary, 10); !errors.Is(err, mtproto.ErrNotStarted) {
		t.Fatalf("ListChats() error = %v, want ErrNotStarted", err)
	}
}

func TestClientCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	c := newClient(t)
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	state, err := c.AuthorizationState(context.Background())
	if err != nil || state != remote.StateClosed {
		t.Fatalf("AuthorizationState() = %s, %v; want closed", state, err)
	}
	err = c.SetCredentials(context.Background(), remote.Credentials{AppID: 1, AppHash: "h"})
	if !errors.Is(err, mtproto.ErrClosed) {
		t.Fatalf("SetCredentials() after Close error = %v, want ErrClosed", err)
	}
}
