package session_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tg-stats/internal/infra/telegram/session"

	tdsession "github.com/gotd/td/session"
)

func TestFileStorageRoundTripAndRemove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := &session.FileStorage{Path: filepath.Join(t.TempDir(), "nested", "session.json")}

	if _, err := s.LoadSession(ctx); !errors.Is(err, tdsession.ErrNotFound) {
		t.Fatalf("LoadSession() on missing file error = %v, want ErrNotFound", err)
	}

	if err := s.StoreSession(ctx, []byte(`{"v":1}`)); err != nil {
		t.Fatalf("StoreSession() error = %v", err)
	}
	data, err := s.LoadSession(ctx)
	if err != nil || string(data) != `{"v":1}` {
		t.Fatalf("LoadSession() = %q, %v", data, err)
	}

	if err := s.Remove(); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(s.Path); !os.IsNotExist(err) {
		t.Fatalf("session file still exists: %v", err)
	}
	if err := s.Remove(); err != nil {
		t.Fatalf("second Remove() error = %v", err)
	}
}

func TestFileStorageEmptyFileIsNotFound(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	s := &session.FileStorage{Path: path}
	if _, err := s.LoadSession(context.Background()); !errors.Is(err, tdsession.ErrNotFound) {
		t.Fatalf("LoadSession() error = %v, want ErrNotFound", err)
	}
}
