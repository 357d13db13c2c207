package remote_test

import (
	"context"
	"errors"
	"testing"

	"tg-stats/internal/domain/remote"
	"tg-stats/internal/infra/logger"

	"github.com/gotd/td/tgerr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestExecuteSuccess(t *testing.T) {
	t.Parallel()

	calls := 0
	res := remote.Execute(context.Background(), "answer", func(context.Context) (int, error) {
		calls++
		return 42, nil
	})

	if !res.OK() || res.Value != 42 {
		t.Fatalf("Execute() = %#v, want value 42 and no error", res)
	}
	if calls != 1 {
		t.Fatalf("operation called %d times, want 1", calls)
	}
}

// Логгер глобальный, поэтому тесты, подменяющие его, не параллелятся.
func TestExecuteFailureIsCapturedAndLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	restore := logger.Replace(zap.New(core))
	defer restore()

	calls := 0
	res := remote.Execute(context.Background(), "getChats", func(context.Context) ([]int64, error) {
		calls++
		return []int64{1}, tgerr.New(400, "CHANNEL_PRIVATE")
	})

	if res.OK() {
		t.Fatal("Execute() reported success for a failing operation")
	}
	if res.Value != nil {
		t.Fatalf("Execute() kept value %v on failure", res.Value)
	}
	if calls != 1 {
		t.Fatalf("operation called %d times, want exactly 1", calls)
	}

	entries := logs.FilterMessage("remote call failed").All()
	if len(entries) != 1 {
		t.Fatalf("got %d failure log entries, want 1", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["operation"] != "getChats" {
		t.Fatalf("operation field = %v, want getChats", ctx["operation"])
	}
	if ctx["rpc_type"] != "CHANNEL_PRIVATE" {
		t.Fatalf("rpc_type field = %v, want CHANNEL_PRIVATE", ctx["rpc_type"])
	}
}

func TestExecuteRecoversPanic(t *testing.T) {
	core, _ := observer.New(zap.DebugLevel)
	restore := logger.Replace(zap.New(core))
	defer restore()

	res := remote.Execute(context.Background(), "boom", func(context.Context) (string, error) {
		panic("engine closed")
	})
	if res.OK() {
		t.Fatal("Execute() reported success after panic")
	}
	if res.Err != "panic: engine closed" {
		t.Fatalf("Err = %q", res.Err)
	}
}

func TestDoEmptyErrorMessage(t *testing.T) {
	core, _ := observer.New(zap.DebugLevel)
	restore := logger.Replace(zap.New(core))
	defer restore()

	res := remote.Do(context.Background(), "logout", func(context.Context) error {
		return errors.New("")
	})
	if res.OK() {
		t.Fatal("an error with an empty message must still be a failure")
	}
}
