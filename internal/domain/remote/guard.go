package remote

import (
	"context"
	"fmt"

	"tg-stats/internal/infra/logger"

	"github.com/gotd/td/tgerr"
	"go.uber.org/zap"
)

// Result: конверт результата удалённого вызова: либо значение, либо текст ошибки.
// Живёт только в пределах места вызова и не хранится долговременно.
type Result[T any] struct {
	Value T
	Err   string
}

// OK сообщает об успехе: текст ошибки пуст.
func (r Result[T]) OK() bool {
	return r.Err == ""
}

// Execute выполняет op ровно один раз (без скрытых повторов) и упаковывает итог в Result.
// Любая ошибка, включая RPC-ошибки Telegram и панику внутри op, превращается в Result
// с текстом ошибки и логируется с именем операции. Наружу ошибка не пробрасывается:
// решение «фатально ли отсутствие значения» принимает вызывающий код.
func Execute[T any](ctx context.Context, operation string, op func(ctx context.Context) (T, error)) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			res = Result[T]{Value: zero, Err: fmt.Sprintf("panic: %v", r)}
			logger.Error("remote call panicked",
				zap.String("operation", operation),
				zap.Any("panic", r),
			)
		}
	}()

	value, err := op(ctx)
	if err == nil {
		return Result[T]{Value: value}
	}

	msg := err.Error()
	if msg == "" {
		msg = "unknown error"
	}

	fields := []zap.Field{zap.String("operation", operation), zap.Error(err)}
	if rpcErr, ok := tgerr.As(err); ok {
		fields = append(fields,
			zap.String("rpc_type", rpcErr.Type),
			zap.Int("rpc_code", rpcErr.Code),
		)
	}
	logger.Warn("remote call failed", fields...)

	var zero T
	return Result[T]{Value: zero, Err: msg}
}

// Ack: значение для вызовов без полезного результата.
type Ack struct{}

// Do: вариант Execute для операций, которые возвращают только ошибку.
func Do(ctx context.Context, operation string, op func(ctx context.Context) error) Result[Ack] {
	return Execute(ctx, operation, func(ctx context.Context) (Ack, error) {
		return Ack{}, op(ctx)
	})
}
