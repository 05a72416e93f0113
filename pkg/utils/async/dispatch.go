package async

import (
	"context"
	"runtime/debug"

	"github.com/m-mizutani/ctxlog"
)

// Dispatch runs handler on its own goroutine. The handler receives a
// detached context: the logger carried by ctx is preserved, but
// cancellation of ctx does not reach the handler, so the work outlives the
// request that triggered it. Panics are recovered and logged, returned
// errors are logged. Neither propagates to the caller.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	detached := detachContext(ctx)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ctxlog.From(detached).Error("panic in async handler",
					"recover", r,
					"stack", string(debug.Stack()),
				)
			}
		}()

		if err := handler(detached); err != nil {
			ctxlog.From(detached).Error("error in async handler", "error", err)
		}
	}()
}

// detachContext returns a background context carrying the logger from ctx
func detachContext(ctx context.Context) context.Context {
	return ctxlog.With(context.Background(), ctxlog.From(ctx))
}
