package tool

import "context"

// NotifyFunc receives progress messages emitted by memory tools while
// they run, e.g. "Searching memories: ...".
type NotifyFunc func(ctx context.Context, msg string)

type notifyKey struct{}

// WithNotify returns a context that delivers tool progress messages to fn.
func WithNotify(ctx context.Context, fn NotifyFunc) context.Context {
	return context.WithValue(ctx, notifyKey{}, fn)
}

// Notify sends a progress message to the NotifyFunc in ctx, if any.
func Notify(ctx context.Context, msg string) {
	if fn, ok := ctx.Value(notifyKey{}).(NotifyFunc); ok {
		fn(ctx, msg)
	}
}
