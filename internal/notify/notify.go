// Package notify collects the toast-style messages that state containers raise
// while a request is being served. Each request carries its own Buffer in the
// context, so messages from concurrent requests never mix.
package notify

import (
	"context"
	"sync"

	"github.com/angelmondragon/storefront/pkg/types"
)

const (
	VariantDefault     = "default"
	VariantDestructive = "destructive"
)

type ctxKey struct{}

type Buffer struct {
	mu    sync.Mutex
	items []types.Notification
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

func (b *Buffer) Push(n types.Notification) {
	if b == nil {
		return
	}
	if n.Variant == "" {
		n.Variant = VariantDefault
	}
	b.mu.Lock()
	b.items = append(b.items, n)
	b.mu.Unlock()
}

// Drain returns the buffered notifications in push order and empties the buffer.
func (b *Buffer) Drain() []types.Notification {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.items
	b.items = nil
	return out
}

func WithBuffer(ctx context.Context, b *Buffer) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, b)
}

func FromContext(ctx context.Context) *Buffer {
	if ctx == nil {
		return nil
	}
	b, _ := ctx.Value(ctxKey{}).(*Buffer)
	return b
}

// Info records a default notification. Without a buffer in ctx it is dropped.
func Info(ctx context.Context, title, description string) {
	FromContext(ctx).Push(types.Notification{Title: title, Description: description, Variant: VariantDefault})
}

func Destructive(ctx context.Context, title, description string) {
	FromContext(ctx).Push(types.Notification{Title: title, Description: description, Variant: VariantDestructive})
}

func Drain(ctx context.Context) []types.Notification {
	return FromContext(ctx).Drain()
}
