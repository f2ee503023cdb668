// Package messages carries user-facing notification messages through a
// request's context until the response middleware flushes them.
package messages

import (
	"context"
	"sync"
)

// Levels mirror the usual notification severities templates style on.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Message is one queued notification.
type Message struct {
	Level string
	Text  string
}

type queue struct {
	mu       sync.Mutex
	messages []Message
}

type contextKey struct{}

// With returns a context carrying an empty message queue. Middleware installs
// it once per request; Add is a no-op on contexts without a queue.
func With(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, &queue{})
}

// Add queues a notification on the request's context.
func Add(ctx context.Context, level, text string) {
	q, ok := ctx.Value(contextKey{}).(*queue)
	if !ok {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.messages = append(q.messages, Message{Level: level, Text: text})
}

// Drain returns and clears the queued messages.
func Drain(ctx context.Context) []Message {
	q, ok := ctx.Value(contextKey{}).(*queue)
	if !ok {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	drained := q.messages
	q.messages = nil
	return drained
}
