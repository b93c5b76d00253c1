package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ChangeFeed fans out per-user change notifications. Handlers run on the
// feed's goroutine and must not block.
type ChangeFeed interface {
	Publish(ctx context.Context, userID uint, payload []byte) error
	Subscribe(ctx context.Context, userID uint, fn func(payload []byte)) (unsubscribe func())
}

type MemoryChangeFeed struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[uint]map[int]func([]byte)
}

func NewMemoryChangeFeed() *MemoryChangeFeed {
	return &MemoryChangeFeed{handlers: map[uint]map[int]func([]byte){}}
}

func (f *MemoryChangeFeed) Publish(ctx context.Context, userID uint, payload []byte) error {
	f.mu.RLock()
	handlers := make([]func([]byte), 0, len(f.handlers[userID]))
	for _, fn := range f.handlers[userID] {
		handlers = append(handlers, fn)
	}
	f.mu.RUnlock()

	for _, fn := range handlers {
		fn(payload)
	}
	return nil
}

func (f *MemoryChangeFeed) Subscribe(ctx context.Context, userID uint, fn func([]byte)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	if f.handlers[userID] == nil {
		f.handlers[userID] = map[int]func([]byte){}
	}
	f.handlers[userID][id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.handlers[userID], id)
			if len(f.handlers[userID]) == 0 {
				delete(f.handlers, userID)
			}
		})
	}
}

// Subscribers reports how many handlers are registered for a user.
func (f *MemoryChangeFeed) Subscribers(userID uint) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.handlers[userID])
}

type RedisChangeFeed struct {
	client *redis.Client
}

func NewRedisChangeFeed(addr string) *RedisChangeFeed {
	return &RedisChangeFeed{client: redis.NewClient(&redis.Options{Addr: addr})}
}

func changeChannel(userID uint) string {
	return fmt.Sprintf("wardrobewiz:changes:%d", userID)
}

func (f *RedisChangeFeed) Publish(ctx context.Context, userID uint, payload []byte) error {
	return f.client.Publish(ctx, changeChannel(userID), payload).Err()
}

func (f *RedisChangeFeed) Subscribe(ctx context.Context, userID uint, fn func([]byte)) func() {
	pubsub := f.client.Subscribe(ctx, changeChannel(userID))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range pubsub.Channel() {
			fn([]byte(msg.Payload))
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := pubsub.Close(); err != nil {
				log.Warn().Err(err).Uint("user_id", userID).Msg("closing change subscription")
			}
			<-done
		})
	}
}

func (f *RedisChangeFeed) Close() error {
	return f.client.Close()
}
