package middleware

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/fruitshop-backend/pkg/auth/session"
	"github.com/angelmondragon/fruitshop-backend/pkg/config"
	redislib "github.com/redis/go-redis/v9"
)

type memorySessionStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{data: map[string]string{}}
}

func (m *memorySessionStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memorySessionStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (m *memorySessionStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memorySessionStore) SessionKey(id string) string {
	return "session:" + id
}

func (m *memorySessionStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{
		Secret:     "test-secret",
		Issuer:     "fruitshop-test",
		CookieName: "fs_session",
		TTLMinutes: 60,
	}
}

func newTestSessionManager(t *testing.T, store session.Store) *session.Manager {
	t.Helper()
	manager, err := session.NewManagerWithStore(store, time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return manager
}
