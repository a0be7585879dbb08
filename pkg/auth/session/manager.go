package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/fruitshop-backend/pkg/config"
	redisclient "github.com/angelmondragon/fruitshop-backend/pkg/redis"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

// Store is the key/value backend sessions are persisted in. Get must return
// redis.Nil for a missing key.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	SessionKey(sessionID string) string
}

// Manager loads and persists visitor sessions in Redis. A whole session is
// written on every save; concurrent requests on one session are last write wins.
type Manager struct {
	store Store
	ttl   time.Duration
	newID func() string
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.SessionConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return NewManagerWithStore(client, cfg.TTL())
}

// NewManagerWithStore builds a manager over any Store.
func NewManagerWithStore(store Store, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Manager{
		store: store,
		ttl:   ttl,
		newID: uuid.NewString,
	}, nil
}

// TTL returns how long an idle session survives.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// New starts an empty, unsaved session.
func (m *Manager) New() *Session {
	return newSession(m.newID())
}

// Load fetches the session stored under id. Unknown, expired or unreadable
// sessions yield a fresh session with a new id.
func (m *Manager) Load(ctx context.Context, id string) (*Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return m.New(), nil
	}
	payload, err := m.store.Get(ctx, m.store.SessionKey(id))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return m.New(), nil
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	sess, err := decode(id, payload)
	if err != nil {
		return m.New(), nil
	}
	return sess, nil
}

// Save persists a modified session and refreshes its TTL. Unmodified
// sessions are left untouched. It reports whether anything was written.
func (m *Manager) Save(ctx context.Context, sess *Session) (bool, error) {
	if sess == nil || !sess.modified {
		return false, nil
	}
	payload, err := sess.encode()
	if err != nil {
		return false, err
	}
	if err := m.store.Set(ctx, m.store.SessionKey(sess.id), payload, m.ttl); err != nil {
		return false, fmt.Errorf("saving session: %w", err)
	}
	if sess.previousID != "" {
		if err := m.store.Del(ctx, m.store.SessionKey(sess.previousID)); err != nil {
			return true, fmt.Errorf("deleting superseded session: %w", err)
		}
		sess.previousID = ""
	}
	sess.isNew = false
	sess.modified = false
	return true, nil
}

// Cycle gives the session a new id while keeping its data. The old key is
// removed on the next Save.
func (m *Manager) Cycle(sess *Session) {
	if sess == nil {
		return
	}
	if !sess.isNew && sess.previousID == "" {
		sess.previousID = sess.id
	}
	sess.id = m.newID()
	sess.modified = true
}

// Flush discards all session data and moves it to a new id.
func (m *Manager) Flush(sess *Session) {
	if sess == nil {
		return
	}
	m.Cycle(sess)
	sess.values = map[string]json.RawMessage{}
}
