package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	pkgerrors "github.com/mesaviva/mesaviva-backend/pkg/errors"
)

// snapshot is the wire form persisted per session. The line index is derived
// state and rebuilt on load.
type snapshot struct {
	Lines   []Line          `json:"lines"`
	Details DeliveryDetails `json:"details"`
}

// Snapshot serializes the cart for persistence.
func (s *Store) Snapshot() ([]byte, error) {
	payload, err := json.Marshal(snapshot{Lines: s.lines, Details: s.details})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal cart snapshot")
	}
	return payload, nil
}

// RestoreStore rebuilds a cart from a snapshot produced by Snapshot.
func RestoreStore(payload []byte, limits Limits) (*Store, error) {
	var snap snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unmarshal cart snapshot")
	}
	store := NewStore(limits)
	store.details = snap.Details
	for _, line := range snap.Lines {
		line.Key = normalizeKey(line.Key)
		store.lines = append(store.lines, line)
		store.index[line.Key] = len(store.lines) - 1
	}
	return store, nil
}

type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(sessionID string) string
}

// SessionStore keeps one cart per session token, backed by Redis so carts
// survive process restarts for the configured TTL. Access per session is
// serialized; a session has one owner, so the cart is single-writer.
type SessionStore struct {
	kv     kvStore
	limits Limits
	ttl    time.Duration

	mu sync.Mutex
}

// NewSessionStore builds the session-scoped cart persistence layer.
func NewSessionStore(kv kvStore, limits Limits, ttl time.Duration) (*SessionStore, error) {
	if kv == nil {
		return nil, errors.New("kv store required")
	}
	return &SessionStore{kv: kv, limits: limits, ttl: ttl}, nil
}

// Load fetches the session's cart, returning a fresh empty cart when none was
// persisted yet.
func (s *SessionStore) Load(ctx context.Context, sessionID uuid.UUID) (*Store, error) {
	raw, err := s.kv.Get(ctx, s.kv.CartKey(sessionID.String()))
	if errors.Is(err, goredis.Nil) {
		return NewStore(s.limits), nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart snapshot")
	}
	return RestoreStore([]byte(raw), s.limits)
}

// Save persists the cart under the session key, refreshing the TTL.
func (s *SessionStore) Save(ctx context.Context, sessionID uuid.UUID, store *Store) error {
	payload, err := store.Snapshot()
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.kv.CartKey(sessionID.String()), payload, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving cart snapshot")
	}
	return nil
}

// Clear drops the persisted cart for the session.
func (s *SessionStore) Clear(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.kv.Del(ctx, s.kv.CartKey(sessionID.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clearing cart snapshot")
	}
	return nil
}

// Update loads the cart, applies fn, and persists the result atomically with
// respect to other Update calls in this process.
func (s *SessionStore) Update(ctx context.Context, sessionID uuid.UUID, fn func(*Store) error) (*Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(store); err != nil {
		return nil, err
	}
	if err := s.Save(ctx, sessionID, store); err != nil {
		return nil, err
	}
	return store, nil
}
