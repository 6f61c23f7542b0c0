package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

const defaultNamespace = "eventagent:session"

// Store persists sessions by ID on top of a Cache.
type Store struct {
	core      Cache[*Session]
	namespace string
	now       func() time.Time
}

type StoreOption func(*Store)

func WithNamespace(ns string) StoreOption {
	return func(s *Store) {
		if ns != "" {
			s.namespace = ns
		}
	}
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(core Cache[*Session], opts ...StoreOption) *Store {
	s := &Store{core: core, namespace: defaultNamespace, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func NewMemoryStore(ttl time.Duration, opts ...StoreOption) *Store {
	return NewStore(NewMemoryCache[*Session](ttl), opts...)
}

func (s *Store) key(id string) string {
	return s.namespace + ":" + id
}

// Create starts an empty session with a random ID.
func (s *Store) Create(ctx context.Context) (*Session, error) {
	return s.CreateWithID(ctx, uuid.NewString())
}

func (s *Store) CreateWithID(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, errors.New("session id is empty")
	}
	sess := newSession(id, s.now())
	if err := s.core.Set(ctx, s.key(id), sess.Clone()); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// Load returns a copy of the stored session or ErrNotFound.
func (s *Store) Load(ctx context.Context, id string) (*Session, error) {
	sess, ok, err := s.core.Get(ctx, s.key(id))
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	if !ok || sess == nil {
		return nil, ErrNotFound
	}
	return sess.Clone(), nil
}

func (s *Store) Save(ctx context.Context, sess *Session) error {
	if sess == nil || sess.ID == "" {
		return errors.New("session id is empty")
	}
	sess.UpdatedAt = s.now()
	if err := s.core.Set(ctx, s.key(sess.ID), sess.Clone()); err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	ok, err := s.core.Exists(ctx, s.key(id))
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if !ok {
		return ErrNotFound
	}
	return s.core.Del(ctx, s.key(id))
}
