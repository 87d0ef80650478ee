package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/pinboard/internal/domain"
)

// ErrSessionNotFound is returned when the session is missing, expired or unreadable.
var ErrSessionNotFound = errors.New("session not found")

// ErrStoreUnavailable wraps failures talking to Redis.
var ErrStoreUnavailable = errors.New("session store unavailable")

const sessionIDBytes = 32

// Store persists sessions in Redis with a per-key expiry.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewStore builds a store. Keys are written as <prefix>:session:<id>.
func NewStore(client *redis.Client, prefix string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{client: client, prefix: prefix, ttl: ttl, now: time.Now}
}

type record struct {
	UserID    string `json:"uid"`
	CreatedAt int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

func (s *Store) key(id string) string {
	return s.prefix + ":session:" + id
}

// Create starts a new session for userID.
func (s *Store) Create(ctx context.Context, userID string) (*domain.Session, error) {
	if userID == "" {
		return nil, errors.New("session requires a user id")
	}
	id, err := newSessionID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	now := s.now().UTC().Truncate(time.Second)
	sess := &domain.Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	payload, err := json.Marshal(record{
		UserID:    sess.UserID,
		CreatedAt: sess.CreatedAt.Unix(),
		ExpiresAt: sess.ExpiresAt.Unix(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.client.Set(ctx, s.key(id), payload, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return sess, nil
}

// Get loads a live session.
func (s *Store) Get(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil || rec.UserID == "" {
		return nil, ErrSessionNotFound
	}
	sess := &domain.Session{
		ID:        id,
		UserID:    rec.UserID,
		CreatedAt: time.Unix(rec.CreatedAt, 0).UTC(),
		ExpiresAt: time.Unix(rec.ExpiresAt, 0).UTC(),
	}
	if sess.Expired(s.now()) {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Delete destroys a session. Deleting an unknown session succeeds.
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func newSessionID() (string, error) {
	var buf [sessionIDBytes]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf[:]), nil
}
