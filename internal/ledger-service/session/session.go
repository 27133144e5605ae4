package session

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNoSession indica token ausente, expirado ou revogado
var ErrNoSession = errors.New("session not found")

// Store guarda tokens opacos de sessão apontando para o id do usuário
type Store interface {
	Create(ctx context.Context, userID int64) (string, error)
	Lookup(ctx context.Context, token string) (int64, error)
	Delete(ctx context.Context, token string) error
}

func newToken() string { return uuid.NewString() }

// Redis mantém as sessões com expiração nativa (SET ... EX)
type Redis struct {
	R   *redis.Client
	TTL time.Duration
}

func NewRedis(r *redis.Client, ttl time.Duration) *Redis { return &Redis{R: r, TTL: ttl} }

func keySession(token string) string { return "session:" + token }

func (s *Redis) Create(ctx context.Context, userID int64) (string, error) {
	token := newToken()
	if err := s.R.Set(ctx, keySession(token), strconv.FormatInt(userID, 10), s.TTL).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (s *Redis) Lookup(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, ErrNoSession
	}
	v, err := s.R.Get(ctx, keySession(token)).Result()
	if err == redis.Nil {
		return 0, ErrNoSession
	}
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, ErrNoSession
	}
	return id, nil
}

func (s *Redis) Delete(ctx context.Context, token string) error {
	return s.R.Del(ctx, keySession(token)).Err()
}

// Memory é usado quando não há Redis configurado (dev local com SQLite) e nos testes
type Memory struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	data map[string]entry
}

type entry struct {
	userID  int64
	expires time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now, data: map[string]entry{}}
}

func (m *Memory) Create(_ context.Context, userID int64) (string, error) {
	token := newToken()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[token] = entry{userID: userID, expires: m.now().Add(m.ttl)}
	return token, nil
}

func (m *Memory) Lookup(_ context.Context, token string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[token]
	if !ok {
		return 0, ErrNoSession
	}
	if m.ttl > 0 && !m.now().Before(e.expires) {
		delete(m.data, token)
		return 0, ErrNoSession
	}
	return e.userID, nil
}

func (m *Memory) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, token)
	return nil
}
