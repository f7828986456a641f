package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/invorya-transformaciones/internal/application/transformation"
	"github.com/jhoicas/invorya-transformaciones/internal/domain"
)

var _ transformation.Locker = (*Locker)(nil)

// Locker bloqueos con TTL en proceso. Para una sola instancia o tests; en producción se usa Redis.
type Locker struct {
	mu    sync.Mutex
	locks map[string]heldLock
}

type heldLock struct {
	token     string
	expiresAt time.Time
}

// NewLocker crea un locker vacío.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]heldLock)}
}

// Obtain adquiere key por ttl o devuelve domain.ErrLockNotObtained.
func (l *Locker) Obtain(_ context.Context, key string, ttl time.Duration) (transformation.Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if h, ok := l.locks[key]; ok && now.Before(h.expiresAt) {
		return nil, domain.ErrLockNotObtained
	}
	token := uuid.New().String()
	l.locks[key] = heldLock{token: token, expiresAt: now.Add(ttl)}
	return &memLock{l: l, key: key, token: token}, nil
}

type memLock struct {
	l     *Locker
	key   string
	token string
}

// Release libera el bloqueo solo si sigue siendo del mismo dueño.
func (m *memLock) Release(_ context.Context) error {
	m.l.mu.Lock()
	defer m.l.mu.Unlock()
	if h, ok := m.l.locks[m.key]; ok && h.token == m.token {
		delete(m.l.locks, m.key)
	}
	return nil
}
