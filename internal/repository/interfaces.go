package repository

import (
	"context"
	"time"

	"github.com/ludoteca/catalog-api/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uint) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, req domain.PageRequest) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id uint) error
}

type BoardGameRepository interface {
	Create(ctx context.Context, game *domain.BoardGame) error
	CreateMany(ctx context.Context, games []*domain.BoardGame) error
	GetByID(ctx context.Context, id uint) (*domain.BoardGame, error)
	List(ctx context.Context, req domain.PageRequest) ([]*domain.BoardGame, error)
	Update(ctx context.Context, game *domain.BoardGame) error
	Delete(ctx context.Context, id uint) error
}

// Cache is a key/value store with expiring entries, consumed cache-aside.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// IdempotencyLedger maps a client-supplied key to the resource id that
// request produced, with a reverse index so deletes can clean up.
type IdempotencyLedger interface {
	// Bind stores key -> resourceID and resourceID -> key with a shared
	// TTL. The write is atomic across both entries and keeps the first
	// binding when two requests race on the same key.
	Bind(ctx context.Context, scope, key, resourceID string, ttl time.Duration) error
	// Resolve returns the bound resource id, or ok=false when the key is
	// unknown or expired.
	Resolve(ctx context.Context, scope, key string) (string, bool, error)
	// Unbind removes both entries via the reverse index. Unknown ids are
	// a no-op.
	Unbind(ctx context.Context, scope, resourceID string) error
}

// JobQueue delivers enqueued payloads at least once to a consumer.
type JobQueue interface {
	Enqueue(ctx context.Context, queue string, payload []byte) error
	Dequeue(ctx context.Context, queue string, timeout time.Duration) ([]byte, error)
}

type Repositories struct {
	User      UserRepository
	BoardGame BoardGameRepository
}
