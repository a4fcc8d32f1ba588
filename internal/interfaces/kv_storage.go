package interfaces

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned when a key is not found in the key/value store.
var ErrKeyNotFound = errors.New("key not found")

// KeyValuePair represents a single key/value pair with metadata.
type KeyValuePair struct {
	Key         string    `json:"key" boltholdKey:"Key"`
	Value       string    `json:"value"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// KeyValueStorage defines operations for generic key/value storage, used to
// persist Scheduler settings across restarts.
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	GetPair(ctx context.Context, key string) (*KeyValuePair, error)
	Set(ctx context.Context, key string, value string, description string) error
	Upsert(ctx context.Context, key string, value string, description string) (bool, error)
	Delete(ctx context.Context, key string) error
	DeleteAll(ctx context.Context) error
	List(ctx context.Context) ([]KeyValuePair, error)
	GetAll(ctx context.Context) (map[string]string, error)
}
