package service

import (
	"time"

	"github.com/pkg/errors"
)

var ErrPersistenceNotExists = errors.New("persistent data does not exist")

// PersistenceService hands out namespaced key/value stores. The concrete
// backend comes from the persistence section of the config.
type PersistenceService interface {
	NewStore(id string, subIDs ...string) Store
}

// Store is one slot of persisted state. The volume snapshot, the update
// loop state and the api cache each live in their own slot.
type Store interface {
	Load(val interface{}) error
	Save(val interface{}) error
	Reset() error
}

// Expirable lets a saved value carry its own TTL, honored by the redis
// backend only.
type Expirable interface {
	Expiration() time.Duration
}

type RedisPersistenceConfig struct {
	Host      string `yaml:"host" json:"host"`
	Port      string `yaml:"port" json:"port"`
	Password  string `yaml:"password,omitempty" json:"password,omitempty"`
	DB        int    `yaml:"db" json:"db"`
	Namespace string `yaml:"namespace" json:"namespace"`
}

type JsonPersistenceConfig struct {
	Directory string `yaml:"directory" json:"directory"`
}
