package badger

import (
	"github.com/proxyhive/proxyhive/internal/common"
	"github.com/proxyhive/proxyhive/internal/interfaces"
	"github.com/ternarybob/arbor"
)

// Manager implements interfaces.StorageManager for Badger.
type Manager struct {
	db      *BadgerDB
	catalog interfaces.CatalogStore
	webhook interfaces.WebhookStore
	kv      interfaces.KeyValueStorage
	logger  arbor.ILogger
}

// NewManager creates a new Badger storage manager.
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:      db,
		catalog: NewCatalogStorage(db, logger),
		webhook: NewWebhookStorage(db, logger),
		kv:      NewKVStorage(db, logger),
		logger:  logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// CatalogStore returns the proxy catalog storage interface.
func (m *Manager) CatalogStore() interfaces.CatalogStore {
	return m.catalog
}

// WebhookStore returns the webhook storage interface.
func (m *Manager) WebhookStore() interfaces.WebhookStore {
	return m.webhook
}

// KeyValueStorage returns the key/value storage interface.
func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kv
}

// DB returns the underlying database connection.
func (m *Manager) DB() interface{} {
	if m.db != nil {
		return m.db.Store()
	}
	return nil
}

// Close closes the database connection.
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
