package interfaces

// StorageManager aggregates the durable storage surfaces proxyhive needs:
// the proxy catalog, registered webhooks, and scheduler key/value settings.
type StorageManager interface {
	CatalogStore() CatalogStore
	WebhookStore() WebhookStore
	KeyValueStorage() KeyValueStorage

	// DB returns the underlying database handle (used by tests only).
	DB() interface{}
	Close() error
}
