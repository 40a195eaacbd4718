package storage

import "appero/internal/models"

type CompressorInterface interface {
	Compress(val []byte) ([]byte, error)
	Decompress(val []byte) ([]byte, error)
	Close()
}

// StateStoreInterface is the durable home of the sync engine's document.
// Only the engine's serialized mutation path calls Save.
type StateStoreInterface interface {
	Load() (*models.PersistedState, error)
	Save(state *models.PersistedState) error
	Delete() error
}
