package models

import (
	"fmt"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// favoritesKey is the single record the favorites set lives under. The set
// is always written wholesale; there is no per-item persistence.
const favoritesKey = "favorites"

// FavoritesRecord is the persisted form of the favorites set: an ordered
// list of serialized movie payloads. Order is display-significant.
type FavoritesRecord struct {
	Payloads  []string
	UpdatedAt time.Time
}

// Database wraps the bolthold store
type Database struct {
	store *bolthold.Store
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// LoadFavorites reads the persisted favorites record. A database that has
// never been written returns an empty record, not an error.
func (db *Database) LoadFavorites() (*FavoritesRecord, error) {
	var record FavoritesRecord
	err := db.store.Get(favoritesKey, &record)
	if err == bolthold.ErrNotFound {
		return &FavoritesRecord{Payloads: []string{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// SaveFavorites overwrites the favorites record in its entirety.
func (db *Database) SaveFavorites(record *FavoritesRecord) error {
	record.UpdatedAt = time.Now()
	return db.store.Upsert(favoritesKey, record)
}
