package local

import (
	"context"
	"fmt"

	"github.com/callumalpass/study-program/internal/storage"
)

// Collections
const (
	CatalogsCollection = "catalogs"
	ReportsCollection  = "reports"
	latestID           = "latest"
)

// CatalogStore writes catalog snapshots as JSON documents: one per digest
// plus a "latest" copy.
type CatalogStore struct {
	store *Store
}

// NewCatalogStore creates a catalog sink over store
func NewCatalogStore(store *Store) *CatalogStore {
	return &CatalogStore{store: store}
}

// Name identifies the sink in logs.
func (c *CatalogStore) Name() string { return "local" }

// WriteCatalog saves snap under its digest and as the latest snapshot
func (c *CatalogStore) WriteCatalog(ctx context.Context, snap *storage.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snap.Digest == "" {
		return fmt.Errorf("snapshot has no digest")
	}
	if err := c.store.Save(CatalogsCollection, snap.Digest, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := c.store.Save(CatalogsCollection, latestID, snap); err != nil {
		return fmt.Errorf("save latest snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recently written snapshot
func (c *CatalogStore) Latest() (*storage.Snapshot, error) {
	return c.Get(latestID)
}

// Get returns the snapshot stored under digest
func (c *CatalogStore) Get(digest string) (*storage.Snapshot, error) {
	var snap storage.Snapshot
	if err := c.store.Load(CatalogsCollection, digest, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Digests lists the digests of every stored snapshot
func (c *CatalogStore) Digests() ([]string, error) {
	ids, err := c.store.List(CatalogsCollection)
	if err != nil {
		return nil, err
	}
	out := ids[:0]
	for _, id := range ids {
		if id != latestID {
			out = append(out, id)
		}
	}
	return out, nil
}

// SaveReport stores a validation report under id
func (s *Store) SaveReport(id string, report any) error {
	return s.Save(ReportsCollection, id, report)
}
