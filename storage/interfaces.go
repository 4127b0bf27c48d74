package storage

import "nhatot-market/models"

// SnapshotPersister is the interface the orchestration layer uses to store
// one city's batch of canonical listings.
type SnapshotPersister interface {
	Persist(name string, listings []*models.Listing) ([]*models.Listing, models.SnapshotPaths, error)
}

// ListingWriter is the interface any row-keyed storage backend must satisfy.
type ListingWriter interface {
	Write(listings []*models.Listing) error
	Close() error
}
