package store

import "time"

// Meta keys written after each successful index run.
const (
	MetaRoot      = "root"
	MetaProvider  = "provider"
	MetaModel     = "model"
	MetaChunking  = "chunking"
	MetaIndexedAt = "indexed_at"
	MetaOverview  = "overview"
)

// Counts summarizes what the store holds.
type Counts struct {
	Files     int
	Chunks    int
	IndexedAt time.Time
}
