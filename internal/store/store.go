// Package store provides the memory album store and its SQLite persistence.
package store

import (
	"context"
	"time"

	"github.com/rcliao/memory-album/internal/model"
)

// Blob keys of the two persisted structures.
const (
	CollectionKey = "@romantic_memories_photos"
	BindingsKey   = "@romantic_memories_notification_ids"
)

// Blobs is durable keyed storage for serialized state.
type Blobs interface {
	// Get returns the blob stored under key. ok is false when absent.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Put replaces the blob stored under key.
	Put(ctx context.Context, key string, data []byte) error

	// Close releases the storage.
	Close() error
}

// NewMemory holds the fields supplied when adding a memory.
type NewMemory struct {
	ImageURIs   []string
	EventName   string
	Description string
	OccurredOn  time.Time
	Frame       model.Frame // empty means model.DefaultFrame
	Song        *model.Song
	Adjustments []model.Adjustment
}

// Patch holds the fields to merge into an existing memory. Nil fields are
// left unchanged. ID, CreatedAt and OccurredOn cannot be patched.
type Patch struct {
	EventName   *string
	Description *string
	Frame       *model.Frame
	// ImageURIs replaces the image list. Unless Adjustments is also set,
	// existing adjustments are dropped since they no longer line up.
	ImageURIs []string
	// Adjustments replaces the per-image adjustments; an empty non-nil
	// slice clears them.
	Adjustments []model.Adjustment
	Song        *model.Song
	ClearSong   bool
}

// SearchParams holds parameters for searching memories.
type SearchParams struct {
	Query string
	Frame model.Frame
	Limit int
}
