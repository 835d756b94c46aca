package store

import (
	"context"

	"github.com/rcliao/memory-album/internal/model"
)

// ExportAll returns every memory, oldest first, ready for Import.
func (a *Album) ExportAll() []model.Memory {
	list := a.List()
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	return list
}

// Import adds memories from an export in order, so the newest export
// entry ends up first. Each one gets a fresh id and reminder. It stops
// at the first memory that fails validation.
func (a *Album) Import(ctx context.Context, memories []model.Memory) (int, error) {
	imported := 0
	for _, m := range memories {
		_, err := a.Add(ctx, NewMemory{
			ImageURIs:   m.ImageURIs,
			EventName:   m.EventName,
			Description: m.Description,
			OccurredOn:  m.OccurredOn,
			Frame:       m.Frame,
			Song:        m.Song,
			Adjustments: m.Adjustments,
		})
		if err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}
