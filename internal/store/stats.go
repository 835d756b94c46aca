package store

import (
	"os"

	"github.com/rcliao/memory-album/internal/model"
)

// Stats holds album statistics.
type Stats struct {
	DBPath         string       `json:"db_path"`
	DBSizeBytes    int64        `json:"db_size_bytes"`
	TotalMemories  int          `json:"total_memories"`
	TotalImages    int          `json:"total_images"`
	WithSong       int          `json:"with_song"`
	WithReminder   int          `json:"with_reminder"`
	AdjustedImages int          `json:"adjusted_images"`
	Frames         []FrameStats `json:"frames"`
}

// FrameStats holds per-frame counts.
type FrameStats struct {
	Frame model.Frame `json:"frame"`
	Count int         `json:"count"`
}

// Stats returns album statistics. dbPath is only used for the file size.
func (a *Album) Stats(dbPath string) *Stats {
	st := &Stats{DBPath: dbPath}

	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	counts := map[model.Frame]int{}
	for _, m := range a.memories {
		st.TotalMemories++
		st.TotalImages += len(m.ImageURIs)
		st.AdjustedImages += len(m.Adjustments)
		if m.Song != nil {
			st.WithSong++
		}
		if _, ok := a.bindings[m.ID]; ok {
			st.WithReminder++
		}
		counts[m.Frame]++
	}
	for _, f := range model.Frames {
		if counts[f] > 0 {
			st.Frames = append(st.Frames, FrameStats{Frame: f, Count: counts[f]})
		}
	}
	return st
}
