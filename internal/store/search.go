package store

import (
	"sort"
	"strings"
	"time"

	"github.com/rcliao/memory-album/internal/model"
)

// Search finds memories whose event name or description contains the
// query, case-insensitively. An empty query matches everything.
func (a *Album) Search(p SearchParams) []model.Memory {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}
	q := strings.ToLower(strings.TrimSpace(p.Query))

	a.mu.Lock()
	defer a.mu.Unlock()

	var out []model.Memory
	for _, m := range a.memories {
		if p.Frame != "" && m.Frame != p.Frame {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(m.EventName), q) &&
			!strings.Contains(strings.ToLower(m.Description), q) {
			continue
		}
		out = append(out, m.Clone())
		if len(out) == limit {
			break
		}
	}
	return out
}

// Anniversary is a memory paired with its next reminder time.
type Anniversary struct {
	model.Memory
	Next  time.Time `json:"next"`
	Years int       `json:"years"`
}

// Upcoming returns memories whose next anniversary falls within the
// window after now, soonest first.
func (a *Album) Upcoming(now time.Time, within time.Duration) []Anniversary {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []Anniversary
	for _, m := range a.memories {
		next := m.NextAnniversary(now, a.reminderHour, a.reminderMinute)
		if next.Sub(now) > within {
			continue
		}
		out = append(out, Anniversary{
			Memory: m.Clone(),
			Next:   next,
			Years:  next.Year() - m.OccurredOn.Year(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Next.Before(out[j].Next)
	})
	return out
}
