package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rcliao/memory-album/internal/model"
	"github.com/rcliao/memory-album/internal/store"
)

const dateLayout = "2006-01-02"

// parseDate reads a calendar date in local time. Empty means zero.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}

// parseAdjustments reads entries of the form "scale,translateX,translateY".
// Missing translations default to 0.
func parseAdjustments(raw []string) ([]model.Adjustment, error) {
	var out []model.Adjustment
	for _, r := range raw {
		parts := strings.Split(r, ",")
		if len(parts) > 3 {
			return nil, fmt.Errorf("adjustment %q: want scale,x,y", r)
		}
		var vals [3]float64
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return nil, fmt.Errorf("adjustment %q: %w", r, err)
			}
			vals[i] = v
		}
		out = append(out, model.Adjustment{Scale: vals[0], TranslateX: vals[1], TranslateY: vals[2]})
	}
	return out, nil
}

func writeMemoryLine(w io.Writer, m model.Memory) {
	emoji := ""
	if st, ok := m.Frame.Style(); ok && st.Emoji != "" {
		emoji = st.Emoji + " "
	}
	song := ""
	if m.Song != nil {
		song = fmt.Sprintf("  ♪ %s", m.Song.Name)
	}
	fmt.Fprintf(w, "%s  %s%s  %s  %s, added %s%s\n",
		m.ID, emoji, m.EventName, m.OccurredOn.Format(dateLayout),
		pluralImages(len(m.ImageURIs)), humanize.Time(m.CreatedAt), song)
}

func writeMemoryDetail(w io.Writer, m model.Memory, handle string) {
	fmt.Fprintf(w, "ID:          %s\n", m.ID)
	fmt.Fprintf(w, "Event:       %s\n", m.EventName)
	if m.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", m.Description)
	}
	fmt.Fprintf(w, "Date:        %s\n", m.OccurredOn.Format(dateLayout))
	fmt.Fprintf(w, "Frame:       %s\n", m.Frame)
	fmt.Fprintf(w, "Added:       %s\n", humanize.Time(m.CreatedAt))
	if m.Song != nil {
		fmt.Fprintf(w, "Song:        %s (%s)\n", m.Song.Name, m.Song.URI)
	}
	if handle != "" {
		fmt.Fprintf(w, "Reminder:    %s\n", handle)
	}
	for i, uri := range m.ImageURIs {
		adj := m.AdjustmentAt(i)
		fmt.Fprintf(w, "  [%d] %s  scale=%g x=%g y=%g\n", i, uri, adj.Scale, adj.TranslateX, adj.TranslateY)
	}
}

func writeAnniversary(w io.Writer, a store.Anniversary, now time.Time) {
	label := "anniversary"
	if a.Years > 0 {
		label = humanize.Ordinal(a.Years) + " anniversary"
	}
	fmt.Fprintf(w, "%s  %s  %s, %s (%s)\n",
		a.Next.Format(dateLayout), a.EventName, label,
		humanize.RelTime(a.Next, now, "ago", "from now"), a.ID)
}

func pluralImages(n int) string {
	if n == 1 {
		return "1 photo"
	}
	return humanize.Comma(int64(n)) + " photos"
}
