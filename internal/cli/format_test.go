package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/memory-album/internal/model"
	"github.com/rcliao/memory-album/internal/notify"
	"github.com/rcliao/memory-album/internal/store"
)

func TestParseDate(t *testing.T) {
	d, err := parseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.Local), d)

	d, err = parseDate("  ")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = parseDate("29/02/2024")
	assert.ErrorContains(t, err, "YYYY-MM-DD")
}

func TestParseAdjustments(t *testing.T) {
	got, err := parseAdjustments([]string{"1.5,10,-4", "2", " 1 , 3 "})
	require.NoError(t, err)
	assert.Equal(t, []model.Adjustment{
		{Scale: 1.5, TranslateX: 10, TranslateY: -4},
		{Scale: 2},
		{Scale: 1, TranslateX: 3},
	}, got)

	_, err = parseAdjustments([]string{"1,2,3,4"})
	assert.Error(t, err)
	_, err = parseAdjustments([]string{"big"})
	assert.Error(t, err)

	none, err := parseAdjustments(nil)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestClockTime(t *testing.T) {
	assert.Equal(t, "0:00", clockTime(0))
	assert.Equal(t, "1:05", clockTime(65.9))
	assert.Equal(t, "12:00", clockTime(720))
}

func TestWriteMemoryLine(t *testing.T) {
	var buf bytes.Buffer
	writeMemoryLine(&buf, model.Memory{
		ID:         "01HX",
		ImageURIs:  []string{"a.jpg", "b.jpg"},
		EventName:  "First date",
		OccurredOn: time.Date(2021, time.June, 5, 0, 0, 0, 0, time.Local),
		Frame:      model.FrameRoses,
		CreatedAt:  time.Now().Add(-3 * time.Hour),
		Song:       &model.Song{URI: "s.mp3", Name: "Our song"},
	})
	line := buf.String()
	assert.Contains(t, line, "01HX")
	assert.Contains(t, line, "🌹 First date")
	assert.Contains(t, line, "2021-06-05")
	assert.Contains(t, line, "2 photos")
	assert.Contains(t, line, "3 hours ago")
	assert.Contains(t, line, "♪ Our song")
}

func TestWriteMemoryDetailDefaultsAdjustments(t *testing.T) {
	var buf bytes.Buffer
	writeMemoryDetail(&buf, model.Memory{
		ID:          "01HX",
		ImageURIs:   []string{"a.jpg", "b.jpg"},
		EventName:   "Trip",
		Frame:       model.FrameHearts,
		CreatedAt:   time.Now(),
		Adjustments: []model.Adjustment{{Scale: 2, TranslateX: 5}},
	}, "handle-1")
	out := buf.String()
	assert.Contains(t, out, "[0] a.jpg  scale=2 x=5 y=0")
	assert.Contains(t, out, "[1] b.jpg  scale=1 x=0 y=0")
	assert.Contains(t, out, "Reminder:    handle-1")
}

func TestWriteAnniversary(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.Local)
	var buf bytes.Buffer
	writeAnniversary(&buf, store.Anniversary{
		Memory: model.Memory{ID: "01HX", EventName: "Wedding"},
		Next:   time.Date(2026, time.June, 4, 9, 0, 0, 0, time.Local),
		Years:  3,
	}, now)
	assert.Contains(t, buf.String(), "2026-06-04  Wedding  3rd anniversary")
	assert.Contains(t, buf.String(), "from now")
}

func TestWriteReminderLines(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.Local)
	var buf bytes.Buffer
	writeReminderLines(&buf, []notify.Scheduled{{
		MemoryID: "01HX",
		Title:    "💕 Wedding Anniversary!",
		NextFire: time.Date(2026, time.June, 4, 9, 0, 0, 0, time.Local),
	}}, now)
	assert.Contains(t, buf.String(), "2026-06-04 09:00  💕 Wedding Anniversary!")
	assert.Contains(t, buf.String(), "(01HX)")
}
