// Package model defines the core memory album data types.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid memory")

// Validation errors returned before any state change.
var (
	ErrNoImages          = fmt.Errorf("%w: at least one image is required", ErrInvalid)
	ErrEmptyEventName    = fmt.Errorf("%w: event name is required", ErrInvalid)
	ErrTooManyAdjusts    = fmt.Errorf("%w: more adjustments than images", ErrInvalid)
	ErrIncompleteSong    = fmt.Errorf("%w: song needs both uri and name", ErrInvalid)
	ErrInvalidAdjustment = fmt.Errorf("%w: adjustment scale must be positive", ErrInvalid)
)

// Memory is one album entry: photos plus metadata.
type Memory struct {
	ID          string       `json:"id"`
	ImageURIs   []string     `json:"uris"`
	EventName   string       `json:"eventName"`
	Description string       `json:"description,omitempty"`
	OccurredOn  time.Time    `json:"date"`
	Frame       Frame        `json:"frame"`
	CreatedAt   time.Time    `json:"createdAt"`
	Song        *Song        `json:"song,omitempty"`
	Adjustments []Adjustment `json:"imageAdjustments,omitempty"`
}

// Song is the optional background track of a memory.
type Song struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

// Adjustment is a view transform applied to the image at the same index.
type Adjustment struct {
	Scale      float64 `json:"scale"`
	TranslateX float64 `json:"translateX"`
	TranslateY float64 `json:"translateY"`
}

// Identity is the adjustment used for images without an explicit entry.
var Identity = Adjustment{Scale: 1}

// AdjustmentAt returns the adjustment for image i, or Identity.
func (m *Memory) AdjustmentAt(i int) Adjustment {
	if i < 0 || i >= len(m.Adjustments) {
		return Identity
	}
	return m.Adjustments[i]
}

// Validate checks the invariants every stored memory must hold.
func (m *Memory) Validate() error {
	if len(m.ImageURIs) == 0 {
		return ErrNoImages
	}
	if strings.TrimSpace(m.EventName) == "" {
		return ErrEmptyEventName
	}
	if len(m.Adjustments) > len(m.ImageURIs) {
		return ErrTooManyAdjusts
	}
	for _, a := range m.Adjustments {
		if a.Scale <= 0 {
			return ErrInvalidAdjustment
		}
	}
	if m.Song != nil && (m.Song.URI == "" || m.Song.Name == "") {
		return ErrIncompleteSong
	}
	if !m.Frame.Valid() {
		return fmt.Errorf("%w: unknown frame %q", ErrInvalid, m.Frame)
	}
	return nil
}

// Clone returns a deep copy, so callers never alias stored slices.
func (m Memory) Clone() Memory {
	c := m
	c.ImageURIs = append([]string(nil), m.ImageURIs...)
	if m.Adjustments != nil {
		c.Adjustments = append([]Adjustment(nil), m.Adjustments...)
	}
	if m.Song != nil {
		s := *m.Song
		c.Song = &s
	}
	return c
}

// NextAnniversary returns the next yearly occurrence of the memory's
// month/day at hour:minute, at or after now.
func (m *Memory) NextAnniversary(now time.Time, hour, minute int) time.Time {
	return NextOccurrence(m.OccurredOn.Month(), m.OccurredOn.Day(), hour, minute, now)
}

// NextOccurrence returns the first month/day at hour:minute in now's
// location that is not before now. Feb 29 falls on Feb 28 in common years.
func NextOccurrence(month time.Month, day, hour, minute int, now time.Time) time.Time {
	for year := now.Year(); ; year++ {
		t := dateIn(year, month, day, hour, minute, now.Location())
		if !t.Before(now) {
			return t
		}
	}
}

func dateIn(year int, month time.Month, day, hour, minute int, loc *time.Location) time.Time {
	if month == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, month, day, hour, minute, 0, 0, loc)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
