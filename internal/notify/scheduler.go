// Package notify schedules the yearly anniversary reminders of memories.
package notify

import (
	"context"
	"fmt"
	"time"
)

// Reminder describes a yearly-recurring local notification.
type Reminder struct {
	MemoryID string
	Title    string
	Body     string
	Month    time.Month
	Day      int
	Hour     int
	Minute   int
}

// Scheduled is a reminder known to the scheduler.
type Scheduled struct {
	Handle   string    `json:"handle"`
	MemoryID string    `json:"memory_id"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Month    int       `json:"month"`
	Day      int       `json:"day"`
	Hour     int       `json:"hour"`
	Minute   int       `json:"minute"`
	NextFire time.Time `json:"next_fire"`
}

// Scheduler is the platform notification facility.
type Scheduler interface {
	// ScheduleYearly registers r and returns an opaque handle. An empty
	// handle with a nil error means the user has not granted permission.
	ScheduleYearly(ctx context.Context, r Reminder) (string, error)

	// Cancel removes a scheduled reminder. Unknown handles are ignored.
	Cancel(ctx context.Context, handle string) error

	// ListScheduled returns every pending reminder.
	ListScheduled(ctx context.Context) ([]Scheduled, error)
}

// YearlyReminder builds the anniversary reminder for a memory that
// happened on date, firing at hour:minute.
func YearlyReminder(memoryID, eventName string, date time.Time, hour, minute int) Reminder {
	return Reminder{
		MemoryID: memoryID,
		Title:    fmt.Sprintf("💕 %s Anniversary!", eventName),
		Body:     fmt.Sprintf("Remember this special day from %d? Relive your beautiful memory! 💖", date.Year()),
		Month:    date.Month(),
		Day:      date.Day(),
		Hour:     hour,
		Minute:   minute,
	}
}

func (r Reminder) validate() error {
	if r.Month < time.January || r.Month > time.December {
		return fmt.Errorf("invalid month %d", r.Month)
	}
	if r.Day < 1 || r.Day > 31 {
		return fmt.Errorf("invalid day %d", r.Day)
	}
	if r.Hour < 0 || r.Hour > 23 || r.Minute < 0 || r.Minute > 59 {
		return fmt.Errorf("invalid time %02d:%02d", r.Hour, r.Minute)
	}
	return nil
}
