package store

import (
	"context"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rcliao/memory-album/internal/model"
	"github.com/rcliao/memory-album/internal/notify"
)

// Album is the memory collection kept consistent with its reminder
// bindings and durable storage. It is safe for concurrent use.
//
// Storage and scheduler failures never fail a call: they are logged and
// the in-memory state stays authoritative for the process.
type Album struct {
	blobs  Blobs
	sched  notify.Scheduler
	logger zerolog.Logger
	now    func() time.Time

	reminderHour   int
	reminderMinute int

	writeRetries uint64
	retryBackoff time.Duration

	mu       sync.Mutex
	entropy  io.Reader
	memories []model.Memory // newest first
	bindings map[string]string

	// writeMu serializes blob writes; each write encodes the state current
	// at the time it runs, so the last write always carries the latest snapshot.
	writeMu sync.Mutex
}

// Option configures an Album.
type Option func(*Album)

// WithLogger sets the album's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Album) { a.logger = l }
}

// WithClock overrides the album's time source.
func WithClock(now func() time.Time) Option {
	return func(a *Album) { a.now = now }
}

// WithReminderTime sets the local time of day reminders fire at.
func WithReminderTime(hour, minute int) Option {
	return func(a *Album) {
		a.reminderHour = hour
		a.reminderMinute = minute
	}
}

// WithWriteRetries sets how many times a failed blob write is retried,
// starting initial apart and backing off exponentially.
func WithWriteRetries(n int, initial time.Duration) Option {
	return func(a *Album) {
		if n < 0 {
			n = 0
		}
		a.writeRetries = uint64(n)
		a.retryBackoff = initial
	}
}

// NewAlbum creates an empty album over blobs. sched may be nil, in which
// case no reminders are scheduled. Call Load to read persisted state.
func NewAlbum(blobs Blobs, sched notify.Scheduler, opts ...Option) *Album {
	a := &Album{
		blobs:        blobs,
		sched:        sched,
		logger:       log.Logger,
		now:          time.Now,
		reminderHour: 9,
		writeRetries: 2,
		retryBackoff: 25 * time.Millisecond,
		entropy:      ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
		bindings:     map[string]string{},
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Load replaces the in-memory state with the persisted collection and
// bindings. Missing blobs load as empty; unreadable ones are logged and
// load as empty. Bindings whose memory no longer exists are cancelled.
func (a *Album) Load(ctx context.Context) {
	memories := a.loadCollection(ctx)
	bindings := a.loadBindings(ctx)

	known := make(map[string]bool, len(memories))
	for _, m := range memories {
		known[m.ID] = true
	}
	var orphans []string
	for id, h := range bindings {
		if !known[id] {
			orphans = append(orphans, h)
			delete(bindings, id)
		}
	}

	a.mu.Lock()
	a.memories = memories
	a.bindings = bindings
	a.mu.Unlock()

	a.logger.Debug().
		Int("memories", len(memories)).
		Int("bindings", len(bindings)).
		Msg("album loaded")

	if len(orphans) > 0 {
		for _, h := range orphans {
			a.cancelHandle(ctx, h)
		}
		a.logger.Warn().Int("count", len(orphans)).Msg("dropped reminders of missing memories")
		a.persistBindings(ctx)
	}
}

func (a *Album) loadCollection(ctx context.Context) []model.Memory {
	data, ok, err := a.blobs.Get(ctx, CollectionKey)
	if err != nil {
		a.logger.Error().Err(err).Msg("read collection")
		return nil
	}
	if !ok {
		return nil
	}
	memories, skipped, err := decodeCollection(data)
	if err != nil {
		a.logger.Error().Err(err).Msg("collection is corrupt, starting empty")
		return nil
	}
	for _, e := range skipped {
		a.logger.Warn().Err(e).Msg("skipped stored memory")
	}
	return memories
}

func (a *Album) loadBindings(ctx context.Context) map[string]string {
	data, ok, err := a.blobs.Get(ctx, BindingsKey)
	if err != nil {
		a.logger.Error().Err(err).Msg("read notification ids")
		return map[string]string{}
	}
	if !ok {
		return map[string]string{}
	}
	bindings, err := decodeBindings(data)
	if err != nil {
		a.logger.Error().Err(err).Msg("notification ids are corrupt, starting empty")
		return map[string]string{}
	}
	return bindings
}

// Add validates and prepends a new memory, then schedules its yearly
// reminder. Only validation errors are returned.
func (a *Album) Add(ctx context.Context, p NewMemory) (*model.Memory, error) {
	frame, err := model.ParseFrame(string(p.Frame))
	if err != nil {
		return nil, err
	}
	m := model.Memory{
		ImageURIs:   append([]string(nil), p.ImageURIs...),
		EventName:   strings.TrimSpace(p.EventName),
		Description: strings.TrimSpace(p.Description),
		OccurredOn:  p.OccurredOn,
		Frame:       frame,
	}
	if p.Song != nil {
		s := *p.Song
		m.Song = &s
	}
	if len(p.Adjustments) > 0 {
		m.Adjustments = append([]model.Adjustment(nil), p.Adjustments...)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	now := a.now()
	m.ID = ulid.MustNew(ulid.Timestamp(now), a.entropy).String()
	m.CreatedAt = now
	if m.OccurredOn.IsZero() {
		m.OccurredOn = now
	}
	a.memories = append([]model.Memory{m}, a.memories...)
	a.mu.Unlock()

	a.logger.Info().Str("id", m.ID).Str("event", m.EventName).Msg("memory added")
	a.persistCollection(ctx)

	a.bindReminder(ctx, m)
	a.persistBindings(ctx)

	out := m.Clone()
	return &out, nil
}

func (a *Album) bindReminder(ctx context.Context, m model.Memory) {
	if a.sched == nil {
		return
	}
	r := notify.YearlyReminder(m.ID, m.EventName, m.OccurredOn, a.reminderHour, a.reminderMinute)
	handle, err := a.sched.ScheduleYearly(ctx, r)
	if err != nil {
		a.logger.Error().Err(err).Str("id", m.ID).Msg("schedule reminder")
		return
	}
	if handle == "" {
		a.logger.Info().Str("id", m.ID).Msg("reminder not scheduled")
		return
	}

	a.mu.Lock()
	if a.indexOf(m.ID) < 0 {
		// Deleted while the scheduler call was in flight.
		a.mu.Unlock()
		a.cancelHandle(ctx, handle)
		return
	}
	a.bindings[m.ID] = handle
	a.mu.Unlock()

	a.logger.Debug().Str("id", m.ID).Str("handle", handle).Msg("reminder bound")
}

// Delete removes the memory with id and cancels its reminder. It reports
// whether anything was removed; an unknown id is not an error.
func (a *Album) Delete(ctx context.Context, id string) bool {
	a.mu.Lock()
	idx := a.indexOf(id)
	if idx >= 0 {
		next := make([]model.Memory, 0, len(a.memories)-1)
		next = append(next, a.memories[:idx]...)
		a.memories = append(next, a.memories[idx+1:]...)
	}
	handle, bound := a.bindings[id]
	delete(a.bindings, id)
	a.mu.Unlock()

	if idx < 0 && !bound {
		return false
	}
	if bound {
		a.cancelHandle(ctx, handle)
	}

	a.logger.Info().Str("id", id).Bool("had_reminder", bound).Msg("memory deleted")
	a.persistCollection(ctx)
	a.persistBindings(ctx)
	return idx >= 0
}

// Update merges p into the memory with id, producing a new record value.
// It returns nil when id is unknown. Reminders are not rescheduled.
func (a *Album) Update(ctx context.Context, id string, p Patch) (*model.Memory, error) {
	a.mu.Lock()
	idx := a.indexOf(id)
	if idx < 0 {
		a.mu.Unlock()
		return nil, nil
	}
	merged := applyPatch(a.memories[idx].Clone(), p)
	if err := merged.Validate(); err != nil {
		a.mu.Unlock()
		return nil, err
	}
	next := append([]model.Memory(nil), a.memories...)
	next[idx] = merged
	a.memories = next
	a.mu.Unlock()

	a.logger.Info().Str("id", id).Msg("memory updated")
	a.persistCollection(ctx)

	out := merged.Clone()
	return &out, nil
}

func applyPatch(m model.Memory, p Patch) model.Memory {
	if p.EventName != nil {
		m.EventName = strings.TrimSpace(*p.EventName)
	}
	if p.Description != nil {
		m.Description = strings.TrimSpace(*p.Description)
	}
	if p.Frame != nil {
		m.Frame = *p.Frame
	}
	if p.ImageURIs != nil {
		m.ImageURIs = append([]string(nil), p.ImageURIs...)
		if p.Adjustments == nil {
			m.Adjustments = nil
		}
	}
	if p.Adjustments != nil {
		if len(p.Adjustments) == 0 {
			m.Adjustments = nil
		} else {
			m.Adjustments = append([]model.Adjustment(nil), p.Adjustments...)
		}
	}
	if p.ClearSong {
		m.Song = nil
	} else if p.Song != nil {
		s := *p.Song
		m.Song = &s
	}
	return m
}

// ClearReminders cancels every bound reminder and drops the bindings.
// Memories are kept. It returns how many bindings were dropped.
func (a *Album) ClearReminders(ctx context.Context) int {
	a.mu.Lock()
	handles := make([]string, 0, len(a.bindings))
	for _, h := range a.bindings {
		handles = append(handles, h)
	}
	a.bindings = map[string]string{}
	a.mu.Unlock()

	for _, h := range handles {
		a.cancelHandle(ctx, h)
	}
	a.logger.Info().Int("count", len(handles)).Msg("reminders cleared")
	a.persistBindings(ctx)
	return len(handles)
}

// List returns a copy of the collection, newest first.
func (a *Album) List() []model.Memory {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.Memory, len(a.memories))
	for i, m := range a.memories {
		out[i] = m.Clone()
	}
	return out
}

// Get returns a copy of the memory with id.
func (a *Album) Get(id string) (model.Memory, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := a.indexOf(id)
	if idx < 0 {
		return model.Memory{}, false
	}
	return a.memories[idx].Clone(), true
}

// Len returns the number of memories.
func (a *Album) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.memories)
}

// Bindings returns a copy of the memory id to reminder handle map.
func (a *Album) Bindings() map[string]string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]string, len(a.bindings))
	for k, v := range a.bindings {
		out[k] = v
	}
	return out
}

// Binding returns the reminder handle bound to id.
func (a *Album) Binding(id string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	h, ok := a.bindings[id]
	return h, ok
}

// indexOf must be called with mu held.
func (a *Album) indexOf(id string) int {
	for i := range a.memories {
		if a.memories[i].ID == id {
			return i
		}
	}
	return -1
}

func (a *Album) cancelHandle(ctx context.Context, handle string) {
	if a.sched == nil {
		return
	}
	if err := a.sched.Cancel(ctx, handle); err != nil {
		a.logger.Error().Err(err).Str("handle", handle).Msg("cancel reminder")
	}
}

func (a *Album) persistCollection(ctx context.Context) {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	a.mu.Lock()
	data, err := encodeCollection(a.memories)
	n := len(a.memories)
	a.mu.Unlock()
	if err != nil {
		a.logger.Error().Err(err).Msg("encode collection")
		return
	}
	if err := a.put(ctx, CollectionKey, data); err != nil {
		a.logger.Error().Err(err).Msg("save collection")
		return
	}
	a.logger.Debug().Int("memories", n).Msg("collection saved")
}

func (a *Album) persistBindings(ctx context.Context) {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	a.mu.Lock()
	data, err := encodeBindings(a.bindings)
	a.mu.Unlock()
	if err != nil {
		a.logger.Error().Err(err).Msg("encode notification ids")
		return
	}
	if err := a.put(ctx, BindingsKey, data); err != nil {
		a.logger.Error().Err(err).Msg("save notification ids")
	}
}

// put writes a blob, retrying failures with exponential backoff.
func (a *Album) put(ctx context.Context, key string, data []byte) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = a.retryBackoff
	exp.MaxInterval = 8 * a.retryBackoff
	exp.Reset()

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := a.blobs.Put(ctx, key, data)
		if err != nil && uint64(attempt) <= a.writeRetries {
			a.logger.Debug().Err(err).Str("key", key).Int("attempt", attempt).Msg("blob write failed, retrying")
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(exp, a.writeRetries), ctx))
}
