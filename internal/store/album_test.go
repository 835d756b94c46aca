package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/memory-album/internal/model"
	"github.com/rcliao/memory-album/internal/notify"
)

// fakeScheduler records reminders in memory.
type fakeScheduler struct {
	mu        sync.Mutex
	deny      bool
	err       error
	next      int
	scheduled map[string]notify.Reminder
	cancelled []string
	// gate, when set, blocks ScheduleYearly until closed.
	gate chan struct{}
	// entered is signalled when ScheduleYearly starts.
	entered chan struct{}
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{scheduled: map[string]notify.Reminder{}}
}

func (f *fakeScheduler) ScheduleYearly(ctx context.Context, r notify.Reminder) (string, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if f.deny {
		return "", nil
	}
	f.next++
	h := fmt.Sprintf("h%d", f.next)
	f.scheduled[h] = r
	return h, nil
}

func (f *fakeScheduler) Cancel(ctx context.Context, handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, handle)
	delete(f.scheduled, handle)
	return nil
}

func (f *fakeScheduler) ListScheduled(ctx context.Context) ([]notify.Scheduled, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []notify.Scheduled
	for h, r := range f.scheduled {
		out = append(out, notify.Scheduled{Handle: h, MemoryID: r.MemoryID})
	}
	return out, nil
}

func (f *fakeScheduler) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.scheduled)
}

// brokenBlobs fails every call.
type brokenBlobs struct{}

func (brokenBlobs) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("disk gone")
}
func (brokenBlobs) Put(context.Context, string, []byte) error { return errors.New("disk gone") }
func (brokenBlobs) Close() error                              { return nil }

func newTestAlbum(t *testing.T, sched notify.Scheduler) (*Album, *SQLiteBlobs) {
	t.Helper()
	blobs := newTestBlobs(t)
	a := NewAlbum(blobs, sched, WithLogger(zerolog.Nop()))
	a.Load(context.Background())
	return a, blobs
}

func trip(name string) NewMemory {
	return NewMemory{
		ImageURIs:  []string{"a.jpg"},
		EventName:  name,
		OccurredOn: time.Date(2021, time.July, 4, 0, 0, 0, 0, time.UTC),
	}
}

func TestAddSingleMemory(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAlbum(t, newFakeScheduler())

	m, err := a.Add(ctx, trip("Trip"))
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, []string{"a.jpg"}, m.ImageURIs)
	assert.Equal(t, "Trip", m.EventName)
	assert.Equal(t, model.DefaultFrame, m.Frame)
	assert.False(t, m.CreatedAt.IsZero())

	list := a.List()
	require.Len(t, list, 1)
	assert.Equal(t, m.ID, list[0].ID)
}

func TestAddRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	sched := newFakeScheduler()
	a, _ := newTestAlbum(t, sched)

	_, err := a.Add(ctx, NewMemory{ImageURIs: []string{}, EventName: "Trip"})
	assert.ErrorIs(t, err, model.ErrNoImages)

	_, err = a.Add(ctx, NewMemory{ImageURIs: []string{"a.jpg"}, EventName: "  "})
	assert.ErrorIs(t, err, model.ErrEmptyEventName)

	_, err = a.Add(ctx, NewMemory{ImageURIs: []string{"a.jpg"}, EventName: "Trip", Frame: "neon"})
	assert.ErrorIs(t, err, model.ErrInvalid)

	assert.Zero(t, a.Len())
	assert.Zero(t, sched.count())
}

func TestAddPrependsNewestFirst(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAlbum(t, nil)

	r1, err := a.Add(ctx, trip("First"))
	require.NoError(t, err)
	r2, err := a.Add(ctx, trip("Second"))
	require.NoError(t, err)

	list := a.List()
	require.Len(t, list, 2)
	assert.Equal(t, r2.ID, list[0].ID)
	assert.Equal(t, r1.ID, list[1].ID)
}

func TestAddAssignsUniqueIDs(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)
	blobs := newTestBlobs(t)
	a := NewAlbum(blobs, nil, WithLogger(zerolog.Nop()), WithClock(func() time.Time { return fixed }))

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		m, err := a.Add(ctx, trip(fmt.Sprintf("m%d", i)))
		require.NoError(t, err)
		require.False(t, seen[m.ID], "duplicate id %s", m.ID)
		seen[m.ID] = true
	}
}

func TestAddConcurrentUniqueIDs(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAlbum(t, newFakeScheduler())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := a.Add(ctx, trip(fmt.Sprintf("m%d", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, m := range a.List() {
		assert.False(t, seen[m.ID])
		seen[m.ID] = true
	}
	assert.Len(t, seen, 20)
	assert.Len(t, a.Bindings(), 20)
}

func TestAddSchedulesYearlyReminder(t *testing.T) {
	ctx := context.Background()
	sched := newFakeScheduler()
	blobs := newTestBlobs(t)
	a := NewAlbum(blobs, sched, WithLogger(zerolog.Nop()), WithReminderTime(8, 30))

	m, err := a.Add(ctx, trip("Trip"))
	require.NoError(t, err)

	h, ok := a.Binding(m.ID)
	require.True(t, ok)
	r := sched.scheduled[h]
	assert.Equal(t, m.ID, r.MemoryID)
	assert.Equal(t, time.July, r.Month)
	assert.Equal(t, 4, r.Day)
	assert.Equal(t, 8, r.Hour)
	assert.Equal(t, 30, r.Minute)
	assert.Equal(t, "💕 Trip Anniversary!", r.Title)
}

func TestAddWithoutPermissionLeavesUnbound(t *testing.T) {
	ctx := context.Background()
	sched := newFakeScheduler()
	sched.deny = true
	a, blobs := newTestAlbum(t, sched)

	m, err := a.Add(ctx, trip("Trip"))
	require.NoError(t, err)
	_, ok := a.Binding(m.ID)
	assert.False(t, ok)

	// Bindings are still persisted after the attempt.
	data, ok, err := blobs.Get(ctx, BindingsKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{}`, string(data))
}

func TestAddSchedulerErrorDoesNotFail(t *testing.T) {
	ctx := context.Background()
	sched := newFakeScheduler()
	sched.err = errors.New("notification service down")
	a, _ := newTestAlbum(t, sched)

	m, err := a.Add(ctx, trip("Trip"))
	require.NoError(t, err)
	assert.Equal(t, 1, a.Len())
	_, ok := a.Binding(m.ID)
	assert.False(t, ok)
}

func TestDeleteCancelsBinding(t *testing.T) {
	ctx := context.Background()
	sched := newFakeScheduler()
	a, _ := newTestAlbum(t, sched)

	m, err := a.Add(ctx, trip("Trip"))
	require.NoError(t, err)
	h, ok := a.Binding(m.ID)
	require.True(t, ok)

	assert.True(t, a.Delete(ctx, m.ID))
	assert.Zero(t, a.Len())
	_, ok = a.Binding(m.ID)
	assert.False(t, ok)
	assert.Equal(t, []string{h}, sched.cancelled)
	assert.Zero(t, sched.count())
}

func TestDeleteUnknownIsNoop(t *testing.T) {
	ctx := context.Background()
	sched := newFakeScheduler()
	a, _ := newTestAlbum(t, sched)
	_, err := a.Add(ctx, trip("Trip"))
	require.NoError(t, err)

	assert.False(t, a.Delete(ctx, "nope"))
	assert.Equal(t, 1, a.Len())
	assert.Empty(t, sched.cancelled)
}

func TestDeleteDuringSchedulingLeavesNoBinding(t *testing.T) {
	ctx := context.Background()
	sched := newFakeScheduler()
	sched.gate = make(chan struct{})
	sched.entered = make(chan struct{}, 1)
	a, blobs := newTestAlbum(t, sched)

	type result struct {
		m   *model.Memory
		err error
	}
	done := make(chan result, 1)
	go func() {
		m, err := a.Add(ctx, trip("Trip"))
		done <- result{m, err}
	}()

	<-sched.entered
	list := a.List()
	require.Len(t, list, 1)
	id := list[0].ID
	assert.True(t, a.Delete(ctx, id))

	close(sched.gate)
	res := <-done
	require.NoError(t, res.err)

	assert.Zero(t, a.Len())
	assert.Empty(t, a.Bindings())
	assert.Zero(t, sched.count(), "fresh reminder must be cancelled")

	// The persisted state agrees.
	reloaded := NewAlbum(blobs, sched, WithLogger(zerolog.Nop()))
	reloaded.Load(ctx)
	assert.Zero(t, reloaded.Len())
	assert.Empty(t, reloaded.Bindings())
}

func TestUpdateMergesIntoNewValue(t *testing.T) {
	ctx := context.Background()
	sched := newFakeScheduler()
	a, _ := newTestAlbum(t, sched)

	orig, err := a.Add(ctx, NewMemory{
		ImageURIs:  []string{"a.jpg", "b.jpg"},
		EventName:  "Trip",
		OccurredOn: time.Date(2021, time.July, 4, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	before, _ := a.Get(orig.ID)

	desc := "Sunset on the pier"
	upd, err := a.Update(ctx, orig.ID, Patch{
		Description: &desc,
		Adjustments: []model.Adjustment{{Scale: 1.5, TranslateX: 12, TranslateY: -4}},
		Song:        &model.Song{URI: "file:///song.mp3", Name: "Our Song"},
	})
	require.NoError(t, err)
	require.NotNil(t, upd)

	assert.Equal(t, orig.ID, upd.ID)
	assert.True(t, orig.CreatedAt.Equal(upd.CreatedAt))
	assert.Equal(t, desc, upd.Description)
	assert.Equal(t, 1.5, upd.AdjustmentAt(0).Scale)
	assert.Equal(t, model.Identity, upd.AdjustmentAt(1))
	assert.Equal(t, "Our Song", upd.Song.Name)

	// Earlier snapshots are untouched.
	assert.Empty(t, before.Description)
	assert.Nil(t, before.Song)

	// No rescheduling.
	assert.Equal(t, 1, sched.next)

	got, _ := a.Get(orig.ID)
	assert.Equal(t, desc, got.Description)
}

func TestUpdateImagesResetsAdjustments(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAlbum(t, nil)
	m, err := a.Add(ctx, NewMemory{
		ImageURIs:   []string{"a.jpg", "b.jpg"},
		EventName:   "Trip",
		Adjustments: []model.Adjustment{{Scale: 2}, {Scale: 3}},
	})
	require.NoError(t, err)

	upd, err := a.Update(ctx, m.ID, Patch{ImageURIs: []string{"c.jpg"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"c.jpg"}, upd.ImageURIs)
	assert.Nil(t, upd.Adjustments)
}

func TestUpdateClearSong(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAlbum(t, nil)
	m, err := a.Add(ctx, NewMemory{
		ImageURIs: []string{"a.jpg"},
		EventName: "Trip",
		Song:      &model.Song{URI: "s.mp3", Name: "S"},
	})
	require.NoError(t, err)

	upd, err := a.Update(ctx, m.ID, Patch{ClearSong: true})
	require.NoError(t, err)
	assert.Nil(t, upd.Song)
}

func TestUpdateRejectsBrokenInvariants(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAlbum(t, nil)
	m, err := a.Add(ctx, trip("Trip"))
	require.NoError(t, err)

	blank := ""
	_, err = a.Update(ctx, m.ID, Patch{EventName: &blank})
	assert.ErrorIs(t, err, model.ErrEmptyEventName)

	_, err = a.Update(ctx, m.ID, Patch{Adjustments: []model.Adjustment{{Scale: 1}, {Scale: 1}}})
	assert.ErrorIs(t, err, model.ErrTooManyAdjusts)

	_, err = a.Update(ctx, m.ID, Patch{ImageURIs: []string{}})
	assert.ErrorIs(t, err, model.ErrNoImages)

	got, _ := a.Get(m.ID)
	assert.Equal(t, "Trip", got.EventName)
	assert.Equal(t, []string{"a.jpg"}, got.ImageURIs)
}

func TestUpdateUnknownIsNoop(t *testing.T) {
	a, _ := newTestAlbum(t, nil)
	name := "x"
	upd, err := a.Update(context.Background(), "nope", Patch{EventName: &name})
	assert.NoError(t, err)
	assert.Nil(t, upd)
}

func TestLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	sched := newFakeScheduler()
	a, blobs := newTestAlbum(t, sched)

	occurred := time.Date(2019, time.February, 14, 0, 0, 0, 0, time.UTC)
	m, err := a.Add(ctx, NewMemory{
		ImageURIs:   []string{"a.jpg", "b.jpg"},
		EventName:   "Valentine",
		Description: "Dinner",
		OccurredOn:  occurred,
		Frame:       model.FrameRoses,
		Song:        &model.Song{URI: "s.mp3", Name: "S"},
		Adjustments: []model.Adjustment{{Scale: 1.2, TranslateX: 3}},
	})
	require.NoError(t, err)

	reloaded := NewAlbum(blobs, sched, WithLogger(zerolog.Nop()))
	reloaded.Load(ctx)

	got, ok := reloaded.Get(m.ID)
	require.True(t, ok)
	assert.True(t, got.OccurredOn.Equal(occurred))
	assert.True(t, got.CreatedAt.Equal(m.CreatedAt))
	assert.Equal(t, m.ImageURIs, got.ImageURIs)
	assert.Equal(t, model.FrameRoses, got.Frame)
	assert.Equal(t, "Dinner", got.Description)
	assert.Equal(t, *m.Song, *got.Song)
	assert.Equal(t, m.Adjustments, got.Adjustments)
	assert.Equal(t, a.Bindings(), reloaded.Bindings())
}

func TestLoadReadsDateStrings(t *testing.T) {
	ctx := context.Background()
	blobs := newTestBlobs(t)
	require.NoError(t, blobs.Put(ctx, CollectionKey, []byte(`[
		{"id":"1","uris":["a.jpg"],"eventName":"Trip","date":"2024-06-12T00:00:00.000Z",
		 "frame":"vintage","createdAt":"2024-06-13T10:20:30.000Z"}
	]`)))
	require.NoError(t, blobs.Put(ctx, BindingsKey, []byte(`{"1":"n-1"}`)))

	a := NewAlbum(blobs, nil, WithLogger(zerolog.Nop()))
	a.Load(ctx)

	got, ok := a.Get("1")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.June, 12, 0, 0, 0, 0, time.UTC), got.OccurredOn.UTC())
	assert.Equal(t, time.Date(2024, time.June, 13, 10, 20, 30, 0, time.UTC), got.CreatedAt.UTC())
	assert.Equal(t, map[string]string{"1": "n-1"}, a.Bindings())
}

func TestLoadMalformedFailsSoft(t *testing.T) {
	ctx := context.Background()
	blobs := newTestBlobs(t)
	require.NoError(t, blobs.Put(ctx, CollectionKey, []byte(`{not json`)))
	require.NoError(t, blobs.Put(ctx, BindingsKey, []byte(`[1,2]`)))

	a := NewAlbum(blobs, nil, WithLogger(zerolog.Nop()))
	a.Load(ctx)
	assert.Zero(t, a.Len())
	assert.Empty(t, a.Bindings())

	// Still usable.
	_, err := a.Add(ctx, trip("Trip"))
	require.NoError(t, err)
	assert.Equal(t, 1, a.Len())
}

func TestLoadSkipsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	blobs := newTestBlobs(t)
	require.NoError(t, blobs.Put(ctx, CollectionKey, []byte(`[
		{"id":"1","uris":["a.jpg"],"eventName":"Ok","date":"2024-06-12T00:00:00Z","createdAt":"2024-06-12T00:00:00Z"},
		{"id":"2","uris":[],"eventName":"No images","date":"2024-06-12T00:00:00Z","createdAt":"2024-06-12T00:00:00Z"},
		{"id":"1","uris":["b.jpg"],"eventName":"Dup","date":"2024-06-12T00:00:00Z","createdAt":"2024-06-12T00:00:00Z"}
	]`)))

	a := NewAlbum(blobs, nil, WithLogger(zerolog.Nop()))
	a.Load(ctx)

	list := a.List()
	require.Len(t, list, 1)
	assert.Equal(t, "Ok", list[0].EventName)
	assert.Equal(t, model.DefaultFrame, list[0].Frame)
}

func TestLoadCancelsOrphanBindings(t *testing.T) {
	ctx := context.Background()
	sched := newFakeScheduler()
	blobs := newTestBlobs(t)
	require.NoError(t, blobs.Put(ctx, BindingsKey, []byte(`{"gone":"h-gone"}`)))

	a := NewAlbum(blobs, sched, WithLogger(zerolog.Nop()))
	a.Load(ctx)

	assert.Empty(t, a.Bindings())
	assert.Equal(t, []string{"h-gone"}, sched.cancelled)
	data, _, _ := blobs.Get(ctx, BindingsKey)
	assert.JSONEq(t, `{}`, string(data))
}

func TestStorageFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	a := NewAlbum(brokenBlobs{}, newFakeScheduler(), WithLogger(zerolog.Nop()))
	a.Load(ctx)

	m, err := a.Add(ctx, trip("Trip"))
	require.NoError(t, err)
	assert.Equal(t, 1, a.Len())

	assert.True(t, a.Delete(ctx, m.ID))
	assert.Zero(t, a.Len())
}

func TestListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAlbum(t, nil)
	m, err := a.Add(ctx, trip("Trip"))
	require.NoError(t, err)

	list := a.List()
	list[0].ImageURIs[0] = "mutated.jpg"
	m.ImageURIs[0] = "mutated.jpg"

	got, _ := a.Get(list[0].ID)
	assert.Equal(t, "a.jpg", got.ImageURIs[0])
}

// flakyBlobs fails the first n writes, then delegates.
type flakyBlobs struct {
	*SQLiteBlobs
	mu       sync.Mutex
	failures int
	puts     int
}

func (f *flakyBlobs) Put(ctx context.Context, key string, data []byte) error {
	f.mu.Lock()
	f.puts++
	fail := f.failures > 0
	if fail {
		f.failures--
	}
	f.mu.Unlock()
	if fail {
		return errors.New("database is locked")
	}
	return f.SQLiteBlobs.Put(ctx, key, data)
}

func TestWriteRetriesTransientFailures(t *testing.T) {
	ctx := context.Background()
	blobs := newTestBlobs(t)
	flaky := &flakyBlobs{SQLiteBlobs: blobs, failures: 2}

	a := NewAlbum(flaky, nil, WithLogger(zerolog.Nop()), WithWriteRetries(2, time.Millisecond))
	a.Load(ctx)
	m, err := a.Add(ctx, trip("Trip"))
	require.NoError(t, err)

	reloaded := NewAlbum(blobs, nil, WithLogger(zerolog.Nop()))
	reloaded.Load(ctx)
	got, ok := reloaded.Get(m.ID)
	require.True(t, ok)
	assert.Equal(t, "Trip", got.EventName)
	assert.Equal(t, 4, flaky.puts, "two failed attempts, then collection and bindings")
}

func TestWriteGivesUpAfterRetries(t *testing.T) {
	ctx := context.Background()
	blobs := newTestBlobs(t)
	flaky := &flakyBlobs{SQLiteBlobs: blobs, failures: 100}

	a := NewAlbum(flaky, nil, WithLogger(zerolog.Nop()), WithWriteRetries(1, time.Millisecond))
	a.Load(ctx)
	_, err := a.Add(ctx, trip("Trip"))
	require.NoError(t, err)
	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 4, flaky.puts, "each of the two writes is tried twice")
}

func TestClearRemindersKeepsMemories(t *testing.T) {
	ctx := context.Background()
	sched := newFakeScheduler()
	a, blobs := newTestAlbum(t, sched)

	m1, err := a.Add(ctx, trip("Trip"))
	require.NoError(t, err)
	_, err = a.Add(ctx, trip("Wedding"))
	require.NoError(t, err)
	require.Equal(t, 2, sched.count())

	assert.Equal(t, 2, a.ClearReminders(ctx))
	assert.Zero(t, sched.count())
	assert.Len(t, sched.cancelled, 2)
	assert.Empty(t, a.Bindings())
	assert.Equal(t, 2, a.Len())

	reloaded := NewAlbum(blobs, sched, WithLogger(zerolog.Nop()))
	reloaded.Load(ctx)
	assert.Empty(t, reloaded.Bindings())
	assert.Equal(t, 2, reloaded.Len())

	// Deleting afterwards has no reminder left to cancel.
	assert.True(t, a.Delete(ctx, m1.ID))
	assert.Len(t, sched.cancelled, 2)

	assert.Zero(t, a.ClearReminders(ctx))
}
