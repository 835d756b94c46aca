package audio

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// ErrUnresolvable is returned when a uri does not name a readable file.
var ErrUnresolvable = errors.New("unresolvable audio uri")

// DefaultBitrateKbps is the bitrate assumed when estimating durations.
const DefaultBitrateKbps = 128

// ClockDriver is a reference Driver that decodes nothing: it resolves
// local files, estimates their duration from size and bitrate, and
// advances position with a clock.
type ClockDriver struct {
	now         func() time.Time
	bitrateKbps int

	mu        sync.Mutex
	durations map[string]time.Duration
}

// ClockOption configures a ClockDriver.
type ClockOption func(*ClockDriver)

// WithDriverClock overrides the driver's time source.
func WithDriverClock(now func() time.Time) ClockOption {
	return func(d *ClockDriver) { d.now = now }
}

// WithBitrate sets the bitrate used to estimate durations.
func WithBitrate(kbps int) ClockOption {
	return func(d *ClockDriver) {
		if kbps > 0 {
			d.bitrateKbps = kbps
		}
	}
}

// NewClockDriver creates a ClockDriver.
func NewClockDriver(opts ...ClockOption) *ClockDriver {
	d := &ClockDriver{
		now:         time.Now,
		bitrateKbps: DefaultBitrateKbps,
		durations:   map[string]time.Duration{},
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Register declares the duration of uri, so it loads without touching
// the filesystem.
func (d *ClockDriver) Register(uri string, duration time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.durations[uri] = duration
}

// Load implements Driver.
func (d *ClockDriver) Load(ctx context.Context, uri string) (Sound, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dur, err := d.duration(uri)
	if err != nil {
		return nil, err
	}
	return &clockSound{now: d.now, duration: dur, loaded: true}, nil
}

func (d *ClockDriver) duration(uri string) (time.Duration, error) {
	d.mu.Lock()
	dur, ok := d.durations[uri]
	d.mu.Unlock()
	if ok {
		return dur, nil
	}

	path, err := localPath(uri)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnresolvable, err)
	}
	if info.IsDir() || info.Size() == 0 {
		return 0, fmt.Errorf("%w: %s is not an audio file", ErrUnresolvable, path)
	}
	bytesPerSec := float64(d.bitrateKbps) * 1000 / 8
	return time.Duration(float64(info.Size()) / bytesPerSec * float64(time.Second)), nil
}

// localPath accepts plain paths and file:// URIs.
func localPath(uri string) (string, error) {
	if uri == "" {
		return "", fmt.Errorf("%w: empty uri", ErrUnresolvable)
	}
	if !strings.Contains(uri, "://") {
		return uri, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnresolvable, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrUnresolvable, u.Scheme)
	}
	return u.Path, nil
}

type clockSound struct {
	now      func() time.Time
	duration time.Duration

	mu        sync.Mutex
	loaded    bool
	playing   bool
	pos       time.Duration // position when last paused or seeked
	startedAt time.Time
	finished  bool
	reported  bool
}

// positionLocked also detects natural completion.
func (c *clockSound) positionLocked() time.Duration {
	if !c.playing {
		return c.pos
	}
	p := c.pos + c.now().Sub(c.startedAt)
	if p >= c.duration {
		c.playing = false
		c.pos = c.duration
		c.finished = true
		return c.duration
	}
	return p
}

func (c *clockSound) Play(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return ErrReleased
	}
	if c.positionLocked() >= c.duration {
		c.pos = 0
	}
	c.startedAt = c.now()
	c.playing = true
	c.finished = false
	c.reported = false
	return nil
}

func (c *clockSound) Pause(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return ErrReleased
	}
	c.pos = c.positionLocked()
	c.playing = false
	return nil
}

func (c *clockSound) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return ErrReleased
	}
	c.playing = false
	c.pos = 0
	c.finished = false
	return nil
}

func (c *clockSound) Unload(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return ErrReleased
	}
	c.loaded = false
	c.playing = false
	return nil
}

func (c *clockSound) SetPosition(ctx context.Context, pos time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return ErrReleased
	}
	if pos < 0 {
		pos = 0
	}
	if pos > c.duration {
		pos = c.duration
	}
	// The clock may have run past the end unobserved; a seek overrides that.
	wasPlaying := c.playing
	c.positionLocked()
	c.pos = pos
	c.startedAt = c.now()
	c.playing = wasPlaying
	c.finished = false
	c.reported = false
	return nil
}

func (c *clockSound) Status(ctx context.Context) (SoundStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return SoundStatus{}, nil
	}
	pos := c.positionLocked()
	st := SoundStatus{
		IsLoaded:  true,
		IsPlaying: c.playing,
		Position:  pos,
		Duration:  c.duration,
	}
	if c.finished && !c.reported {
		st.DidJustFinish = true
		c.reported = true
	}
	return st, nil
}
