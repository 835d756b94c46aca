package audio

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// State is the transport state of a Session.
type State string

const (
	StateIdle    State = "idle"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
)

// Status is a playback snapshot in seconds.
type Status struct {
	IsLoaded        bool    `json:"is_loaded"`
	IsPlaying       bool    `json:"is_playing"`
	URI             string  `json:"uri,omitempty"`
	PositionSeconds float64 `json:"position_seconds"`
	DurationSeconds float64 `json:"duration_seconds"`
	DidJustFinish   bool    `json:"did_just_finish,omitempty"`
}

// Session owns at most one loaded sound. Driver errors are logged and
// never returned; a failed operation leaves the session consistent.
// It is safe for concurrent use.
type Session struct {
	driver Driver
	logger zerolog.Logger

	mu       sync.Mutex
	sound    Sound
	uri      string
	duration time.Duration
	playing  bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionLogger sets the session's logger.
func WithSessionLogger(l zerolog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// NewSession creates an idle session over driver.
func NewSession(driver Driver, opts ...SessionOption) *Session {
	s := &Session{driver: driver, logger: log.Logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State returns the current transport state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	switch {
	case s.sound == nil:
		return StateIdle
	case s.playing:
		return StatePlaying
	default:
		return StatePaused
	}
}

// Play releases any loaded sound, then loads uri and starts it. It
// reports whether playback started; on failure the session is idle.
func (s *Session) Play(ctx context.Context, uri string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.releaseLocked(ctx)

	snd, err := s.driver.Load(ctx, uri)
	if err != nil {
		s.logger.Error().Err(err).Str("uri", uri).Msg("load sound")
		return false
	}
	st, err := snd.Status(ctx)
	if err == nil {
		err = snd.Play(ctx)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("uri", uri).Msg("start sound")
		if uerr := snd.Unload(ctx); uerr != nil {
			s.logger.Warn().Err(uerr).Str("uri", uri).Msg("unload sound")
		}
		return false
	}

	s.sound = snd
	s.uri = uri
	s.duration = st.Duration
	s.playing = true
	s.logger.Debug().Str("uri", uri).Msg("playing")
	return true
}

// Pause pauses a playing sound; otherwise it does nothing.
func (s *Session) Pause(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sound == nil || !s.playing {
		return
	}
	if err := s.sound.Pause(ctx); err != nil {
		s.transportFailedLocked(ctx, "pause", err)
		return
	}
	s.playing = false
}

// Resume continues a paused sound; otherwise it does nothing.
func (s *Session) Resume(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sound == nil || s.playing {
		return
	}
	if err := s.sound.Play(ctx); err != nil {
		s.transportFailedLocked(ctx, "resume", err)
		return
	}
	s.playing = true
}

// Stop releases the loaded sound. It is idempotent.
func (s *Session) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked(ctx)
}

// Seek moves a loaded sound to seconds, clamped to [0, duration], and
// returns the effective position. Play/pause state is unchanged. ok is
// false when the session is idle or the driver rejected the seek; the
// sound then keeps its previous position.
func (s *Session) Seek(ctx context.Context, seconds float64) (pos float64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sound == nil {
		return 0, false
	}

	target := Clamp(seconds, s.duration.Seconds())
	if err := s.sound.SetPosition(ctx, fromSeconds(target)); err != nil {
		s.transportFailedLocked(ctx, "seek", err)
		return 0, false
	}
	return target, true
}

// Status returns the current snapshot. When the sound has just finished
// on its own, the returned snapshot carries DidJustFinish and the
// session releases the sound, so the next snapshot is idle.
func (s *Session) Status(ctx context.Context) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sound == nil {
		return Status{}
	}
	st, err := s.sound.Status(ctx)
	if err != nil {
		s.transportFailedLocked(ctx, "status", err)
		return Status{}
	}

	out := Status{
		IsLoaded:        st.IsLoaded,
		IsPlaying:       st.IsPlaying,
		URI:             s.uri,
		PositionSeconds: st.Position.Seconds(),
		DurationSeconds: st.Duration.Seconds(),
		DidJustFinish:   st.DidJustFinish,
	}

	switch {
	case st.DidJustFinish:
		s.logger.Debug().Str("uri", s.uri).Msg("playback finished")
		s.releaseLocked(ctx)
	case !st.IsLoaded:
		s.logger.Warn().Str("uri", s.uri).Msg("sound unloaded by platform")
		s.releaseLocked(ctx)
		return Status{}
	default:
		s.playing = st.IsPlaying
	}
	return out
}

// Poll calls fn with a snapshot immediately and then every interval
// until the session is idle, playback finishes, or ctx is done.
func (s *Session) Poll(ctx context.Context, interval time.Duration, fn func(Status)) {
	st := s.Status(ctx)
	fn(st)
	if !st.IsLoaded || st.DidJustFinish {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := s.Status(ctx)
			fn(st)
			if !st.IsLoaded || st.DidJustFinish {
				return
			}
		}
	}
}

// releaseLocked stops and unloads the current sound. Errors are logged;
// the session is idle afterwards either way.
func (s *Session) releaseLocked(ctx context.Context) {
	if s.sound == nil {
		return
	}
	if err := s.sound.Stop(ctx); err != nil && !errors.Is(err, ErrReleased) {
		s.logger.Warn().Err(err).Str("uri", s.uri).Msg("stop sound")
	}
	if err := s.sound.Unload(ctx); err != nil && !errors.Is(err, ErrReleased) {
		s.logger.Warn().Err(err).Str("uri", s.uri).Msg("unload sound")
	}
	s.sound = nil
	s.uri = ""
	s.duration = 0
	s.playing = false
}

func (s *Session) transportFailedLocked(ctx context.Context, op string, err error) {
	s.logger.Error().Err(err).Str("uri", s.uri).Str("op", op).Msg("audio transport failed")
	if errors.Is(err, ErrReleased) {
		s.releaseLocked(ctx)
	}
}

// Clamp limits pos to [0, duration].
func Clamp(pos, duration float64) float64 {
	if math.IsNaN(pos) {
		return 0
	}
	return math.Max(0, math.Min(pos, duration))
}

func fromSeconds(sec float64) time.Duration {
	return time.Duration(math.Round(sec * float64(time.Second)))
}
