// Package audio plays a memory's background song, one sound at a time.
package audio

import (
	"context"
	"errors"
	"time"
)

// ErrReleased is returned by a Sound that has been unloaded or was
// invalidated by the platform (another app took the audio focus).
var ErrReleased = errors.New("sound released")

// Driver is the platform audio facility.
type Driver interface {
	// Load resolves uri and prepares it for playback, paused at 0.
	Load(ctx context.Context, uri string) (Sound, error)
}

// Sound is one loaded audio resource.
type Sound interface {
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	// Stop halts playback and rewinds to 0; the sound stays loaded.
	Stop(ctx context.Context) error
	Unload(ctx context.Context) error
	SetPosition(ctx context.Context, pos time.Duration) error
	Status(ctx context.Context) (SoundStatus, error)
}

// SoundStatus is a driver-level playback snapshot.
type SoundStatus struct {
	IsLoaded  bool
	IsPlaying bool
	Position  time.Duration
	Duration  time.Duration
	// DidJustFinish is true on the first status read after playback
	// reached the end on its own.
	DidJustFinish bool
}
