// Package audio provides microphone capture, transcription, and speech
// playback for the assistant.
package audio

import (
	"context"
	"errors"
)

var (
	// ErrAlreadyRecording is returned when Start is called twice.
	ErrAlreadyRecording = errors.New("audio: recording already in progress")

	// ErrNotRecording is returned when Stop is called without Start.
	ErrNotRecording = errors.New("audio: no recording in progress")

	// ErrNoAudio is returned when a recording produced no usable data.
	ErrNoAudio = errors.New("audio: no audio captured")
)

// Recorder captures microphone audio between Start and Stop.
type Recorder interface {
	// Start begins capturing. The context bounds the whole recording.
	Start(ctx context.Context) error

	// Stop ends capturing and returns the path of the recorded file.
	// The caller owns the file and removes it when done.
	Stop() (string, error)
}

// Transcriber converts a recorded audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Speaker plays text aloud. Speak returns a channel closed when
// playback finishes, so callers can hold input suppression until the
// synthetic audio is done.
type Speaker interface {
	Speak(ctx context.Context, text string) (<-chan struct{}, error)
}

// NopSpeaker discards speech requests. Used when TTS is disabled.
type NopSpeaker struct{}

// Speak returns an already-closed channel.
func (NopSpeaker) Speak(context.Context, string) (<-chan struct{}, error) {
	done := make(chan struct{})
	close(done)
	return done, nil
}
