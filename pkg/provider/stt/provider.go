// Package stt defines the Provider interface for speech-to-text backends.
//
// An STT provider wraps a transcription service (e.g., Deepgram or a local
// whisper-server instance) behind a single batch operation: the interview
// listener records one complete utterance, then submits it for transcription
// as a whole. Streaming partials are deliberately not part of this interface;
// turn segmentation is driven by audio liveness, not interim transcripts.
//
// Implementations must be safe for concurrent use.
package stt

import "context"

// Provider is the abstraction over any STT backend.
type Provider interface {
	// Transcribe submits a finished recording and returns the transcription
	// result. A recording that contains no recognisable speech yields a
	// Transcript with an empty Text and a nil error; errors are reserved for
	// backend failures.
	Transcribe(ctx context.Context, rec Recording) (*Transcript, error)
}
