package port

import "context"

type Transcriber interface {
	// Transcribe converts an audio file to a lowercase, trimmed, punctuation-free utterance
	Transcribe(ctx context.Context, audioPath string) (string, error)
}
