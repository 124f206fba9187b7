package ports

import (
	"context"
	"time"
)

// Transcript is one recognition result.
type Transcript struct {
	Text       string
	Final      bool
	ReceivedAt time.Time
}

// SpeechSource produces transcripts until stopped. Callbacks must be
// registered before Start. Errors are reported through OnError; Start only
// fails when the source cannot be opened at all.
type SpeechSource interface {
	Start(ctx context.Context) error
	Stop() error
	OnResult(func(Transcript))
	OnError(func(error))
}
