package speech

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
)

// LineSource reports each non-empty line of a reader as a final transcript.
// It is meant for stdin and pipes.
type LineSource struct {
	callbacks

	r io.Reader

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewLineSource creates a source reading r.
func NewLineSource(r io.Reader) *LineSource {
	return &LineSource{r: r, done: make(chan struct{})}
}

// Start begins reading in the background.
func (s *LineSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("line source already started")
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	go func() {
		defer close(s.done)
		for {
			select {
			case <-ctx.Done():
				return
			case line, ok := <-lines:
				if !ok {
					if err := <-scanErr; err != nil {
						s.emitError(fmt.Errorf("read transcript lines: %w", err))
					}
					return
				}
				s.emitLine(line)
			}
		}
	}()
	return nil
}

// Stop stops delivering lines. A read blocked on the underlying reader is
// abandoned rather than interrupted.
func (s *LineSource) Stop() error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		<-s.done
	}
	return nil
}

// Done is closed once the reader is exhausted or the source is stopped.
func (s *LineSource) Done() <-chan struct{} {
	return s.done
}
