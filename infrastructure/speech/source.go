// Package speech provides transcript sources for the listen loop. Real
// recognisers are out of process; these sources read what they write.
package speech

import (
	"strings"
	"sync"
	"time"

	"jamflow/application/ports"
)

// callbacks holds the handlers shared by every source.
type callbacks struct {
	mu       sync.RWMutex
	onResult func(ports.Transcript)
	onError  func(error)
	now      func() time.Time
}

func (c *callbacks) OnResult(fn func(ports.Transcript)) {
	c.mu.Lock()
	c.onResult = fn
	c.mu.Unlock()
}

func (c *callbacks) OnError(fn func(error)) {
	c.mu.Lock()
	c.onError = fn
	c.mu.Unlock()
}

// emitLine reports line as a final transcript unless it is blank.
func (c *callbacks) emitLine(line string) {
	text := strings.TrimSpace(line)
	if text == "" {
		return
	}
	c.mu.RLock()
	fn := c.onResult
	c.mu.RUnlock()
	if fn == nil {
		return
	}
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	fn(ports.Transcript{Text: text, Final: true, ReceivedAt: now()})
}

func (c *callbacks) emitError(err error) {
	c.mu.RLock()
	fn := c.onError
	c.mu.RUnlock()
	if fn != nil {
		fn(err)
	}
}

var (
	_ ports.SpeechSource = (*FileSource)(nil)
	_ ports.SpeechSource = (*LineSource)(nil)
)
