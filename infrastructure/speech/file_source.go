package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileSource follows a transcript file. Every complete, non-empty line
// appended after Start is reported as a final transcript. Lines already in
// the file when Start runs are skipped.
type FileSource struct {
	callbacks

	path   string
	logger *zap.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	offset  int64
	partial []byte
	stopCh  chan struct{}
	done    chan struct{}
}

// NewFileSource creates a source for path. The file is created on Start if
// it does not exist.
func NewFileSource(path string, logger *zap.Logger) *FileSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSource{path: path, logger: logger}
}

// Start opens the file and begins watching it.
func (s *FileSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		return fmt.Errorf("transcript source already started")
	}

	f, err := os.OpenFile(s.path, os.O_RDONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript file: %w", err)
	}
	info, err := f.Stat()
	f.Close()
	if err != nil {
		return fmt.Errorf("stat transcript file: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	// Watch the directory too so editors that replace the file are followed.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch transcript directory: %w", err)
	}

	s.watcher = watcher
	s.offset = info.Size()
	s.partial = nil
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})

	go s.loop(ctx, watcher, s.stopCh, s.done)
	s.logger.Info("Transcript file source started", zap.String("path", s.path))
	return nil
}

// Stop ends the watch. It is safe to call more than once.
func (s *FileSource) Stop() error {
	s.mu.Lock()
	watcher, stopCh, done := s.watcher, s.stopCh, s.done
	s.watcher = nil
	s.mu.Unlock()

	if watcher == nil {
		return nil
	}
	close(stopCh)
	err := watcher.Close()
	<-done
	s.logger.Info("Transcript file source stopped", zap.String("path", s.path))
	return err
}

// Done is closed when the watch loop exits.
func (s *FileSource) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *FileSource) loop(ctx context.Context, watcher *fsnotify.Watcher, stopCh, done chan struct{}) {
	defer close(done)
	target := filepath.Clean(s.path)

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				s.readAppended()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.emitError(fmt.Errorf("watch transcript file: %w", err))
		}
	}
}

// readAppended reads everything past the last offset and emits complete
// lines. A file that shrank is read again from the start.
func (s *FileSource) readAppended() {
	f, err := os.Open(s.path)
	if err != nil {
		s.emitError(fmt.Errorf("open transcript file: %w", err))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.emitError(fmt.Errorf("stat transcript file: %w", err))
		return
	}

	s.mu.Lock()
	if info.Size() < s.offset {
		s.logger.Debug("Transcript file truncated", zap.String("path", s.path))
		s.offset = 0
		s.partial = nil
	}
	offset := s.offset
	s.mu.Unlock()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		s.emitError(fmt.Errorf("seek transcript file: %w", err))
		return
	}
	data, err := io.ReadAll(f)
	if err != nil {
		s.emitError(fmt.Errorf("read transcript file: %w", err))
		return
	}

	s.mu.Lock()
	s.offset = offset + int64(len(data))
	buf := append(s.partial, data...)
	var lines []string
	for {
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, string(buf[:i]))
		buf = buf[i+1:]
	}
	s.partial = append([]byte(nil), buf...)
	s.mu.Unlock()

	for _, line := range lines {
		s.emitLine(line)
	}
}
