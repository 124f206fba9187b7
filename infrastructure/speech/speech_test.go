package speech

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jamflow/application/ports"
)

type collector struct {
	mu     sync.Mutex
	texts  []string
	finals []bool
	errs   []error
}

func (c *collector) result(t ports.Transcript) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, t.Text)
	c.finals = append(c.finals, t.Final)
}

func (c *collector) err(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
}

func (c *collector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.texts...)
}

func appendTo(t *testing.T, path, text string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(text)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestFileSource_EmitsAppendedLines(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "transcript.txt")
	require.NoError(t, os.WriteFile(path, []byte("already here\n"), 0o644))

	got := &collector{}
	src := NewFileSource(path, nil)
	src.OnResult(got.result)
	src.OnError(got.err)
	require.NoError(t, src.Start(context.Background()))
	t.Cleanup(func() { _ = src.Stop() })

	// Act
	appendTo(t, path, "add a kick drum\n\n   \nconnect kick to bass\nhalf a li")
	appendTo(t, path, "ne\n")

	// Assert
	require.Eventually(t, func() bool {
		return len(got.snapshot()) == 3
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{"add a kick drum", "connect kick to bass", "half a line"}, got.snapshot())
	assert.Equal(t, []bool{true, true, true}, got.finals)
	assert.Empty(t, got.errs)
}

func TestFileSource_CreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.txt")
	src := NewFileSource(path, nil)

	require.NoError(t, src.Start(context.Background()))
	defer src.Stop()

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestFileSource_StartFailsWhenDirectoryMissing(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "missing", "t.txt"), nil)

	err := src.Start(context.Background())

	assert.Error(t, err)
}

func TestFileSource_StopIsIdempotent(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "t.txt"), nil)
	require.NoError(t, src.Start(context.Background()))

	assert.NoError(t, src.Stop())
	assert.NoError(t, src.Stop())

	// a stopped source can be started again
	require.NoError(t, src.Start(context.Background()))
	assert.NoError(t, src.Stop())
}

func TestLineSource(t *testing.T) {
	// Arrange
	got := &collector{}
	src := NewLineSource(strings.NewReader("play it slower\n\n  swap the pads  \nlast line without newline"))
	src.OnResult(got.result)

	// Act
	require.NoError(t, src.Start(context.Background()))
	<-src.Done()

	// Assert
	assert.Equal(t, []string{"play it slower", "swap the pads", "last line without newline"}, got.snapshot())
	assert.Error(t, src.Start(context.Background()))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("device unplugged")
}

func TestLineSource_ReportsReadErrors(t *testing.T) {
	got := &collector{}
	src := NewLineSource(failingReader{})
	src.OnError(got.err)

	require.NoError(t, src.Start(context.Background()))
	<-src.Done()

	require.Len(t, got.errs, 1)
	assert.Contains(t, got.errs[0].Error(), "device unplugged")
}

func TestLineSource_StopUnblocksDelivery(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	src := NewLineSource(pr)

	require.NoError(t, src.Start(context.Background()))
	require.NoError(t, src.Stop())

	select {
	case <-src.Done():
	case <-time.After(time.Second):
		t.Fatal("source did not stop")
	}
}
