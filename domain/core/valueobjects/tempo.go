package valueobjects

import "fmt"

// BPM is a tempo in beats per minute. The zero value means "not declared".
type BPM int

// NewBPM validates a tempo against an upper bound.
func NewBPM(value, max int) (BPM, error) {
	if value <= 0 {
		return 0, fmt.Errorf("bpm must be positive, got %d", value)
	}
	if max > 0 && value > max {
		return 0, fmt.Errorf("bpm %d exceeds maximum of %d", value, max)
	}
	return BPM(value), nil
}

// IsZero reports whether no tempo is declared.
func (b BPM) IsZero() bool {
	return b == 0
}

// Delta is the absolute difference between two tempos.
func (b BPM) Delta(other BPM) int {
	d := int(b) - int(other)
	if d < 0 {
		return -d
	}
	return d
}

func (b BPM) Int() int {
	return int(b)
}
