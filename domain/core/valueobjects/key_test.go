package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		raw  string
		want Key
	}{
		{"C", "C"},
		{"c", "C"},
		{"Bb", "Bb"},
		{"b flat", "Bb"},
		{"A#", "Bb"},
		{"D♯", "Eb"},
		{"G#", "Ab"},
		{"am", "Am"},
		{"A minor", "Am"},
		{"F# min", "F#m"},
		{"E major", "E"},
		{"  Dm ", "Dm"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			// Act
			got, err := ParseKey(tt.raw)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKey_Rejects(t *testing.T) {
	for _, raw := range []string{"", "   ", "H", "Cmaj7", "X minor", "C dorian", "Db"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseKey(raw)
			assert.Error(t, err)
		})
	}
}

func TestAreRelated_IsSymmetric(t *testing.T) {
	for k, related := range relatedKeys {
		for _, r := range related {
			assert.True(t, AreRelated(k, r), "%s -> %s", k, r)
			assert.True(t, AreRelated(r, k), "%s -> %s", r, k)
		}
	}
}

func TestAreRelated_Unrelated(t *testing.T) {
	assert.False(t, AreRelated("C", "F#m"))
	assert.False(t, AreRelated("Ab", "E"))
}

func TestKey_Related_ReturnsCopy(t *testing.T) {
	// Arrange
	related := Key("C").Related()

	// Act
	related[0] = "X"

	// Assert
	assert.Equal(t, Key("C"), Key("C").Related()[0])
}

func TestKey_IsMinor(t *testing.T) {
	assert.True(t, Key("F#m").IsMinor())
	assert.False(t, Key("Bb").IsMinor())
}
