package valueobjects

import (
	"fmt"
	"strings"
)

// Key is a musical key in the engine's vocabulary, e.g. "C", "Bb", "F#m".
type Key string

// relatedKeys is the circle-of-fifths neighbourhood of each key: itself, the
// fifth above, the fourth, and the closely related minors.
var relatedKeys = map[Key][]Key{
	"C":  {"C", "G", "F", "Am", "Em", "Dm"},
	"G":  {"G", "D", "C", "Em", "Bm", "Am"},
	"D":  {"D", "A", "G", "Bm", "F#m", "Em"},
	"A":  {"A", "E", "D", "F#m", "C#m", "Bm"},
	"E":  {"E", "B", "A", "C#m", "G#m", "F#m"},
	"F":  {"F", "C", "Bb", "Dm", "Am", "Gm"},
	"Bb": {"Bb", "F", "Eb", "Gm", "Dm", "Cm"},
	"Eb": {"Eb", "Bb", "Ab", "Cm", "Gm", "Fm"},
	"Am": {"Am", "Em", "Dm", "C", "G", "F"},
	"Em": {"Em", "Bm", "Am", "G", "D", "C"},
	"Dm": {"Dm", "Am", "Gm", "F", "C", "Bb"},
}

var vocabulary = func() map[Key]bool {
	v := make(map[Key]bool)
	for k, related := range relatedKeys {
		v[k] = true
		for _, r := range related {
			v[r] = true
		}
	}
	return v
}()

var enharmonic = map[string]string{"A#": "Bb", "D#": "Eb", "G#": "Ab"}

// ParseKey normalises a spoken or typed key name into the vocabulary.
// Accepted forms include "c", "Bb", "b flat", "A#", "am", "A minor", "F# min".
func ParseKey(raw string) (Key, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("key cannot be empty")
	}
	s = strings.NewReplacer("♯", "#", "♭", "b", " sharp", "#", " flat", "b").Replace(s)

	root := strings.ToUpper(s[:1])
	if root[0] < 'A' || root[0] > 'G' {
		return "", fmt.Errorf("unknown key %q", raw)
	}
	rest := s[1:]
	if rest != "" {
		switch rest[0] {
		case '#':
			root += "#"
			rest = rest[1:]
		case 'b', 'B':
			root += "b"
			rest = rest[1:]
		}
	}
	if mapped, ok := enharmonic[root]; ok {
		root = mapped
	}

	minor := false
	switch strings.ToLower(strings.TrimSpace(rest)) {
	case "", "maj", "major":
	case "m", "min", "minor":
		minor = true
	default:
		return "", fmt.Errorf("unknown key %q", raw)
	}

	k := Key(root)
	if minor {
		k += "m"
	}
	if !vocabulary[k] {
		return "", fmt.Errorf("unknown key %q", raw)
	}
	return k, nil
}

// Related returns the keys listed as neighbours of k.
func (k Key) Related() []Key {
	related := relatedKeys[k]
	out := make([]Key, len(related))
	copy(out, related)
	return out
}

// IsMinor reports whether k is a minor key.
func (k Key) IsMinor() bool {
	return strings.HasSuffix(string(k), "m")
}

// IsZero reports whether no key is set.
func (k Key) IsZero() bool {
	return k == ""
}

func (k Key) String() string {
	return string(k)
}

// AreRelated checks the table in both directions, so the relation is
// symmetric even for keys that only appear as neighbours.
func AreRelated(a, b Key) bool {
	return contains(relatedKeys[a], b) || contains(relatedKeys[b], a)
}

func contains(keys []Key, k Key) bool {
	for _, candidate := range keys {
		if candidate == k {
			return true
		}
	}
	return false
}
