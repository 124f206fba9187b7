package parsing

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"jamflow/domain/core/valueobjects"
)

// keyToken matches a spoken key: a root letter, an optional accidental and
// an optional mode, e.g. "C", "Bb", "F# minor", "E flat".
const keyToken = `([a-g](?:#|♯|♭|b|\s+flat|\s+sharp)?(?:\s*(?:minor|major|min|maj)|m)?)`

// keyEnd stops a key token before anything that would extend it into a word.
const keyEnd = `(?:[^\w#♯♭]|$)`

// synonym maps spoken variants of a term onto a canonical label.
type synonym struct {
	label    string
	variants []string
}

// alternation builds a regexp alternation over every variant, longest first
// so that "deep house" wins over "house".
func alternation(table []synonym) string {
	var variants []string
	for _, s := range table {
		variants = append(variants, s.variants...)
	}
	sort.SliceStable(variants, func(i, j int) bool { return len(variants[i]) > len(variants[j]) })
	quoted := make([]string, len(variants))
	for i, v := range variants {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(v), " ", `\s+`)
	}
	return strings.Join(quoted, "|")
}

// canonical resolves a matched variant back to its label.
func canonical(table []synonym, matched string) string {
	m := normalizeSpace(strings.ToLower(matched))
	for _, s := range table {
		for _, v := range s.variants {
			if v == m {
				return s.label
			}
		}
	}
	return titleCase(m)
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// acceptKey decides whether a captured key token really names a key. A
// lowercase single letter after "in" is usually an article ("in a dark
// mood"), so it only counts when the speaker said "key" or spelled out the
// mode.
func acceptKey(token string, keyPhrase bool) (valueobjects.Key, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	explicit := keyPhrase || unicode.IsUpper(rune(token[0]))
	if !explicit {
		lower := strings.ToLower(token)
		explicit = strings.Contains(lower, "minor") || strings.Contains(lower, "major") ||
			strings.Contains(lower, "flat") || strings.Contains(lower, "sharp")
	}
	if !explicit {
		return "", false
	}
	key, err := valueobjects.ParseKey(token)
	if err != nil {
		return "", false
	}
	return key, true
}

var genreTable = []synonym{
	{"Hip Hop", []string{"hip hop", "hip-hop", "hiphop"}},
	{"Trap", []string{"trap"}},
	{"Tech House", []string{"tech house", "tech-house"}},
	{"Deep House", []string{"deep house", "deep-house"}},
	{"Progressive House", []string{"progressive house", "progressive-house"}},
	{"House", []string{"house"}},
	{"Techno", []string{"techno"}},
	{"Drum and Bass", []string{"drum and bass", "drum & bass", "drum-and-bass", "dnb"}},
	{"Dubstep", []string{"dubstep"}},
	{"EDM", []string{"edm"}},
	{"Pop", []string{"pop"}},
	{"Rock", []string{"rock"}},
	{"Jazz", []string{"jazz"}},
	{"Funk", []string{"funk"}},
	{"R&B", []string{"r&b", "rnb"}},
	{"Ambient", []string{"ambient"}},
	{"Lo-fi", []string{"lo-fi", "lo fi", "lofi"}},
	{"Trance", []string{"trance"}},
	{"Electro", []string{"electro"}},
	{"Disco", []string{"disco"}},
	{"Soul", []string{"soul"}},
	{"Reggae", []string{"reggae"}},
	{"Country", []string{"country"}},
	{"Blues", []string{"blues"}},
	{"Metal", []string{"metal"}},
	{"Indie", []string{"indie"}},
	{"Alternative", []string{"alternative"}},
	{"Classical", []string{"classical"}},
}

var (
	genrePattern = regexp.MustCompile(`(?i)\b(` + alternation(genreTable) + `)\b`)
	bpmPattern   = regexp.MustCompile(`(?i)\b(\d{2,3})\s*bpm\b`)
	songKeyRegex = regexp.MustCompile(`(?i)(?:\bin\s+(the\s+key\s+of\s+)?|\b(key)(?:\s+of|:)?\s*)` + keyToken + keyEnd)
)

// findGenres returns the canonical genre labels in order of appearance.
func findGenres(text string) []string {
	var out []string
	for _, m := range genrePattern.FindAllStringSubmatch(text, -1) {
		out = append(out, canonical(genreTable, m[1]))
	}
	return out
}

// songKey returns the first accepted key mentioned anywhere in text.
func songKey(text string) (valueobjects.Key, bool) {
	for _, m := range songKeyRegex.FindAllStringSubmatch(text, -1) {
		if key, ok := acceptKey(m[3], m[1] != "" || m[2] != ""); ok {
			return key, true
		}
	}
	return "", false
}

// songBPM returns the first tempo mentioned in text.
func songBPM(text string, max int) (valueobjects.BPM, bool) {
	m := bpmPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	bpm, err := valueobjects.NewBPM(atoi(m[1]), max)
	if err != nil {
		return 0, false
	}
	return bpm, true
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
