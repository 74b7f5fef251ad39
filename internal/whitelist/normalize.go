package whitelist

import "strings"

// invisible are the zero-width and direction marks stripped before comparison.
var invisible = strings.NewReplacer(
	"\u200b", "",
	"\u200c", "",
	"\u200d", "",
	"\ufeff", "",
	"\u200e", "",
	"\u200f", "",
)

// Normalize strips invisible characters, trims and lower-cases a name.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(invisible.Replace(name)))
}

// SplitParticipants splits the free-text participants field on commas. Names
// that contain a literal comma cannot be represented. Pieces are trimmed and
// pieces that normalize to empty are dropped.
func SplitParticipants(participants string) []string {
	parts := strings.Split(participants, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		v := strings.TrimSpace(p)
		if Normalize(v) == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
