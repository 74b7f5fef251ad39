package whitelist

// DefaultSelfReferences are the first/second-person placeholders a chat
// client shows for the device owner.
var DefaultSelfReferences = []string{"You", "Tú", "Tu", "Yo", "Me", "Myself"}

// Matcher tests names against a normalized whitelist.
type Matcher struct {
	allowed map[string]struct{}
}

// NewMatcher builds a matcher from whitelist entries plus self references.
func NewMatcher(whitelist, selfRefs []string) *Matcher {
	m := &Matcher{allowed: make(map[string]struct{}, len(whitelist)+len(selfRefs))}
	for _, entries := range [][]string{whitelist, selfRefs} {
		for _, e := range entries {
			if n := Normalize(e); n != "" {
				m.allowed[n] = struct{}{}
			}
		}
	}
	return m
}

// Allowed reports whether name is whitelisted after normalization.
func (m *Matcher) Allowed(name string) bool {
	n := Normalize(name)
	if n == "" {
		return true
	}
	_, ok := m.allowed[n]
	return ok
}

// Len returns the number of distinct normalized entries.
func (m *Matcher) Len() int {
	return len(m.allowed)
}
