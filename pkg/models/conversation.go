package models

import (
	"encoding/json"
	"strings"
)

// ConversationType classifies a captured conversation screen.
type ConversationType int

const (
	ConversationUnknown ConversationType = iota
	ConversationIndividual
	ConversationGroup
)

// ParseConversationType maps the capture agent's string form. Anything
// other than "individual" or "group" is Unknown.
func ParseConversationType(s string) ConversationType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "individual":
		return ConversationIndividual
	case "group":
		return ConversationGroup
	default:
		return ConversationUnknown
	}
}

// String returns the wire form; Unknown is the empty string.
func (c ConversationType) String() string {
	switch c {
	case ConversationIndividual:
		return "individual"
	case ConversationGroup:
		return "group"
	default:
		return ""
	}
}

// MarshalJSON writes the wire form, null for Unknown.
func (c ConversationType) MarshalJSON() ([]byte, error) {
	if c == ConversationUnknown {
		return []byte("null"), nil
	}
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts a string or null.
func (c *ConversationType) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		*c = ConversationUnknown
		return nil
	}
	if s == nil {
		*c = ConversationUnknown
		return nil
	}
	*c = ParseConversationType(*s)
	return nil
}
