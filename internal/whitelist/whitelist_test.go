package whitelist

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"John Doe":             "john doe",
		" John Doe ":           "john doe",
		"JOHN DOE":             "john doe",
		"\u200bJohn Doe\u200d": "john doe",
		"\ufeff\u200e\u200f":   "",
		"Jo\u200chn":           "john",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitParticipants(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"John Doe, Jane Smith", []string{"John Doe", "Jane Smith"}},
		{"John Doe", []string{"John Doe"}},
		{" , \u200b ,Bob", []string{"Bob"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		got := SplitParticipants(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("SplitParticipants(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestEvaluateScenarios(t *testing.T) {
	tests := []struct {
		name      string
		whitelist []string
		in        string
		want      []string
	}{
		{"one unknown", []string{"John Doe", "Jane Smith"}, "John Doe, Unknown Person", []string{"Unknown Person"}},
		{"none whitelisted", []string{"John", "Jane", "Bob"}, "Mom, Dad, Sister", []string{"Mom", "Dad", "Sister"}},
		{"case insensitive", []string{"John Doe", "Jane Smith"}, "john doe, JANE SMITH", nil},
		{"whitespace insensitive", []string{"John Doe"}, " John Doe ", nil},
		{"zero width joiner", []string{"John Doe"}, "John\u200d Doe", nil},
		{"zero width prefix", []string{"John Doe"}, "\u200bJohn Doe", nil},
		{"whitelist entry normalized", []string{"  \ufeffJANE "}, "jane", nil},
		{"self reference", nil, "You", nil},
		{"original form kept", []string{"a"}, "a, \u200eStranger", []string{"\u200eStranger"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Evaluate(tt.in, tt.whitelist, DefaultSelfReferences)
			if !reflect.DeepEqual(res.NonWhitelisted, tt.want) {
				t.Fatalf("NonWhitelisted = %#v, want %#v", res.NonWhitelisted, tt.want)
			}
			if res.Alerting() != (len(tt.want) > 0) {
				t.Fatalf("Alerting() mismatch")
			}
		})
	}
}

func TestEvaluateKeepsFullParticipantList(t *testing.T) {
	res := Evaluate("A, B, C", []string{"b"}, nil)
	if !reflect.DeepEqual(res.Participants, []string{"A", "B", "C"}) {
		t.Fatalf("unexpected participants: %v", res.Participants)
	}
	if !reflect.DeepEqual(res.NonWhitelisted, []string{"A", "C"}) {
		t.Fatalf("unexpected non-whitelisted: %v", res.NonWhitelisted)
	}
}

func TestMatcherIgnoresEmptyEntries(t *testing.T) {
	m := NewMatcher([]string{"", " ", "\u200b", "Ann"}, nil)
	if m.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", m.Len())
	}
}
