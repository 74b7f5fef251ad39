package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestFieldsAppendedAfterMessage(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, Debug)
	defer setSink(&sink{enabled: false})

	With("user", "u1", "interaction", "i 2").Infof("evaluated %d names", 3)

	line := buf.String()
	if !strings.Contains(line, "[INFO] evaluated 3 names user=u1 interaction=\"i 2\"") {
		t.Fatalf("unexpected line: %q", line)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, Warn)
	defer setSink(&sink{enabled: false})

	Infof("hidden")
	Warnf("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "[WARN] shown") {
		t.Fatalf("expected warn line, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{"debug": Debug, "WARNING": Warn, "error": Error, "": Info, "bogus": Info}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
