package alertjson

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"sentinel/pkg/models"
)

func TestWriterAppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "alerts.jsonl")

	for _, id := range []string{"a1", "a2"} {
		w, err := NewWriter(path)
		if err != nil {
			t.Fatalf("new writer: %v", err)
		}
		if err := w.WriteAlert(context.Background(), &models.Alert{AlertID: id, UserID: "u1"}); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var ids []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var a models.Alert
		if err := json.Unmarshal(sc.Bytes(), &a); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		ids = append(ids, a.AlertID)
	}
	if len(ids) != 2 || ids[0] != "a1" || ids[1] != "a2" {
		t.Fatalf("unexpected alert ids: %v", ids)
	}
}
