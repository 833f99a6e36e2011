package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestScanReportsMatchesAcrossSequences(t *testing.T) {
	dir := t.TempDir()
	rulePath := filepath.Join(dir, "rules.vr")
	if err := os.WriteFile(rulePath, []byte("period: {.}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	docPath := filepath.Join(dir, "doc.json")
	doc := `{
		"sequences": [{
			"id": "s1",
			"source": "a . b .",
			"tokens": [
				{"text": "a", "offset": 0, "length": 1},
				{"text": ".", "offset": 2, "length": 1},
				{"text": "b", "offset": 4, "length": 1},
				{"text": ".", "offset": 6, "length": 1}
			]
		}]
	}`
	if err := os.WriteFile(docPath, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := NewScanCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{rulePath, docPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	got := out.String()
	if strings.Count(got, "period") != 2 {
		t.Fatalf("expected 2 period matches in output, got: %s", got)
	}
}

func TestScanRecordsHistoryWhenRequested(t *testing.T) {
	dir := t.TempDir()
	rulePath := filepath.Join(dir, "rules.vr")
	os.WriteFile(rulePath, []byte("period: {.}\n"), 0o644)

	docPath := filepath.Join(dir, "doc.json")
	os.WriteFile(docPath, []byte(`{"sequences":[{"id":"s1","source":".","tokens":[{"text":".","offset":0,"length":1}]}]}`), 0o644)

	historyPath := filepath.Join(dir, "history.db")

	cmd := NewScanCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--history-db", historyPath, rulePath, docPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if _, err := os.Stat(historyPath); err != nil {
		t.Fatalf("expected history db to be created: %v", err)
	}
}
