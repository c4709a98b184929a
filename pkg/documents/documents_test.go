package documents

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "tracked_rules.json", `[
  {"id": "FINRA-2010", "name": "Standards of Commercial Honor", "url": "https://www.finra.org/rules-guidance/rulebooks/finra-rules/2010"},
  {"id": "LOCAL-1", "locator": "testdata/rule.html"}
]`)

	docs, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []Document{
		{ID: "FINRA-2010", Name: "Standards of Commercial Honor", Locator: "https://www.finra.org/rules-guidance/rulebooks/finra-rules/2010"},
		{ID: "LOCAL-1", Locator: "testdata/rule.html"},
	}
	if !reflect.DeepEqual(docs, want) {
		t.Fatalf("unexpected documents.\nwant: %+v\ngot:  %+v", want, docs)
	}
	if docs[1].Label() != "LOCAL-1" {
		t.Fatalf("label should fall back to id, got %q", docs[1].Label())
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "rules.yaml", `documents:
  - id: SEC-10b-5
    name: Employment of manipulative and deceptive devices
    url: https://www.ecfr.gov/current/title-17/section-240.10b-5
`)

	docs, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "SEC-10b-5" || docs[0].SourceDomain() != "ecfr.gov" {
		t.Fatalf("unexpected documents %+v", docs)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		errPart string
	}{
		{"duplicate ids", "r.json", `[{"id":"a","url":"x"},{"id":"a","url":"y"}]`, "duplicate"},
		{"missing id", "r.json", `[{"url":"x"}]`, "no id"},
		{"missing url", "r.json", `[{"id":"a"}]`, "no url"},
		{"not json", "r.json", `[{"id":`, "invalid JSON"},
		{"not an array", "r.json", `{"id":"a"}`, "array"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tc.file, tc.content))
			if err == nil || !strings.Contains(err.Error(), tc.errPart) {
				t.Fatalf("expected error containing %q, got %v", tc.errPart, err)
			}
		})
	}
}

func TestSourceDomain(t *testing.T) {
	tests := map[string]string{
		"https://www.finra.org/rules-guidance/rulebooks/finra-rules/2010": "finra.org",
		"http://sub.example.co.uk/path":                                    "example.co.uk",
		"data/rule.html":                                                   LocalSource,
		"file:///tmp/rule.html":                                            LocalSource,
		"http://localhost:8080/rule":                                       "localhost",
	}
	for in, want := range tests {
		if got := SourceDomain(in); got != want {
			t.Fatalf("SourceDomain(%q) = %q, want %q", in, got, want)
		}
	}
}
