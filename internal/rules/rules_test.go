package rules

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRules(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "replacements.rules")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return path
}

func TestLoadMissingFileYieldsEmptyEngine(t *testing.T) {
	t.Parallel()

	engine, err := Load(filepath.Join(t.TempDir(), "absent.rules"), 0)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if engine.Len() != 0 {
		t.Fatalf("expected empty engine")
	}

	out, err := engine.Apply("unchanged")
	if err != nil || out != "unchanged" {
		t.Fatalf("empty engine must pass text through, got %q %v", out, err)
	}
}

func TestApplyLiteralAndRegexRules(t *testing.T) {
	t.Parallel()

	path := writeRules(t, `
# personal vocabulary
jason => JSON
re:\bk8s\b => Kubernetes
`)
	engine, err := Load(path, 0)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	out, err := engine.Apply("store the jason config in k8s")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if out != "store the JSON config in Kubernetes" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestApplyStopsAtIterationLimit(t *testing.T) {
	t.Parallel()

	// A self-feeding rule must not loop forever.
	path := writeRules(t, "a => aa\n")
	engine, err := Load(path, 3)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	out, err := engine.Apply("a")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if len(out) == 0 || len(out) > 1<<4 {
		t.Fatalf("iteration limit not applied, got %d chars", len(out))
	}
}

func TestLoadRejectsMalformedLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		contents string
	}{
		{name: "missing arrow", contents: "just some words\n"},
		{name: "empty match", contents: "=> replacement\n"},
		{name: "bad regex", contents: "re:([ => x\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Load(writeRules(t, tc.contents), 0); err == nil {
				t.Fatalf("expected parse error")
			}
		})
	}
}
