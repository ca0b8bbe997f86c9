package search

import (
	"strings"
	"testing"

	"github.com/quarrylabs/quarry/model"
)

func TestParseGitLog(t *testing.T) {
	output := strings.Join([]string{
		"a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2\tadd retry to uploader",
		"upload/retry.go",
		"upload/retry_test.go",
		"",
		"f6e5d4c3b2a1f6e5d4c3b2a1f6e5d4c3b2a1f6e5\tfix timeout handling",
		"net/client.go",
	}, "\n")

	matches := parseGitLog("retry", output)
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
	first := matches[0]
	if first.Commit != "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2" {
		t.Errorf("commit = %q", first.Commit)
	}
	if first.Subject != "add retry to uploader" {
		t.Errorf("subject = %q", first.Subject)
	}
	if first.File != "upload/retry.go" {
		t.Errorf("file = %q, want first touched file", first.File)
	}
	if matches[1].File != "net/client.go" {
		t.Errorf("second file = %q", matches[1].File)
	}
}

func TestParseGitLogEmpty(t *testing.T) {
	if got := parseGitLog("kw", ""); len(got) != 0 {
		t.Errorf("matches = %v, want none", got)
	}
}

func TestParseUnifiedDiff(t *testing.T) {
	output := strings.Join([]string{
		"diff --git a/net/client.go b/net/client.go",
		"index 123..456 100644",
		"--- a/net/client.go",
		"+++ b/net/client.go",
		"@@ -10,0 +11,3 @@ func (c *Client) Do(req *Request) (*Response, error) {",
		"+\tif c.retries > 0 {",
		"@@ -40,1 +44,1 @@ func backoff(attempt int) time.Duration {",
		"+\treturn base * time.Duration(attempt)",
	}, "\n")

	matches := parseUnifiedDiff("retry", output)

	var files, funcs []string
	for _, m := range matches {
		if m.Type == model.MatchFunction {
			funcs = append(funcs, m.Name)
		} else {
			files = append(files, m.File)
		}
	}
	if len(files) != 1 || files[0] != "net/client.go" {
		t.Errorf("file matches = %v", files)
	}
	if len(funcs) != 2 || funcs[0] != "Do" || funcs[1] != "backoff" {
		t.Errorf("function matches = %v, want [Do backoff]", funcs)
	}
}

func TestParseRipgrepOutput(t *testing.T) {
	output := strings.Join([]string{
		"net/client.go:12:func (c *HttpClient) Do(req *Request) (*Response, error) {",
		"net/client.go:48:\t// HttpClient retries idempotent requests",
		"docs/readme.md:3:HttpClient usage",
	}, "\n")

	matches := parseRipgrepOutput("HttpClient", output)
	if len(matches) != 3 {
		t.Fatalf("matches = %d, want 3", len(matches))
	}

	first := matches[0]
	if first.Type != model.MatchFunction {
		t.Errorf("first match type = %v, want function", first.Type)
	}
	if first.Name != "Do" {
		t.Errorf("first match name = %q, want Do", first.Name)
	}
	if first.Line != 12 {
		t.Errorf("first match line = %d, want 12", first.Line)
	}

	if matches[1].Type != model.MatchText {
		t.Errorf("comment line classified as %v, want text", matches[1].Type)
	}
	if matches[1].Snippet != "// HttpClient retries idempotent requests" {
		t.Errorf("snippet = %q", matches[1].Snippet)
	}
}

func TestParseRipgrepOutputFunctionForms(t *testing.T) {
	tests := []struct {
		line string
		name string
	}{
		{"pkg/a.go:1:func Connect(addr string) error {", "Connect"},
		{"pkg/b.py:1:def parse_config(path):", "parse_config"},
		{"pkg/c.js:1:function renderList(items) {", "renderList"},
		{"pkg/d.java:1:public class RetryPolicy {", "RetryPolicy"},
		{"pkg/e.rs:1:pub fn backoff(attempt: u32) -> Duration {", "backoff"},
	}
	for _, tc := range tests {
		matches := parseRipgrepOutput("kw", tc.line)
		if len(matches) != 1 {
			t.Errorf("%q: matches = %d, want 1", tc.line, len(matches))
			continue
		}
		if matches[0].Type != model.MatchFunction {
			t.Errorf("%q: type = %v, want function", tc.line, matches[0].Type)
		}
		if matches[0].Name != tc.name {
			t.Errorf("%q: name = %q, want %q", tc.line, matches[0].Name, tc.name)
		}
	}
}

func TestCaptureSnippetClosesBrace(t *testing.T) {
	lines := []string{
		"func add(a, b int) int {",
		"\treturn a + b",
		"}",
		"",
		"func sub(a, b int) int {",
	}
	got := captureSnippet(lines, 0)
	want := "func add(a, b int) int {\n\treturn a + b\n}"
	if got != want {
		t.Errorf("snippet = %q, want %q", got, want)
	}
}

func TestCaptureSnippetBoundedWithoutBraces(t *testing.T) {
	lines := make([]string, 100)
	lines[0] = "def long_function():"
	for i := 1; i < 100; i++ {
		lines[i] = "    pass"
	}
	got := captureSnippet(lines, 0)
	if n := len(strings.Split(got, "\n")); n != maxSnippetLines {
		t.Errorf("snippet lines = %d, want bounded at %d", n, maxSnippetLines)
	}
}
