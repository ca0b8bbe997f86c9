package extract

import (
	"strings"
	"testing"

	"github.com/quarrylabs/quarry/analyzer"
	"github.com/quarrylabs/quarry/model"
	"github.com/quarrylabs/quarry/research"
)

func iterationWith(index int, matches ...model.Match) research.Iteration {
	results := model.NewSearchResults()
	results.Project = append(results.Project, matches...)
	return research.Iteration{Index: index, Results: results}
}

func codeMatch(name, file, code string) model.Match {
	return model.Match{
		Keyword: "kw",
		Type:    model.MatchFunction,
		Name:    name,
		File:    file,
		Code:    code,
	}
}

func TestExtractClassifiesByName(t *testing.T) {
	rc := research.NewContext("q", "")
	rc.AddIteration(iterationWith(0,
		codeMatch("HttpClient", "net/client.go", "func Do() {}"),
		codeMatch("StringUtils", "internal/strutil.go", "func Trim() {}"),
		codeMatch("TestRetry", "net/client_test.go", "func TestRetry() {}"),
		codeMatch("loadConfig", "config/load.go", "func loadConfig() {}"),
	))

	bundle := New(nil).Extract("q", rc)

	if len(bundle.MainComponents) != 1 || bundle.MainComponents[0].Name != "HttpClient" {
		t.Errorf("main components = %+v", bundle.MainComponents)
	}
	if len(bundle.Utilities) != 1 || bundle.Utilities[0].Name != "StringUtils" {
		t.Errorf("utilities = %+v", bundle.Utilities)
	}
	if len(bundle.UsageExamples) != 1 || bundle.UsageExamples[0].Name != "TestRetry" {
		t.Errorf("usage examples = %+v", bundle.UsageExamples)
	}
	if len(bundle.Configuration) != 1 || bundle.Configuration[0].Name != "loadConfig" {
		t.Errorf("configuration = %+v", bundle.Configuration)
	}
}

func TestExtractHelperAndSpecNames(t *testing.T) {
	rc := research.NewContext("q", "")
	rc.AddIteration(iterationWith(0,
		codeMatch("renderHelper", "ui/render.go", "func renderHelper() {}"),
		codeMatch("parserSpec", "parse/spec.js", "describe('parser')"),
		codeMatch("initDatabase", "db/setup.go", "func initDatabase() {}"),
	))

	bundle := New(nil).Extract("q", rc)

	if len(bundle.Utilities) != 1 {
		t.Errorf("helper should classify as utility, got %+v", bundle.Utilities)
	}
	if len(bundle.UsageExamples) != 1 {
		t.Errorf("spec should classify as usage example, got %+v", bundle.UsageExamples)
	}
	if len(bundle.Configuration) != 1 {
		t.Errorf("init should classify as configuration, got %+v", bundle.Configuration)
	}
}

func TestExtractDedupFirstWins(t *testing.T) {
	rc := research.NewContext("q", "")
	rc.AddIteration(iterationWith(0,
		codeMatch("HttpClient", "net/client.go", "seed iteration code"),
	))
	rc.AddIteration(iterationWith(1,
		codeMatch("HttpClient", "net/client.go", "later iteration code"),
	))

	bundle := New(nil).Extract("q", rc)

	entries := bundle.Entries()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1 after dedup", len(entries))
	}
	if entries[0].Code != "seed iteration code" {
		t.Errorf("code = %q, want first occurrence kept", entries[0].Code)
	}
}

func TestExtractDedupAcrossGroups(t *testing.T) {
	// same (name, file) surfacing once as plain code and once as a full
	// small file must still appear exactly once in the whole bundle
	rc := research.NewContext("q", "")
	rc.AddIteration(iterationWith(0,
		codeMatch("helperFunc", "a/util.go", "func helperFunc() {}"),
	))
	full := codeMatch("helperFunc", "a/util.go", "")
	full.FullContent = "package a\n\nfunc helperFunc() {}"
	full.TotalLines = 3
	rc.AddIteration(iterationWith(1, full))

	bundle := New(nil).Extract("q", rc)

	count := 0
	for _, e := range bundle.Entries() {
		if e.Name == "helperFunc" && e.File == "a/util.go" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("(helperFunc, a/util.go) appears %d times, want 1", count)
	}
}

func TestExtractSmallFileVerbatim(t *testing.T) {
	rc := research.NewContext("q", "")
	m := model.Match{
		Keyword:     "backoff",
		Type:        model.MatchText,
		File:        "retry/backoff.go",
		TotalLines:  12,
		FullContent: "package retry\n\nconst base = time.Second",
	}
	rc.AddIteration(iterationWith(0, m))

	bundle := New(nil).Extract("q", rc)

	entries := bundle.Entries()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Code != m.FullContent {
		t.Errorf("code = %q, want verbatim file content", entries[0].Code)
	}
	if entries[0].Name != "backoff" {
		t.Errorf("name = %q, want file basename", entries[0].Name)
	}
}

func TestExtractSmallFileBypassesClassification(t *testing.T) {
	// a full small file belongs to main components even when its name
	// would otherwise classify it elsewhere
	rc := research.NewContext("q", "")
	cfg := model.Match{
		Keyword:     "timeout",
		Type:        model.MatchText,
		File:        "deploy/config.yaml",
		TotalLines:  8,
		FullContent: "timeout: 30s\nretries: 3",
	}
	helpers := model.Match{
		Keyword:     "fixture",
		Type:        model.MatchText,
		File:        "tests/test_helpers.py",
		TotalLines:  20,
		FullContent: "def make_client():\n    return Client()",
	}
	rc.AddIteration(iterationWith(0, cfg, helpers))

	bundle := New(nil).Extract("q", rc)

	if len(bundle.MainComponents) != 2 {
		t.Fatalf("main components = %+v, want both full files", bundle.MainComponents)
	}
	if len(bundle.Configuration) != 0 {
		t.Errorf("configuration = %+v, want empty", bundle.Configuration)
	}
	if len(bundle.UsageExamples) != 0 {
		t.Errorf("usage examples = %+v, want empty", bundle.UsageExamples)
	}
}

func TestExtractHundredLineFileNotVerbatim(t *testing.T) {
	// the small-file bound is exclusive
	rc := research.NewContext("q", "")
	m := model.Match{
		Keyword:     "retry",
		File:        "net/client.go",
		TotalLines:  100,
		FullContent: strings.Repeat("x\n", 100),
	}
	rc.AddIteration(iterationWith(0, m))

	bundle := New(nil).Extract("q", rc)
	if got := len(bundle.Entries()); got != 0 {
		t.Errorf("entries = %d, want 0 for a 100-line file", got)
	}
}

func TestExtractSkipsMatchesWithoutCode(t *testing.T) {
	rc := research.NewContext("q", "")
	rc.AddIteration(iterationWith(0, model.Match{
		Keyword: "retry",
		Type:    model.MatchText,
		File:    "net/client.go",
		Line:    10,
		Snippet: "c.retry()",
	}))

	bundle := New(nil).Extract("q", rc)
	if got := len(bundle.Entries()); got != 0 {
		t.Errorf("entries = %d, want 0 for snippet-only matches", got)
	}
}

func TestExtractLargeFileNotVerbatim(t *testing.T) {
	rc := research.NewContext("q", "")
	m := model.Match{
		Keyword:     "retry",
		File:        "big/file.go",
		TotalLines:  500,
		FullContent: strings.Repeat("x\n", 500),
	}
	rc.AddIteration(iterationWith(0, m))

	bundle := New(nil).Extract("q", rc)
	if got := len(bundle.Entries()); got != 0 {
		t.Errorf("entries = %d, want 0 for oversized full content", got)
	}
}

func TestExtractSummaryPrefersAnalysis(t *testing.T) {
	rc := research.NewContext("add retry", "")
	it := iterationWith(0, codeMatch("HttpClient", "net/client.go", "func Do() {}"))
	it.Analysis = analyzer.Result{Summary: "The client retries idempotent requests."}
	rc.AddIteration(it)

	bundle := New(nil).Extract("add retry", rc)
	if bundle.Summary != "The client retries idempotent requests." {
		t.Errorf("summary = %q", bundle.Summary)
	}
}

func TestExtractSummaryFallback(t *testing.T) {
	rc := research.NewContext("add retry", "")
	rc.AddIteration(iterationWith(0, codeMatch("HttpClient", "net/client.go", "func Do() {}")))

	bundle := New(nil).Extract("add retry", rc)
	if !strings.Contains(bundle.Summary, "add retry") {
		t.Errorf("summary = %q, want query mentioned", bundle.Summary)
	}
}
