package config

import (
	"os"
	"testing"
	"time"
)

func TestNewWithValidProvider(t *testing.T) {
	settings, err := New("openai")
	if err != nil {
		t.Fatalf("New(openai) failed: %v", err)
	}
	if settings.LLM.Provider != "openai" {
		t.Errorf("Provider = %q, want openai", settings.LLM.Provider)
	}
	if settings.LLM.MaxTokens != 4096 {
		t.Errorf("MaxTokens = %d, want 4096", settings.LLM.MaxTokens)
	}
	if settings.Research.MaxIterations != 5 {
		t.Errorf("MaxIterations = %d, want 5", settings.Research.MaxIterations)
	}
	if settings.Research.SufficiencyThreshold != 9 {
		t.Errorf("SufficiencyThreshold = %d, want 9", settings.Research.SufficiencyThreshold)
	}
	if settings.Research.MinIterationYield != 2 {
		t.Errorf("MinIterationYield = %d, want 2", settings.Research.MinIterationYield)
	}
	if settings.Research.KeywordTimeout != 300*time.Second {
		t.Errorf("KeywordTimeout = %v, want 300s", settings.Research.KeywordTimeout)
	}
	if settings.Research.SearchTimeout != 30*time.Second {
		t.Errorf("SearchTimeout = %v, want 30s", settings.Research.SearchTimeout)
	}
	if settings.Research.RepoRoot != "." {
		t.Errorf("RepoRoot = %q, want .", settings.Research.RepoRoot)
	}
}

func TestNewWithAlias(t *testing.T) {
	settings, err := New("claude")
	if err != nil {
		t.Fatalf("New(claude) failed: %v", err)
	}
	if settings.LLM.Provider != "anthropic" {
		t.Errorf("Provider = %q, want anthropic", settings.LLM.Provider)
	}
}

func TestNewWithUnknownProvider(t *testing.T) {
	_, err := New("nonexistent")
	if err == nil {
		t.Fatal("New(nonexistent) should fail")
	}
}

func TestResearchConfigFromEnvironment(t *testing.T) {
	saved := map[string]string{
		"QUARRY_MAX_ITERATIONS":       os.Getenv("QUARRY_MAX_ITERATIONS"),
		"QUARRY_SEARCH_TIMEOUT_SECS":  os.Getenv("QUARRY_SEARCH_TIMEOUT_SECS"),
		"QUARRY_KEYWORD_TIMEOUT_SECS": os.Getenv("QUARRY_KEYWORD_TIMEOUT_SECS"),
		"QUARRY_REPO_ROOT":            os.Getenv("QUARRY_REPO_ROOT"),
		"QUARRY_DB_PATH":              os.Getenv("QUARRY_DB_PATH"),
	}
	defer func() {
		for key, val := range saved {
			if val == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, val)
			}
		}
	}()

	os.Setenv("QUARRY_MAX_ITERATIONS", "3")
	os.Setenv("QUARRY_SEARCH_TIMEOUT_SECS", "60")
	os.Setenv("QUARRY_KEYWORD_TIMEOUT_SECS", "120")
	os.Setenv("QUARRY_REPO_ROOT", "/tmp/repo")
	os.Setenv("QUARRY_DB_PATH", "/tmp/quarry.db")

	settings, err := New("anthropic")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if settings.Research.MaxIterations != 3 {
		t.Errorf("MaxIterations = %d, want 3", settings.Research.MaxIterations)
	}
	if settings.Research.SearchTimeout != 60*time.Second {
		t.Errorf("SearchTimeout = %v, want 60s", settings.Research.SearchTimeout)
	}
	if settings.Research.KeywordTimeout != 120*time.Second {
		t.Errorf("KeywordTimeout = %v, want 120s", settings.Research.KeywordTimeout)
	}
	if settings.Research.RepoRoot != "/tmp/repo" {
		t.Errorf("RepoRoot = %q, want /tmp/repo", settings.Research.RepoRoot)
	}
	if settings.Research.DBPath != "/tmp/quarry.db" {
		t.Errorf("DBPath = %q, want /tmp/quarry.db", settings.Research.DBPath)
	}
}

func TestAPIKeyFor(t *testing.T) {
	saved := os.Getenv("OPENAI_API_KEY")
	defer func() {
		if saved == "" {
			os.Unsetenv("OPENAI_API_KEY")
		} else {
			os.Setenv("OPENAI_API_KEY", saved)
		}
	}()

	os.Setenv("OPENAI_API_KEY", "test-key-123")
	key, err := APIKeyFor("openai")
	if err != nil {
		t.Fatalf("APIKeyFor failed: %v", err)
	}
	if key != "test-key-123" {
		t.Errorf("key = %q, want test-key-123", key)
	}

	os.Unsetenv("OPENAI_API_KEY")
	_, err = APIKeyFor("openai")
	if err == nil {
		t.Fatal("APIKeyFor should fail when key is unset")
	}
}

func TestModelFor(t *testing.T) {
	saved := os.Getenv("DEEPSEEK_MODEL")
	defer func() {
		if saved == "" {
			os.Unsetenv("DEEPSEEK_MODEL")
		} else {
			os.Setenv("DEEPSEEK_MODEL", saved)
		}
	}()

	os.Unsetenv("DEEPSEEK_MODEL")
	model, err := ModelFor("deepseek")
	if err != nil {
		t.Fatalf("ModelFor failed: %v", err)
	}
	if model != "deepseek-chat" {
		t.Errorf("model = %q, want deepseek-chat", model)
	}

	os.Setenv("DEEPSEEK_MODEL", "deepseek-reasoner")
	model, err = ModelFor("deepseek")
	if err != nil {
		t.Fatalf("ModelFor failed: %v", err)
	}
	if model != "deepseek-reasoner" {
		t.Errorf("model = %q, want deepseek-reasoner", model)
	}
}

func TestInvalidEnvironmentValue(t *testing.T) {
	saved := os.Getenv("QUARRY_MAX_ITERATIONS")
	defer func() {
		if saved == "" {
			os.Unsetenv("QUARRY_MAX_ITERATIONS")
		} else {
			os.Setenv("QUARRY_MAX_ITERATIONS", saved)
		}
	}()

	os.Setenv("QUARRY_MAX_ITERATIONS", "not-a-number")
	_, err := New("openai")
	if err == nil {
		t.Fatal("New should fail with invalid QUARRY_MAX_ITERATIONS")
	}
}

func TestInvalidTimeoutValue(t *testing.T) {
	saved := os.Getenv("QUARRY_SEARCH_TIMEOUT_SECS")
	defer func() {
		if saved == "" {
			os.Unsetenv("QUARRY_SEARCH_TIMEOUT_SECS")
		} else {
			os.Setenv("QUARRY_SEARCH_TIMEOUT_SECS", saved)
		}
	}()

	os.Setenv("QUARRY_SEARCH_TIMEOUT_SECS", "-5")
	_, err := New("openai")
	if err == nil {
		t.Fatal("New should fail with negative timeout")
	}
}

func TestMustNewPanicsOnUnknownProvider(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("MustNew should panic for unknown provider")
		}
	}()
	MustNew("nonexistent")
}

func TestSupportedProviders(t *testing.T) {
	supported := SupportedProviders()
	if len(supported) != 4 {
		t.Errorf("got %d providers, want 4", len(supported))
	}
	found := make(map[string]bool)
	for _, p := range supported {
		found[p] = true
	}
	for _, want := range []string{"openai", "anthropic", "deepseek", "gemini"} {
		if !found[want] {
			t.Errorf("missing provider %q", want)
		}
	}
}
