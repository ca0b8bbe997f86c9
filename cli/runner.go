// Command execution for CLI commands.
//
// Information Hiding:
// - Provider and stack wiring hidden
// - Session persistence hidden
// - Output formatting hidden

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/quarrylabs/quarry/analyzer"
	"github.com/quarrylabs/quarry/config"
	"github.com/quarrylabs/quarry/extract"
	"github.com/quarrylabs/quarry/internal/logutil"
	"github.com/quarrylabs/quarry/llm"
	"github.com/quarrylabs/quarry/research"
	"github.com/quarrylabs/quarry/search"
	"github.com/quarrylabs/quarry/storage"
)

// Options holds CLI execution options.
type Options struct {
	Provider string
	RepoRoot string
	DBPath   string
	NoStore  bool
	Verbose  bool
}

// DefaultOptions returns default CLI options.
func DefaultOptions() Options {
	return Options{
		Verbose: false,
	}
}

// Research runs one research session against the repository and prints the
// resulting report as JSON on stdout. The report is persisted to the session
// store unless opts.NoStore is set; persistence failures are logged, never
// fatal.
func Research(ctx context.Context, query, fileHint string, opts Options) error {
	provider, settings, err := createProvider(opts.Provider)
	if err != nil {
		return err
	}

	logger, err := logutil.New(opts.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	repoRoot := opts.RepoRoot
	if repoRoot == "" {
		repoRoot = settings.Research.RepoRoot
	}

	client := llm.NewClient(provider)
	agent := research.NewAgent(
		newCoordinator(repoRoot, logger),
		analyzer.New(client, logger),
		research.NewLLMKeywordGenerator(client, logger),
		extract.New(logger),
		researchConfig(settings.Research),
		logger,
	)

	logger.Info("using provider",
		zap.String("provider", provider.Name()),
		zap.String("model", provider.Model()))

	report := agent.Research(ctx, query, fileHint)

	if !opts.NoStore {
		saveReport(ctx, dbPath(opts, settings), report, logger)
	}

	return printJSON(report)
}

// Search fans a fixed keyword set out across all search sources and prints
// the categorized results as JSON. No LLM provider is involved.
func Search(ctx context.Context, keywords []string, opts Options) error {
	logger, err := logutil.New(opts.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	repoRoot := opts.RepoRoot
	if repoRoot == "" {
		repoRoot = "."
	}

	results, err := newCoordinator(repoRoot, logger).SearchAll(ctx, keywords)
	if err != nil {
		return err
	}
	return printJSON(results)
}

// ListSessions prints stored research sessions, newest first.
func ListSessions(ctx context.Context, limit int, opts Options) error {
	store, err := storage.Open(dbPathDefault(opts))
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.ListSessions(ctx, limit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No stored sessions.")
		return nil
	}

	for _, s := range sessions {
		status := "ok"
		if s.Failed {
			status = "failed"
		}
		fmt.Printf("%s  %-6s  %2d iter  %6dms  %s  %s\n",
			s.SessionID, status, s.Iterations, s.ElapsedMS, s.CreatedAt, s.Query)
	}
	return nil
}

// ShowSession prints the stored context bundle for a session as JSON.
func ShowSession(ctx context.Context, sessionID string, opts Options) error {
	store, err := storage.Open(dbPathDefault(opts))
	if err != nil {
		return err
	}
	defer store.Close()

	bundle, err := store.LoadBundle(ctx, sessionID)
	if err != nil {
		return err
	}
	if bundle == nil {
		return fmt.Errorf("session %s has no stored context", sessionID)
	}
	return printJSON(bundle)
}

// DeleteSession removes a stored session and its iteration records.
func DeleteSession(ctx context.Context, sessionID string, opts Options) error {
	store, err := storage.Open(dbPathDefault(opts))
	if err != nil {
		return err
	}
	defer store.Close()

	exists, err := store.Exists(ctx, sessionID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("no session %s", sessionID)
	}

	if err := store.Delete(ctx, sessionID); err != nil {
		return err
	}
	fmt.Printf("Deleted session %s\n", sessionID)
	return nil
}

// newCoordinator builds the search fan-out over all three sources.
func newCoordinator(repoRoot string, logger *zap.Logger) *search.Fanout {
	return search.NewFanout([]search.Strategy{
		search.NewHistoryStrategy(repoRoot),
		search.NewWorktreeStrategy(repoRoot),
		search.NewProjectStrategy(repoRoot),
	}, logger)
}

// researchConfig maps environment settings onto the research loop config.
func researchConfig(rc config.ResearchConfig) research.Config {
	return research.Config{
		Limits: research.Limits{
			MaxIterations:        rc.MaxIterations,
			SufficiencyThreshold: rc.SufficiencyThreshold,
			MinIterationYield:    rc.MinIterationYield,
		},
		KeywordTimeout:  rc.KeywordTimeout,
		SearchTimeout:   rc.SearchTimeout,
		AnalysisTimeout: rc.AnalysisTimeout,
	}
}

func saveReport(ctx context.Context, path string, report research.Report, logger *zap.Logger) {
	store, err := storage.Open(path)
	if err != nil {
		logger.Warn("session store unavailable", zap.String("path", path), zap.Error(err))
		return
	}
	defer store.Close()

	if err := store.SaveReport(ctx, report); err != nil {
		logger.Warn("failed to persist session", zap.String("session_id", report.SessionID), zap.Error(err))
	}
}

func dbPath(opts Options, settings config.Settings) string {
	if opts.DBPath != "" {
		return opts.DBPath
	}
	return settings.Research.DBPath
}

// dbPathDefault resolves the store path for commands that never load
// provider settings.
func dbPathDefault(opts Options) string {
	if opts.DBPath != "" {
		return opts.DBPath
	}
	if path := os.Getenv("QUARRY_DB_PATH"); path != "" {
		return path
	}
	return "quarry.db"
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func createProvider(providerName string) (llm.Provider, config.Settings, error) {
	if providerName == "" {
		providerName = os.Getenv("LLM_PROVIDER")
	}
	if providerName == "" {
		return nil, config.Settings{}, fmt.Errorf("--provider or LLM_PROVIDER is required for this command")
	}

	providerType, err := llm.ParseProviderType(providerName)
	if err != nil {
		return nil, config.Settings{}, err
	}

	settings, err := config.New(providerName)
	if err != nil {
		return nil, config.Settings{}, err
	}

	apiKey, err := config.APIKeyFor(providerName)
	if err != nil {
		return nil, config.Settings{}, err
	}

	provider, err := providerType.
		Model(settings.LLM.Model).
		MaxTokens(settings.LLM.MaxTokens).
		Temperature(float32(settings.LLM.Temperature)).
		APIKey(apiKey)
	if err != nil {
		return nil, config.Settings{}, err
	}
	return provider, settings, nil
}
