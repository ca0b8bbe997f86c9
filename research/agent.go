package research

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quarrylabs/quarry/analyzer"
	"github.com/quarrylabs/quarry/model"
)

// SearchCoordinator fans one keyword set out across all search sources.
// Implementations must honor the context deadline; partial results on
// timeout are acceptable.
type SearchCoordinator interface {
	SearchAll(ctx context.Context, keywords []string) (model.SearchResults, error)
}

// Oracle analyzes one iteration's findings. Satisfied by *analyzer.Analyzer.
type Oracle interface {
	Analyze(ctx context.Context, req analyzer.Request) (analyzer.Result, error)
}

// Extractor assembles the final bundle from an accumulated context.
type Extractor interface {
	Extract(query string, rc *Context) model.ContextBundle
}

// Config carries the loop bounds and per-stage timeouts.
type Config struct {
	Limits          Limits
	KeywordTimeout  time.Duration
	SearchTimeout   time.Duration
	AnalysisTimeout time.Duration
}

// DefaultConfig returns the standard research configuration.
func DefaultConfig() Config {
	return Config{
		Limits:          DefaultLimits(),
		KeywordTimeout:  300 * time.Second,
		SearchTimeout:   30 * time.Second,
		AnalysisTimeout: 30 * time.Second,
	}
}

// IterationStats is the per-iteration diagnostic record in a Report.
type IterationStats struct {
	Index       int                 `json:"index"`
	Keywords    []string            `json:"keywords"`
	ResultCount int                 `json:"result_count"`
	Confidence  analyzer.Confidence `json:"confidence"`
}

// Report is the outcome of one research run. Exactly one of Bundle and
// Error is set.
type Report struct {
	SessionID  string               `json:"session_id"`
	Query      string               `json:"query"`
	FileHint   string               `json:"file_hint,omitempty"`
	Bundle     *model.ContextBundle `json:"context,omitempty"`
	Error      *model.ErrorBundle   `json:"error,omitempty"`
	Iterations []IterationStats     `json:"iterations"`
	StopReason StopReason           `json:"-"`
	Elapsed    time.Duration        `json:"-"`
}

// Agent runs the research loop. All collaborators are injected; none are
// looked up globally.
type Agent struct {
	coordinator SearchCoordinator
	oracle      Oracle
	keywords    KeywordGenerator
	extractor   Extractor
	cfg         Config
	logger      *zap.Logger
}

// NewAgent creates a research agent from its collaborators.
func NewAgent(coordinator SearchCoordinator, oracle Oracle, keywords KeywordGenerator, extractor Extractor, cfg Config, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Limits.MaxIterations <= 0 {
		cfg = DefaultConfig()
	}
	return &Agent{
		coordinator: coordinator,
		oracle:      oracle,
		keywords:    keywords,
		extractor:   extractor,
		cfg:         cfg,
		logger:      logger,
	}
}

// Research runs the full loop for one query. It never returns an error:
// recoverable stage failures degrade to defaults, and anything that escapes
// a stage boundary is converted into an ErrorBundle in the report.
func (a *Agent) Research(ctx context.Context, query, fileHint string) (report Report) {
	start := time.Now()
	report = Report{
		SessionID: uuid.NewString(),
		Query:     query,
		FileHint:  fileHint,
	}

	defer func() {
		report.Elapsed = time.Since(start)
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrUnrecoverable, r)
			a.logger.Error("research run failed", zap.String("query", query), zap.Error(err))
			report.Bundle = nil
			report.Error = &model.ErrorBundle{
				Query:        query,
				FileHint:     fileHint,
				ErrorMessage: err.Error(),
			}
		}
	}()

	keywords := a.seedKeywords(ctx, query, fileHint)
	rc := NewContext(query, fileHint)
	rc.AddKeywords(keywords)

	a.logger.Info("research started",
		zap.String("session_id", report.SessionID),
		zap.String("query", query),
		zap.Strings("seed_keywords", keywords))

	for iteration := 0; iteration < a.cfg.Limits.MaxIterations; iteration++ {
		if ctx.Err() != nil {
			report.StopReason = StopCancelled
			break
		}

		results := a.searchStage(ctx, iteration, keywords)
		analysis := a.analysisStage(ctx, iteration, keywords, results, rc)

		rc.AddIteration(Iteration{
			Index:    iteration,
			Keywords: keywords,
			Results:  results,
			Analysis: analysis,
		})
		report.Iterations = append(report.Iterations, IterationStats{
			Index:       iteration,
			Keywords:    keywords,
			ResultCount: results.Total(),
			Confidence:  analysis.Confidence,
		})

		decision := Evaluate(a.cfg.Limits, iteration, analysis, rc)
		a.logger.Debug("iteration evaluated",
			zap.Int("iteration", iteration),
			zap.Int("results", results.Total()),
			zap.String("confidence", string(analysis.Confidence)),
			zap.Bool("stop", decision.Stop),
			zap.String("reason", decision.Reason.String()))
		if decision.Stop {
			report.StopReason = decision.Reason
			break
		}

		keywords = analysis.NextKeywords
		rc.AddKeywords(keywords)
	}

	bundle := a.extractor.Extract(query, rc)
	report.Bundle = &bundle

	a.logger.Info("research finished",
		zap.String("session_id", report.SessionID),
		zap.Int("iterations", len(report.Iterations)),
		zap.Int("total_results", rc.TotalResults()),
		zap.String("stop_reason", report.StopReason.String()),
		zap.Duration("elapsed", time.Since(start)))

	return report
}

// seedKeywords asks the generator for seed keywords and degrades to the
// local heuristic on any failure.
func (a *Agent) seedKeywords(ctx context.Context, query, fileHint string) []string {
	kctx, cancel := context.WithTimeout(ctx, a.cfg.KeywordTimeout)
	defer cancel()

	keywords, err := a.keywords.Generate(kctx, query, fileHint)
	if err != nil || len(keywords) == 0 {
		a.logger.Warn("keyword generation degraded to heuristic",
			zap.Error(err))
		return FallbackKeywords(query)
	}
	return keywords
}

// searchStage runs one coordinator call. Failures and timeouts yield an
// empty result set; a single bad search never aborts the run.
func (a *Agent) searchStage(ctx context.Context, iteration int, keywords []string) model.SearchResults {
	sctx, cancel := context.WithTimeout(ctx, a.cfg.SearchTimeout)
	defer cancel()

	results, err := a.coordinator.SearchAll(sctx, keywords)
	if err != nil {
		kind := ErrSearchFailure
		if errors.Is(err, context.DeadlineExceeded) {
			kind = ErrSearchTimeout
		}
		a.logger.Warn("search degraded to empty results",
			zap.Int("iteration", iteration),
			zap.Strings("keywords", keywords),
			zap.NamedError("kind", kind),
			zap.Error(err))
		return model.NewSearchResults()
	}
	return results
}

// analysisStage runs one oracle call. Failures and unparseable replies
// yield the deterministic default analysis.
func (a *Agent) analysisStage(ctx context.Context, iteration int, keywords []string, results model.SearchResults, rc *Context) analyzer.Result {
	actx, cancel := context.WithTimeout(ctx, a.cfg.AnalysisTimeout)
	defer cancel()

	analysis, err := a.oracle.Analyze(actx, analyzer.Request{
		Query:     rc.Query,
		Iteration: iteration,
		Keywords:  keywords,
		Results:   results,
		History: analyzer.History{
			Discovered: rc.Discovered(),
			Summaries:  rc.Summaries(),
		},
	})
	if err != nil {
		kind := ErrAnalysisParse
		if errors.Is(err, context.DeadlineExceeded) {
			kind = ErrAnalysisTimeout
		}
		a.logger.Warn("analysis degraded to default",
			zap.Int("iteration", iteration),
			zap.NamedError("kind", kind),
			zap.Error(err))
		return analyzer.DefaultAnalysis(results, iteration)
	}
	return analysis
}
