package analyzer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/quarrylabs/quarry/llm"
)

// ErrUnrecognized indicates the oracle replied but its text contained no
// protocol directive at all. Callers substitute DefaultAnalysis.
var ErrUnrecognized = errors.New("no protocol directives in oracle response")

// Analysis calls use a low temperature and a bounded completion budget:
// the reply is a short structured block, not prose.
const (
	analysisTemperature = 0.3
	analysisMaxTokens   = 1500
)

// Analyzer is the reasoning-oracle adapter: it renders the analysis prompt,
// invokes the LLM, and parses the reply into a typed Result.
type Analyzer struct {
	client *llm.Client
	logger *zap.Logger
}

// New creates an Analyzer backed by the given LLM client.
func New(client *llm.Client, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{client: client, logger: logger}
}

// Analyze runs one analysis round. The context bounds the oracle call; a
// transport failure or an unparseable reply comes back as an error so the
// caller can substitute DefaultAnalysis. Analyze itself never retries.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (Result, error) {
	prompt := BuildAnalysisPrompt(req)

	a.logger.Debug("analyzing search results",
		zap.Int("iteration", req.Iteration),
		zap.Int("total_results", req.Results.Total()),
		zap.Int("prompt_chars", len(prompt)))

	content, err := a.client.ChatWithOptions(ctx,
		[]llm.ChatMessage{llm.UserMessage(prompt)},
		llm.CallOptions{Temperature: analysisTemperature, MaxTokens: analysisMaxTokens})
	if err != nil {
		return Result{}, fmt.Errorf("oracle call failed: %w", err)
	}

	res := Parse(content, req.Iteration)
	if !res.Recognized {
		return res, fmt.Errorf("%w: %s", ErrUnrecognized, preview(content))
	}

	a.logger.Debug("analysis parsed",
		zap.String("confidence", string(res.Confidence)),
		zap.Bool("search_complete", res.SearchComplete),
		zap.Int("next_keywords", len(res.NextKeywords)))

	return res, nil
}

func preview(s string) string {
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}
