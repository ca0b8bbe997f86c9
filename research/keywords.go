package research

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	jsonutil "github.com/quarrylabs/quarry/internal/json"
	"github.com/quarrylabs/quarry/llm"
)

// KeywordGenerator produces seed search keywords for a query.
type KeywordGenerator interface {
	Generate(ctx context.Context, query, fileHint string) ([]string, error)
}

const maxSeedKeywords = 10

// fallbackStopWords are query tokens too generic to search for.
var fallbackStopWords = map[string]struct{}{
	"this": {}, "that": {}, "with": {}, "from": {}, "have": {},
	"been": {}, "will": {}, "would": {}, "could": {}, "should": {},
	"make": {}, "need": {}, "want": {}, "please": {}, "help": {},
	"write": {}, "create": {}, "update": {}, "modify": {}, "change": {},
	"code": {},
}

// FallbackKeywords derives seed keywords directly from the query when the
// generator fails: lower-case tokens, alphanumerics only, longer than 3
// characters, stop words removed, deduplicated, capped.
func FallbackKeywords(query string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == ' ' {
			return r
		}
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return ' '
	}, query)

	seen := make(map[string]struct{})
	var keywords []string
	for _, token := range strings.Fields(cleaned) {
		if len(token) <= 3 {
			continue
		}
		if _, stop := fallbackStopWords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		keywords = append(keywords, token)
		if len(keywords) >= maxSeedKeywords {
			break
		}
	}
	return keywords
}

// LLMKeywordGenerator asks the oracle for seed keywords as a JSON array.
type LLMKeywordGenerator struct {
	client *llm.Client
	logger *zap.Logger
}

// NewLLMKeywordGenerator creates an oracle-backed keyword generator.
func NewLLMKeywordGenerator(client *llm.Client, logger *zap.Logger) *LLMKeywordGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMKeywordGenerator{client: client, logger: logger}
}

// Generate returns up to maxSeedKeywords seed keywords for the query.
// An empty reply is an error; the caller substitutes FallbackKeywords.
func (g *LLMKeywordGenerator) Generate(ctx context.Context, query, fileHint string) ([]string, error) {
	prompt := buildKeywordPrompt(query, fileHint)

	content, err := g.client.Chat(ctx, []llm.ChatMessage{llm.UserMessage(prompt)})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeywordGeneration, err)
	}

	raw, err := jsonutil.ExtractJSONFromResponse[[]string](content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeywordGeneration, err)
	}

	seen := make(map[string]struct{})
	var keywords []string
	for _, kw := range raw {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
		if len(keywords) >= maxSeedKeywords {
			break
		}
	}
	if len(keywords) == 0 {
		return nil, fmt.Errorf("%w: empty keyword list", ErrKeywordGeneration)
	}

	g.logger.Debug("seed keywords generated", zap.Strings("keywords", keywords))
	return keywords, nil
}

func buildKeywordPrompt(query, fileHint string) string {
	var b strings.Builder
	b.WriteString("Extract the best code search keywords for this request.\n\n")
	fmt.Fprintf(&b, "REQUEST: %s\n", query)
	if fileHint != "" {
		fmt.Fprintf(&b, "CURRENT FILE: %s\n", fileHint)
	}
	b.WriteString("\nPrefer exact identifiers (class, function, and type names) over English words.\n")
	fmt.Fprintf(&b, "Respond with a JSON array of at most %d strings and nothing else.\n", maxSeedKeywords)
	return b.String()
}
