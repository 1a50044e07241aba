package retrieve

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/akolanti/docsync/internal/config"
	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/internal/rag/llm"
	"github.com/akolanti/docsync/pkg/logger_i"
)

var logger = logger_i.NewLogger("retrieve")

const multiQueryPrompt = `You are an AI language model assistant. Your task is to generate %d different versions of the given user question to retrieve relevant documents from a vector database. By generating multiple perspectives on the user question, your goal is to help the user overcome some of the limitations of the distance-based similarity search. Provide these alternative questions separated by newlines.
Original question: %s`

// listMarker matches "1.", "2)", "-", "*" and "•" prefixes the model sometimes adds.
var listMarker = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*•])\s+`)

// Expander rewrites a goal and state into several search queries.
type Expander struct {
	LLM   llm.Provider
	Count int
}

func NewExpander(provider llm.Provider, count int) *Expander {
	if count <= 0 {
		count = config.DefaultQueryCount
	}
	return &Expander{LLM: provider, Count: count}
}

// Question joins goal and state the way every query is phrased.
func Question(goal, state string) string {
	return goal + "\n" + state
}

// Expand returns the original question first, followed by the distinct alternatives.
func (e *Expander) Expand(ctx context.Context, goal, state string) ([]string, error) {
	if strings.TrimSpace(goal) == "" && strings.TrimSpace(state) == "" {
		return nil, commonModels.ErrEmptyInput
	}
	question := Question(goal, state)

	count := e.Count
	if count <= 0 {
		count = config.DefaultQueryCount
	}
	out, err := e.LLM.Complete(ctx, fmt.Sprintf(multiQueryPrompt, count, question))
	if err != nil {
		return nil, commonModels.ServiceError("expand query", err)
	}

	queries := []string{question}
	seen := map[string]bool{normalize(question): true}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		key := normalize(line)
		if seen[key] {
			continue
		}
		seen[key] = true
		queries = append(queries, line)
	}

	logger.WithTrace(ctx, config.TRACE_ID_KEY).Info("Generated queries", "count", len(queries)-1, "queries", queries[1:])
	return queries, nil
}

// normalize lower-cases and collapses whitespace.
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
