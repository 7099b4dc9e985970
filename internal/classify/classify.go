// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify assigns a content type and development stage to free
// text. A cheap word-count heuristic always runs; an optional LLM pass
// refines it. Classification never fails: internal errors produce a
// default result instead of an error return.
package classify

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pdiddy/ideation-engine/internal/ai"
	"github.com/pdiddy/ideation-engine/pkg/types"
)

// promptLimit caps how much content is embedded in the LLM prompt.
const promptLimit = 1000

// heuristicBucket maps a word-count ceiling to a type and a fixed
// confidence. Buckets are checked in order; the first ceiling the word
// count falls under wins. Mid-range buckets carry the highest
// confidence: very short and very long texts are harder to place.
type heuristicBucket struct {
	maxWords   int
	objectType types.CodexObjectType
	confidence float64
}

var heuristicBuckets = []heuristicBucket{
	{10, types.TypeIdea, 0.6},
	{50, types.TypeLogline, 0.7},
	{200, types.TypeSummary, 0.7},
	{1000, types.TypeSynopsis, 0.65},
	{5000, types.TypeTreatment, 0.6},
	{20000, types.TypeOutline, 0.55},
}

// draftConfidence applies beyond the last heuristic ceiling.
const draftConfidence = 0.5

// llmWinThreshold is the confidence above which the LLM result wins
// outright, regardless of the heuristic.
const llmWinThreshold = 0.7

// Classifier combines the heuristic and LLM passes, caching results by
// content hash. Safe for concurrent use: the cache is mutex-guarded.
type Classifier struct {
	caller ai.Caller
	cfg    types.ClassifierConfig

	mu    sync.Mutex
	cache map[string]types.ClassificationResult
}

// New constructs a Classifier. The caller may be nil, in which case the
// LLM pass is skipped and only the heuristic runs.
func New(caller ai.Caller, cfg types.ClassifierConfig) *Classifier {
	return &Classifier{
		caller: caller,
		cfg:    cfg,
		cache:  make(map[string]types.ClassificationResult),
	}
}

// Classify assigns a type and stage to content. It never returns an
// error: any internal failure yields a default result (unknown/concept,
// confidence 0) whose reasoning describes the failure.
func (c *Classifier) Classify(ctx context.Context, content string, metadata map[string]string) types.ClassificationResult {
	key := cacheKey(content, metadata)

	c.mu.Lock()
	if cached, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return cached
	}
	c.mu.Unlock()

	result := c.classify(ctx, content, metadata)

	c.mu.Lock()
	c.cache[key] = result
	c.mu.Unlock()

	return result
}

// ClearCache discards all cached results.
func (c *Classifier) ClearCache() {
	c.mu.Lock()
	c.cache = make(map[string]types.ClassificationResult)
	c.mu.Unlock()
}

// CacheSize returns the number of cached results.
func (c *Classifier) CacheSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

func (c *Classifier) classify(ctx context.Context, content string, metadata map[string]string) types.ClassificationResult {
	heuristic := c.heuristicClassify(content)

	llm := c.llmClassify(ctx, content)

	// The LLM result wins when it is confident in absolute terms or
	// relative to the heuristic; otherwise the heuristic stands.
	if llm != nil && (llm.ConfidenceScore > llmWinThreshold || llm.ConfidenceScore > heuristic.ConfidenceScore) {
		llm.WordCount = heuristic.WordCount
		llm.SuggestedImprovements = buildSuggestions(llm.ObjectType, metadata)
		llm.MetadataCompleteness = metadataCompleteness(metadata)
		return *llm
	}

	heuristic.DevelopmentStage = types.DefaultStageForType[heuristic.ObjectType]
	heuristic.SuggestedImprovements = buildSuggestions(heuristic.ObjectType, metadata)
	heuristic.MetadataCompleteness = metadataCompleteness(metadata)
	return heuristic
}

// heuristicClassify buckets content purely by word count.
func (c *Classifier) heuristicClassify(content string) types.ClassificationResult {
	words := types.CountWords(content)

	for _, b := range heuristicBuckets {
		if words < b.maxWords {
			return types.ClassificationResult{
				ObjectType:      b.objectType,
				ConfidenceScore: b.confidence,
				WordCount:       words,
				Reasoning:       fmt.Sprintf("word count %d falls in the %s range (< %d words)", words, b.objectType, b.maxWords),
			}
		}
	}

	return types.ClassificationResult{
		ObjectType:      types.TypeDraft,
		ConfidenceScore: draftConfidence,
		WordCount:       words,
		Reasoning:       fmt.Sprintf("word count %d exceeds all shorter-form ranges", words),
	}
}

// llmResponse is the JSON shape the classification prompt asks for.
type llmResponse struct {
	ContentType      string  `json:"content_type"`
	DevelopmentStage string  `json:"development_stage"`
	Confidence       float64 `json:"confidence"`
	Reasoning        string  `json:"reasoning"`
}

// llmClassify runs the best-effort LLM pass. Any failure — missing
// caller, call error, malformed JSON — returns nil so the heuristic
// result stands.
func (c *Classifier) llmClassify(ctx context.Context, content string) *types.ClassificationResult {
	if c.caller == nil || !c.cfg.EnableLLM {
		return nil
	}

	resp, err := c.caller.Call(ctx, ai.Request{
		Prompt:      buildPrompt(content),
		Model:       c.cfg.Model,
		Format:      ai.FormatJSON,
		Temperature: 0.2,
		MaxTokens:   500,
	})
	if err != nil {
		return nil
	}

	var parsed llmResponse
	if err := json.Unmarshal([]byte(resp.Content), &parsed); err != nil {
		return nil
	}

	return &types.ClassificationResult{
		ObjectType:       matchObjectType(parsed.ContentType),
		DevelopmentStage: matchStage(parsed.DevelopmentStage),
		ConfidenceScore:  parsed.Confidence,
		Reasoning:        parsed.Reasoning,
	}
}

// buildPrompt embeds a truncated excerpt plus the closed enum
// vocabularies, asking for a JSON object.
func buildPrompt(content string) string {
	excerpt := content
	if len(excerpt) > promptLimit {
		excerpt = excerpt[:promptLimit]
	}

	var b strings.Builder
	b.WriteString("Classify the following creative writing content.\n\n")
	b.WriteString("Content types: ")
	for i, t := range types.TypeHierarchy {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(string(t))
	}
	b.WriteString("\nDevelopment stages: concept, development, draft, revision, complete, published\n\n")
	b.WriteString("Respond with a JSON object: {\"content_type\": ..., \"development_stage\": ..., \"confidence\": 0.0-1.0, \"reasoning\": ...}\n\n")
	b.WriteString("Content:\n")
	b.WriteString(excerpt)
	return b.String()
}

// matchObjectType resolves a model-reported type string against the
// enum, case-insensitively. Unmatched strings fall back to unknown.
func matchObjectType(s string) types.CodexObjectType {
	normalized := strings.ToLower(strings.TrimSpace(s))
	for _, t := range types.TypeHierarchy {
		if normalized == string(t) {
			return t
		}
	}
	if normalized == string(types.TypeSeries) {
		return types.TypeSeries
	}
	return types.TypeUnknown
}

// matchStage resolves a model-reported stage string, falling back to
// concept.
func matchStage(s string) types.DevelopmentStage {
	normalized := strings.ToLower(strings.TrimSpace(s))
	for _, stage := range []types.DevelopmentStage{
		types.StageConcept, types.StageDevelopment, types.StageDraft,
		types.StageRevision, types.StageComplete, types.StagePublished,
	} {
		if normalized == string(stage) {
			return stage
		}
	}
	return types.StageConcept
}

// nextStepForType suggests the natural next transformation per type.
var nextStepForType = map[types.CodexObjectType]string{
	types.TypeIdea:      "develop the idea into a one-sentence logline",
	types.TypeLogline:   "expand the logline into a summary or synopsis",
	types.TypeSummary:   "grow the summary into a full synopsis",
	types.TypeSynopsis:  "develop the synopsis into a treatment or outline",
	types.TypeTreatment: "break the treatment into a chapter outline",
	types.TypeOutline:   "expand the outline into a detailed outline or draft",
	types.TypeDraft:     "revise the draft toward a complete manuscript",
}

// buildSuggestions produces up to three improvement suggestions from
// metadata gaps and the type's natural next step.
func buildSuggestions(t types.CodexObjectType, metadata map[string]string) []string {
	var suggestions []string

	gaps := []struct{ key, text string }{
		{"title", "add a working title"},
		{"genre", "specify a genre"},
		{"target_audience", "identify the target audience"},
		{"tags", "tag the content for discoverability"},
	}
	for _, g := range gaps {
		if metadata[g.key] == "" {
			suggestions = append(suggestions, g.text)
		}
	}

	if step, ok := nextStepForType[t]; ok {
		suggestions = append(suggestions, step)
	}

	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}
	return suggestions
}

// metadataCompleteness scores how many of the expected metadata keys
// carry values.
func metadataCompleteness(metadata map[string]string) float64 {
	keys := []string{"title", "genre", "target_audience", "logline", "description", "tags"}
	filled := 0
	for _, k := range keys {
		if metadata[k] != "" {
			filled++
		}
	}
	return float64(filled) / float64(len(keys))
}

// cacheKey derives a compact key from the content and the sorted
// metadata items: 8 hex characters of each hash.
func cacheKey(content string, metadata map[string]string) string {
	contentHash := sha256.Sum256([]byte(content))

	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(metadata[k]))
		h.Write([]byte{0})
	}

	return fmt.Sprintf("%x", contentHash)[:8] + fmt.Sprintf("%x", h.Sum(nil))[:8]
}
