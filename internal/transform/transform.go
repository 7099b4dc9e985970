// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package transform moves content between positions in the type
// taxonomy. Each transformation classifies the source afresh, picks a
// strategy from the relative hierarchy positions, and produces a new
// object linked to its source. Failures are result values, never
// errors, so batch runs continue past individual failures.
package transform

import (
	"context"
	"fmt"
	"sync"

	"github.com/pdiddy/ideation-engine/internal/ai"
	"github.com/pdiddy/ideation-engine/internal/classify"
	"github.com/pdiddy/ideation-engine/pkg/types"
)

// Strategy parameters. Relabel-only strategies take no generative risk
// and score higher confidence than LLM rewrites.
const (
	restructureConfidence = 0.9
	convertConfidence     = 0.7

	maxSuggestions = 5
)

// Transformer applies transformation strategies. Safe for concurrent
// use: the in-memory history is mutex-guarded.
type Transformer struct {
	caller     ai.Caller
	classifier *classify.Classifier
	cfg        types.TransformerConfig

	mu      sync.Mutex
	history []types.TransformationResult
}

// New constructs a Transformer sharing the given classifier.
func New(caller ai.Caller, classifier *classify.Classifier, cfg types.TransformerConfig) *Transformer {
	return &Transformer{
		caller:     caller,
		classifier: classifier,
		cfg:        cfg,
	}
}

// Transform produces a new object of targetType from the source. The
// source's stored type is deliberately not trusted: content may have
// drifted since its last classification, so the current content is
// classified first and the strategy chosen from that. targetStage
// overrides the strategy's default stage when non-empty.
//
// The source is never mutated except for the transformation record
// appended to its history on success.
func (t *Transformer) Transform(ctx context.Context, source *types.CodexObject, targetType types.CodexObjectType, targetStage types.DevelopmentStage) types.TransformationResult {
	classified := t.classifier.Classify(ctx, source.Content, nil)
	sourceType := classified.ObjectType

	category := determineCategory(sourceType, targetType, source.DevelopmentStage, targetStage)

	var result types.TransformationResult
	switch category {
	case types.TransformExpand:
		result = t.generate(ctx, source, sourceType, targetType, targetStage, llmStrategy{
			transformationType: types.TransformExpand,
			temperature:        0.7,
			maxTokens:          2000,
			defaultStage:       types.StageDevelopment,
			instruction:        "Expand the following %s into a %s. Develop the narrative in depth while preserving the premise, genre, and target audience.",
		})
	case types.TransformCondense:
		result = t.generate(ctx, source, sourceType, targetType, targetStage, llmStrategy{
			transformationType: types.TransformCondense,
			temperature:        0.5,
			maxTokens:          500,
			defaultStage:       types.StageConcept,
			instruction:        "Condense the following %s into a %s. Preserve the essential premise, stakes, and tone.",
		})
	case types.TransformEnhance:
		result = t.generate(ctx, source, sourceType, targetType, targetStage, llmStrategy{
			transformationType: types.TransformEnhance,
			temperature:        0.6,
			maxTokens:          1500,
			defaultStage:       types.StageDevelopment,
			instruction:        "Enhance the following %s as a richer %s. Deepen detail and texture without changing its scope or structure.",
		})
	case types.TransformRestructure:
		result = t.relabel(source, sourceType, targetType, targetStage, types.TransformRestructure, restructureConfidence,
			"reorganized for a new development stage without regenerating content")
	default:
		result = t.relabel(source, sourceType, targetType, targetStage, types.TransformConvert, convertConfidence,
			"relabeled outside the hierarchy without regenerating content")
	}

	t.mu.Lock()
	t.history = append(t.history, result)
	t.mu.Unlock()

	return result
}

// BatchTransform processes sources sequentially, returning one result
// per input in input order. An individual failure never aborts the
// batch.
func (t *Transformer) BatchTransform(ctx context.Context, sources []*types.CodexObject, targetType types.CodexObjectType, targetStage types.DevelopmentStage) []types.TransformationResult {
	results := make([]types.TransformationResult, 0, len(sources))
	for _, source := range sources {
		results = append(results, t.Transform(ctx, source, targetType, targetStage))
	}
	return results
}

// determineCategory picks the strategy from the relative hierarchy
// positions of the classified source type and the requested target. A
// type outside the hierarchy (series, unknown) always yields convert.
// Equal positions yield enhance, or restructure when the caller asked
// for a different explicit stage.
func determineCategory(sourceType, targetType types.CodexObjectType, sourceStage, targetStage types.DevelopmentStage) types.TransformationType {
	from := types.HierarchyPosition(sourceType)
	to := types.HierarchyPosition(targetType)

	switch {
	case from < 0 || to < 0:
		return types.TransformConvert
	case to > from:
		return types.TransformExpand
	case to < from:
		return types.TransformCondense
	case targetStage != "" && targetStage != sourceStage:
		return types.TransformRestructure
	default:
		return types.TransformEnhance
	}
}

// llmStrategy parameterizes one generative transformation.
type llmStrategy struct {
	transformationType types.TransformationType
	temperature        float64
	maxTokens          int
	defaultStage       types.DevelopmentStage
	instruction        string
}

// generate runs an LLM-backed strategy. Call errors funnel into a
// failed result; no retry happens at this layer.
func (t *Transformer) generate(ctx context.Context, source *types.CodexObject, sourceType, targetType types.CodexObjectType, targetStage types.DevelopmentStage, s llmStrategy) types.TransformationResult {
	failed := func(err error) types.TransformationResult {
		return types.TransformationResult{
			Success:            false,
			TransformationType: s.transformationType,
			SourceType:         sourceType,
			TargetType:         targetType,
			ErrorMessage:       err.Error(),
		}
	}

	if t.caller == nil {
		return failed(fmt.Errorf("no AI caller configured for %s", s.transformationType))
	}

	prompt := buildTransformPrompt(source, sourceType, targetType, s.instruction)

	resp, err := t.caller.Call(ctx, ai.Request{
		Prompt:      prompt,
		Model:       t.cfg.Model,
		Format:      ai.FormatText,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return failed(fmt.Errorf("%s call: %w", s.transformationType, err))
	}
	if resp.Content == "" {
		return failed(fmt.Errorf("%s call returned empty content", s.transformationType))
	}

	stage := s.defaultStage
	if targetStage != "" {
		stage = targetStage
	}

	obj := t.newDerivedObject(source, resp.Content, targetType, stage)
	obj.ConfidenceScore = source.ConfidenceScore
	if obj.LLMResponses == nil {
		obj.LLMResponses = make(map[string]string)
	}
	obj.LLMResponses[string(s.transformationType)] = resp.Content

	linkTransformation(source, obj, s.transformationType)

	return types.TransformationResult{
		Success:            true,
		Object:             obj,
		TransformationType: s.transformationType,
		SourceType:         sourceType,
		TargetType:         targetType,
		ConfidenceScore:    0.8,
		Notes:              fmt.Sprintf("%s from %s (%d words) to %s (%d words)", s.transformationType, sourceType, source.WordCount, targetType, obj.WordCount),
	}
}

// relabel runs a copy-only strategy: same content, new type and stage.
func (t *Transformer) relabel(source *types.CodexObject, sourceType, targetType types.CodexObjectType, targetStage types.DevelopmentStage, transformationType types.TransformationType, confidence float64, notes string) types.TransformationResult {
	stage := targetStage
	if stage == "" {
		stage = types.DefaultStageForType[targetType]
	}

	obj := t.newDerivedObject(source, source.Content, targetType, stage)
	obj.ConfidenceScore = confidence

	linkTransformation(source, obj, transformationType)

	return types.TransformationResult{
		Success:            true,
		Object:             obj,
		TransformationType: transformationType,
		SourceType:         sourceType,
		TargetType:         targetType,
		ConfidenceScore:    confidence,
		Notes:              notes,
	}
}

// newDerivedObject builds the result object, carrying over descriptive
// metadata and extending the provenance chain.
func (t *Transformer) newDerivedObject(source *types.CodexObject, content string, targetType types.CodexObjectType, stage types.DevelopmentStage) *types.CodexObject {
	obj := types.NewCodexObject(source.Title, content, targetType, stage)
	obj.Logline = source.Logline
	obj.Genre = source.Genre
	obj.TargetAudience = source.TargetAudience
	obj.SeriesUUID = source.SeriesUUID
	obj.ParentUUID = source.UUID
	obj.DerivedFrom = append(append([]string{}, source.DerivedFrom...), source.UUID)
	obj.Tags = append([]string{}, source.Tags...)
	return obj
}

// linkTransformation appends the symmetric transformation records so
// either object alone reveals the relationship.
func linkTransformation(source, derived *types.CodexObject, transformationType types.TransformationType) {
	source.RecordTransformation("source", derived.UUID, string(transformationType))
	derived.RecordTransformation("result", source.UUID, string(transformationType))
}

// Suggestion pairs a recommended target type with the reason for it.
type Suggestion struct {
	TargetType types.CodexObjectType `json:"target_type" yaml:"target_type"`
	Reason     string                `json:"reason" yaml:"reason"`
}

// expansionTargets is the fixed lookup of natural next targets per type.
var expansionTargets = map[types.CodexObjectType][]Suggestion{
	types.TypeIdea: {
		{types.TypeLogline, "distill the idea into a one-sentence hook"},
		{types.TypeSummary, "sketch the idea as a short summary"},
	},
	types.TypeLogline: {
		{types.TypeSynopsis, "grow the logline into a full synopsis"},
		{types.TypeTreatment, "develop the logline into a treatment"},
	},
	types.TypeSummary: {
		{types.TypeSynopsis, "expand the summary into a synopsis"},
		{types.TypeOutline, "structure the summary as an outline"},
	},
}

// Suggestions returns up to five recommended transformations for the
// object's current type.
func (t *Transformer) Suggestions(source *types.CodexObject) []Suggestion {
	suggestions := append([]Suggestion{}, expansionTargets[source.ObjectType]...)

	if source.ObjectType == types.TypeSynopsis || source.ObjectType == types.TypeTreatment {
		suggestions = append(suggestions, Suggestion{
			TargetType: types.TypeLogline,
			Reason:     "condense to a logline for pitching",
		})
	}

	suggestions = append(suggestions, Suggestion{
		TargetType: source.ObjectType,
		Reason:     "enhance the current form with more depth",
	})

	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}

// Stats summarizes the in-memory transformation history.
type Stats struct {
	Total     int                              `json:"total" yaml:"total"`
	Succeeded int                              `json:"succeeded" yaml:"succeeded"`
	Failed    int                              `json:"failed" yaml:"failed"`
	ByType    map[types.TransformationType]int `json:"by_type" yaml:"by_type"`
}

// History returns a copy of the recorded results, oldest first.
func (t *Transformer) History() []types.TransformationResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]types.TransformationResult{}, t.history...)
}

// Statistics summarizes all transformations attempted so far.
func (t *Transformer) Statistics() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := Stats{
		Total:  len(t.history),
		ByType: make(map[types.TransformationType]int),
	}
	for _, r := range t.history {
		if r.Success {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
		stats.ByType[r.TransformationType]++
	}
	return stats
}
