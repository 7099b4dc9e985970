// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transform

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pdiddy/ideation-engine/internal/ai"
	"github.com/pdiddy/ideation-engine/internal/classify"
	"github.com/pdiddy/ideation-engine/pkg/types"
)

// --- test helpers ---

// scriptedCaller replays responses in order; a nil entry means an error.
type scriptedCaller struct {
	responses []string
	errAt     map[int]error
	calls     int
	requests  []ai.Request
}

func (s *scriptedCaller) Call(_ context.Context, req ai.Request) (ai.Response, error) {
	idx := s.calls
	s.calls++
	s.requests = append(s.requests, req)
	if err, ok := s.errAt[idx]; ok {
		return ai.Response{}, err
	}
	if idx < len(s.responses) {
		return ai.Response{Content: s.responses[idx]}, nil
	}
	return ai.Response{Content: "generated content from the model spanning more words than before"}, nil
}

func newTransformer(caller ai.Caller) *Transformer {
	classifier := classify.New(nil, types.ClassifierConfig{})
	return New(caller, classifier, types.TransformerConfig{})
}

func loglineObject() *types.CodexObject {
	return types.NewCodexObject(
		"The Keeper",
		"A lone lighthouse keeper discovers a message in a bottle that predicts his own death.",
		types.TypeLogline,
		types.StageConcept,
	)
}

// --- category tests ---

func TestDetermineCategoryHierarchyConsistency(t *testing.T) {
	// Every ordered pair in the hierarchy must select expand one way
	// and condense the other; the diagonal selects enhance.
	for i, a := range types.TypeHierarchy {
		for j, b := range types.TypeHierarchy {
			got := determineCategory(a, b, types.StageConcept, "")
			switch {
			case j > i && got != types.TransformExpand:
				t.Errorf("%s -> %s = %s, want expand", a, b, got)
			case j < i && got != types.TransformCondense:
				t.Errorf("%s -> %s = %s, want condense", a, b, got)
			case j == i && got != types.TransformEnhance:
				t.Errorf("%s -> %s = %s, want enhance", a, b, got)
			}
		}
	}
}

func TestDetermineCategoryOutsideHierarchy(t *testing.T) {
	if got := determineCategory(types.TypeUnknown, types.TypeDraft, types.StageConcept, ""); got != types.TransformConvert {
		t.Errorf("unknown -> draft = %s, want convert", got)
	}
	if got := determineCategory(types.TypeLogline, types.TypeSeries, types.StageConcept, ""); got != types.TransformConvert {
		t.Errorf("logline -> series = %s, want convert", got)
	}
}

func TestDetermineCategoryRestructure(t *testing.T) {
	got := determineCategory(types.TypeDraft, types.TypeDraft, types.StageDraft, types.StageRevision)
	if got != types.TransformRestructure {
		t.Errorf("same type with new stage = %s, want restructure", got)
	}
}

// --- expand tests ---

func TestExpandLoglineToSynopsis(t *testing.T) {
	expanded := strings.Repeat("the story deepens with every night watch ", 40)
	caller := &scriptedCaller{responses: []string{expanded}}
	tr := newTransformer(caller)
	source := loglineObject()

	result := tr.Transform(context.Background(), source, types.TypeSynopsis, "")

	if !result.Success {
		t.Fatalf("transform failed: %s", result.ErrorMessage)
	}
	if result.TransformationType != types.TransformExpand {
		t.Errorf("type = %s, want expand", result.TransformationType)
	}
	if result.Object.ObjectType != types.TypeSynopsis {
		t.Errorf("object type = %s, want synopsis", result.Object.ObjectType)
	}
	if result.Object.DevelopmentStage != types.StageDevelopment {
		t.Errorf("stage = %s, want development", result.Object.DevelopmentStage)
	}
	if result.Object.ParentUUID != source.UUID {
		t.Errorf("parent = %s, want %s", result.Object.ParentUUID, source.UUID)
	}
	if result.Object.WordCount <= source.WordCount {
		t.Errorf("expanded word count %d not greater than source %d", result.Object.WordCount, source.WordCount)
	}

	req := caller.requests[0]
	if req.Temperature != 0.7 || req.MaxTokens != 2000 {
		t.Errorf("expand params = (%v, %d), want (0.7, 2000)", req.Temperature, req.MaxTokens)
	}
}

func TestCondenseUsesLowerTemperature(t *testing.T) {
	caller := &scriptedCaller{responses: []string{"a tight logline"}}
	tr := newTransformer(caller)

	long := types.NewCodexObject("Long", strings.Repeat("word ", 300), types.TypeSynopsis, types.StageDevelopment)
	result := tr.Transform(context.Background(), long, types.TypeLogline, "")

	if !result.Success {
		t.Fatalf("transform failed: %s", result.ErrorMessage)
	}
	if result.TransformationType != types.TransformCondense {
		t.Errorf("type = %s, want condense", result.TransformationType)
	}
	if result.Object.DevelopmentStage != types.StageConcept {
		t.Errorf("stage = %s, want concept", result.Object.DevelopmentStage)
	}
	req := caller.requests[0]
	if req.Temperature != 0.5 || req.MaxTokens != 500 {
		t.Errorf("condense params = (%v, %d), want (0.5, 500)", req.Temperature, req.MaxTokens)
	}
}

// --- drift tests ---

func TestTransformReclassifiesDriftedContent(t *testing.T) {
	caller := &scriptedCaller{responses: []string{"condensed"}}
	tr := newTransformer(caller)

	// Stored type says logline, but the content has grown to synopsis
	// length. Transforming to summary must classify the content as a
	// synopsis and condense, not expand from logline.
	drifted := types.NewCodexObject("Drifted", strings.Repeat("word ", 300), types.TypeLogline, types.StageConcept)
	result := tr.Transform(context.Background(), drifted, types.TypeSummary, "")

	if result.SourceType != types.TypeSynopsis {
		t.Errorf("classified source type = %s, want synopsis", result.SourceType)
	}
	if result.TransformationType != types.TransformCondense {
		t.Errorf("type = %s, want condense", result.TransformationType)
	}
}

// --- relabel tests ---

func TestConvertTakesNoLLMCall(t *testing.T) {
	caller := &scriptedCaller{}
	tr := newTransformer(caller)

	source := types.NewCodexObject("S", "a series about generational ships", types.TypeIdea, types.StageConcept)
	result := tr.Transform(context.Background(), source, types.TypeSeries, "")

	if !result.Success {
		t.Fatalf("convert failed: %s", result.ErrorMessage)
	}
	if result.TransformationType != types.TransformConvert {
		t.Errorf("type = %s, want convert", result.TransformationType)
	}
	if result.ConfidenceScore != 0.7 {
		t.Errorf("confidence = %v, want 0.7", result.ConfidenceScore)
	}
	if caller.calls != 0 {
		t.Errorf("LLM calls = %d, want 0 for convert", caller.calls)
	}
	if result.Object.Content != source.Content {
		t.Errorf("convert must copy content verbatim")
	}
}

func TestRestructureConfidence(t *testing.T) {
	tr := newTransformer(nil)

	source := types.NewCodexObject("R", strings.Repeat("word ", 60), types.TypeSummary, types.StageConcept)
	result := tr.Transform(context.Background(), source, types.TypeSummary, types.StageDevelopment)

	if !result.Success {
		t.Fatalf("restructure failed: %s", result.ErrorMessage)
	}
	if result.TransformationType != types.TransformRestructure {
		t.Errorf("type = %s, want restructure", result.TransformationType)
	}
	if result.ConfidenceScore != 0.9 {
		t.Errorf("confidence = %v, want 0.9", result.ConfidenceScore)
	}
	if result.Object.DevelopmentStage != types.StageDevelopment {
		t.Errorf("stage = %s, want development", result.Object.DevelopmentStage)
	}
}

// --- lineage tests ---

func TestTransformationLineageSymmetry(t *testing.T) {
	caller := &scriptedCaller{responses: []string{strings.Repeat("expanded ", 100)}}
	tr := newTransformer(caller)
	source := loglineObject()
	sourceHistoryLen := len(source.ProcessingHistory)

	result := tr.Transform(context.Background(), source, types.TypeSynopsis, "")
	if !result.Success {
		t.Fatalf("transform failed: %s", result.ErrorMessage)
	}

	if len(source.ProcessingHistory) != sourceHistoryLen+1 {
		t.Fatalf("source history grew by %d, want 1", len(source.ProcessingHistory)-sourceHistoryLen)
	}

	sourceEntry := source.ProcessingHistory[len(source.ProcessingHistory)-1]
	if sourceEntry.Action != "transformed" {
		t.Errorf("source entry action = %s, want transformed", sourceEntry.Action)
	}
	if sourceEntry.Detail["counterpart_uuid"] != result.Object.UUID {
		t.Errorf("source entry does not reference the derived object")
	}

	derivedEntry := result.Object.ProcessingHistory[len(result.Object.ProcessingHistory)-1]
	if derivedEntry.Action != "transformed" {
		t.Errorf("derived entry action = %s, want transformed", derivedEntry.Action)
	}
	if derivedEntry.Detail["counterpart_uuid"] != source.UUID {
		t.Errorf("derived entry does not reference the source")
	}

	if result.Object.DerivedFrom[len(result.Object.DerivedFrom)-1] != source.UUID {
		t.Errorf("derived_from chain does not end with the source uuid")
	}
}

// --- failure tests ---

func TestLLMFailureProducesFailedResult(t *testing.T) {
	caller := &scriptedCaller{errAt: map[int]error{0: errors.New("model unavailable")}}
	tr := newTransformer(caller)
	source := loglineObject()
	historyLen := len(source.ProcessingHistory)

	result := tr.Transform(context.Background(), source, types.TypeSynopsis, "")

	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.ErrorMessage, "model unavailable") {
		t.Errorf("error message %q missing cause", result.ErrorMessage)
	}
	if result.Object != nil {
		t.Errorf("failed result must carry no object")
	}
	if len(source.ProcessingHistory) != historyLen {
		t.Errorf("failed transform must not touch the source history")
	}
}

func TestBatchResilience(t *testing.T) {
	// Item 1 (zero-based) fails; its neighbors must succeed.
	caller := &scriptedCaller{
		responses: []string{
			strings.Repeat("one ", 100),
			"",
			strings.Repeat("three ", 100),
		},
		errAt: map[int]error{1: errors.New("forced failure")},
	}
	tr := newTransformer(caller)

	sources := []*types.CodexObject{loglineObject(), loglineObject(), loglineObject()}
	results := tr.BatchTransform(context.Background(), sources, types.TypeSynopsis, "")

	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if !results[0].Success || !results[2].Success {
		t.Errorf("neighbors of the failed item must succeed")
	}
	if results[1].Success {
		t.Errorf("item 1 must fail")
	}
}

// --- suggestion and stats tests ---

func TestSuggestionsLookup(t *testing.T) {
	tr := newTransformer(nil)

	idea := types.NewCodexObject("I", "an idea", types.TypeIdea, types.StageConcept)
	got := tr.Suggestions(idea)
	if len(got) != 3 {
		t.Fatalf("idea suggestions = %d, want 3 (two targets + enhance)", len(got))
	}
	if got[0].TargetType != types.TypeLogline || got[1].TargetType != types.TypeSummary {
		t.Errorf("idea targets = %s, %s", got[0].TargetType, got[1].TargetType)
	}
	if got[2].TargetType != types.TypeIdea {
		t.Errorf("last suggestion = %s, want same-type enhance", got[2].TargetType)
	}

	synopsis := types.NewCodexObject("S", "text", types.TypeSynopsis, types.StageDevelopment)
	got = tr.Suggestions(synopsis)
	foundCondense := false
	for _, s := range got {
		if s.TargetType == types.TypeLogline {
			foundCondense = true
		}
	}
	if !foundCondense {
		t.Errorf("synopsis suggestions missing condense-to-logline")
	}
	if len(got) > 5 {
		t.Errorf("suggestions = %d, want at most 5", len(got))
	}
}

func TestStatisticsTrackOutcomes(t *testing.T) {
	caller := &scriptedCaller{
		responses: []string{strings.Repeat("ok ", 100), ""},
		errAt:     map[int]error{1: errors.New("boom")},
	}
	tr := newTransformer(caller)

	tr.Transform(context.Background(), loglineObject(), types.TypeSynopsis, "")
	tr.Transform(context.Background(), loglineObject(), types.TypeSynopsis, "")

	stats := tr.Statistics()
	if stats.Total != 2 || stats.Succeeded != 1 || stats.Failed != 1 {
		t.Errorf("stats = %+v, want total 2, succeeded 1, failed 1", stats)
	}
	if stats.ByType[types.TransformExpand] != 2 {
		t.Errorf("expand count = %d, want 2", stats.ByType[types.TransformExpand])
	}
}
