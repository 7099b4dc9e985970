// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the ideation-engine
// pipeline: the CodexObject content model, the type/stage taxonomy,
// classification and transformation results, and the satellite entities
// persisted alongside objects.
package types

import (
	"time"

	"github.com/google/uuid"
)

// CodexObjectType classifies a unit of creative content by its maturity
// in the writing taxonomy.
type CodexObjectType string

const (
	TypeIdea            CodexObjectType = "idea"
	TypeLogline         CodexObjectType = "logline"
	TypeSummary         CodexObjectType = "summary"
	TypeTreatment       CodexObjectType = "treatment"
	TypeSynopsis        CodexObjectType = "synopsis"
	TypeOutline         CodexObjectType = "outline"
	TypeDetailedOutline CodexObjectType = "detailed_outline"
	TypeDraft           CodexObjectType = "draft"
	TypeManuscript      CodexObjectType = "manuscript"
	TypeSeries          CodexObjectType = "series"
	TypeUnknown         CodexObjectType = "unknown"
)

// DevelopmentStage tracks how far a piece of content has progressed
// through the writing workflow.
type DevelopmentStage string

const (
	StageConcept     DevelopmentStage = "concept"
	StageDevelopment DevelopmentStage = "development"
	StageDraft       DevelopmentStage = "draft"
	StageRevision    DevelopmentStage = "revision"
	StageComplete    DevelopmentStage = "complete"
	StagePublished   DevelopmentStage = "published"
)

// ObjectStatus tracks an object's position in the evaluation workflow.
type ObjectStatus string

const (
	StatusCreated    ObjectStatus = "created"
	StatusClassified ObjectStatus = "classified"
	StatusDeveloped  ObjectStatus = "developed"
	StatusEvaluated  ObjectStatus = "evaluated"
	StatusApproved   ObjectStatus = "approved"
	StatusRejected   ObjectStatus = "rejected"
)

// TypeHierarchy is the canonical ordering of content types from least to
// most developed. It is the single source of truth for the hierarchy;
// both the classifier and the transformer consult it rather than
// re-deriving positions. Series and unknown are deliberately absent.
var TypeHierarchy = []CodexObjectType{
	TypeIdea,
	TypeLogline,
	TypeSummary,
	TypeSynopsis,
	TypeTreatment,
	TypeOutline,
	TypeDetailedOutline,
	TypeDraft,
	TypeManuscript,
}

// HierarchyPosition returns the zero-based position of t in the type
// hierarchy, or -1 if t is not part of it (series, unknown).
func HierarchyPosition(t CodexObjectType) int {
	for i, h := range TypeHierarchy {
		if h == t {
			return i
		}
	}
	return -1
}

// DefaultStageForType maps each content type to the development stage a
// freshly classified object of that type is assumed to be in.
var DefaultStageForType = map[CodexObjectType]DevelopmentStage{
	TypeIdea:            StageConcept,
	TypeLogline:         StageConcept,
	TypeSummary:         StageConcept,
	TypeSynopsis:        StageDevelopment,
	TypeTreatment:       StageDevelopment,
	TypeOutline:         StageDevelopment,
	TypeDetailedOutline: StageDevelopment,
	TypeDraft:           StageDraft,
	TypeManuscript:      StageComplete,
	TypeSeries:          StageDevelopment,
	TypeUnknown:         StageConcept,
}

// HistoryEntry is one record in a CodexObject's append-only processing
// history. The history is the object's only audit trail: entries are
// added, never rewritten.
type HistoryEntry struct {
	// Action names the operation that produced this entry
	// (e.g. "created", "content_updated", "classified", "transformed").
	Action string `json:"action" yaml:"action"`

	// Timestamp is when the operation happened. It always equals the
	// object's LastModified at the moment the entry was appended.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Detail carries free-form context about the operation.
	Detail map[string]any `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// CodexObject is one unit of creative content at some point in the
// type/stage taxonomy, with full provenance bookkeeping.
type CodexObject struct {
	// UUID is the globally unique identifier, immutable after construction.
	UUID string `json:"uuid" yaml:"uuid"`

	// ShortUUID is the 8-character display identifier, derived as
	// UUID[:8] at construction and stored explicitly thereafter.
	ShortUUID string `json:"shortuuid" yaml:"shortuuid"`

	// ObjectType is the content's position in the writing taxonomy.
	ObjectType CodexObjectType `json:"object_type" yaml:"object_type"`

	// DevelopmentStage tracks maturity within the current type.
	DevelopmentStage DevelopmentStage `json:"development_stage" yaml:"development_stage"`

	// Title is the working title.
	Title string `json:"title" yaml:"title"`

	// Content is the free-text body. Replacing it through UpdateContent
	// recomputes WordCount; direct assignment does not.
	Content string `json:"content" yaml:"content"`

	// Logline is a one-sentence summary of the content.
	Logline string `json:"logline,omitempty" yaml:"logline,omitempty"`

	// Description is a longer prose description.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Genre is the content's genre label.
	Genre string `json:"genre,omitempty" yaml:"genre,omitempty"`

	// TargetAudience describes the intended readership.
	TargetAudience string `json:"target_audience,omitempty" yaml:"target_audience,omitempty"`

	// WordCount is computed from Content at construction and on
	// UpdateContent.
	WordCount int `json:"word_count" yaml:"word_count"`

	// ConfidenceScore is the classification confidence, 0.0 to 1.0.
	ConfidenceScore float64 `json:"confidence_score" yaml:"confidence_score"`

	// ParentUUID is the object this one was transformed from. A weak
	// reference: deleting the parent does not cascade.
	ParentUUID string `json:"parent_uuid,omitempty" yaml:"parent_uuid,omitempty"`

	// SeriesUUID is series membership, also a weak reference.
	SeriesUUID string `json:"series_uuid,omitempty" yaml:"series_uuid,omitempty"`

	// SourceElements traces the story elements this object was built from.
	SourceElements []string `json:"source_elements,omitempty" yaml:"source_elements,omitempty"`

	// DerivedFrom is the ordered chain of object IDs in this object's
	// provenance.
	DerivedFrom []string `json:"derived_from,omitempty" yaml:"derived_from,omitempty"`

	// CreatedTimestamp is when the object was constructed.
	CreatedTimestamp time.Time `json:"created_timestamp" yaml:"created_timestamp"`

	// LastModified is updated by every state-changing operation.
	LastModified time.Time `json:"last_modified" yaml:"last_modified"`

	// ProcessingHistory is the append-only audit trail.
	ProcessingHistory []HistoryEntry `json:"processing_history" yaml:"processing_history"`

	// LLMResponses stores raw model responses keyed by operation.
	LLMResponses map[string]string `json:"llm_responses,omitempty" yaml:"llm_responses,omitempty"`

	// GenerationMetadata carries model parameters used to generate the content.
	GenerationMetadata map[string]any `json:"generation_metadata,omitempty" yaml:"generation_metadata,omitempty"`

	// TournamentPerformance accumulates per-tournament results.
	TournamentPerformance map[string]any `json:"tournament_performance,omitempty" yaml:"tournament_performance,omitempty"`

	// ReaderFeedback is the ordered list of reader comments.
	ReaderFeedback []string `json:"reader_feedback,omitempty" yaml:"reader_feedback,omitempty"`

	// EvaluationScores maps evaluator name to score.
	EvaluationScores map[string]float64 `json:"evaluation_scores,omitempty" yaml:"evaluation_scores,omitempty"`

	// Status is the workflow state.
	Status ObjectStatus `json:"status" yaml:"status"`

	// Tags are free-form topic labels.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// Notes holds working notes.
	Notes string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// NewCodexObject constructs a CodexObject with a fresh UUID, derived
// short ID, computed word count, and a "created" history entry.
func NewCodexObject(title, content string, objectType CodexObjectType, stage DevelopmentStage) *CodexObject {
	id := uuid.NewString()
	now := time.Now().UTC()

	o := &CodexObject{
		UUID:             id,
		ShortUUID:        id[:8],
		ObjectType:       objectType,
		DevelopmentStage: stage,
		Title:            title,
		Content:          content,
		WordCount:        CountWords(content),
		CreatedTimestamp: now,
		LastModified:     now,
		Status:           StatusCreated,
	}
	o.ProcessingHistory = append(o.ProcessingHistory, HistoryEntry{
		Action:    "created",
		Timestamp: now,
		Detail: map[string]any{
			"object_type": string(objectType),
			"word_count":  o.WordCount,
		},
	})
	return o
}

// CountWords returns the number of whitespace-separated words in s.
func CountWords(s string) int {
	count := 0
	inWord := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			inWord = false
			continue
		}
		if !inWord {
			count++
			inWord = true
		}
	}
	return count
}

// appendHistory adds one entry and advances LastModified to the entry's
// timestamp. Every state-changing method funnels through here so the
// invariant "one entry per operation, timestamp == LastModified" holds.
func (o *CodexObject) appendHistory(action string, detail map[string]any) {
	now := time.Now().UTC()
	o.LastModified = now
	o.ProcessingHistory = append(o.ProcessingHistory, HistoryEntry{
		Action:    action,
		Timestamp: now,
		Detail:    detail,
	})
}

// UpdateContent replaces the content body, recomputes the word count,
// and records the change in the processing history.
func (o *CodexObject) UpdateContent(content string) {
	previous := o.WordCount
	o.Content = content
	o.WordCount = CountWords(content)
	o.appendHistory("content_updated", map[string]any{
		"previous_word_count": previous,
		"word_count":          o.WordCount,
	})
}

// ApplyClassification records a classification outcome on the object.
func (o *CodexObject) ApplyClassification(objectType CodexObjectType, stage DevelopmentStage, confidence float64) {
	o.ObjectType = objectType
	o.DevelopmentStage = stage
	o.ConfidenceScore = confidence
	o.Status = StatusClassified
	o.appendHistory("classified", map[string]any{
		"object_type":       string(objectType),
		"development_stage": string(stage),
		"confidence":        confidence,
	})
}

// AddEvaluation records a named evaluator's score.
func (o *CodexObject) AddEvaluation(evaluator string, score float64) {
	if o.EvaluationScores == nil {
		o.EvaluationScores = make(map[string]float64)
	}
	o.EvaluationScores[evaluator] = score
	o.Status = StatusEvaluated
	o.appendHistory("evaluated", map[string]any{
		"evaluator": evaluator,
		"score":     score,
	})
}

// AddReaderFeedback appends a reader comment.
func (o *CodexObject) AddReaderFeedback(feedback string) {
	o.ReaderFeedback = append(o.ReaderFeedback, feedback)
	o.appendHistory("feedback_added", map[string]any{
		"feedback": feedback,
	})
}

// RecordTransformation notes that this object participated in a
// transformation, either as the source or as the result. The
// counterpart's UUID is recorded so either object alone reveals the
// relationship.
func (o *CodexObject) RecordTransformation(role, counterpartUUID string, transformationType string) {
	o.appendHistory("transformed", map[string]any{
		"role":                role,
		"counterpart_uuid":    counterpartUUID,
		"transformation_type": transformationType,
	})
}
