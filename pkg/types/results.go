// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ClassificationResult is the outcome of classifying a piece of free
// text. It is ephemeral: results are returned to callers and cached in
// memory, never persisted standalone.
type ClassificationResult struct {
	// ObjectType is the classified content type.
	ObjectType CodexObjectType `json:"object_type" yaml:"object_type"`

	// DevelopmentStage is the classified maturity stage.
	DevelopmentStage DevelopmentStage `json:"development_stage" yaml:"development_stage"`

	// ConfidenceScore is the classifier's confidence, 0.0 to 1.0.
	ConfidenceScore float64 `json:"confidence_score" yaml:"confidence_score"`

	// WordCount is the word count of the classified content.
	WordCount int `json:"word_count" yaml:"word_count"`

	// Reasoning explains how the classification was reached.
	Reasoning string `json:"reasoning" yaml:"reasoning"`

	// SuggestedImprovements lists up to three next steps for the author.
	SuggestedImprovements []string `json:"suggested_improvements,omitempty" yaml:"suggested_improvements,omitempty"`

	// MetadataCompleteness scores how much of the optional metadata
	// (title, genre, audience, tags) is filled in, 0.0 to 1.0.
	MetadataCompleteness float64 `json:"metadata_completeness" yaml:"metadata_completeness"`
}

// TransformationType identifies which transformation strategy produced
// a result.
type TransformationType string

const (
	TransformExpand      TransformationType = "expand"
	TransformCondense    TransformationType = "condense"
	TransformRestructure TransformationType = "restructure"
	TransformEnhance     TransformationType = "enhance"
	TransformConvert     TransformationType = "convert"
)

// TransformationResult is the outcome of one transformation attempt.
// Failures are values, not errors: Success is false and ErrorMessage is
// set, so batch callers can continue past individual failures.
type TransformationResult struct {
	// Success reports whether the transformation produced an object.
	Success bool `json:"success" yaml:"success"`

	// Object is the newly created object. Nil when Success is false.
	Object *CodexObject `json:"object,omitempty" yaml:"object,omitempty"`

	// TransformationType is the strategy that was applied.
	TransformationType TransformationType `json:"transformation_type" yaml:"transformation_type"`

	// SourceType is the classified type of the source content.
	SourceType CodexObjectType `json:"source_type" yaml:"source_type"`

	// TargetType is the requested type.
	TargetType CodexObjectType `json:"target_type" yaml:"target_type"`

	// ConfidenceScore reflects how much generative risk the strategy
	// took: relabel-only strategies score higher than LLM rewrites.
	ConfidenceScore float64 `json:"confidence_score" yaml:"confidence_score"`

	// Notes carries strategy-specific remarks.
	Notes string `json:"notes,omitempty" yaml:"notes,omitempty"`

	// ErrorMessage describes the failure when Success is false.
	ErrorMessage string `json:"error_message,omitempty" yaml:"error_message,omitempty"`
}
