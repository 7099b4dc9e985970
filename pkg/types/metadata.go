// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// CodexMetadata is the external metadata schema understood by the wider
// publishing pipeline. Ideation-specific state rides in the single
// nested Ideation field so pipeline stages that only understand the
// external schema carry it through without loss.
type CodexMetadata struct {
	// ID is the external identifier; mirrors the object UUID.
	ID string `json:"id" yaml:"id"`

	// Title is the working title.
	Title string `json:"title" yaml:"title"`

	// Description is the prose description.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Genre is the genre label.
	Genre string `json:"genre,omitempty" yaml:"genre,omitempty"`

	// TargetAudience describes the intended readership.
	TargetAudience string `json:"target_audience,omitempty" yaml:"target_audience,omitempty"`

	// Content is the free-text body.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`

	// Created is the external creation timestamp.
	Created time.Time `json:"created" yaml:"created"`

	// Ideation packs every ideation-specific field for a lossless
	// round trip through external pipeline stages.
	Ideation *IdeationMetadata `json:"ideation,omitempty" yaml:"ideation,omitempty"`
}

// IdeationMetadata carries the ideation-only state inside CodexMetadata.
type IdeationMetadata struct {
	ShortUUID             string             `json:"shortuuid" yaml:"shortuuid"`
	ObjectType            CodexObjectType    `json:"object_type" yaml:"object_type"`
	DevelopmentStage      DevelopmentStage   `json:"development_stage" yaml:"development_stage"`
	Logline               string             `json:"logline,omitempty" yaml:"logline,omitempty"`
	WordCount             int                `json:"word_count" yaml:"word_count"`
	ConfidenceScore       float64            `json:"confidence_score" yaml:"confidence_score"`
	ParentUUID            string             `json:"parent_uuid,omitempty" yaml:"parent_uuid,omitempty"`
	SeriesUUID            string             `json:"series_uuid,omitempty" yaml:"series_uuid,omitempty"`
	SourceElements        []string           `json:"source_elements,omitempty" yaml:"source_elements,omitempty"`
	DerivedFrom           []string           `json:"derived_from,omitempty" yaml:"derived_from,omitempty"`
	LastModified          time.Time          `json:"last_modified" yaml:"last_modified"`
	ProcessingHistory     []HistoryEntry     `json:"processing_history,omitempty" yaml:"processing_history,omitempty"`
	LLMResponses          map[string]string  `json:"llm_responses,omitempty" yaml:"llm_responses,omitempty"`
	GenerationMetadata    map[string]any     `json:"generation_metadata,omitempty" yaml:"generation_metadata,omitempty"`
	TournamentPerformance map[string]any     `json:"tournament_performance,omitempty" yaml:"tournament_performance,omitempty"`
	ReaderFeedback        []string           `json:"reader_feedback,omitempty" yaml:"reader_feedback,omitempty"`
	EvaluationScores      map[string]float64 `json:"evaluation_scores,omitempty" yaml:"evaluation_scores,omitempty"`
	Status                ObjectStatus       `json:"status" yaml:"status"`
	Tags                  []string           `json:"tags,omitempty" yaml:"tags,omitempty"`
	Notes                 string             `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ToCodexMetadata converts the object to the external schema. Every
// ideation-specific field is packed into the nested Ideation block.
func (o *CodexObject) ToCodexMetadata() CodexMetadata {
	return CodexMetadata{
		ID:             o.UUID,
		Title:          o.Title,
		Description:    o.Description,
		Genre:          o.Genre,
		TargetAudience: o.TargetAudience,
		Content:        o.Content,
		Created:        o.CreatedTimestamp,
		Ideation: &IdeationMetadata{
			ShortUUID:             o.ShortUUID,
			ObjectType:            o.ObjectType,
			DevelopmentStage:      o.DevelopmentStage,
			Logline:               o.Logline,
			WordCount:             o.WordCount,
			ConfidenceScore:       o.ConfidenceScore,
			ParentUUID:            o.ParentUUID,
			SeriesUUID:            o.SeriesUUID,
			SourceElements:        o.SourceElements,
			DerivedFrom:           o.DerivedFrom,
			LastModified:          o.LastModified,
			ProcessingHistory:     o.ProcessingHistory,
			LLMResponses:          o.LLMResponses,
			GenerationMetadata:    o.GenerationMetadata,
			TournamentPerformance: o.TournamentPerformance,
			ReaderFeedback:        o.ReaderFeedback,
			EvaluationScores:      o.EvaluationScores,
			Status:                o.Status,
			Tags:                  o.Tags,
			Notes:                 o.Notes,
		},
	}
}

// CodexObjectFromMetadata rebuilds a CodexObject from the external
// schema. An external record without an Ideation block yields an
// unclassified object with sensible defaults.
func CodexObjectFromMetadata(m CodexMetadata) *CodexObject {
	o := &CodexObject{
		UUID:             m.ID,
		ObjectType:       TypeUnknown,
		DevelopmentStage: StageConcept,
		Title:            m.Title,
		Content:          m.Content,
		Description:      m.Description,
		Genre:            m.Genre,
		TargetAudience:   m.TargetAudience,
		WordCount:        CountWords(m.Content),
		CreatedTimestamp: m.Created,
		LastModified:     m.Created,
		Status:           StatusCreated,
	}
	if len(m.ID) >= 8 {
		o.ShortUUID = m.ID[:8]
	} else {
		o.ShortUUID = m.ID
	}

	i := m.Ideation
	if i == nil {
		return o
	}

	o.ShortUUID = i.ShortUUID
	o.ObjectType = i.ObjectType
	o.DevelopmentStage = i.DevelopmentStage
	o.Logline = i.Logline
	o.WordCount = i.WordCount
	o.ConfidenceScore = i.ConfidenceScore
	o.ParentUUID = i.ParentUUID
	o.SeriesUUID = i.SeriesUUID
	o.SourceElements = i.SourceElements
	o.DerivedFrom = i.DerivedFrom
	o.LastModified = i.LastModified
	o.ProcessingHistory = i.ProcessingHistory
	o.LLMResponses = i.LLMResponses
	o.GenerationMetadata = i.GenerationMetadata
	o.TournamentPerformance = i.TournamentPerformance
	o.ReaderFeedback = i.ReaderFeedback
	o.EvaluationScores = i.EvaluationScores
	o.Status = i.Status
	o.Tags = i.Tags
	o.Notes = i.Notes
	return o
}
