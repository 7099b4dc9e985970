// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Tournament pits CodexObjects against each other in elimination rounds.
type Tournament struct {
	// UUID identifies the tournament.
	UUID string `json:"uuid" yaml:"uuid"`

	// Name is the display name.
	Name string `json:"name" yaml:"name"`

	// Description explains what is being compared.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Status is "pending", "running", or "complete".
	Status string `json:"status" yaml:"status"`

	// Participants lists the competing object UUIDs.
	Participants []string `json:"participants" yaml:"participants"`

	// Rounds is the number of elimination rounds.
	Rounds int `json:"rounds" yaml:"rounds"`

	// WinnerUUID is set when the tournament completes.
	WinnerUUID string `json:"winner_uuid,omitempty" yaml:"winner_uuid,omitempty"`

	// CreatedTimestamp is when the tournament was created.
	CreatedTimestamp time.Time `json:"created_timestamp" yaml:"created_timestamp"`

	// CompletedTimestamp is when the tournament finished, if it has.
	CompletedTimestamp time.Time `json:"completed_timestamp,omitempty" yaml:"completed_timestamp,omitempty"`

	// Metadata carries free-form tournament settings.
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// TournamentMatch is one head-to-head comparison within a tournament.
type TournamentMatch struct {
	UUID           string             `json:"uuid" yaml:"uuid"`
	TournamentUUID string             `json:"tournament_uuid" yaml:"tournament_uuid"`
	Round          int                `json:"round" yaml:"round"`
	ObjectAUUID    string             `json:"object_a_uuid" yaml:"object_a_uuid"`
	ObjectBUUID    string             `json:"object_b_uuid" yaml:"object_b_uuid"`
	WinnerUUID     string             `json:"winner_uuid,omitempty" yaml:"winner_uuid,omitempty"`
	Scores         map[string]float64 `json:"scores,omitempty" yaml:"scores,omitempty"`
	Reasoning      string             `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
	Timestamp      time.Time          `json:"timestamp" yaml:"timestamp"`
}

// Series groups related CodexObjects into a multi-book arc.
type Series struct {
	UUID             string    `json:"uuid" yaml:"uuid"`
	Title            string    `json:"title" yaml:"title"`
	Description      string    `json:"description,omitempty" yaml:"description,omitempty"`
	Genre            string    `json:"genre,omitempty" yaml:"genre,omitempty"`
	TargetAudience   string    `json:"target_audience,omitempty" yaml:"target_audience,omitempty"`
	BookUUIDs        []string  `json:"book_uuids,omitempty" yaml:"book_uuids,omitempty"`
	Status           string    `json:"status" yaml:"status"`
	CreatedTimestamp time.Time `json:"created_timestamp" yaml:"created_timestamp"`
	LastModified     time.Time `json:"last_modified" yaml:"last_modified"`
}

// ReaderPanel is a named set of simulated reader profiles used for
// evaluation runs.
type ReaderPanel struct {
	UUID             string           `json:"uuid" yaml:"uuid"`
	Name             string           `json:"name" yaml:"name"`
	Description      string           `json:"description,omitempty" yaml:"description,omitempty"`
	ReaderProfiles   []map[string]any `json:"reader_profiles,omitempty" yaml:"reader_profiles,omitempty"`
	CreatedTimestamp time.Time        `json:"created_timestamp" yaml:"created_timestamp"`
}

// ReaderEvaluation is one panel's verdict on one object.
type ReaderEvaluation struct {
	UUID       string             `json:"uuid" yaml:"uuid"`
	PanelUUID  string             `json:"panel_uuid" yaml:"panel_uuid"`
	ObjectUUID string             `json:"object_uuid" yaml:"object_uuid"`
	Scores     map[string]float64 `json:"scores,omitempty" yaml:"scores,omitempty"`
	Feedback   string             `json:"feedback,omitempty" yaml:"feedback,omitempty"`
	Timestamp  time.Time          `json:"timestamp" yaml:"timestamp"`
}

// StoryElement is a reusable fragment (character, setting, conflict)
// mined from a source object.
type StoryElement struct {
	UUID             string    `json:"uuid" yaml:"uuid"`
	ElementType      string    `json:"element_type" yaml:"element_type"`
	Content          string    `json:"content" yaml:"content"`
	SourceObjectUUID string    `json:"source_object_uuid,omitempty" yaml:"source_object_uuid,omitempty"`
	Tags             []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
	CreatedTimestamp time.Time `json:"created_timestamp" yaml:"created_timestamp"`
}

// ElementCombination records a set of story elements combined into a
// new object, with a quality score for the combination.
type ElementCombination struct {
	UUID             string    `json:"uuid" yaml:"uuid"`
	ElementUUIDs     []string  `json:"element_uuids" yaml:"element_uuids"`
	ResultObjectUUID string    `json:"result_object_uuid,omitempty" yaml:"result_object_uuid,omitempty"`
	Score            float64   `json:"score" yaml:"score"`
	CreatedTimestamp time.Time `json:"created_timestamp" yaml:"created_timestamp"`
}

// BatchJob tracks one batch transformation run.
type BatchJob struct {
	UUID               string         `json:"uuid" yaml:"uuid"`
	JobType            string         `json:"job_type" yaml:"job_type"`
	Status             string         `json:"status" yaml:"status"`
	TotalItems         int            `json:"total_items" yaml:"total_items"`
	CompletedItems     int            `json:"completed_items" yaml:"completed_items"`
	FailedItems        int            `json:"failed_items" yaml:"failed_items"`
	Params             map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
	CreatedTimestamp   time.Time      `json:"created_timestamp" yaml:"created_timestamp"`
	CompletedTimestamp time.Time      `json:"completed_timestamp,omitempty" yaml:"completed_timestamp,omitempty"`
}

// CollaborationSession is a shared editing session around one object.
type CollaborationSession struct {
	UUID             string    `json:"uuid" yaml:"uuid"`
	Name             string    `json:"name" yaml:"name"`
	ObjectUUID       string    `json:"object_uuid,omitempty" yaml:"object_uuid,omitempty"`
	Participants     []string  `json:"participants,omitempty" yaml:"participants,omitempty"`
	Status           string    `json:"status" yaml:"status"`
	CreatedTimestamp time.Time `json:"created_timestamp" yaml:"created_timestamp"`
}

// CollaborationContribution is one participant's contribution within a
// session.
type CollaborationContribution struct {
	UUID        string    `json:"uuid" yaml:"uuid"`
	SessionUUID string    `json:"session_uuid" yaml:"session_uuid"`
	ObjectUUID  string    `json:"object_uuid,omitempty" yaml:"object_uuid,omitempty"`
	Contributor string    `json:"contributor" yaml:"contributor"`
	Content     string    `json:"content" yaml:"content"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
}
