// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

// schemaStatements defines the full schema, applied idempotently at
// startup. List- and map-valued fields are stored as JSON text.
// Foreign keys point at codex_objects.uuid but never cascade: orphan
// repair is the CleanupOrphanedRecords sweep.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS codex_objects (
		uuid TEXT PRIMARY KEY,
		shortuuid TEXT NOT NULL,
		object_type TEXT NOT NULL,
		development_stage TEXT NOT NULL,
		title TEXT,
		content TEXT,
		logline TEXT,
		description TEXT,
		genre TEXT,
		target_audience TEXT,
		word_count INTEGER DEFAULT 0,
		confidence_score REAL DEFAULT 0,
		parent_uuid TEXT,
		series_uuid TEXT,
		source_elements TEXT,
		derived_from TEXT,
		created_timestamp TEXT NOT NULL,
		last_modified TEXT NOT NULL,
		processing_history TEXT,
		llm_responses TEXT,
		generation_metadata TEXT,
		tournament_performance TEXT,
		reader_feedback TEXT,
		evaluation_scores TEXT,
		status TEXT NOT NULL,
		tags TEXT,
		notes TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_codex_objects_type ON codex_objects(object_type)`,
	`CREATE INDEX IF NOT EXISTS idx_codex_objects_stage ON codex_objects(development_stage)`,
	`CREATE INDEX IF NOT EXISTS idx_codex_objects_parent ON codex_objects(parent_uuid)`,
	`CREATE INDEX IF NOT EXISTS idx_codex_objects_series ON codex_objects(series_uuid)`,

	`CREATE TABLE IF NOT EXISTS tournaments (
		uuid TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL,
		participants TEXT,
		rounds INTEGER DEFAULT 0,
		winner_uuid TEXT,
		created_timestamp TEXT NOT NULL,
		completed_timestamp TEXT,
		metadata TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS tournament_matches (
		uuid TEXT PRIMARY KEY,
		tournament_uuid TEXT NOT NULL REFERENCES tournaments(uuid),
		round INTEGER DEFAULT 0,
		object_a_uuid TEXT REFERENCES codex_objects(uuid),
		object_b_uuid TEXT REFERENCES codex_objects(uuid),
		winner_uuid TEXT,
		scores TEXT,
		reasoning TEXT,
		timestamp TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_tournament ON tournament_matches(tournament_uuid)`,

	`CREATE TABLE IF NOT EXISTS series (
		uuid TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		genre TEXT,
		target_audience TEXT,
		book_uuids TEXT,
		status TEXT NOT NULL,
		created_timestamp TEXT NOT NULL,
		last_modified TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS reader_panels (
		uuid TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		reader_profiles TEXT,
		created_timestamp TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reader_evaluations (
		uuid TEXT PRIMARY KEY,
		panel_uuid TEXT NOT NULL REFERENCES reader_panels(uuid),
		object_uuid TEXT NOT NULL REFERENCES codex_objects(uuid),
		scores TEXT,
		feedback TEXT,
		timestamp TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_evaluations_object ON reader_evaluations(object_uuid)`,

	`CREATE TABLE IF NOT EXISTS story_elements (
		uuid TEXT PRIMARY KEY,
		element_type TEXT NOT NULL,
		content TEXT NOT NULL,
		source_object_uuid TEXT REFERENCES codex_objects(uuid),
		tags TEXT,
		created_timestamp TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS element_combinations (
		uuid TEXT PRIMARY KEY,
		element_uuids TEXT NOT NULL,
		result_object_uuid TEXT,
		score REAL DEFAULT 0,
		created_timestamp TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS batch_jobs (
		uuid TEXT PRIMARY KEY,
		job_type TEXT NOT NULL,
		status TEXT NOT NULL,
		total_items INTEGER DEFAULT 0,
		completed_items INTEGER DEFAULT 0,
		failed_items INTEGER DEFAULT 0,
		params TEXT,
		created_timestamp TEXT NOT NULL,
		completed_timestamp TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS collaboration_sessions (
		uuid TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		object_uuid TEXT,
		participants TEXT,
		status TEXT NOT NULL,
		created_timestamp TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS collaboration_contributions (
		uuid TEXT PRIMARY KEY,
		session_uuid TEXT NOT NULL REFERENCES collaboration_sessions(uuid),
		object_uuid TEXT REFERENCES codex_objects(uuid),
		contributor TEXT NOT NULL,
		content TEXT,
		timestamp TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_contributions_session ON collaboration_contributions(session_uuid)`,
}

// ExpectedTables lists every table the schema creates. The migration
// validator diffs against this list so the two packages cannot drift.
var ExpectedTables = []string{
	"codex_objects",
	"tournaments",
	"tournament_matches",
	"series",
	"reader_panels",
	"reader_evaluations",
	"story_elements",
	"element_combinations",
	"batch_jobs",
	"collaboration_sessions",
	"collaboration_contributions",
}
