// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/ideation-engine/pkg/types"
)

// IdeationDatabase is the typed repository over Manager. Save methods
// upsert; loads return nil without error when the row is absent.
type IdeationDatabase struct {
	m *Manager
}

// NewIdeationDatabase wraps an existing Manager.
func NewIdeationDatabase(m *Manager) *IdeationDatabase {
	return &IdeationDatabase{m: m}
}

// marshalJSON serializes list/map fields for TEXT columns. Nil values
// become empty strings so the round trip preserves nil-ness.
func marshalJSON(v any) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	if string(data) == "null" {
		return ""
	}
	return string(data)
}

func unmarshalJSON(s sql.NullString, target any) {
	if s.Valid && s.String != "" {
		json.Unmarshal([]byte(s.String), target)
	}
}

// timeLayout keeps a fixed-width fraction so lexicographic ordering of
// the TEXT column matches chronological ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

// --- codex objects ---

const codexColumns = `uuid, shortuuid, object_type, development_stage, title, content,
	logline, description, genre, target_audience, word_count, confidence_score,
	parent_uuid, series_uuid, source_elements, derived_from,
	created_timestamp, last_modified, processing_history, llm_responses,
	generation_metadata, tournament_performance, reader_feedback,
	evaluation_scores, status, tags, notes`

// SaveCodexObject upserts the object. The shortuuid column is stored
// explicitly rather than re-derived so a future change to the
// derivation rule cannot corrupt existing rows.
func (d *IdeationDatabase) SaveCodexObject(ctx context.Context, o *types.CodexObject) error {
	_, err := d.m.Update(ctx,
		`INSERT OR REPLACE INTO codex_objects (`+codexColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.UUID, o.ShortUUID, string(o.ObjectType), string(o.DevelopmentStage),
		o.Title, o.Content, o.Logline, o.Description, o.Genre, o.TargetAudience,
		o.WordCount, o.ConfidenceScore, o.ParentUUID, o.SeriesUUID,
		marshalJSON(o.SourceElements), marshalJSON(o.DerivedFrom),
		formatTime(o.CreatedTimestamp), formatTime(o.LastModified),
		marshalJSON(o.ProcessingHistory), marshalJSON(o.LLMResponses),
		marshalJSON(o.GenerationMetadata), marshalJSON(o.TournamentPerformance),
		marshalJSON(o.ReaderFeedback), marshalJSON(o.EvaluationScores),
		string(o.Status), marshalJSON(o.Tags), o.Notes,
	)
	if err != nil {
		return fmt.Errorf("saving codex object %s: %w", o.ShortUUID, err)
	}
	return nil
}

// LoadCodexObject fetches one object by UUID. Returns nil, nil when no
// row exists.
func (d *IdeationDatabase) LoadCodexObject(ctx context.Context, uuid string) (*types.CodexObject, error) {
	conn, err := d.m.Conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	row := conn.QueryRowContext(ctx,
		`SELECT `+codexColumns+` FROM codex_objects WHERE uuid = ?`, uuid)

	o, err := scanCodexObject(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading codex object %s: %w", uuid, err)
	}
	return o, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCodexObject(row rowScanner) (*types.CodexObject, error) {
	var (
		o types.CodexObject

		objectType, stage, status                        string
		title, content, logline, description             sql.NullString
		genre, audience, parentUUID, seriesUUID, notes   sql.NullString
		sourceElements, derivedFrom, history             sql.NullString
		llmResponses, genMeta, tournamentPerf            sql.NullString
		readerFeedback, evalScores, tags                 sql.NullString
		created, modified                                sql.NullString
	)

	err := row.Scan(
		&o.UUID, &o.ShortUUID, &objectType, &stage, &title, &content,
		&logline, &description, &genre, &audience, &o.WordCount, &o.ConfidenceScore,
		&parentUUID, &seriesUUID, &sourceElements, &derivedFrom,
		&created, &modified, &history, &llmResponses,
		&genMeta, &tournamentPerf, &readerFeedback,
		&evalScores, &status, &tags, &notes,
	)
	if err != nil {
		return nil, err
	}

	o.ObjectType = types.CodexObjectType(objectType)
	o.DevelopmentStage = types.DevelopmentStage(stage)
	o.Status = types.ObjectStatus(status)
	o.Title = title.String
	o.Content = content.String
	o.Logline = logline.String
	o.Description = description.String
	o.Genre = genre.String
	o.TargetAudience = audience.String
	o.ParentUUID = parentUUID.String
	o.SeriesUUID = seriesUUID.String
	o.Notes = notes.String
	o.CreatedTimestamp = parseTime(created)
	o.LastModified = parseTime(modified)

	unmarshalJSON(sourceElements, &o.SourceElements)
	unmarshalJSON(derivedFrom, &o.DerivedFrom)
	unmarshalJSON(history, &o.ProcessingHistory)
	unmarshalJSON(llmResponses, &o.LLMResponses)
	unmarshalJSON(genMeta, &o.GenerationMetadata)
	unmarshalJSON(tournamentPerf, &o.TournamentPerformance)
	unmarshalJSON(readerFeedback, &o.ReaderFeedback)
	unmarshalJSON(evalScores, &o.EvaluationScores)
	unmarshalJSON(tags, &o.Tags)

	return &o, nil
}

// Filters restricts FindCodexObjects and CountCodexObjects. Zero-value
// fields are ignored; set fields combine with AND.
type Filters struct {
	ObjectType       types.CodexObjectType
	DevelopmentStage types.DevelopmentStage
	ParentUUID       string
	SeriesUUID       string
}

func (f Filters) clause() (string, []any) {
	var (
		b    strings.Builder
		args []any
	)
	b.WriteString(` WHERE 1=1`)
	if f.ObjectType != "" {
		b.WriteString(` AND object_type = ?`)
		args = append(args, string(f.ObjectType))
	}
	if f.DevelopmentStage != "" {
		b.WriteString(` AND development_stage = ?`)
		args = append(args, string(f.DevelopmentStage))
	}
	if f.ParentUUID != "" {
		b.WriteString(` AND parent_uuid = ?`)
		args = append(args, f.ParentUUID)
	}
	if f.SeriesUUID != "" {
		b.WriteString(` AND series_uuid = ?`)
		args = append(args, f.SeriesUUID)
	}
	return b.String(), args
}

// FindCodexObjects returns matching objects newest-first. A limit of
// zero returns everything after the offset.
func (d *IdeationDatabase) FindCodexObjects(ctx context.Context, f Filters, limit, offset int) ([]*types.CodexObject, error) {
	conn, err := d.m.Conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	where, args := f.clause()
	query := `SELECT ` + codexColumns + ` FROM codex_objects` + where +
		` ORDER BY created_timestamp DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	} else {
		query += ` LIMIT -1`
	}
	query += ` OFFSET ?`
	args = append(args, offset)

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding codex objects: %w", err)
	}
	defer rows.Close()

	var objects []*types.CodexObject
	for rows.Next() {
		o, err := scanCodexObject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning codex object: %w", err)
		}
		objects = append(objects, o)
	}
	return objects, rows.Err()
}

// CountCodexObjects counts matching rows.
func (d *IdeationDatabase) CountCodexObjects(ctx context.Context, f Filters) (int, error) {
	conn, err := d.m.Conn(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	where, args := f.clause()
	var count int
	if err := conn.QueryRowContext(ctx,
		`SELECT count(*) FROM codex_objects`+where, args...,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting codex objects: %w", err)
	}
	return count, nil
}

// DeleteCodexObject removes one object, reporting whether a row was
// deleted. Satellite rows are untouched: references are weak, and
// repair is CleanupOrphanedRecords.
func (d *IdeationDatabase) DeleteCodexObject(ctx context.Context, uuid string) (bool, error) {
	affected, err := d.m.Update(ctx, `DELETE FROM codex_objects WHERE uuid = ?`, uuid)
	if err != nil {
		return false, fmt.Errorf("deleting codex object %s: %w", uuid, err)
	}
	return affected > 0, nil
}

// --- tournaments ---

// SaveTournament upserts the tournament and its matches atomically.
func (d *IdeationDatabase) SaveTournament(ctx context.Context, t *types.Tournament, matches []types.TournamentMatch) error {
	statements := []Statement{{
		SQL: `INSERT OR REPLACE INTO tournaments
			(uuid, name, description, status, participants, rounds, winner_uuid,
			 created_timestamp, completed_timestamp, metadata)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		Args: []any{
			t.UUID, t.Name, t.Description, t.Status, marshalJSON(t.Participants),
			t.Rounds, t.WinnerUUID, formatTime(t.CreatedTimestamp),
			formatTime(t.CompletedTimestamp), marshalJSON(t.Metadata),
		},
	}}

	for _, match := range matches {
		statements = append(statements, Statement{
			SQL: `INSERT OR REPLACE INTO tournament_matches
				(uuid, tournament_uuid, round, object_a_uuid, object_b_uuid,
				 winner_uuid, scores, reasoning, timestamp)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			Args: []any{
				match.UUID, match.TournamentUUID, match.Round,
				match.ObjectAUUID, match.ObjectBUUID, match.WinnerUUID,
				marshalJSON(match.Scores), match.Reasoning, formatTime(match.Timestamp),
			},
		})
	}

	if err := d.m.Transaction(ctx, statements); err != nil {
		return fmt.Errorf("saving tournament %s: %w", t.UUID, err)
	}
	return nil
}

// LoadTournament fetches a tournament and its matches. Returns nil, nil
// when absent.
func (d *IdeationDatabase) LoadTournament(ctx context.Context, uuid string) (*types.Tournament, []types.TournamentMatch, error) {
	conn, err := d.m.Conn(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer conn.Close()

	var (
		t                              types.Tournament
		participants, metadata         sql.NullString
		created, completed, winnerUUID sql.NullString
		description                    sql.NullString
	)
	err = conn.QueryRowContext(ctx,
		`SELECT uuid, name, description, status, participants, rounds, winner_uuid,
			created_timestamp, completed_timestamp, metadata
		 FROM tournaments WHERE uuid = ?`, uuid,
	).Scan(&t.UUID, &t.Name, &description, &t.Status, &participants, &t.Rounds,
		&winnerUUID, &created, &completed, &metadata)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading tournament %s: %w", uuid, err)
	}

	t.Description = description.String
	t.WinnerUUID = winnerUUID.String
	t.CreatedTimestamp = parseTime(created)
	t.CompletedTimestamp = parseTime(completed)
	unmarshalJSON(participants, &t.Participants)
	unmarshalJSON(metadata, &t.Metadata)

	rows, err := conn.QueryContext(ctx,
		`SELECT uuid, tournament_uuid, round, object_a_uuid, object_b_uuid,
			winner_uuid, scores, reasoning, timestamp
		 FROM tournament_matches WHERE tournament_uuid = ? ORDER BY round, uuid`, uuid)
	if err != nil {
		return nil, nil, fmt.Errorf("loading matches for %s: %w", uuid, err)
	}
	defer rows.Close()

	var matches []types.TournamentMatch
	for rows.Next() {
		var (
			match                             types.TournamentMatch
			objectA, objectB, winner, scores  sql.NullString
			reasoning, timestamp              sql.NullString
		)
		if err := rows.Scan(&match.UUID, &match.TournamentUUID, &match.Round,
			&objectA, &objectB, &winner, &scores, &reasoning, &timestamp); err != nil {
			return nil, nil, fmt.Errorf("scanning match: %w", err)
		}
		match.ObjectAUUID = objectA.String
		match.ObjectBUUID = objectB.String
		match.WinnerUUID = winner.String
		match.Reasoning = reasoning.String
		match.Timestamp = parseTime(timestamp)
		unmarshalJSON(scores, &match.Scores)
		matches = append(matches, match)
	}

	return &t, matches, rows.Err()
}

// --- series ---

// SaveSeries upserts a series.
func (d *IdeationDatabase) SaveSeries(ctx context.Context, s *types.Series) error {
	_, err := d.m.Update(ctx,
		`INSERT OR REPLACE INTO series
			(uuid, title, description, genre, target_audience, book_uuids,
			 status, created_timestamp, last_modified)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.UUID, s.Title, s.Description, s.Genre, s.TargetAudience,
		marshalJSON(s.BookUUIDs), s.Status,
		formatTime(s.CreatedTimestamp), formatTime(s.LastModified),
	)
	if err != nil {
		return fmt.Errorf("saving series %s: %w", s.UUID, err)
	}
	return nil
}

// LoadSeries fetches a series by UUID. Returns nil, nil when absent.
func (d *IdeationDatabase) LoadSeries(ctx context.Context, uuid string) (*types.Series, error) {
	conn, err := d.m.Conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var (
		s                             types.Series
		description, genre, audience  sql.NullString
		bookUUIDs, created, modified  sql.NullString
	)
	err = conn.QueryRowContext(ctx,
		`SELECT uuid, title, description, genre, target_audience, book_uuids,
			status, created_timestamp, last_modified
		 FROM series WHERE uuid = ?`, uuid,
	).Scan(&s.UUID, &s.Title, &description, &genre, &audience,
		&bookUUIDs, &s.Status, &created, &modified)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading series %s: %w", uuid, err)
	}

	s.Description = description.String
	s.Genre = genre.String
	s.TargetAudience = audience.String
	s.CreatedTimestamp = parseTime(created)
	s.LastModified = parseTime(modified)
	unmarshalJSON(bookUUIDs, &s.BookUUIDs)
	return &s, nil
}

// SaveBatchJob upserts a batch job record.
func (d *IdeationDatabase) SaveBatchJob(ctx context.Context, j *types.BatchJob) error {
	_, err := d.m.Update(ctx,
		`INSERT OR REPLACE INTO batch_jobs
			(uuid, job_type, status, total_items, completed_items, failed_items,
			 params, created_timestamp, completed_timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.UUID, j.JobType, j.Status, j.TotalItems, j.CompletedItems, j.FailedItems,
		marshalJSON(j.Params),
		formatTime(j.CreatedTimestamp), formatTime(j.CompletedTimestamp),
	)
	if err != nil {
		return fmt.Errorf("saving batch job %s: %w", j.UUID, err)
	}
	return nil
}

// LoadBatchJob fetches a batch job by UUID. Returns nil, nil when absent.
func (d *IdeationDatabase) LoadBatchJob(ctx context.Context, uuid string) (*types.BatchJob, error) {
	conn, err := d.m.Conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var (
		j                         types.BatchJob
		params, created, finished sql.NullString
	)
	err = conn.QueryRowContext(ctx,
		`SELECT uuid, job_type, status, total_items, completed_items, failed_items,
			params, created_timestamp, completed_timestamp
		 FROM batch_jobs WHERE uuid = ?`, uuid,
	).Scan(&j.UUID, &j.JobType, &j.Status, &j.TotalItems, &j.CompletedItems,
		&j.FailedItems, &params, &created, &finished)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading batch job %s: %w", uuid, err)
	}

	j.CreatedTimestamp = parseTime(created)
	j.CompletedTimestamp = parseTime(finished)
	unmarshalJSON(params, &j.Params)
	return &j, nil
}

// --- maintenance ---

// orphanSweeps lists the satellite deletions run by
// CleanupOrphanedRecords. Each removes rows whose reference no longer
// resolves.
var orphanSweeps = []struct {
	name string
	sql  string
}{
	{"matches without tournament", `DELETE FROM tournament_matches
		WHERE tournament_uuid NOT IN (SELECT uuid FROM tournaments)`},
	{"evaluations without panel", `DELETE FROM reader_evaluations
		WHERE panel_uuid NOT IN (SELECT uuid FROM reader_panels)`},
	{"evaluations without object", `DELETE FROM reader_evaluations
		WHERE object_uuid NOT IN (SELECT uuid FROM codex_objects)`},
	{"elements without source object", `DELETE FROM story_elements
		WHERE source_object_uuid IS NOT NULL AND source_object_uuid != ''
		AND source_object_uuid NOT IN (SELECT uuid FROM codex_objects)`},
	{"contributions without session", `DELETE FROM collaboration_contributions
		WHERE session_uuid NOT IN (SELECT uuid FROM collaboration_sessions)`},
	{"contributions without object", `DELETE FROM collaboration_contributions
		WHERE object_uuid IS NOT NULL AND object_uuid != ''
		AND object_uuid NOT IN (SELECT uuid FROM codex_objects)`},
}

// CleanupOrphanedRecords deletes satellite rows whose foreign key no
// longer resolves and returns the total rows removed. This sweep is the
// only repair mechanism for referential drift; deletes never cascade.
func (d *IdeationDatabase) CleanupOrphanedRecords(ctx context.Context) (int64, error) {
	var total int64
	for _, sweep := range orphanSweeps {
		affected, err := d.m.Update(ctx, sweep.sql)
		if err != nil {
			return total, fmt.Errorf("cleanup %s: %w", sweep.name, err)
		}
		total += affected
	}
	return total, nil
}

// DatabaseStats reports per-type object counts and satellite totals.
type DatabaseStats struct {
	ObjectsByType map[types.CodexObjectType]int `json:"objects_by_type" yaml:"objects_by_type"`
	TotalObjects  int                           `json:"total_objects" yaml:"total_objects"`
	Tournaments   int                           `json:"tournaments" yaml:"tournaments"`
	Series        int                           `json:"series" yaml:"series"`
	ReaderPanels  int                           `json:"reader_panels" yaml:"reader_panels"`
}

// Stats gathers operational counts.
func (d *IdeationDatabase) Stats(ctx context.Context) (DatabaseStats, error) {
	stats := DatabaseStats{ObjectsByType: make(map[types.CodexObjectType]int)}

	rows, err := d.m.Query(ctx,
		`SELECT object_type, count(*) AS n FROM codex_objects GROUP BY object_type`)
	if err != nil {
		return stats, err
	}
	for _, row := range rows {
		t, _ := row["object_type"].(string)
		n, _ := row["n"].(int64)
		stats.ObjectsByType[types.CodexObjectType(t)] = int(n)
		stats.TotalObjects += int(n)
	}

	counts := []struct {
		table  string
		target *int
	}{
		{"tournaments", &stats.Tournaments},
		{"series", &stats.Series},
		{"reader_panels", &stats.ReaderPanels},
	}
	for _, c := range counts {
		rows, err := d.m.Query(ctx, `SELECT count(*) AS n FROM `+c.table)
		if err != nil {
			return stats, err
		}
		if len(rows) == 1 {
			if n, ok := rows[0]["n"].(int64); ok {
				*c.target = int(n)
			}
		}
	}

	return stats, nil
}
