// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/ideation-engine/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T) (*Manager, *IdeationDatabase) {
	t.Helper()
	m, err := NewManager(types.DatabaseConfig{
		Path: filepath.Join(t.TempDir(), "ideation.db"),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { m.Close() })
	return m, NewIdeationDatabase(m)
}

func sampleObject(t *testing.T) *types.CodexObject {
	t.Helper()
	o := types.NewCodexObject(
		"The Keeper",
		"A lone lighthouse keeper discovers a message in a bottle that predicts his own death.",
		types.TypeLogline,
		types.StageConcept,
	)
	o.Genre = "thriller"
	o.TargetAudience = "adult"
	o.Tags = []string{"sea", "fate"}
	o.ConfidenceScore = 0.7
	o.AddEvaluation("structure", 8.5)
	o.AddReaderFeedback("gripping premise")
	o.GenerationMetadata = map[string]any{"model": "test", "temperature": 0.7}
	return o
}

// execRaw runs SQL on a dedicated connection with foreign keys off,
// simulating drift that predates the enforcement pragma.
func execRaw(t *testing.T, m *Manager, query string, args ...any) {
	t.Helper()
	ctx := context.Background()
	conn, err := m.Conn(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `PRAGMA foreign_keys=OFF`); err != nil {
		t.Fatal(err)
	}
	if _, err := conn.ExecContext(ctx, query, args...); err != nil {
		t.Fatal(err)
	}
}

// --- schema tests ---

func TestNewManagerCreatesSchema(t *testing.T) {
	m, _ := testSetup(t)

	for _, table := range ExpectedTables {
		var count int
		err := m.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type='table' AND name = ?`, table,
		).Scan(&count)
		if err != nil {
			t.Fatalf("checking table %s: %v", table, err)
		}
		if count == 0 {
			t.Errorf("table %s does not exist", table)
		}
	}
}

func TestNewManagerIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ideation.db")

	first, err := NewManager(types.DatabaseConfig{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := NewManager(types.DatabaseConfig{Path: path})
	if err != nil {
		t.Fatalf("reopening existing database: %v", err)
	}
	second.Close()
}

// --- primitive tests ---

func TestTransactionRollsBackOnFailure(t *testing.T) {
	m, db := testSetup(t)
	ctx := context.Background()

	err := m.Transaction(ctx, []Statement{
		{SQL: `INSERT INTO series (uuid, title, status, created_timestamp, last_modified)
			VALUES (?, ?, ?, ?, ?)`,
			Args: []any{"s1", "Arc", "active", "2026-01-01T00:00:00Z", "2026-01-01T00:00:00Z"}},
		{SQL: `INSERT INTO no_such_table (x) VALUES (1)`},
	})
	if err == nil {
		t.Fatal("expected transaction failure")
	}

	loaded, err := db.LoadSeries(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if loaded != nil {
		t.Errorf("series s1 survived a rolled-back transaction")
	}
}

func TestUpdateReturnsAffectedCount(t *testing.T) {
	m, db := testSetup(t)
	ctx := context.Background()

	o := sampleObject(t)
	if err := db.SaveCodexObject(ctx, o); err != nil {
		t.Fatal(err)
	}

	affected, err := m.Update(ctx, `UPDATE codex_objects SET notes = ? WHERE uuid = ?`, "n", o.UUID)
	if err != nil {
		t.Fatal(err)
	}
	if affected != 1 {
		t.Errorf("affected = %d, want 1", affected)
	}
}

// --- round-trip tests ---

func TestCodexObjectRoundTrip(t *testing.T) {
	_, db := testSetup(t)
	ctx := context.Background()

	o := sampleObject(t)
	// Override the derived short ID to prove the column round-trips
	// explicitly rather than being re-derived on load.
	o.ShortUUID = "override"
	o.ParentUUID = "parent-uuid"
	o.SeriesUUID = "series-uuid"
	o.DerivedFrom = []string{"a", "b"}
	o.SourceElements = []string{"e1"}

	if err := db.SaveCodexObject(ctx, o); err != nil {
		t.Fatal(err)
	}

	loaded, err := db.LoadCodexObject(ctx, o.UUID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded == nil {
		t.Fatal("object not found after save")
	}

	if loaded.ShortUUID != "override" {
		t.Errorf("shortuuid = %q, want %q", loaded.ShortUUID, "override")
	}
	if loaded.ObjectType != o.ObjectType || loaded.DevelopmentStage != o.DevelopmentStage {
		t.Errorf("taxonomy = (%s, %s), want (%s, %s)",
			loaded.ObjectType, loaded.DevelopmentStage, o.ObjectType, o.DevelopmentStage)
	}
	if loaded.Content != o.Content || loaded.Title != o.Title {
		t.Errorf("content fields did not round-trip")
	}
	if loaded.WordCount != o.WordCount || loaded.ConfidenceScore != o.ConfidenceScore {
		t.Errorf("metrics did not round-trip")
	}
	if loaded.ParentUUID != "parent-uuid" || loaded.SeriesUUID != "series-uuid" {
		t.Errorf("relationships did not round-trip")
	}
	if len(loaded.DerivedFrom) != 2 || loaded.DerivedFrom[1] != "b" {
		t.Errorf("derived_from = %v, want [a b]", loaded.DerivedFrom)
	}
	if len(loaded.ProcessingHistory) != len(o.ProcessingHistory) {
		t.Errorf("history length = %d, want %d", len(loaded.ProcessingHistory), len(o.ProcessingHistory))
	}
	if loaded.EvaluationScores["structure"] != 8.5 {
		t.Errorf("evaluation scores did not round-trip: %v", loaded.EvaluationScores)
	}
	if len(loaded.ReaderFeedback) != 1 || loaded.ReaderFeedback[0] != "gripping premise" {
		t.Errorf("reader feedback did not round-trip: %v", loaded.ReaderFeedback)
	}
	if len(loaded.Tags) != 2 {
		t.Errorf("tags = %v, want two entries", loaded.Tags)
	}
	if !loaded.CreatedTimestamp.Equal(o.CreatedTimestamp) {
		t.Errorf("created = %v, want %v", loaded.CreatedTimestamp, o.CreatedTimestamp)
	}
	if loaded.Status != o.Status {
		t.Errorf("status = %s, want %s", loaded.Status, o.Status)
	}
}

func TestSaveIsUpsert(t *testing.T) {
	_, db := testSetup(t)
	ctx := context.Background()

	o := sampleObject(t)
	if err := db.SaveCodexObject(ctx, o); err != nil {
		t.Fatal(err)
	}

	o.UpdateContent("A much longer reworking of the original premise with more words in it than before.")
	if err := db.SaveCodexObject(ctx, o); err != nil {
		t.Fatal(err)
	}

	count, err := db.CountCodexObjects(ctx, Filters{})
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1 after double save", count)
	}

	loaded, err := db.LoadCodexObject(ctx, o.UUID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.WordCount != o.WordCount {
		t.Errorf("word count = %d, want %d", loaded.WordCount, o.WordCount)
	}
}

func TestLoadMissingObjectReturnsNil(t *testing.T) {
	_, db := testSetup(t)

	loaded, err := db.LoadCodexObject(context.Background(), "no-such-uuid")
	if err != nil {
		t.Fatal(err)
	}
	if loaded != nil {
		t.Errorf("expected nil for a missing object")
	}
}

// --- find/count/delete tests ---

func TestFindCodexObjectsFilters(t *testing.T) {
	_, db := testSetup(t)
	ctx := context.Background()

	series := "series-1"
	for i := 0; i < 3; i++ {
		o := types.NewCodexObject("A", "an idea", types.TypeIdea, types.StageConcept)
		o.SeriesUUID = series
		if err := db.SaveCodexObject(ctx, o); err != nil {
			t.Fatal(err)
		}
		time.Sleep(time.Millisecond)
	}
	draft := types.NewCodexObject("B", strings.Repeat("word ", 30), types.TypeLogline, types.StageDevelopment)
	if err := db.SaveCodexObject(ctx, draft); err != nil {
		t.Fatal(err)
	}

	ideas, err := db.FindCodexObjects(ctx, Filters{ObjectType: types.TypeIdea}, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(ideas) != 3 {
		t.Errorf("ideas = %d, want 3", len(ideas))
	}

	inSeries, err := db.FindCodexObjects(ctx, Filters{ObjectType: types.TypeIdea, SeriesUUID: series}, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(inSeries) != 3 {
		t.Errorf("series members = %d, want 3", len(inSeries))
	}

	// Newest first.
	all, err := db.FindCodexObjects(ctx, Filters{}, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreatedTimestamp.After(all[i-1].CreatedTimestamp) {
			t.Errorf("results not in newest-first order")
		}
	}

	// Limit and offset.
	page, err := db.FindCodexObjects(ctx, Filters{}, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 {
		t.Errorf("page = %d, want 2", len(page))
	}

	count, err := db.CountCodexObjects(ctx, Filters{DevelopmentStage: types.StageDevelopment})
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("development count = %d, want 1", count)
	}
}

func TestDeleteCodexObject(t *testing.T) {
	_, db := testSetup(t)
	ctx := context.Background()

	o := sampleObject(t)
	if err := db.SaveCodexObject(ctx, o); err != nil {
		t.Fatal(err)
	}

	deleted, err := db.DeleteCodexObject(ctx, o.UUID)
	if err != nil {
		t.Fatal(err)
	}
	if !deleted {
		t.Errorf("delete reported no row removed")
	}

	deleted, err = db.DeleteCodexObject(ctx, o.UUID)
	if err != nil {
		t.Fatal(err)
	}
	if deleted {
		t.Errorf("second delete reported a row removed")
	}
}

// --- tournament and series tests ---

func TestTournamentRoundTrip(t *testing.T) {
	_, db := testSetup(t)
	ctx := context.Background()

	a := sampleObject(t)
	b := sampleObject(t)
	if err := db.SaveCodexObject(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveCodexObject(ctx, b); err != nil {
		t.Fatal(err)
	}

	tournament := &types.Tournament{
		UUID:             "t1",
		Name:             "Logline Bracket",
		Status:           "running",
		Participants:     []string{a.UUID, b.UUID},
		Rounds:           1,
		CreatedTimestamp: time.Now().UTC(),
		Metadata:         map[string]any{"seed": "alpha"},
	}
	matches := []types.TournamentMatch{{
		UUID:           "m1",
		TournamentUUID: "t1",
		Round:          1,
		ObjectAUUID:    a.UUID,
		ObjectBUUID:    b.UUID,
		WinnerUUID:     a.UUID,
		Scores:         map[string]float64{"hook": 9},
		Reasoning:      "stronger hook",
		Timestamp:      time.Now().UTC(),
	}}

	if err := db.SaveTournament(ctx, tournament, matches); err != nil {
		t.Fatal(err)
	}

	loaded, loadedMatches, err := db.LoadTournament(ctx, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if loaded == nil {
		t.Fatal("tournament not found")
	}
	if len(loaded.Participants) != 2 {
		t.Errorf("participants = %v", loaded.Participants)
	}
	if len(loadedMatches) != 1 || loadedMatches[0].Scores["hook"] != 9 {
		t.Errorf("matches did not round-trip: %+v", loadedMatches)
	}
}

func TestSeriesRoundTrip(t *testing.T) {
	_, db := testSetup(t)
	ctx := context.Background()

	s := &types.Series{
		UUID:             "s1",
		Title:            "The Drowned Coast",
		Genre:            "fantasy",
		BookUUIDs:        []string{"b1", "b2"},
		Status:           "active",
		CreatedTimestamp: time.Now().UTC(),
		LastModified:     time.Now().UTC(),
	}
	if err := db.SaveSeries(ctx, s); err != nil {
		t.Fatal(err)
	}

	loaded, err := db.LoadSeries(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if loaded == nil {
		t.Fatal("series not found")
	}
	if len(loaded.BookUUIDs) != 2 || loaded.Genre != "fantasy" {
		t.Errorf("series did not round-trip: %+v", loaded)
	}
}

func TestBatchJobRoundTrip(t *testing.T) {
	_, db := testSetup(t)
	ctx := context.Background()

	j := &types.BatchJob{
		UUID:             "bj1",
		JobType:          "batch_transform",
		Status:           "running",
		TotalItems:       10,
		Params:           map[string]any{"target_type": "synopsis"},
		CreatedTimestamp: time.Now().UTC(),
	}
	if err := db.SaveBatchJob(ctx, j); err != nil {
		t.Fatal(err)
	}

	j.Status = "complete"
	j.CompletedItems = 9
	j.FailedItems = 1
	j.CompletedTimestamp = time.Now().UTC()
	if err := db.SaveBatchJob(ctx, j); err != nil {
		t.Fatal(err)
	}

	loaded, err := db.LoadBatchJob(ctx, "bj1")
	if err != nil {
		t.Fatal(err)
	}
	if loaded == nil {
		t.Fatal("batch job not found")
	}
	if loaded.Status != "complete" || loaded.CompletedItems != 9 || loaded.FailedItems != 1 {
		t.Errorf("batch job did not round-trip: %+v", loaded)
	}
	if loaded.Params["target_type"] != "synopsis" {
		t.Errorf("params = %v", loaded.Params)
	}
	if loaded.CompletedTimestamp.IsZero() {
		t.Error("completed timestamp lost")
	}

	if missing, err := db.LoadBatchJob(ctx, "nope"); err != nil || missing != nil {
		t.Errorf("missing job = (%v, %v), want (nil, nil)", missing, err)
	}
}

// --- maintenance tests ---

func TestCleanupOrphanedRecords(t *testing.T) {
	m, db := testSetup(t)
	ctx := context.Background()

	// A dangling match referencing a tournament that never existed,
	// inserted with enforcement off the way pre-pragma data would be.
	execRaw(t, m, `INSERT INTO tournament_matches
		(uuid, tournament_uuid, round, timestamp)
		VALUES ('orphan-match', 'ghost-tournament', 1, '2026-01-01T00:00:00Z')`)

	removed, err := db.CleanupOrphanedRecords(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if removed < 1 {
		t.Errorf("removed = %d, want >= 1", removed)
	}

	rows, err := m.Query(ctx, `SELECT uuid FROM tournament_matches WHERE uuid = 'orphan-match'`)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("orphan match survived cleanup")
	}
}

func TestCleanupLeavesResolvableRows(t *testing.T) {
	m, db := testSetup(t)
	ctx := context.Background()

	o := sampleObject(t)
	if err := db.SaveCodexObject(ctx, o); err != nil {
		t.Fatal(err)
	}
	execRaw(t, m, `INSERT INTO story_elements
		(uuid, element_type, content, source_object_uuid, created_timestamp)
		VALUES ('e1', 'character', 'the keeper', ?, '2026-01-01T00:00:00Z')`, o.UUID)
	execRaw(t, m, `INSERT INTO story_elements
		(uuid, element_type, content, source_object_uuid, created_timestamp)
		VALUES ('e2', 'setting', 'the lighthouse', 'missing-object', '2026-01-01T00:00:00Z')`)

	removed, err := db.CleanupOrphanedRecords(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want exactly 1", removed)
	}

	rows, err := m.Query(ctx, `SELECT uuid FROM story_elements`)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("surviving elements = %d, want 1", len(rows))
	}
	if rows[0]["uuid"] != "e1" {
		t.Errorf("survivor = %v, want e1", rows[0]["uuid"])
	}
}

func TestStats(t *testing.T) {
	_, db := testSetup(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		o := types.NewCodexObject("I", "an idea", types.TypeIdea, types.StageConcept)
		if err := db.SaveCodexObject(ctx, o); err != nil {
			t.Fatal(err)
		}
	}
	logline := sampleObject(t)
	if err := db.SaveCodexObject(ctx, logline); err != nil {
		t.Fatal(err)
	}

	stats, err := db.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalObjects != 3 {
		t.Errorf("total = %d, want 3", stats.TotalObjects)
	}
	if stats.ObjectsByType[types.TypeIdea] != 2 {
		t.Errorf("ideas = %d, want 2", stats.ObjectsByType[types.TypeIdea])
	}
	if stats.ObjectsByType[types.TypeLogline] != 1 {
		t.Errorf("loglines = %d, want 1", stats.ObjectsByType[types.TypeLogline])
	}
}
