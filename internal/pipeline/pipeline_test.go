// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pdiddy/ideation-engine/internal/ai"
	"github.com/pdiddy/ideation-engine/internal/classify"
	"github.com/pdiddy/ideation-engine/internal/files"
	"github.com/pdiddy/ideation-engine/internal/store"
	"github.com/pdiddy/ideation-engine/internal/transform"
	"github.com/pdiddy/ideation-engine/pkg/types"
)

// --- test helpers ---

// markerCaller keys behavior on prompt content rather than call order
// so it stays deterministic under concurrent batches.
type markerCaller struct {
	mu    sync.Mutex
	calls int
}

func (c *markerCaller) Call(_ context.Context, req ai.Request) (ai.Response, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if strings.Contains(req.Prompt, "UNWRITABLE") {
		return ai.Response{}, errors.New("model refused")
	}
	return ai.Response{Content: strings.Repeat("expanded narrative ", 40)}, nil
}

func testPipeline(t *testing.T, caller ai.Caller) (*Pipeline, *store.IdeationDatabase, *files.Manager) {
	t.Helper()

	m, err := store.NewManager(types.DatabaseConfig{Path: filepath.Join(t.TempDir(), "ideation.db")})
	if err != nil {
		t.Fatalf("store.NewManager: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	db := store.NewIdeationDatabase(m)

	fm, err := files.NewManager(types.FilesConfig{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatalf("files.NewManager: %v", err)
	}

	classifier := classify.New(nil, types.ClassifierConfig{})
	transformer := transform.New(caller, classifier, types.TransformerConfig{})
	return New(classifier, transformer, db, fm, types.BatchConfig{MaxWorkers: 2}), db, fm
}

func loglineObject(title, content string) *types.CodexObject {
	return types.NewCodexObject(title, content, types.TypeLogline, types.StageConcept)
}

// --- single-object operations ---

func TestTransformAndStorePersistsBothMirrors(t *testing.T) {
	p, db, fm := testPipeline(t, &markerCaller{})
	ctx := context.Background()

	source := loglineObject("The Keeper",
		"A lone lighthouse keeper discovers a message in a bottle that predicts his own death.")
	if err := db.SaveCodexObject(ctx, source); err != nil {
		t.Fatal(err)
	}

	result, err := p.TransformAndStore(ctx, source, types.TypeSynopsis, "")
	if err != nil {
		t.Fatalf("TransformAndStore: %v", err)
	}
	if !result.Success {
		t.Fatalf("transformation failed: %s", result.ErrorMessage)
	}

	derived, err := db.LoadCodexObject(ctx, result.Object.UUID)
	if err != nil {
		t.Fatal(err)
	}
	if derived == nil {
		t.Fatal("derived object not in database")
	}
	if derived.ParentUUID != source.UUID {
		t.Errorf("parent_uuid = %s, want %s", derived.ParentUUID, source.UUID)
	}

	paths, err := fm.FindObjectFiles(types.TypeSynopsis)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 {
		t.Errorf("synopsis files = %d, want 1", len(paths))
	}

	// The source's transformation record must be persisted too.
	reloaded, err := db.LoadCodexObject(ctx, source.UUID)
	if err != nil {
		t.Fatal(err)
	}
	last := reloaded.ProcessingHistory[len(reloaded.ProcessingHistory)-1]
	if last.Action != "transformed" {
		t.Errorf("source last action = %s, want transformed", last.Action)
	}

	snapshot, err := fm.LatestSnapshot(source.UUID)
	if err != nil {
		t.Fatal(err)
	}
	if snapshot == nil {
		t.Error("expected a pre-transform snapshot")
	}
}

func TestTransformAndStoreFailureIsAValue(t *testing.T) {
	p, db, _ := testPipeline(t, &markerCaller{})
	ctx := context.Background()

	source := loglineObject("Doomed", "A story that UNWRITABLE cannot be told.")
	result, err := p.TransformAndStore(ctx, source, types.TypeSynopsis, "")
	if err != nil {
		t.Fatalf("machinery error: %v", err)
	}
	if result.Success {
		t.Fatal("expected a failed result")
	}

	n, err := db.CountCodexObjects(ctx, store.Filters{ObjectType: types.TypeSynopsis})
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("synopsis rows = %d, want 0 after failure", n)
	}
}

func TestRollbackRestoresSnapshot(t *testing.T) {
	p, db, _ := testPipeline(t, &markerCaller{})
	ctx := context.Background()

	source := loglineObject("The Keeper",
		"A lone lighthouse keeper discovers a message in a bottle that predicts his own death.")
	if err := db.SaveCodexObject(ctx, source); err != nil {
		t.Fatal(err)
	}
	historyBefore := len(source.ProcessingHistory)

	if result, err := p.TransformAndStore(ctx, source, types.TypeSynopsis, ""); err != nil || !result.Success {
		t.Fatalf("TransformAndStore = (%+v, %v)", result, err)
	}

	if err := p.Rollback(ctx, source.UUID); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	restored, err := db.LoadCodexObject(ctx, source.UUID)
	if err != nil {
		t.Fatal(err)
	}
	if len(restored.ProcessingHistory) != historyBefore {
		t.Errorf("history after rollback = %d entries, want %d",
			len(restored.ProcessingHistory), historyBefore)
	}
}

func TestRollbackWithoutSnapshotErrors(t *testing.T) {
	p, _, _ := testPipeline(t, &markerCaller{})
	if err := p.Rollback(context.Background(), "never-snapshotted"); err == nil {
		t.Fatal("expected error for missing snapshot")
	}
}

func TestClassifyAndUpdate(t *testing.T) {
	p, db, _ := testPipeline(t, &markerCaller{})
	ctx := context.Background()

	o := types.NewCodexObject("Unsorted",
		"A lighthouse keeper discovers her light is the only thing holding back an ancient darkness.",
		types.TypeUnknown, types.StageConcept)
	if err := db.SaveCodexObject(ctx, o); err != nil {
		t.Fatal(err)
	}

	result, err := p.ClassifyAndUpdate(ctx, o.UUID)
	if err != nil {
		t.Fatalf("ClassifyAndUpdate: %v", err)
	}
	if result.ObjectType != types.TypeLogline {
		t.Errorf("classified type = %s, want logline", result.ObjectType)
	}

	reloaded, err := db.LoadCodexObject(ctx, o.UUID)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.ObjectType != types.TypeLogline {
		t.Errorf("stored type = %s, want logline", reloaded.ObjectType)
	}
	if reloaded.Status != types.StatusClassified {
		t.Errorf("status = %s, want classified", reloaded.Status)
	}
}

// --- batch operations ---

func TestParallelBatchIsolatesFailures(t *testing.T) {
	caller := &markerCaller{}
	p, db, _ := testPipeline(t, caller)
	ctx := context.Background()

	sources := []*types.CodexObject{
		loglineObject("First", "A detective who solves crimes by reading the dreams of witnesses."),
		loglineObject("Second", "A story that UNWRITABLE cannot be told."),
		loglineObject("Third", "Two rival mapmakers race to chart an island that moves."),
	}

	var out bytes.Buffer
	summary, results, err := p.ParallelBatch(ctx, &out, sources, types.TypeSynopsis, "")
	if err != nil {
		t.Fatalf("ParallelBatch: %v", err)
	}

	if len(results) != len(sources) {
		t.Fatalf("results = %d, want %d", len(results), len(sources))
	}
	if results[0].Success != true || results[2].Success != true {
		t.Error("surrounding items should succeed")
	}
	if results[1].Success {
		t.Error("item 1 should fail")
	}
	if summary.Succeeded != 2 || summary.Failed != 1 || summary.Total != 3 {
		t.Errorf("summary = %+v", summary)
	}

	job, err := db.LoadBatchJob(ctx, summary.JobUUID)
	if err != nil {
		t.Fatal(err)
	}
	if job == nil {
		t.Fatal("batch job row not recorded")
	}
	if job.Status != "complete" || job.CompletedItems != 2 || job.FailedItems != 1 {
		t.Errorf("job = %+v", job)
	}

	n, err := db.CountCodexObjects(ctx, store.Filters{ObjectType: types.TypeSynopsis})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("synopsis rows = %d, want 2", n)
	}

	if !strings.Contains(out.String(), "2/3 succeeded") {
		t.Errorf("progress output missing summary line: %q", out.String())
	}
}

// --- quality scoring ---

func TestQualityScore(t *testing.T) {
	source := loglineObject("S", strings.Repeat("word ", 20))

	doubled := types.TransformationResult{
		Success:            true,
		TransformationType: types.TransformExpand,
		ConfidenceScore:    0.8,
		Object:             types.NewCodexObject("S", strings.Repeat("word ", 40), types.TypeSynopsis, types.StageDevelopment),
	}
	barely := doubled
	barely.Object = types.NewCodexObject("S", strings.Repeat("word ", 22), types.TypeSynopsis, types.StageDevelopment)

	if QualityScore(source, doubled) <= QualityScore(source, barely) {
		t.Error("an expansion that doubles the text should outscore one that barely grows it")
	}

	failed := types.TransformationResult{Success: false}
	if QualityScore(source, failed) != 0 {
		t.Error("failed results score zero")
	}

	if score := QualityScore(source, doubled); score < 0 || score > 1 {
		t.Errorf("score %v out of range", score)
	}
}

// --- lineage ---

func TestLineageTreeAndAncestors(t *testing.T) {
	p, db, _ := testPipeline(t, &markerCaller{})
	ctx := context.Background()

	a := loglineObject("Root", "A city where memories are currency.")
	b := types.NewCodexObject("Middle", strings.Repeat("word ", 100), types.TypeSynopsis, types.StageDevelopment)
	b.ParentUUID = a.UUID
	c := types.NewCodexObject("Leaf", strings.Repeat("word ", 400), types.TypeTreatment, types.StageDevelopment)
	c.ParentUUID = b.UUID

	for _, o := range []*types.CodexObject{a, b, c} {
		if err := db.SaveCodexObject(ctx, o); err != nil {
			t.Fatal(err)
		}
	}

	tree, err := p.LineageTree(ctx, a.UUID)
	if err != nil {
		t.Fatalf("LineageTree: %v", err)
	}
	if len(tree.Children) != 1 || tree.Children[0].Object.UUID != b.UUID {
		t.Fatalf("tree first level wrong: %+v", tree.Children)
	}
	if len(tree.Children[0].Children) != 1 || tree.Children[0].Children[0].Object.UUID != c.UUID {
		t.Fatalf("tree second level wrong")
	}

	ancestors, err := p.Ancestors(ctx, c.UUID)
	if err != nil {
		t.Fatalf("Ancestors: %v", err)
	}
	if len(ancestors) != 2 || ancestors[0].UUID != b.UUID || ancestors[1].UUID != a.UUID {
		t.Errorf("ancestors wrong: %d entries", len(ancestors))
	}
}

func TestLineageTreeMissingRoot(t *testing.T) {
	p, _, _ := testPipeline(t, &markerCaller{})
	if _, err := p.LineageTree(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for missing root")
	}
}
