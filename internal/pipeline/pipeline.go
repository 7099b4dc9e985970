// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates classification and transformation runs
// across the two persistence mirrors. It is the only layer that writes
// to the database and the file tree together; there is no transactional
// link between them, so each run snapshots its sources first and offers
// a best-effort rollback from the snapshot.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/ideation-engine/internal/classify"
	"github.com/pdiddy/ideation-engine/internal/files"
	"github.com/pdiddy/ideation-engine/internal/store"
	"github.com/pdiddy/ideation-engine/internal/transform"
	"github.com/pdiddy/ideation-engine/pkg/types"
)

const defaultMaxWorkers = 4

// Pipeline ties the classifier, transformer, database, and file tree
// into single-object and batch operations.
type Pipeline struct {
	classifier  *classify.Classifier
	transformer *transform.Transformer
	db          *store.IdeationDatabase
	files       *files.Manager
	maxWorkers  int
}

// New builds a pipeline over the given components.
func New(classifier *classify.Classifier, transformer *transform.Transformer,
	db *store.IdeationDatabase, fm *files.Manager, cfg types.BatchConfig) *Pipeline {
	workers := cfg.MaxWorkers
	if workers <= 0 {
		workers = defaultMaxWorkers
	}
	return &Pipeline{
		classifier:  classifier,
		transformer: transformer,
		db:          db,
		files:       fm,
		maxWorkers:  workers,
	}
}

// persist writes the object to both mirrors.
func (p *Pipeline) persist(ctx context.Context, o *types.CodexObject) error {
	if err := p.db.SaveCodexObject(ctx, o); err != nil {
		return err
	}
	if _, err := p.files.SaveCodexObjectFile(o); err != nil {
		return err
	}
	return nil
}

// ClassifyAndUpdate classifies a stored object's content and applies
// the result to the object in both mirrors.
func (p *Pipeline) ClassifyAndUpdate(ctx context.Context, objectUUID string) (types.ClassificationResult, error) {
	o, err := p.db.LoadCodexObject(ctx, objectUUID)
	if err != nil {
		return types.ClassificationResult{}, err
	}
	if o == nil {
		return types.ClassificationResult{}, fmt.Errorf("object %s not found", objectUUID)
	}

	metadata := map[string]string{
		"title":           o.Title,
		"genre":           o.Genre,
		"target_audience": o.TargetAudience,
	}
	result := p.classifier.Classify(ctx, o.Content, metadata)

	o.ApplyClassification(result.ObjectType, result.DevelopmentStage, result.ConfidenceScore)
	if err := p.persist(ctx, o); err != nil {
		return result, fmt.Errorf("persisting classification of %s: %w", objectUUID, err)
	}
	return result, nil
}

// TransformAndStore snapshots the source, runs one transformation, and
// on success persists the derived object and the updated source to both
// mirrors. A failed transformation is returned as a result value; the
// error covers persistence only.
func (p *Pipeline) TransformAndStore(ctx context.Context, source *types.CodexObject,
	targetType types.CodexObjectType, targetStage types.DevelopmentStage) (types.TransformationResult, error) {

	if _, err := p.files.SaveSnapshot(source); err != nil {
		return types.TransformationResult{}, fmt.Errorf("snapshotting %s: %w", source.UUID, err)
	}

	result := p.transformer.Transform(ctx, source, targetType, targetStage)
	if !result.Success {
		return result, nil
	}

	if err := p.persist(ctx, result.Object); err != nil {
		return result, fmt.Errorf("persisting derived object %s: %w", result.Object.UUID, err)
	}
	if err := p.persist(ctx, source); err != nil {
		return result, fmt.Errorf("persisting source %s: %w", source.UUID, err)
	}
	return result, nil
}

// Rollback restores an object from its latest snapshot into both
// mirrors.
func (p *Pipeline) Rollback(ctx context.Context, objectUUID string) error {
	snapshot, err := p.files.LatestSnapshot(objectUUID)
	if err != nil {
		return err
	}
	if snapshot == nil {
		return fmt.Errorf("no snapshot for %s", objectUUID)
	}
	if err := p.persist(ctx, snapshot); err != nil {
		return fmt.Errorf("restoring %s: %w", objectUUID, err)
	}
	return nil
}

// BatchSummary reports the outcome of one batch run.
type BatchSummary struct {
	JobUUID   string        `json:"job_uuid" yaml:"job_uuid"`
	Total     int           `json:"total" yaml:"total"`
	Succeeded int           `json:"succeeded" yaml:"succeeded"`
	Failed    int           `json:"failed" yaml:"failed"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`
}

// ParallelBatch runs TransformAndStore over the sources with bounded
// concurrency and records the run as a batch_jobs row. Results come
// back in input order regardless of completion order. Individual
// failures do not stop the batch; an error means the batch machinery
// itself broke.
func (p *Pipeline) ParallelBatch(ctx context.Context, w io.Writer, sources []*types.CodexObject,
	targetType types.CodexObjectType, targetStage types.DevelopmentStage) (BatchSummary, []types.TransformationResult, error) {

	start := time.Now()
	job := &types.BatchJob{
		UUID:       uuid.NewString(),
		JobType:    "batch_transform",
		Status:     "running",
		TotalItems: len(sources),
		Params: map[string]any{
			"target_type":  string(targetType),
			"target_stage": string(targetStage),
		},
		CreatedTimestamp: start.UTC(),
	}
	if err := p.db.SaveBatchJob(ctx, job); err != nil {
		return BatchSummary{}, nil, err
	}

	results := make([]types.TransformationResult, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxWorkers)

	for i, source := range sources {
		i, source := i, source
		g.Go(func() error {
			result, err := p.TransformAndStore(gctx, source, targetType, targetStage)
			if err != nil {
				result.Success = false
				result.ErrorMessage = err.Error()
			}
			results[i] = result

			if w != nil {
				status := "ok"
				if !result.Success {
					status = "failed: " + result.ErrorMessage
				}
				fmt.Fprintf(w, "[%d/%d] %s -> %s: %s\n",
					i+1, len(sources), source.ShortUUID, targetType, status)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchSummary{}, results, err
	}

	summary := BatchSummary{JobUUID: job.UUID, Total: len(sources)}
	for _, result := range results {
		if result.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	summary.Elapsed = time.Since(start)

	job.Status = "complete"
	job.CompletedItems = summary.Succeeded
	job.FailedItems = summary.Failed
	job.CompletedTimestamp = time.Now().UTC()
	if err := p.db.SaveBatchJob(ctx, job); err != nil {
		return summary, results, err
	}

	if w != nil {
		fmt.Fprintf(w, "batch %s: %d/%d succeeded in %s\n",
			job.UUID, summary.Succeeded, summary.Total, summary.Elapsed.Round(time.Millisecond))
	}
	return summary, results, nil
}

// QualityScore grades a successful transformation by blending the
// strategy's confidence with how the word count moved relative to what
// the strategy promises. Expansions should roughly double the text,
// condensations should roughly halve it, and relabel-style strategies
// should leave it alone.
func QualityScore(source *types.CodexObject, result types.TransformationResult) float64 {
	if !result.Success || result.Object == nil {
		return 0
	}

	growth := 0.5
	if source.WordCount > 0 && result.Object.WordCount > 0 {
		ratio := float64(result.Object.WordCount) / float64(source.WordCount)
		switch result.TransformationType {
		case types.TransformExpand:
			growth = math.Min(1, ratio/2)
		case types.TransformCondense:
			growth = math.Min(1, 0.5/ratio)
		default:
			growth = math.Max(0, 1-math.Abs(ratio-1))
		}
	}
	return 0.7*result.ConfidenceScore + 0.3*growth
}

// LineageNode is one object in a derivation tree.
type LineageNode struct {
	Object   *types.CodexObject `json:"object" yaml:"object"`
	Children []*LineageNode     `json:"children,omitempty" yaml:"children,omitempty"`
}

// LineageTree builds the derivation tree rooted at an object by
// following parent_uuid links downward. A visited set guards against
// cycles introduced by hand-edited rows.
func (p *Pipeline) LineageTree(ctx context.Context, rootUUID string) (*LineageNode, error) {
	root, err := p.db.LoadCodexObject(ctx, rootUUID)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, fmt.Errorf("object %s not found", rootUUID)
	}

	visited := map[string]bool{root.UUID: true}
	node := &LineageNode{Object: root}
	if err := p.attachChildren(ctx, node, visited); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Pipeline) attachChildren(ctx context.Context, node *LineageNode, visited map[string]bool) error {
	children, err := p.db.FindCodexObjects(ctx, store.Filters{ParentUUID: node.Object.UUID}, -1, 0)
	if err != nil {
		return err
	}
	for _, child := range children {
		if visited[child.UUID] {
			continue
		}
		visited[child.UUID] = true
		childNode := &LineageNode{Object: child}
		if err := p.attachChildren(ctx, childNode, visited); err != nil {
			return err
		}
		node.Children = append(node.Children, childNode)
	}
	return nil
}

// Ancestors walks parent_uuid links upward from an object, nearest
// first. Broken links end the walk rather than erroring.
func (p *Pipeline) Ancestors(ctx context.Context, objectUUID string) ([]*types.CodexObject, error) {
	o, err := p.db.LoadCodexObject(ctx, objectUUID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("object %s not found", objectUUID)
	}

	var chain []*types.CodexObject
	visited := map[string]bool{o.UUID: true}
	for o.ParentUUID != "" && !visited[o.ParentUUID] {
		visited[o.ParentUUID] = true
		parent, err := p.db.LoadCodexObject(ctx, o.ParentUUID)
		if err != nil {
			return chain, err
		}
		if parent == nil {
			break
		}
		chain = append(chain, parent)
		o = parent
	}
	return chain, nil
}
