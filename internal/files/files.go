// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package files maintains the file-tree persistence mirror: one JSON
// file per entity, organized by type, plus exports, backups, and
// housekeeping. The tree and the database are independent mirrors with
// no transactional link; callers who need both write to each and accept
// the divergence risk on partial failure.
package files

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/ideation-engine/pkg/types"
)

const (
	objectsDir      = "objects"
	tournamentsDir  = "tournaments"
	seriesDir       = "series"
	readerPanelsDir = "reader_panels"
	batchJobsDir    = "batch_jobs"
	exportsDir      = "exports"
	backupsDir      = "backups"
	snapshotsDir    = "snapshots"
	tempDir         = "temp"
)

// typeDirNames maps each object type to its plural directory name.
var typeDirNames = map[types.CodexObjectType]string{
	types.TypeIdea:            "ideas",
	types.TypeLogline:         "loglines",
	types.TypeSummary:         "summaries",
	types.TypeTreatment:       "treatments",
	types.TypeSynopsis:        "synopses",
	types.TypeOutline:         "outlines",
	types.TypeDetailedOutline: "detailed_outlines",
	types.TypeDraft:           "drafts",
	types.TypeManuscript:      "manuscripts",
	types.TypeSeries:          "series",
	types.TypeUnknown:         "unknown",
}

// Manager owns one file tree rooted at BaseDir.
type Manager struct {
	baseDir string
}

// NewManager creates the directory tree under cfg.BaseDir.
func NewManager(cfg types.FilesConfig) (*Manager, error) {
	if cfg.BaseDir == "" {
		return nil, fmt.Errorf("files base directory is required")
	}

	dirs := []string{tournamentsDir, seriesDir, readerPanelsDir, batchJobsDir,
		exportsDir, backupsDir, snapshotsDir, tempDir}
	for _, name := range typeDirNames {
		dirs = append(dirs, filepath.Join(objectsDir, name))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(cfg.BaseDir, dir), 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return &Manager{baseDir: cfg.BaseDir}, nil
}

// BaseDir returns the tree root.
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// writeJSON marshals v with two-space indentation and unescaped
// non-ASCII text.
func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// --- codex objects ---

// ObjectPath returns where an object's JSON file lives:
// objects/<type-plural>/<shortuuid>_<type>.json.
func (m *Manager) ObjectPath(o *types.CodexObject) string {
	dir, ok := typeDirNames[o.ObjectType]
	if !ok {
		dir = typeDirNames[types.TypeUnknown]
	}
	name := fmt.Sprintf("%s_%s.json", o.ShortUUID, o.ObjectType)
	return filepath.Join(m.baseDir, objectsDir, dir, name)
}

// SaveCodexObjectFile writes the object's JSON file.
func (m *Manager) SaveCodexObjectFile(o *types.CodexObject) (string, error) {
	path := m.ObjectPath(o)
	if err := writeJSON(path, o); err != nil {
		return "", err
	}
	return path, nil
}

// LoadCodexObjectFile reads one object JSON file.
func (m *Manager) LoadCodexObjectFile(path string) (*types.CodexObject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var o types.CodexObject
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &o, nil
}

// FindObjectFiles globs object files for one type, or across all type
// directories when objectType is empty. Results are sorted.
func (m *Manager) FindObjectFiles(objectType types.CodexObjectType) ([]string, error) {
	var patterns []string
	if objectType != "" {
		dir, ok := typeDirNames[objectType]
		if !ok {
			return nil, fmt.Errorf("unknown object type %q", objectType)
		}
		patterns = append(patterns, filepath.Join(m.baseDir, objectsDir, dir, "*_*.json"))
	} else {
		for _, dir := range typeDirNames {
			patterns = append(patterns, filepath.Join(m.baseDir, objectsDir, dir, "*_*.json"))
		}
	}

	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("globbing %s: %w", pattern, err)
		}
		for _, match := range matches {
			if !seen[match] {
				seen[match] = true
				files = append(files, match)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// --- tournaments, series, panels, batch jobs ---

// SaveTournamentBundle writes tournaments/<uuid>/tournament.json plus
// optional bracket.json and results.json when those maps are non-nil.
func (m *Manager) SaveTournamentBundle(t *types.Tournament, bracket, results map[string]any) (string, error) {
	dir := filepath.Join(m.baseDir, tournamentsDir, t.UUID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating tournament directory: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, "tournament.json"), t); err != nil {
		return "", err
	}
	if bracket != nil {
		if err := writeJSON(filepath.Join(dir, "bracket.json"), bracket); err != nil {
			return "", err
		}
	}
	if results != nil {
		if err := writeJSON(filepath.Join(dir, "results.json"), results); err != nil {
			return "", err
		}
	}
	return dir, nil
}

// SaveSeriesFile writes a series bundle.
func (m *Manager) SaveSeriesFile(s *types.Series) (string, error) {
	path := filepath.Join(m.baseDir, seriesDir, s.UUID+".json")
	if err := writeJSON(path, s); err != nil {
		return "", err
	}
	return path, nil
}

// SaveReaderPanelFile writes a reader panel file.
func (m *Manager) SaveReaderPanelFile(p *types.ReaderPanel) (string, error) {
	path := filepath.Join(m.baseDir, readerPanelsDir, p.UUID+".json")
	if err := writeJSON(path, p); err != nil {
		return "", err
	}
	return path, nil
}

// SaveBatchJobFile writes a batch job record.
func (m *Manager) SaveBatchJobFile(j *types.BatchJob) (string, error) {
	path := filepath.Join(m.baseDir, batchJobsDir, j.UUID+".json")
	if err := writeJSON(path, j); err != nil {
		return "", err
	}
	return path, nil
}

// --- snapshots ---

// SaveSnapshot writes a point-in-time copy of the object for rollback,
// under snapshots/<uuid>_<stamp>.json.
func (m *Manager) SaveSnapshot(o *types.CodexObject) (string, error) {
	stamp := time.Now().UTC().Format("20060102-150405.000000000")
	path := filepath.Join(m.baseDir, snapshotsDir, fmt.Sprintf("%s_%s.json", o.UUID, stamp))
	if err := writeJSON(path, o); err != nil {
		return "", err
	}
	return path, nil
}

// LatestSnapshot loads the most recent snapshot for an object, or nil
// when none exists.
func (m *Manager) LatestSnapshot(uuid string) (*types.CodexObject, error) {
	pattern := filepath.Join(m.baseDir, snapshotsDir, uuid+"_*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("globbing snapshots: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	sort.Strings(matches)
	return m.LoadCodexObjectFile(matches[len(matches)-1])
}

// --- backups ---

// BackupManifest describes one backup run.
type BackupManifest struct {
	Name        string    `json:"name" yaml:"name"`
	Created     time.Time `json:"created" yaml:"created"`
	Directories []string  `json:"directories" yaml:"directories"`
	TotalBytes  int64     `json:"total_bytes" yaml:"total_bytes"`
}

// CreateBackup recursively copies the data subtrees into a backup
// directory and writes a manifest. An empty name uses a timestamp.
func (m *Manager) CreateBackup(name string) (string, error) {
	if name == "" {
		name = "backup-" + time.Now().UTC().Format("20060102-150405")
	}
	backupRoot := filepath.Join(m.baseDir, backupsDir, name)
	if err := os.MkdirAll(backupRoot, 0o755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	manifest := BackupManifest{
		Name:    name,
		Created: time.Now().UTC(),
	}

	for _, dir := range []string{objectsDir, tournamentsDir, seriesDir, readerPanelsDir, batchJobsDir} {
		src := filepath.Join(m.baseDir, dir)
		size, err := copyTree(src, filepath.Join(backupRoot, dir))
		if err != nil {
			return "", fmt.Errorf("backing up %s: %w", dir, err)
		}
		manifest.Directories = append(manifest.Directories, dir)
		manifest.TotalBytes += size
	}

	if err := writeJSON(filepath.Join(backupRoot, "manifest.json"), manifest); err != nil {
		return "", err
	}
	return backupRoot, nil
}

// copyTree recursively copies src into dst, returning total bytes copied.
func copyTree(src, dst string) (int64, error) {
	var total int64
	err := filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()

		out, err := os.Create(target)
		if err != nil {
			return err
		}
		defer out.Close()

		n, err := io.Copy(out, in)
		total += n
		return err
	})
	return total, err
}

// --- housekeeping ---

// CleanupTempFiles deletes files under temp/ older than maxAge and
// returns the number removed.
func (m *Manager) CleanupTempFiles(maxAge time.Duration) (int, error) {
	dir := filepath.Join(m.baseDir, tempDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading temp directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// --- exports ---

// exportPath builds exports/<category>/<stamp>_<name>. The category
// subdirectory is created on demand.
func (m *Manager) exportPath(category, name string) (string, error) {
	dir := filepath.Join(m.baseDir, exportsDir, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	stamp := time.Now().UTC().Format("20060102-150405")
	return filepath.Join(dir, stamp+"_"+name), nil
}

// ExportObjectsJSON writes the objects as one timestamped JSON file
// under exports/<category>/.
func (m *Manager) ExportObjectsJSON(category string, objects []*types.CodexObject) (string, error) {
	path, err := m.exportPath(category, "objects.json")
	if err != nil {
		return "", err
	}
	if err := writeJSON(path, objects); err != nil {
		return "", err
	}
	return path, nil
}

// ExportObjectsYAML writes the objects as one timestamped YAML file
// under exports/<category>/.
func (m *Manager) ExportObjectsYAML(category string, objects []*types.CodexObject) (string, error) {
	path, err := m.exportPath(category, "objects.yaml")
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(objects)
	if err != nil {
		return "", fmt.Errorf("marshaling objects: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// ExportObjectsCSV writes a flat CSV of the objects' scalar fields
// under exports/<category>/.
func (m *Manager) ExportObjectsCSV(category string, objects []*types.CodexObject) (string, error) {
	path, err := m.exportPath(category, "objects.csv")
	if err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"uuid", "shortuuid", "object_type", "development_stage",
		"title", "genre", "target_audience", "word_count", "confidence_score",
		"status", "tags", "created_timestamp"}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("writing header: %w", err)
	}

	for _, o := range objects {
		record := []string{
			o.UUID, o.ShortUUID, string(o.ObjectType), string(o.DevelopmentStage),
			o.Title, o.Genre, o.TargetAudience,
			strconv.Itoa(o.WordCount),
			strconv.FormatFloat(o.ConfidenceScore, 'f', -1, 64),
			string(o.Status),
			strings.Join(o.Tags, ";"),
			o.CreatedTimestamp.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("writing record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing csv: %w", err)
	}
	return path, nil
}
