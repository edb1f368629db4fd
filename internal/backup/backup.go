// Package backup writes and restores point-in-time copies of the portal
// evolution state.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/models"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/store"
)

// FilePrefix starts every backup file name.
const FilePrefix = "lumaura-backup-"

// Payload is the backed-up state: portal scores plus the recommendation ledger.
type Payload struct {
	Version         int                     `json:"version"`
	CreatedAt       time.Time               `json:"created_at"`
	Snapshot        *store.Snapshot         `json:"snapshot"`
	Recommendations []models.Recommendation `json:"recommendations"`
}

// Source supplies the state to back up. *evolution.Coordinator implements it.
type Source interface {
	Snapshot() *store.Snapshot
	Recommendations() []models.Recommendation
}

type staticSource struct {
	snap *store.Snapshot
}

func (s staticSource) Snapshot() *store.Snapshot                { return s.snap }
func (s staticSource) Recommendations() []models.Recommendation { return nil }

// FromStore returns a Source over the snapshot persisted in st, for backing
// up while the service is not running. The ledger is not persisted, so it
// is empty.
func FromStore(ctx context.Context, st store.SnapshotStore) (Source, error) {
	snap, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	if snap == nil {
		snap = store.NewSnapshot(time.Time{})
	}
	return staticSource{snap: snap}, nil
}

// DefaultBackupDir returns ~/.lumaura/backups.
func DefaultBackupDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".lumaura", "backups"), nil
}

// GenerateBackupPath returns a timestamped file name in dir:
// lumaura-backup-YYYYMMDD-HHMMSS.json.gz, or .json when uncompressed.
func GenerateBackupPath(dir string, now time.Time, compress bool) string {
	ext := ".json"
	if compress {
		ext = ".json.gz"
	}
	return filepath.Join(dir, FilePrefix+now.Format("20060102-150405")+ext)
}

// Backup writes src's state to outputPath, as V2 when compress is set and
// plain V1 JSON otherwise.
func Backup(ctx context.Context, src Source, outputPath string, compress bool) (*Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := src.Snapshot()
	if snap == nil {
		snap = store.NewSnapshot(time.Now())
	}
	recs := src.Recommendations()
	if recs == nil {
		recs = []models.Recommendation{}
	}
	p := &Payload{
		Version:         FormatV1,
		CreatedAt:       time.Now().UTC(),
		Snapshot:        snap,
		Recommendations: recs,
	}

	if compress {
		p.Version = FormatV2
		if err := WriteV2(outputPath, p); err != nil {
			return nil, err
		}
		return p, nil
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	if err := os.WriteFile(outputPath, append(data, '\n'), 0600); err != nil {
		return nil, fmt.Errorf("failed to write backup file: %w", err)
	}
	return p, nil
}

// Read loads a backup of either format.
func Read(path string) (*Payload, error) {
	version, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	if version == FormatV2 {
		return ReadV2(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup file: %w", err)
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if p.Version != FormatV1 {
		return nil, fmt.Errorf("unsupported backup version: %d", p.Version)
	}
	return &p, nil
}

// RestoreMode controls how restore treats portals already in the store.
type RestoreMode string

const (
	// RestoreMerge keeps stored portal entries and adds only missing ones.
	RestoreMerge RestoreMode = "merge"
	// RestoreReplace overwrites the stored snapshot with the backup.
	RestoreReplace RestoreMode = "replace"
)

// ParseRestoreMode accepts "merge" (or "") and "replace".
func ParseRestoreMode(s string) (RestoreMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(RestoreMerge):
		return RestoreMerge, nil
	case string(RestoreReplace):
		return RestoreReplace, nil
	default:
		return "", fmt.Errorf("invalid restore mode %q (valid: merge, replace)", s)
	}
}

// RestoreResult contains statistics about a restore.
type RestoreResult struct {
	PortalsRestored int `json:"portals_restored"`
	PortalsSkipped  int `json:"portals_skipped"`

	// Recommendations counts ledger entries in the backup. The snapshot
	// store does not hold the ledger, so they are reported, not written.
	Recommendations int `json:"recommendations"`
}

// Restore writes a backup's portal scores into st.
func Restore(ctx context.Context, st store.SnapshotStore, inputPath string, mode RestoreMode) (*RestoreResult, error) {
	p, err := Read(inputPath)
	if err != nil {
		return nil, err
	}
	if p.Snapshot == nil {
		return nil, fmt.Errorf("backup has no snapshot")
	}

	result := &RestoreResult{Recommendations: len(p.Recommendations)}

	target := store.NewSnapshot(time.Now())
	if mode == RestoreMerge {
		current, err := st.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading current snapshot: %w", err)
		}
		if current != nil {
			target = current.Clone()
			target.LastSaved = time.Now()
		}
	}

	for name, ps := range p.Snapshot.Portals {
		if _, exists := target.Portals[name]; exists && mode == RestoreMerge {
			result.PortalsSkipped++
			continue
		}
		target.Portals[name] = ps
		result.PortalsRestored++
	}

	if err := st.Save(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to save restored snapshot: %w", err)
	}
	return result, nil
}
