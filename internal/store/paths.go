package store

import (
	"path/filepath"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/constants"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// DefaultSnapshotPath returns the JSON snapshot location inside dataDir.
func DefaultSnapshotPath(dataDir string) string {
	if dataDir == "" {
		dataDir = constants.DefaultDataDir
	}
	return filepath.Join(dataDir, constants.DefaultSnapshotFile)
}

// DefaultDatabasePath returns the SQLite database location inside dataDir.
func DefaultDatabasePath(dataDir string) string {
	if dataDir == "" {
		dataDir = constants.DefaultDataDir
	}
	return filepath.Join(dataDir, "evolution.db")
}
