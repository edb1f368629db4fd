package store

import (
	"context"
	"fmt"
)

// Options selects and configures a snapshot backend.
type Options struct {
	Backend string
	DataDir string
	// Path overrides the backend's default file location inside DataDir.
	Path  string
	Redis RedisOptions
}

// Open constructs the backend named by opts.Backend. An empty backend means file.
func Open(ctx context.Context, opts Options) (SnapshotStore, error) {
	switch opts.Backend {
	case "", BackendFile:
		path := opts.Path
		if path == "" {
			path = DefaultSnapshotPath(opts.DataDir)
		}
		return NewFileSnapshotStore(path)
	case BackendSQLite:
		path := opts.Path
		if path == "" {
			path = DefaultDatabasePath(opts.DataDir)
		}
		return NewSQLiteSnapshotStore(path)
	case BackendRedis:
		return NewRedisSnapshotStore(ctx, opts.Redis)
	case BackendMemory:
		return NewInMemorySnapshotStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
