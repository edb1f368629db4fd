package collaboration

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/logging"
)

const (
	filePrefix      = "workspace-"
	workspacePrefix = "ws-"
	resourcePrefix  = "res-"
	idTimeLayout    = "20060102150405"
)

// validID matches generated ids and the bare timestamp ids of older files.
var validID = regexp.MustCompile(`^ws-[0-9]{14}(-[0-9a-f]{8})?$`)

// Store keeps workspaces in dir as workspace-<id>.json. Writes go through a
// temp file and rename. Safe for concurrent use within one process.
type Store struct {
	mu     sync.Mutex
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for skipped or unreadable files.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates dir if needed.
func NewStore(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("collaboration directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create collaboration directory: %w", err)
	}
	s := &Store{dir: dir, logger: logging.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the workspace directory.
func (s *Store) Dir() string {
	return s.dir
}

// newID is prefix + local timestamp + a random suffix, so two ids minted in
// the same second differ.
func (s *Store) newID(prefix string, now time.Time) string {
	return prefix + now.Format(idTimeLayout) + "-" + uuid.NewString()[:8]
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, filePrefix+id+".json")
}

// List returns every readable workspace, oldest first. Unreadable files are
// logged and skipped.
func (s *Store) List(ctx context.Context) ([]Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Workspace{}, nil
		}
		return nil, fmt.Errorf("listing workspaces: %w", err)
	}

	out := make([]Workspace, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		w, err := readWorkspace(filepath.Join(s.dir, name))
		if err != nil {
			s.logger.Warn("skipping unreadable workspace", "file", name, "error", err)
			continue
		}
		out = append(out, w)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Get returns the workspace with id.
func (s *Store) Get(ctx context.Context, id string) (Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(id)
}

func (s *Store) getLocked(id string) (Workspace, error) {
	if !validID.MatchString(id) {
		return Workspace{}, fmt.Errorf("%s: %w", id, ErrWorkspaceNotFound)
	}
	w, err := readWorkspace(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return Workspace{}, fmt.Errorf("%s: %w", id, ErrWorkspaceNotFound)
		}
		return Workspace{}, err
	}
	return w, nil
}

// Create stores a new workspace with no resources.
func (s *Store) Create(ctx context.Context, name string, members []string) (Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Workspace{}, ErrMissingName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w := Workspace{
		ID:        s.newID(workspacePrefix, now),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Members:   append([]string{}, members...),
	}
	w.normalize()
	if err := s.writeLocked(ctx, w); err != nil {
		return Workspace{}, err
	}
	s.logger.Debug("workspace created", "id", w.ID, "name", w.Name)
	return w.clone(), nil
}

// Update applies u to the workspace with id and bumps UpdatedAt.
func (s *Store) Update(ctx context.Context, id string, u Update) (Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.getLocked(id)
	if err != nil {
		return Workspace{}, err
	}
	if u.Name != nil {
		w.Name = *u.Name
	}
	if u.Members != nil {
		w.Members = append([]string{}, (*u.Members)...)
	}
	w.UpdatedAt = s.now()
	w.normalize()

	if err := s.writeLocked(ctx, w); err != nil {
		return Workspace{}, err
	}
	return w.clone(), nil
}

// AddResource appends a resource to the workspace with id. name and typ are
// required; url may be empty.
func (s *Store) AddResource(ctx context.Context, id, name, typ, url string) (Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.getLocked(id)
	if err != nil {
		return Resource{}, err
	}
	name, typ = strings.TrimSpace(name), strings.TrimSpace(typ)
	if name == "" || typ == "" {
		return Resource{}, ErrMissingResourceField
	}

	now := s.now()
	res := Resource{
		ID:        s.newID(resourcePrefix, now),
		Name:      name,
		Type:      typ,
		URL:       strings.TrimSpace(url),
		CreatedAt: now,
	}
	w.Resources = append(w.Resources, res)
	w.UpdatedAt = now

	if err := s.writeLocked(ctx, w); err != nil {
		return Resource{}, err
	}
	return res, nil
}

func readWorkspace(path string) (Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Workspace{}, err
	}
	var w Workspace
	if err := json.Unmarshal(data, &w); err != nil {
		return Workspace{}, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return w, nil
}

func (s *Store) writeLocked(ctx context.Context, w Workspace) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling workspace: %w", err)
	}
	data = append(data, '\n')

	target := s.path(w.ID)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(target)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing workspace %s: %w", w.ID, err)
	}
	return nil
}
