package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/models"
)

func sampleSnapshot() *Snapshot {
	at := time.Date(2024, 3, 9, 10, 30, 0, 0, time.UTC)
	snap := NewSnapshot(at)
	snap.Portals["xuvemark"] = PortalSnapshot{Score: 42.5, Tier: models.TierAdvanced, LastUpdated: at}
	snap.Portals["xuvebanker"] = PortalSnapshot{Score: 90, Tier: models.TierMastery, LastUpdated: at.Add(time.Minute)}
	snap.Portals["xuvelegal"] = PortalSnapshot{Score: 0, Tier: models.TierBasic, LastUpdated: at}
	return snap
}

// roundTrip exercises the contract every backend shares.
func roundTrip(t *testing.T, s SnapshotStore) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() on empty store error = %v", err)
	}
	if got != nil {
		t.Fatalf("Load() on empty store = %+v, want nil", got)
	}

	want := sampleSnapshot()
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}

	// A second save replaces rather than merges.
	next := NewSnapshot(want.LastSaved.Add(time.Hour))
	next.Portals["xuvemark"] = PortalSnapshot{Score: 12, Tier: models.TierBasic, LastUpdated: next.LastSaved}
	if err := s.Save(ctx, next); err != nil {
		t.Fatalf("Save() second error = %v", err)
	}
	got, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() after second save error = %v", err)
	}
	if diff := cmp.Diff(next, got); diff != "" {
		t.Errorf("Load() after replace mismatch (-want +got):\n%s", diff)
	}

	if err := s.Save(ctx, nil); err == nil {
		t.Error("Save(nil) error = nil, want error")
	}
}

func TestFileSnapshotStore_RoundTrip(t *testing.T) {
	s, err := NewFileSnapshotStore(filepath.Join(t.TempDir(), "nested", "evolution_data.json"))
	if err != nil {
		t.Fatalf("NewFileSnapshotStore() error = %v", err)
	}
	defer s.Close()
	roundTrip(t, s)
}

func TestInMemorySnapshotStore_RoundTrip(t *testing.T) {
	s := NewInMemorySnapshotStore()
	roundTrip(t, s)
	if s.Saves() != 2 {
		t.Errorf("Saves() = %d, want 2", s.Saves())
	}
}

func TestInMemorySnapshotStore_CopiesOnSave(t *testing.T) {
	s := NewInMemorySnapshotStore()
	ctx := context.Background()

	snap := sampleSnapshot()
	if err := s.Save(ctx, snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	snap.Portals["xuvemark"] = PortalSnapshot{Score: 99}

	got, _ := s.Load(ctx)
	if got.Portals["xuvemark"].Score != 42.5 {
		t.Errorf("stored snapshot aliased caller map: score = %v", got.Portals["xuvemark"].Score)
	}
}

func TestSQLiteSnapshotStore_RoundTrip(t *testing.T) {
	s, err := NewSQLiteSnapshotStore(filepath.Join(t.TempDir(), "evolution.db"))
	if err != nil {
		t.Fatalf("NewSQLiteSnapshotStore() error = %v", err)
	}
	defer s.Close()
	roundTrip(t, s)
}

func TestSQLiteSnapshotStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evolution.db")
	ctx := context.Background()

	s, err := NewSQLiteSnapshotStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteSnapshotStore() error = %v", err)
	}
	if err := s.Save(ctx, sampleSnapshot()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	s.Close()

	s, err = NewSQLiteSnapshotStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteSnapshotStore() reopen error = %v", err)
	}
	defer s.Close()

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got.Portals) != 3 {
		t.Errorf("Load() portals = %d, want 3", len(got.Portals))
	}
}

func TestSnapshot_UnmarshalNaiveTimestamps(t *testing.T) {
	doc := `{
  "portals": {
    "xuvemark": {"evolution_score": 45.3, "evolution_stage": "Advanced", "last_updated": "2024-03-09T10:30:00.123456"}
  },
  "last_saved": "2024-03-09T10:31:00"
}`

	var snap Snapshot
	if err := json.Unmarshal([]byte(doc), &snap); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	p := snap.Portals["xuvemark"]
	if p.Score != 45.3 || p.Tier != models.TierAdvanced {
		t.Errorf("portal = %+v", p)
	}
	wantUpdated := time.Date(2024, 3, 9, 10, 30, 0, 123456000, time.UTC)
	if !p.LastUpdated.Equal(wantUpdated) {
		t.Errorf("LastUpdated = %v, want %v", p.LastUpdated, wantUpdated)
	}
	if !snap.LastSaved.Equal(time.Date(2024, 3, 9, 10, 31, 0, 0, time.UTC)) {
		t.Errorf("LastSaved = %v", snap.LastSaved)
	}
}

func TestSnapshot_UnmarshalRejectsGarbageTimestamp(t *testing.T) {
	doc := `{"portals": {}, "last_saved": "yesterday"}`
	var snap Snapshot
	if err := json.Unmarshal([]byte(doc), &snap); err == nil {
		t.Error("Unmarshal() error = nil, want error for bad timestamp")
	}
}

func TestFileSnapshotStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evolution_data.json")
	s, err := NewFileSnapshotStore(path)
	if err != nil {
		t.Fatalf("NewFileSnapshotStore() error = %v", err)
	}
	if err := writeFile(path, "{not json"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(context.Background()); err == nil {
		t.Error("Load() error = nil, want parse error")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	tests := []struct {
		backend string
		wantErr bool
		check   func(SnapshotStore) bool
	}{
		{"", false, func(s SnapshotStore) bool { _, ok := s.(*FileSnapshotStore); return ok }},
		{BackendFile, false, func(s SnapshotStore) bool { _, ok := s.(*FileSnapshotStore); return ok }},
		{BackendSQLite, false, func(s SnapshotStore) bool { _, ok := s.(*SQLiteSnapshotStore); return ok }},
		{BackendMemory, false, func(s SnapshotStore) bool { _, ok := s.(*InMemorySnapshotStore); return ok }},
		{"cassandra", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			s, err := Open(ctx, Options{Backend: tt.backend, DataDir: dir})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open(%q) error = %v, wantErr %v", tt.backend, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer s.Close()
			if !tt.check(s) {
				t.Errorf("Open(%q) returned %T", tt.backend, s)
			}
		})
	}
}

func TestDefaultSnapshotPath(t *testing.T) {
	if got := DefaultSnapshotPath(""); got != filepath.Join("data", "portal_evolution", "evolution_data.json") {
		t.Errorf("DefaultSnapshotPath(\"\") = %q", got)
	}
	if got := DefaultSnapshotPath("/tmp/x"); got != filepath.Join("/tmp/x", "evolution_data.json") {
		t.Errorf("DefaultSnapshotPath(/tmp/x) = %q", got)
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}
