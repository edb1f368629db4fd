// Package store defines the SnapshotStore interface for persisting portal
// evolution state, along with file, SQLite, Redis and in-memory backends.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/models"
)

// PortalSnapshot is the persisted state of a single portal.
type PortalSnapshot struct {
	Score       float64     `json:"evolution_score"`
	Tier        models.Tier `json:"evolution_stage"`
	LastUpdated time.Time   `json:"last_updated"`
}

// Snapshot is the full persisted document: every portal's score and tier,
// written wholesale.
type Snapshot struct {
	Portals   map[string]PortalSnapshot `json:"portals"`
	LastSaved time.Time                 `json:"last_saved"`
}

// NewSnapshot returns an empty snapshot stamped with savedAt.
func NewSnapshot(savedAt time.Time) *Snapshot {
	return &Snapshot{
		Portals:   make(map[string]PortalSnapshot),
		LastSaved: savedAt,
	}
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := &Snapshot{
		Portals:   make(map[string]PortalSnapshot, len(s.Portals)),
		LastSaved: s.LastSaved,
	}
	for name, p := range s.Portals {
		out.Portals[name] = p
	}
	return out
}

// SnapshotStore persists and restores snapshots.
type SnapshotStore interface {
	// Load returns the most recently saved snapshot, or (nil, nil) if
	// nothing has been saved yet.
	Load(ctx context.Context) (*Snapshot, error)

	// Save replaces the persisted snapshot with snap.
	Save(ctx context.Context, snap *Snapshot) error

	// Close releases any resources held by the store.
	Close() error
}

// timestampLayouts are accepted when reading persisted timestamps. The naive
// ISO-8601 forms match documents written by earlier versions of the service.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses RFC 3339 or naive ISO-8601. An empty string is the
// zero time.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// UnmarshalJSON accepts RFC 3339 and naive ISO-8601 timestamps.
func (p *PortalSnapshot) UnmarshalJSON(data []byte) error {
	var raw struct {
		Score       float64 `json:"evolution_score"`
		Tier        string  `json:"evolution_stage"`
		LastUpdated string  `json:"last_updated"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	ts, err := ParseTimestamp(raw.LastUpdated)
	if err != nil {
		return fmt.Errorf("parsing last_updated: %w", err)
	}

	p.Score = raw.Score
	p.Tier = models.Tier(raw.Tier)
	p.LastUpdated = ts
	return nil
}

// UnmarshalJSON accepts RFC 3339 and naive ISO-8601 timestamps.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw struct {
		Portals   map[string]PortalSnapshot `json:"portals"`
		LastSaved string                    `json:"last_saved"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	ts, err := ParseTimestamp(raw.LastSaved)
	if err != nil {
		return fmt.Errorf("parsing last_saved: %w", err)
	}

	s.Portals = raw.Portals
	if s.Portals == nil {
		s.Portals = make(map[string]PortalSnapshot)
	}
	s.LastSaved = ts
	return nil
}
