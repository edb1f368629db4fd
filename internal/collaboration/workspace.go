// Package collaboration stores shared workspaces as one JSON file each.
package collaboration

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/store"
)

var (
	// ErrWorkspaceNotFound is returned for unknown or malformed workspace ids.
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// ErrMissingName is returned when a workspace is created without a name.
	ErrMissingName = errors.New("missing workspace name")

	// ErrMissingResourceField is returned when a resource lacks a name or type.
	ErrMissingResourceField = errors.New("missing resource name or type")
)

// Workspace is a named group of members and shared resources.
type Workspace struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Members   []string   `json:"members"`
	Resources []Resource `json:"resources"`
}

// Resource is a link or document attached to a workspace.
type Resource struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Update holds the fields to change on a workspace. Nil fields are kept.
type Update struct {
	Name    *string   `json:"name"`
	Members *[]string `json:"members"`
}

// UnmarshalJSON accepts RFC 3339 and naive ISO-8601 timestamps.
func (w *Workspace) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        string     `json:"id"`
		Name      string     `json:"name"`
		CreatedAt string     `json:"created_at"`
		UpdatedAt string     `json:"updated_at"`
		Members   []string   `json:"members"`
		Resources []Resource `json:"resources"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	created, err := store.ParseTimestamp(raw.CreatedAt)
	if err != nil {
		return fmt.Errorf("parsing created_at: %w", err)
	}
	updated, err := store.ParseTimestamp(raw.UpdatedAt)
	if err != nil {
		return fmt.Errorf("parsing updated_at: %w", err)
	}

	*w = Workspace{
		ID:        raw.ID,
		Name:      raw.Name,
		CreatedAt: created,
		UpdatedAt: updated,
		Members:   raw.Members,
		Resources: raw.Resources,
	}
	w.normalize()
	return nil
}

// UnmarshalJSON accepts RFC 3339 and naive ISO-8601 timestamps.
func (r *Resource) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        string  `json:"id"`
		Name      string  `json:"name"`
		Type      string  `json:"type"`
		URL       *string `json:"url"`
		CreatedAt string  `json:"created_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	created, err := store.ParseTimestamp(raw.CreatedAt)
	if err != nil {
		return fmt.Errorf("parsing created_at: %w", err)
	}

	*r = Resource{ID: raw.ID, Name: raw.Name, Type: raw.Type, CreatedAt: created}
	if raw.URL != nil {
		r.URL = *raw.URL
	}
	return nil
}

// normalize replaces nil slices so they encode as [].
func (w *Workspace) normalize() {
	if w.Members == nil {
		w.Members = []string{}
	}
	if w.Resources == nil {
		w.Resources = []Resource{}
	}
}

func (w Workspace) clone() Workspace {
	out := w
	out.Members = append([]string{}, w.Members...)
	out.Resources = append([]Resource{}, w.Resources...)
	return out
}
