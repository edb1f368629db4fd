package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCountPolicy_KeepsN(t *testing.T) {
	now := time.Now()
	backups := []BackupInfo{
		{Path: "/b/lumaura-backup-5.json.gz", CreatedAt: now, Size: 100},
		{Path: "/b/lumaura-backup-4.json.gz", CreatedAt: now.Add(-1 * time.Hour), Size: 100},
		{Path: "/b/lumaura-backup-3.json.gz", CreatedAt: now.Add(-2 * time.Hour), Size: 100},
		{Path: "/b/lumaura-backup-2.json.gz", CreatedAt: now.Add(-3 * time.Hour), Size: 100},
		{Path: "/b/lumaura-backup-1.json.gz", CreatedAt: now.Add(-4 * time.Hour), Size: 100},
	}

	policy := &CountPolicy{MaxCount: 3}
	keep := policy.Apply(backups)

	if len(keep) != 3 {
		t.Errorf("CountPolicy.Apply() kept %d, want 3", len(keep))
	}
	// Should keep the 3 newest
	if keep[0].Path != "/b/lumaura-backup-5.json.gz" {
		t.Errorf("first kept = %s, want backup-5", keep[0].Path)
	}
	if keep[2].Path != "/b/lumaura-backup-3.json.gz" {
		t.Errorf("last kept = %s, want backup-3", keep[2].Path)
	}
}

func TestCountPolicy_FewerThanN(t *testing.T) {
	backups := []BackupInfo{
		{Path: "/b/a.json.gz", CreatedAt: time.Now(), Size: 100},
	}
	policy := &CountPolicy{MaxCount: 5}
	keep := policy.Apply(backups)
	if len(keep) != 1 {
		t.Errorf("CountPolicy.Apply() kept %d, want 1", len(keep))
	}
}

func TestAgePolicy_RemovesOld(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	backups := []BackupInfo{
		{Path: "/b/new.json.gz", CreatedAt: now.Add(-1 * time.Hour), Size: 100},
		{Path: "/b/recent.json.gz", CreatedAt: now.Add(-12 * time.Hour), Size: 100},
		{Path: "/b/old.json.gz", CreatedAt: now.Add(-48 * time.Hour), Size: 100},
		{Path: "/b/ancient.json.gz", CreatedAt: now.Add(-720 * time.Hour), Size: 100},
	}

	policy := &AgePolicy{MaxAge: 24 * time.Hour, Now: func() time.Time { return now }}
	keep := policy.Apply(backups)

	if len(keep) != 2 {
		t.Errorf("AgePolicy.Apply() kept %d, want 2", len(keep))
	}
}

func TestSizePolicy_FitsUnderLimit(t *testing.T) {
	now := time.Now()
	backups := []BackupInfo{
		{Path: "/b/1.json.gz", CreatedAt: now, Size: 500},
		{Path: "/b/2.json.gz", CreatedAt: now.Add(-1 * time.Hour), Size: 500},
		{Path: "/b/3.json.gz", CreatedAt: now.Add(-2 * time.Hour), Size: 500},
		{Path: "/b/4.json.gz", CreatedAt: now.Add(-3 * time.Hour), Size: 500},
	}

	policy := &SizePolicy{MaxTotalBytes: 1200}
	keep := policy.Apply(backups)

	if len(keep) != 2 {
		t.Errorf("SizePolicy.Apply() kept %d, want 2", len(keep))
	}
	// Should keep newest first
	if keep[0].Path != "/b/1.json.gz" {
		t.Errorf("first kept = %s, want 1.json.gz", keep[0].Path)
	}
}

func TestCompositePolicy_UnionKeep(t *testing.T) {
	now := time.Now()
	backups := []BackupInfo{
		{Path: "/b/1.json.gz", CreatedAt: now, Size: 100},
		{Path: "/b/2.json.gz", CreatedAt: now.Add(-1 * time.Hour), Size: 100},
		{Path: "/b/3.json.gz", CreatedAt: now.Add(-48 * time.Hour), Size: 100}, // old but within count
		{Path: "/b/4.json.gz", CreatedAt: now.Add(-72 * time.Hour), Size: 100}, // old and over count
	}

	// CountPolicy keeps 3, AgePolicy keeps 2 (24h)
	// Union: 1, 2, 3 (count) + 1, 2 (age) = 1, 2, 3
	composite := &CompositePolicy{
		Policies: []RetentionPolicy{
			&CountPolicy{MaxCount: 3},
			&AgePolicy{MaxAge: 24 * time.Hour},
		},
	}
	keep := composite.Apply(backups)

	if len(keep) != 3 {
		t.Errorf("CompositePolicy.Apply() kept %d, want 3", len(keep))
	}
}

func TestListBackups(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"lumaura-backup-20240201-120000.json":    "{\n  \"version\": 1\n}\n",
		"lumaura-backup-20240202-120000.json.gz": `{"version":2}` + "\n",
		"lumaura-backup-20240203-120000.json":    "{\n  \"version\": 1\n}\n",
		"not-a-backup.txt":                       "ignore this",
		"lumaura-backup-notes.md":                "ignore this too",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
	}

	backups, err := ListBackups(dir)
	if err != nil {
		t.Fatalf("ListBackups() error = %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("ListBackups() found %d, want 3", len(backups))
	}

	if got := filepath.Base(backups[0].Path); got != "lumaura-backup-20240203-120000.json" {
		t.Errorf("first backup = %s, want the 20240203 backup", got)
	}
	want := time.Date(2024, 2, 3, 12, 0, 0, 0, time.Local)
	if !backups[0].CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v from the file name", backups[0].CreatedAt, want)
	}
	if backups[0].Version != FormatV1 || backups[1].Version != FormatV2 {
		t.Errorf("versions = %d,%d, want 1,2", backups[0].Version, backups[1].Version)
	}
}

func TestListBackups_MissingDir(t *testing.T) {
	backups, err := ListBackups(filepath.Join(t.TempDir(), "absent"))
	if err != nil || backups != nil {
		t.Errorf("ListBackups(missing) = %v, %v; want nil, nil", backups, err)
	}
}

func TestApplyRetention_DeletesCorrectFiles(t *testing.T) {
	dir := t.TempDir()

	for i := 1; i <= 5; i++ {
		name := filepath.Join(dir, fmt.Sprintf("lumaura-backup-2024020%d-120000.json.gz", i))
		if err := os.WriteFile(name, []byte("data"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := ApplyRetention(dir, &CountPolicy{MaxCount: 2})
	if err != nil {
		t.Fatalf("ApplyRetention() error = %v", err)
	}
	if len(deleted) != 3 {
		t.Errorf("deleted %d files, want 3", len(deleted))
	}

	remaining, _ := ListBackups(dir)
	if len(remaining) != 2 {
		t.Fatalf("remaining = %d, want 2", len(remaining))
	}
	if got := filepath.Base(remaining[1].Path); got != "lumaura-backup-20240204-120000.json.gz" {
		t.Errorf("oldest kept = %s, want 20240204", got)
	}
}

func TestApplyRetention_NilPolicy(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "lumaura-backup-20240101-000000.json"), []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}
	deleted, err := ApplyRetention(dir, nil)
	if err != nil || len(deleted) != 0 {
		t.Errorf("ApplyRetention(nil) = %v, %v; want nothing deleted", deleted, err)
	}
}

func TestNewPolicy(t *testing.T) {
	tests := []struct {
		name     string
		maxCount int
		maxAge   string
		maxSize  string
		wantNil  bool
		wantType string
		wantErr  bool
	}{
		{"nothing set", 0, "", "", true, "", false},
		{"count only", 5, "", "", false, "*backup.CountPolicy", false},
		{"age only", 0, "30d", "", false, "*backup.AgePolicy", false},
		{"size only", 0, "", "10MB", false, "*backup.SizePolicy", false},
		{"combined", 5, "2w", "", false, "*backup.CompositePolicy", false},
		{"bad age", 0, "soon", "", false, "", true},
		{"bad size", 0, "", "lots", false, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewPolicy(tt.maxCount, tt.maxAge, tt.maxSize)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewPolicy() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if (got == nil) != tt.wantNil {
				t.Fatalf("NewPolicy() = %v, wantNil %v", got, tt.wantNil)
			}
			if got != nil && fmt.Sprintf("%T", got) != tt.wantType {
				t.Errorf("NewPolicy() type = %T, want %s", got, tt.wantType)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"30d", 30 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"720h", 720 * time.Hour, false},
		{"1d", 24 * time.Hour, false},
		{"", 0, true},
		{"abc", 0, true},
		{"0d", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDuration(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"100MB", 100 * 1024 * 1024, false},
		{"1GB", 1024 * 1024 * 1024, false},
		{"500KB", 500 * 1024, false},
		{"1024B", 1024, false},
		{"", 0, true},
		{"abc", 0, true},
		{"0MB", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseSize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}
