package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// BackupInfo describes one backup file for listing and retention.
type BackupInfo struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
	Version   int       `json:"version"`
}

// RetentionPolicy decides which backups to keep. Input is newest-first.
type RetentionPolicy interface {
	Apply(backups []BackupInfo) (keep []BackupInfo)
}

// CountPolicy keeps the MaxCount most recent backups.
type CountPolicy struct {
	MaxCount int
}

// Apply keeps the first MaxCount backups.
func (p *CountPolicy) Apply(backups []BackupInfo) []BackupInfo {
	if len(backups) <= p.MaxCount {
		return backups
	}
	return backups[:p.MaxCount]
}

// AgePolicy keeps backups newer than MaxAge.
type AgePolicy struct {
	MaxAge time.Duration
	Now    func() time.Time // nil means time.Now
}

// Apply keeps backups created within MaxAge.
func (p *AgePolicy) Apply(backups []BackupInfo) []BackupInfo {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	cutoff := now().Add(-p.MaxAge)

	var keep []BackupInfo
	for _, b := range backups {
		if b.CreatedAt.After(cutoff) {
			keep = append(keep, b)
		}
	}
	return keep
}

// SizePolicy keeps backups until their total size would exceed MaxTotalBytes.
// The newest backup is always kept.
type SizePolicy struct {
	MaxTotalBytes int64
}

// Apply keeps newest-first backups within the byte budget.
func (p *SizePolicy) Apply(backups []BackupInfo) []BackupInfo {
	var keep []BackupInfo
	var total int64
	for _, b := range backups {
		if total+b.Size > p.MaxTotalBytes && len(keep) > 0 {
			break
		}
		keep = append(keep, b)
		total += b.Size
	}
	return keep
}

// CompositePolicy keeps a backup if any sub-policy keeps it.
type CompositePolicy struct {
	Policies []RetentionPolicy
}

// Apply returns the union of every sub-policy's result, in input order.
func (p *CompositePolicy) Apply(backups []BackupInfo) []BackupInfo {
	kept := make(map[string]bool)
	for _, policy := range p.Policies {
		for _, b := range policy.Apply(backups) {
			kept[b.Path] = true
		}
	}

	var result []BackupInfo
	for _, b := range backups {
		if kept[b.Path] {
			result = append(result, b)
		}
	}
	return result
}

// NewPolicy builds a policy from backup settings. Zero or empty settings
// are skipped; with none set every backup is kept.
func NewPolicy(maxCount int, maxAge, maxTotalSize string) (RetentionPolicy, error) {
	var policies []RetentionPolicy
	if maxCount > 0 {
		policies = append(policies, &CountPolicy{MaxCount: maxCount})
	}
	if maxAge != "" {
		d, err := ParseDuration(maxAge)
		if err != nil {
			return nil, fmt.Errorf("backup max_age: %w", err)
		}
		policies = append(policies, &AgePolicy{MaxAge: d})
	}
	if maxTotalSize != "" {
		n, err := ParseSize(maxTotalSize)
		if err != nil {
			return nil, fmt.Errorf("backup max_total_size: %w", err)
		}
		policies = append(policies, &SizePolicy{MaxTotalBytes: n})
	}

	switch len(policies) {
	case 0:
		return nil, nil
	case 1:
		return policies[0], nil
	default:
		return &CompositePolicy{Policies: policies}, nil
	}
}

func isBackupFile(name string) bool {
	return strings.HasPrefix(name, FilePrefix) &&
		(strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".json.gz"))
}

// createdFromName parses the timestamp embedded in a backup file name.
func createdFromName(name string) (time.Time, bool) {
	stamp := strings.TrimPrefix(name, FilePrefix)
	if len(stamp) < len("20060102-150405") {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("20060102-150405", stamp[:len("20060102-150405")], time.Local)
	return t, err == nil
}

// ListBackups returns the backups in dir, newest first. A missing directory
// yields no backups.
func ListBackups(dir string) ([]BackupInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var backups []BackupInfo
	for _, e := range entries {
		if e.IsDir() || !isBackupFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}

		bi := BackupInfo{
			Path:      filepath.Join(dir, e.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		}
		if t, ok := createdFromName(e.Name()); ok {
			bi.CreatedAt = t
		}
		if v, err := DetectFormat(bi.Path); err == nil {
			bi.Version = v
		}
		backups = append(backups, bi)
	}

	sort.Slice(backups, func(i, j int) bool {
		return filepath.Base(backups[i].Path) > filepath.Base(backups[j].Path)
	})
	return backups, nil
}

// ApplyRetention deletes the backups in dir that policy does not keep.
// A nil policy keeps everything.
func ApplyRetention(dir string, policy RetentionPolicy) (deleted []string, err error) {
	if policy == nil {
		return nil, nil
	}
	backups, err := ListBackups(dir)
	if err != nil {
		return nil, err
	}

	keepSet := make(map[string]bool, len(backups))
	for _, b := range policy.Apply(backups) {
		keepSet[b.Path] = true
	}

	for _, b := range backups {
		if keepSet[b.Path] {
			continue
		}
		if err := os.Remove(b.Path); err != nil {
			return deleted, fmt.Errorf("removing %s: %w", filepath.Base(b.Path), err)
		}
		deleted = append(deleted, b.Path)
	}
	return deleted, nil
}

// ParseDuration parses "30d", "2w" and anything time.ParseDuration accepts.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration string")
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	num, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || num < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}
	switch s[len(s)-1] {
	case 'd':
		return time.Duration(num) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(num) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown duration suffix %q in %q", s[len(s)-1:], s)
	}
}

// ParseSize parses "500KB", "100MB", "1GB" or a byte count with a "B" suffix.
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	units := []struct {
		suffix     string
		multiplier int64
	}{
		{"GB", 1 << 30},
		{"MB", 1 << 20},
		{"KB", 1 << 10},
		{"B", 1},
	}
	for _, u := range units {
		if !strings.HasSuffix(s, u.suffix) {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(strings.TrimSuffix(s, u.suffix)), 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid size: %q", s)
		}
		return n * u.multiplier, nil
	}
	return 0, fmt.Errorf("invalid size: %q (expected suffix: B, KB, MB, GB)", s)
}
