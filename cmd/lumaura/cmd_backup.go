package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/backup"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/pathutil"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up the persisted portal state",
		Long: `Write the saved snapshot to a backup file in the backup directory.

Default location: <data_dir>/backups/lumaura-backup-YYYYMMDD-HHMMSS.json.gz
Old backups are pruned per backup.max_count, max_age and max_total_size.

Examples:
  lumaura backup                              # V2 compressed backup
  lumaura backup --output nightly.json.gz     # Named file in the backup dir
  lumaura backup --no-compress                # V1 plain JSON
  lumaura backup list                         # List backups
  lumaura backup verify <file>                # Check integrity
  lumaura backup restore <file> --mode merge  # Restore into the store`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputPath, _ := cmd.Flags().GetString("output")
			noCompress, _ := cmd.Flags().GetBool("no-compress")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			compress := cfg.Backup.Compress && !noCompress
			dir := cfg.BackupDir()

			if outputPath == "" {
				outputPath = backup.GenerateBackupPath(dir, time.Now(), compress)
			} else {
				outputPath, err = pathutil.ResolveBackupFile(outputPath, dir)
				if err != nil {
					return fmt.Errorf("backup path rejected: %w", err)
				}
			}

			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			src, err := backup.FromStore(ctx, st)
			if err != nil {
				return err
			}
			p, err := backup.Backup(ctx, src, outputPath, compress)
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}

			policy, err := retentionPolicy(cfg)
			if err != nil {
				return err
			}
			deleted, err := backup.ApplyRetention(filepath.Dir(outputPath), policy)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to apply retention: %v\n", err)
			}

			if jsonOutput(cmd) {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"path":         outputPath,
					"version":      p.Version,
					"portal_count": len(p.Snapshot.Portals),
					"pruned":       len(deleted),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup created: %d portals -> %s\n", len(p.Snapshot.Portals), outputPath)
			if len(deleted) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d old backup(s)\n", len(deleted))
			}
			return nil
		},
	}

	cmd.Flags().String("output", "", "Backup file name or path inside the backup directory")
	cmd.Flags().Bool("no-compress", false, "Write a V1 uncompressed backup")

	cmd.AddCommand(
		newBackupListCmd(),
		newBackupVerifyCmd(),
		newBackupRestoreCmd(),
	)
	return cmd
}

func newBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups with metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dir := cfg.BackupDir()

			backups, err := backup.ListBackups(dir)
			if err != nil {
				return fmt.Errorf("failed to list backups: %w", err)
			}

			type entry struct {
				backup.BackupInfo
				PortalCount         int    `json:"portal_count,omitempty"`
				RecommendationCount int    `json:"recommendation_count,omitempty"`
				Checksum            string `json:"checksum,omitempty"`
			}
			entries := make([]entry, 0, len(backups))
			for _, b := range backups {
				e := entry{BackupInfo: b}
				if b.Version == backup.FormatV2 {
					if h, err := backup.ReadHeader(b.Path); err == nil {
						e.PortalCount = h.PortalCount
						e.RecommendationCount = h.RecommendationCount
						e.Checksum = h.Checksum
					}
				}
				entries = append(entries, e)
			}

			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"backups":     entries,
					"total_count": len(entries),
					"directory":   dir,
				})
			}

			if len(entries) == 0 {
				fmt.Fprintf(out, "No backups found in %s\n", dir)
				return nil
			}
			fmt.Fprintf(out, "Backups in %s:\n", dir)
			var totalSize int64
			for _, e := range entries {
				totalSize += e.Size
				line := fmt.Sprintf("  %s  v%d  %s  %s", filepath.Base(e.Path), e.Version,
					e.CreatedAt.Format("2006-01-02 15:04:05"), formatBytes(e.Size))
				if e.Version == backup.FormatV2 {
					line += fmt.Sprintf("  %d portals", e.PortalCount)
				}
				fmt.Fprintln(out, line)
			}
			fmt.Fprintf(out, "\n%d backup(s), %s total\n", len(entries), formatBytes(totalSize))
			return nil
		},
	}
}

func newBackupVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Verify a backup's integrity",
		Long: `Check a backup file. V2 backups have their payload checksum verified;
V1 backups are decoded in full.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			path, err := pathutil.ResolveBackupFile(args[0], cfg.BackupDir())
			if err != nil {
				return fmt.Errorf("backup path rejected: %w", err)
			}

			version, err := backup.DetectFormat(path)
			if err != nil {
				return err
			}
			if version == backup.FormatV2 {
				err = backup.VerifyChecksum(path)
			} else {
				_, err = backup.Read(path)
			}

			if jsonOutput(cmd) {
				result := map[string]interface{}{"path": path, "version": version, "valid": err == nil}
				if err != nil {
					result["error"] = err.Error()
				}
				if encErr := json.NewEncoder(cmd.OutOrStdout()).Encode(result); encErr != nil {
					return encErr
				}
				return err
			}
			if err != nil {
				return fmt.Errorf("verification failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %s (v%d)\n", filepath.Base(path), version)
			return nil
		},
	}
}

func newBackupRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore portal scores from a backup",
		Long: `Write a backup's portal scores into the configured store.

merge (default) keeps portals already in the store; replace overwrites the
stored snapshot. Stop a running service first, or its next save will
overwrite the restored scores.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modeFlag, _ := cmd.Flags().GetString("mode")
			mode, err := backup.ParseRestoreMode(modeFlag)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			path, err := pathutil.ResolveBackupFile(args[0], cfg.BackupDir())
			if err != nil {
				return fmt.Errorf("restore path rejected: %w", err)
			}

			ctx := cmd.Context()
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			result, err := backup.Restore(ctx, st, path, mode)
			if err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}

			if jsonOutput(cmd) {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restore complete (%s): %d portals restored, %d skipped\n",
				mode, result.PortalsRestored, result.PortalsSkipped)
			return nil
		},
	}

	cmd.Flags().String("mode", string(backup.RestoreMerge), "Restore mode: merge or replace")
	return cmd
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
