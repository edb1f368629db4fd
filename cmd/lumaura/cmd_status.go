package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/evolution"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/logging"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/models"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/sanitize"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/tiering"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [portal]",
		Short: "Show persisted portal scores and tiers",
		Long: `Read the last saved snapshot and show each portal's score, tier and
capabilities. Portals missing from the snapshot show at score 0.

Examples:
  lumaura status
  lumaura status xuvebanker
  lumaura status --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			snap, err := st.Load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load snapshot: %w", err)
			}

			// A store-less coordinator projects the snapshot without writing back.
			c := evolution.New(nil,
				evolution.WithLogger(logging.Discard()),
				evolution.WithResolver(tiering.NewResolver(cfg.Evolution.Tiers)))
			if err := c.Initialize(ctx); err != nil {
				return err
			}
			defer c.Stop(ctx)
			if err := c.Restore(ctx, snap, nil); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				status, err := c.PortalStatus(sanitize.PortalName(args[0]))
				if err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return json.NewEncoder(out).Encode(status)
				}
				printPortal(out, status)
				return nil
			}

			statuses := c.AllStatuses()
			if jsonOutput(cmd) {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"portals": statuses,
					"count":   len(statuses),
				})
			}
			printStatusTable(out, c.PortalNames(), statuses)
			return nil
		},
	}
}

func printStatusTable(w io.Writer, order []string, statuses map[string]models.PortalStatus) {
	counts := make(map[models.Tier]int)
	fmt.Fprintf(w, "%-18s %-9s %7s\n", "PORTAL", "TIER", "SCORE")
	for _, name := range order {
		s := statuses[name]
		counts[s.Tier]++
		fmt.Fprintf(w, "%-18s %-9s %7.2f\n", s.DisplayName, s.Tier, s.Score)
	}
	fmt.Fprintf(w, "\n%d portals: %d Basic, %d Advanced, %d Mastery\n",
		len(order), counts[models.TierBasic], counts[models.TierAdvanced], counts[models.TierMastery])
}

func printPortal(w io.Writer, s models.PortalStatus) {
	fmt.Fprintf(w, "%s (%s)\n", s.DisplayName, s.Name)
	fmt.Fprintf(w, "  Tier:  %s\n", s.Tier)
	fmt.Fprintf(w, "  Score: %.2f\n", s.Score)

	caps := make([]string, 0, len(s.Capabilities))
	for c, on := range s.Capabilities {
		if on {
			caps = append(caps, string(c))
		}
	}
	sort.Strings(caps)
	fmt.Fprintf(w, "  Capabilities: %s\n", strings.Join(caps, ", "))
}
