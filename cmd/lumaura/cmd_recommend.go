package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/evolution"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/models"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/sanitize"
)

func newRecommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Create and implement a recommendation against the stored state",
		Long: `Apply one recommendation from a source portal to a target portal and
save the boosted score. The recommendation ledger lives in the running
service, so this command creates and implements in a single step.

Examples:
  lumaura recommend --source xuvecode --target xuvebanker --type "System Upgrade"
  lumaura recommend --source xuvemark --target xuvecast --type "Collaboration Opportunity" --details "co-host a launch"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, _ := cmd.Flags().GetString("source")
			target, _ := cmd.Flags().GetString("target")
			typ, _ := cmd.Flags().GetString("type")
			details, _ := cmd.Flags().GetString("details")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			ctx := cmd.Context()

			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			eng := newEngine(cfg, st, logger, nil)
			defer eng.shutdown(cfg.Server.ShutdownTimeout)

			if err := eng.Initialize(ctx); err != nil {
				return fmt.Errorf("failed to initialize evolution: %w", err)
			}

			source = sanitize.PortalName(source)
			target = sanitize.PortalName(target)
			if err := evolution.ValidateRecommendation(source, target, typ, eng.HasPortal); err != nil {
				return err
			}

			rec, err := eng.CreateRecommendation(ctx, source, target,
				models.RecommendationType(strings.TrimSpace(typ)), sanitize.Details(details))
			if err != nil {
				return err
			}
			result, err := eng.ImplementRecommendation(ctx, rec.ID)
			if err != nil {
				return err
			}

			if jsonOutput(cmd) {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"recommendation": rec,
					"result":         result,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s: +%.2f, %s is now %s\n",
				source, target, result.Boost, result.Portal, result.NewStage)
			return nil
		},
	}

	cmd.Flags().String("source", "", "Portal making the recommendation (required)")
	cmd.Flags().String("target", "", "Portal receiving the boost (required)")
	cmd.Flags().String("type", string(models.RecommendationOptimizationStrategy), "Recommendation type")
	cmd.Flags().String("details", "", "Free-form details")
	cmd.MarkFlagRequired("source")
	cmd.MarkFlagRequired("target")
	return cmd
}
