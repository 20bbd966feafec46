package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vpenkov/perfidia/internal/pipeline"
)

var (
	scoreFeaturesPath string
	scoreClaimsPath   string
	scoreOutput       string
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Aggregate features and claims into per-group credibility scores",
	Long: `Score aggregates the chat-feature table and claim records per group,
joins both sides, and writes one score row per group.

Sub-scores (each 0..1, absent when no signal exists):
  R  reliability: sample offers and key delivery
  T  threat follow-through: publication, leak threats, deadline honesty
  I  integrity: absence of violations, re-extortion, and resale admissions

ACI is the weighted mean of R, T, and I scaled to 0..10. Absent
sub-scores drop out of the mean instead of counting as zero.

Either input may be absent; groups missing a side keep empty cells.

Example:
  perfidia score
  perfidia score --features data/chat_features.csv --claims data/claims.jsonl
  perfidia score --output data/scores.csv`,
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringVar(&scoreFeaturesPath, "features", "", "chat-feature CSV path (default: <data-dir>/chat_features.csv)")
	scoreCmd.Flags().StringVar(&scoreClaimsPath, "claims", "", "claims JSONL path (default: <data-dir>/claims.jsonl)")
	scoreCmd.Flags().StringVar(&scoreOutput, "output", "", "score CSV path (default: <data-dir>/scores.csv)")
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	// Explicit paths must exist; defaults are taken only when present so a
	// half-collected data dir still scores one-sided.
	featuresPath := scoreFeaturesPath
	if featuresPath == "" {
		featuresPath = optionalInput(filepath.Join(cfg.DataDir, "chat_features.csv"), cfg.Output.Verbose)
	}
	claimsPath := scoreClaimsPath
	if claimsPath == "" {
		claimsPath = optionalInput(filepath.Join(cfg.DataDir, "claims.jsonl"), cfg.Output.Verbose)
	}
	if featuresPath == "" && claimsPath == "" {
		return fmt.Errorf("nothing to score: no feature table or claims found under %s", cfg.DataDir)
	}

	output := scoreOutput
	if output == "" {
		output = filepath.Join(cfg.DataDir, "scores.csv")
	}

	p := pipeline.NewPipeline(cfg)
	if err := p.ScoreGroups(featuresPath, claimsPath, output); err != nil {
		return err
	}

	fmt.Printf("scores: wrote %s\n", output)
	return nil
}

// optionalInput returns the path when the file exists, otherwise empty
func optionalInput(path string, verbose bool) string {
	if _, err := os.Stat(path); err != nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "skipping %s: not found\n", path)
		}
		return ""
	}
	return path
}
