package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vpenkov/perfidia/internal/pipeline"
	"github.com/vpenkov/perfidia/internal/semantic"
)

var classifyThreshold float64

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify <text>",
	Short: "Classify a message against the behavior taxonomy",
	Long: `Classify splits the given text into sentences, embeds each one, and
prints every behavior label with its best exemplar similarity, marking
the ones that clear the threshold. Useful for tuning the taxonomy and
threshold before a full feature run.

Example:
  perfidia classify "Pay and we will send the decryption key."
  perfidia classify --threshold 0.5 "Your data will be published tomorrow."`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().Float64Var(&classifyThreshold, "threshold", 0, "cosine similarity threshold (0 = config default)")
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if classifyThreshold > 0 {
		cfg.Classifier.Threshold = classifyThreshold
	}

	ctx := context.Background()
	classifier, err := pipeline.BuildClassifier(ctx, cfg)
	if err != nil {
		return err
	}

	text := strings.Join(args, " ")
	sentences := semantic.SplitSentences(text)
	if len(sentences) == 0 {
		return fmt.Errorf("no sentences in input")
	}

	for _, sentence := range sentences {
		scores, err := classifier.Scores(ctx, sentence)
		if err != nil {
			return fmt.Errorf("classify: %w", err)
		}

		fmt.Printf("%q\n", sentence)
		for _, label := range classifier.Labels() {
			marker := ""
			if scores[label] >= classifier.Threshold() {
				marker = "  hit"
			}
			fmt.Printf("  %-28s %.3f%s\n", label, scores[label], marker)
		}
	}
	return nil
}
