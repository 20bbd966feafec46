package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vpenkov/perfidia/internal/pipeline"
)

var (
	featuresInput     string
	featuresOutput    string
	featuresProvider  string
	featuresModel     string
	featuresThreshold float64
	featuresTaxonomy  string
)

// featuresCmd represents the features command
var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Extract per-chat credibility features from negotiation transcripts",
	Long: `Features runs semantic classification over every attacker message in
the exported chats and writes one feature row per chat.

Each message is split into sentences; each sentence is embedded and
compared against labeled exemplar phrases. A chat's counters record how
many attacker messages matched each behavior label at least once.

Requires a reachable embedding backend (default: ollama with
nomic-embed-text; OpenAI needs OPENAI_API_KEY).

Example:
  perfidia features
  perfidia features --input data/chats.jsonl --output data/chat_features.csv
  perfidia features --provider openai --model text-embedding-3-small
  perfidia features --threshold 0.65`,
	RunE: runFeatures,
}

func init() {
	rootCmd.AddCommand(featuresCmd)

	featuresCmd.Flags().StringVar(&featuresInput, "input", "", "chats JSONL path (default: <data-dir>/chats.jsonl)")
	featuresCmd.Flags().StringVar(&featuresOutput, "output", "", "feature CSV path (default: <data-dir>/chat_features.csv)")
	featuresCmd.Flags().StringVar(&featuresProvider, "provider", "", "embedding provider (openai, ollama)")
	featuresCmd.Flags().StringVar(&featuresModel, "model", "", "embedding model name")
	featuresCmd.Flags().Float64Var(&featuresThreshold, "threshold", 0, "cosine similarity threshold (0 = config default)")
	featuresCmd.Flags().StringVar(&featuresTaxonomy, "taxonomy", "", "taxonomy YAML path (default: builtin)")
}

func runFeatures(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if featuresProvider != "" {
		cfg.Embedding.Provider = featuresProvider
	}
	if featuresModel != "" {
		cfg.Embedding.Model = featuresModel
	}
	if featuresThreshold > 0 {
		cfg.Classifier.Threshold = featuresThreshold
	}
	if featuresTaxonomy != "" {
		cfg.Classifier.TaxonomyPath = featuresTaxonomy
	}

	input := featuresInput
	if input == "" {
		input = filepath.Join(cfg.DataDir, "chats.jsonl")
	}
	output := featuresOutput
	if output == "" {
		output = filepath.Join(cfg.DataDir, "chat_features.csv")
	}

	p := pipeline.NewPipeline(cfg)
	if err := p.BuildFeatures(context.Background(), input, output); err != nil {
		return err
	}

	fmt.Printf("features: wrote %s\n", output)
	return nil
}
