package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vpenkov/perfidia/internal/aggregate"
	"github.com/vpenkov/perfidia/internal/cache"
	"github.com/vpenkov/perfidia/internal/embed"
	"github.com/vpenkov/perfidia/internal/features"
	"github.com/vpenkov/perfidia/internal/model"
	"github.com/vpenkov/perfidia/internal/score"
	"github.com/vpenkov/perfidia/internal/semantic"
)

// Exemplar and sentence vectors are stable for a given provider and model,
// so the disk layer can hold them for a long time.
const (
	embedCacheMemoryTTL = 30 * time.Minute
	embedCacheDiskTTL   = 30 * 24 * time.Hour
)

// Pipeline orchestrates the feature extraction and scoring stages
type Pipeline struct {
	scorer *score.Scorer
	config *model.Config
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config) *Pipeline {
	return &Pipeline{
		scorer: score.NewScorer(),
		config: cfg,
	}
}

// BuildFeatures reads negotiation chats from JSONL, runs semantic feature
// extraction over every attacker message, and writes the chat-feature table
// as CSV
func (p *Pipeline) BuildFeatures(ctx context.Context, inputPath, outputPath string) error {
	// 1. Load negotiation transcripts
	chats, err := ReadChats(inputPath)
	if err != nil {
		return fmt.Errorf("load chats: %w", err)
	}

	// 2. Wire embedding backend, cache, classifier, extractor
	classifier, err := BuildClassifier(ctx, p.config)
	if err != nil {
		return err
	}
	extractor := features.NewExtractor(classifier)

	// 3. One feature row per chat, in input order
	rows := make([]model.ChatFeatures, 0, len(chats))
	for i, chat := range chats {
		row, err := extractor.ExtractChat(ctx, chat)
		if err != nil {
			return fmt.Errorf("extract: %w", err)
		}
		rows = append(rows, row)

		if p.config.Output.Verbose {
			fmt.Fprintf(os.Stderr, "[%d/%d] %s/%s: %d messages\n",
				i+1, len(chats), chat.Group, chat.ChatID, len(chat.Messages))
		}
	}

	// 4. Write the feature table
	table := aggregate.NewChatTable(rows, extractor.Labels())
	if err := WriteChatFeaturesCSV(outputPath, table, extractor.Labels()); err != nil {
		return fmt.Errorf("write features: %w", err)
	}
	return nil
}

// ScoreGroups loads the chat-feature table and claim records, aggregates
// both per group, joins them, and writes the score table as CSV. Either
// input path may be empty when only one side is available.
func (p *Pipeline) ScoreGroups(featuresPath, claimsPath, outputPath string) error {
	var chatStats []model.GroupChatStats
	if featuresPath != "" {
		table, err := LoadChatFeaturesCSV(featuresPath)
		if err != nil {
			return fmt.Errorf("load features: %w", err)
		}
		chatStats = aggregate.GroupChats(table)
	}

	var claimStats []model.GroupClaimStats
	if claimsPath != "" {
		claims, err := ReadClaims(claimsPath)
		if err != nil {
			return fmt.Errorf("load claims: %w", err)
		}
		claimStats = aggregate.GroupClaims(claims)
	}

	groups := aggregate.Combine(chatStats, claimStats)
	scores := p.scorer.Score(groups)

	if err := WriteScoresCSV(outputPath, scores); err != nil {
		return fmt.Errorf("write scores: %w", err)
	}
	return nil
}

// BuildClassifier wires the embedding backend, optional cache layer, and
// taxonomy into a ready classifier. The backend is probed up front so a
// missing daemon or bad key fails here, not halfway through extraction.
func BuildClassifier(ctx context.Context, cfg *model.Config) (*semantic.Classifier, error) {
	embedder, err := embed.NewEmbedder(embed.Config{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Timeout:    cfg.Embedding.Timeout,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding backend: %w", err)
	}
	if err := embedder.Probe(ctx); err != nil {
		return nil, fmt.Errorf("embedding backend %s unavailable: %w", embedder.Name(), err)
	}

	backend := embedder
	if cfg.Embedding.CacheEnabled {
		dir := cfg.Embedding.CacheDir
		if dir == "" {
			dir = filepath.Join(cfg.DataDir, "cache", "embeddings")
		}
		store := cache.NewLayeredCache(embedCacheMemoryTTL, dir, embedCacheDiskTTL)
		backend = embed.NewCached(embedder, store, embedCacheDiskTTL)
	}

	taxonomy, err := loadTaxonomy(cfg.Classifier.TaxonomyPath)
	if err != nil {
		return nil, err
	}

	return semantic.NewClassifier(backend, taxonomy, cfg.Classifier.Threshold), nil
}

func loadTaxonomy(path string) (*semantic.Taxonomy, error) {
	if path != "" {
		t, err := semantic.LoadTaxonomy(path)
		if err != nil {
			return nil, fmt.Errorf("load taxonomy: %w", err)
		}
		return t, nil
	}
	t, err := semantic.DefaultTaxonomy()
	if err != nil {
		return nil, fmt.Errorf("builtin taxonomy: %w", err)
	}
	return t, nil
}
