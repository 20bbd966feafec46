package semantic

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/vpenkov/perfidia/internal/embed"
)

// Classifier assigns taxonomy labels to sentences by cosine similarity
// against per-label exemplar vectors. Exemplars are embedded once, on first
// use, and reused for the life of the classifier; construct one and share it
// across a run.
type Classifier struct {
	embedder  embed.Embedder
	taxonomy  *Taxonomy
	threshold float64

	initOnce sync.Once
	initErr  error
	protos   map[string][][]float64
	dim      int
}

// NewClassifier creates a classifier over the given taxonomy. The threshold
// is the minimum cosine similarity for a label hit; zero selects the 0.6
// default.
func NewClassifier(embedder embed.Embedder, taxonomy *Taxonomy, threshold float64) *Classifier {
	if threshold == 0 {
		threshold = 0.6
	}
	return &Classifier{
		embedder:  embedder,
		taxonomy:  taxonomy,
		threshold: threshold,
		protos:    make(map[string][][]float64, len(taxonomy.Labels)),
	}
}

// Labels returns the label names in taxonomy order.
func (c *Classifier) Labels() []string {
	return c.taxonomy.LabelNames()
}

// Threshold returns the effective similarity threshold.
func (c *Classifier) Threshold() float64 {
	return c.threshold
}

// Classify reports which labels apply to a single sentence. Every taxonomy
// label appears in the result. Empty or whitespace-only sentences return all
// labels false without touching the embedding backend.
func (c *Classifier) Classify(ctx context.Context, sentence string) (map[string]bool, error) {
	hits := make(map[string]bool, len(c.taxonomy.Labels))
	for _, label := range c.taxonomy.Labels {
		hits[label.Name] = false
	}

	sentence = strings.TrimSpace(sentence)
	if sentence == "" {
		return hits, nil
	}

	scores, err := c.bestScores(ctx, sentence)
	if err != nil {
		return nil, err
	}
	for label, best := range scores {
		hits[label] = best >= c.threshold
	}
	return hits, nil
}

// Scores reports the best exemplar similarity per label for a single
// sentence, for inspecting how close each label came to the threshold.
func (c *Classifier) Scores(ctx context.Context, sentence string) (map[string]float64, error) {
	sentence = strings.TrimSpace(sentence)
	if sentence == "" {
		return nil, fmt.Errorf("empty sentence")
	}
	return c.bestScores(ctx, sentence)
}

func (c *Classifier) bestScores(ctx context.Context, sentence string) (map[string]float64, error) {
	if err := c.init(ctx); err != nil {
		return nil, err
	}

	vecs, err := c.embedder.Embed(ctx, []string{sentence})
	if err != nil {
		return nil, fmt.Errorf("embedding sentence: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedding sentence: got %d vectors for 1 input", len(vecs))
	}
	vec := normalize(vecs[0])
	if len(vec) != c.dim {
		return nil, fmt.Errorf("embedding dimension mismatch: sentence %d, exemplars %d", len(vec), c.dim)
	}

	scores := make(map[string]float64, len(c.taxonomy.Labels))
	for _, label := range c.taxonomy.Labels {
		best := math.Inf(-1)
		for _, proto := range c.protos[label.Name] {
			if sim := dot(vec, proto); sim > best {
				best = sim
			}
		}
		scores[label.Name] = best
	}
	return scores, nil
}

// init embeds every label's exemplar set, one batch per label. The first
// caller pays; later calls reuse the vectors. A failed init is permanent for
// this classifier, matching the no-fallback contract of classification.
func (c *Classifier) init(ctx context.Context) error {
	c.initOnce.Do(func() {
		for _, label := range c.taxonomy.Labels {
			vecs, err := c.embedder.Embed(ctx, label.Exemplars)
			if err != nil {
				c.initErr = fmt.Errorf("embedding exemplars for %s: %w", label.Name, err)
				return
			}
			if len(vecs) != len(label.Exemplars) {
				c.initErr = fmt.Errorf("embedding exemplars for %s: got %d vectors for %d inputs", label.Name, len(vecs), len(label.Exemplars))
				return
			}
			normed := make([][]float64, len(vecs))
			for i, v := range vecs {
				normed[i] = normalize(v)
				if c.dim == 0 {
					c.dim = len(normed[i])
				} else if len(normed[i]) != c.dim {
					c.initErr = fmt.Errorf("embedding exemplars for %s: dimension %d, expected %d", label.Name, len(normed[i]), c.dim)
					return
				}
			}
			c.protos[label.Name] = normed
		}
	})
	return c.initErr
}

// normalize scales a vector to unit length. Cosine similarity then reduces
// to a dot product. Zero vectors pass through unchanged.
func normalize(vec []float64) []float64 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec
	}
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = v / norm
	}
	return out
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
