package score

import (
	"github.com/vpenkov/perfidia/internal/model"
	"github.com/vpenkov/perfidia/internal/stats"
)

// Scorer calculates per-group credibility scores from aggregated features.
// Every sub-score is a weighted mean over whatever rates the group has;
// absent rates drop out and the remaining weights are not renormalized.
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes the sub-scores and credibility index for every group
func (s *Scorer) Score(groups []model.GroupFeatures) []model.CredibilityScore {
	scores := make([]model.CredibilityScore, 0, len(groups))
	for _, g := range groups {
		scores = append(scores, s.scoreGroup(g))
	}
	return scores
}

func (s *Scorer) scoreGroup(g model.GroupFeatures) model.CredibilityScore {
	// 1. Reliability (weight 0.4): does paying get a working decryption path
	r := s.reliability(g.Chat)

	// 2. Threat follow-through (weight 0.3): do leak threats become leaks
	t := s.threatFollowThrough(g.Chat, g.Claim)

	// 3. Integrity (weight 0.3): post-payment misconduct drags this down
	i := s.integrity(g.Chat)

	raw := stats.WeightedMean([]*float64{r, t, i}, []float64{0.4, 0.3, 0.3})

	return model.CredibilityScore{
		GroupFeatures: g,
		R:             r,
		T:             t,
		I:             i,
		Raw:           raw,
		Index:         stats.Scale(raw, 10),
	}
}

// reliability blends sample offers and key delivery. The proof-success rate
// stays out of the blend: it conditions on chats with a proof offer and is
// too sparse to carry weight, so it is reported but not scored.
func (s *Scorer) reliability(chat *model.GroupChatStats) *float64 {
	if chat == nil {
		return nil
	}
	return stats.WeightedMean(
		[]*float64{chat.SampleOfferRate, chat.KeyDeliveryRate},
		[]float64{0.6, 0.4},
	)
}

// threatFollowThrough blends leak-site publication rates with the rate of
// leak threats made in negotiation
func (s *Scorer) threatFollowThrough(chat *model.GroupChatStats, claim *model.GroupClaimStats) *float64 {
	var publish, onTime, leak *float64
	if claim != nil {
		publish = claim.PublishRate
		onTime = claim.OnTimePublishRate
	}
	if chat != nil {
		leak = chat.LeakThreatRate
	}
	return stats.WeightedMean(
		[]*float64{publish, leak, onTime},
		[]float64{0.6, 0.4, 0.2},
	)
}

// integrity inverts the misconduct signals. A group with no misconduct data
// at all scores a clean 1.0: absence of evidence counts in its favor, so
// integrity is the one sub-score that is never absent.
func (s *Scorer) integrity(chat *model.GroupChatStats) *float64 {
	bad := 0.0
	if chat != nil {
		m := stats.WeightedMean(
			[]*float64{chat.ViolationClaimRate, chat.ReextortionBehaviorRate, chat.DataResaleAdmissionRate},
			[]float64{0.5, 0.3, 0.2},
		)
		if m != nil {
			bad = *m
		}
	}
	return stats.F(1 - stats.Clamp01(bad))
}
