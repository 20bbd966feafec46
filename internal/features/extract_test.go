package features

import (
	"context"
	"fmt"
	"testing"

	"github.com/vpenkov/perfidia/internal/model"
	"github.com/vpenkov/perfidia/internal/semantic"
)

// stubEmbedder maps exact texts to canned vectors.
type stubEmbedder struct {
	vectors map[string][]float64
}

func (s *stubEmbedder) Name() string                    { return "stub" }
func (s *stubEmbedder) Model() string                   { return "stub-model" }
func (s *stubEmbedder) Probe(ctx context.Context) error { return nil }

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		vec, ok := s.vectors[text]
		if !ok {
			return nil, fmt.Errorf("no canned vector for %q", text)
		}
		out[i] = vec
	}
	return out, nil
}

// newTestExtractor classifies two labels with hand-picked vectors: the
// exemplar sentences themselves hit, everything else misses.
func newTestExtractor() *Extractor {
	tax := &semantic.Taxonomy{
		Version: 1,
		Labels: []semantic.Label{
			{Name: "proof_offer", Exemplars: []string{"we will decrypt a few files as proof"}},
			{Name: "leak_threat", Exemplars: []string{"we will publish your data"}},
		},
	}
	stub := &stubEmbedder{vectors: map[string][]float64{
		"we will decrypt a few files as proof": {1, 0},
		"we will publish your data":            {0, 1},
		"hello there":                          {-1, 0},
		"thank you":                            {0, -1},
	}}
	return NewExtractor(semantic.NewClassifier(stub, tax, 0.6))
}

func TestExtractor_RoleInvariant(t *testing.T) {
	e := newTestExtractor()
	ctx := context.Background()

	victimOnly := model.Chat{
		Group:  "acme",
		ChatID: "20200101_acme",
		Messages: []model.Message{
			{Party: "Victim", Content: "we will decrypt a few files as proof"},
			{Party: "victim", Content: "we will publish your data"},
			{Party: " VICTIM ", Content: "we will decrypt a few files as proof"},
		},
	}
	row, err := e.ExtractChat(ctx, victimOnly)
	if err != nil {
		t.Fatalf("ExtractChat() error: %v", err)
	}
	if row.Any["proof_offer"] != 0 || row.Any["leak_threat"] != 0 {
		t.Errorf("victim messages counted as attacker: any = %v", row.Any)
	}

	// Unknown and empty parties count as attacker.
	unknownParty := model.Chat{
		Group:  "acme",
		ChatID: "20200102_acme",
		Messages: []model.Message{
			{Party: "", Content: "we will decrypt a few files as proof"},
			{Party: "Support", Content: "we will publish your data"},
		},
	}
	row, err = e.ExtractChat(ctx, unknownParty)
	if err != nil {
		t.Fatalf("ExtractChat() error: %v", err)
	}
	if row.Any["proof_offer"] != 1 {
		t.Error("empty party message not counted as attacker")
	}
	if row.Any["leak_threat"] != 1 {
		t.Error("non-victim party message not counted as attacker")
	}
}

func TestExtractor_MessageGranularityCounts(t *testing.T) {
	e := newTestExtractor()
	ctx := context.Background()

	// Two hit sentences inside one message increment the count once.
	oneMessage := model.Chat{
		Group:  "acme",
		ChatID: "20200103_acme",
		Messages: []model.Message{
			{Party: "attacker", Content: "we will decrypt a few files as proof. we will decrypt a few files as proof"},
		},
	}
	row, err := e.ExtractChat(ctx, oneMessage)
	if err != nil {
		t.Fatalf("ExtractChat() error: %v", err)
	}
	if row.Count["proof_offer"] != 1 {
		t.Errorf("count = %d for one message with two hit sentences, want 1", row.Count["proof_offer"])
	}

	// The same hit across two messages increments twice.
	twoMessages := model.Chat{
		Group:  "acme",
		ChatID: "20200104_acme",
		Messages: []model.Message{
			{Party: "attacker", Content: "we will decrypt a few files as proof"},
			{Party: "attacker", Content: "hello there"},
			{Party: "attacker", Content: "we will decrypt a few files as proof"},
		},
	}
	row, err = e.ExtractChat(ctx, twoMessages)
	if err != nil {
		t.Fatalf("ExtractChat() error: %v", err)
	}
	if row.Count["proof_offer"] != 2 {
		t.Errorf("count = %d across two hit messages, want 2", row.Count["proof_offer"])
	}
	if row.Any["proof_offer"] != 1 {
		t.Errorf("any = %d, want 1", row.Any["proof_offer"])
	}
	if row.Any["leak_threat"] != 0 || row.Count["leak_threat"] != 0 {
		t.Errorf("leak_threat = any %d count %d for miss-only content, want zeros", row.Any["leak_threat"], row.Count["leak_threat"])
	}
}

func TestExtractor_DiscountInvariant(t *testing.T) {
	e := newTestExtractor()
	ctx := context.Background()

	tests := []struct {
		name      string
		initial   string
		nego      string
		wantFlag  int
		wantRatio *float64
	}{
		{"negotiated below initial", "$100,000", "$75,000", 1, ptr(0.25)},
		{"equal amounts", "$100", "$100", 0, nil},
		{"negotiated above initial", "$100", "$150", 0, nil},
		{"negotiated missing", "$100", "", 0, nil},
		{"initial null token", "N/A", "$50", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := model.Chat{
				Group:  "acme",
				ChatID: "20200105_acme",
				Meta: model.ChatMeta{
					InitialRansom:    tt.initial,
					NegotiatedRansom: tt.nego,
				},
			}
			row, err := e.ExtractChat(ctx, chat)
			if err != nil {
				t.Fatalf("ExtractChat() error: %v", err)
			}
			if row.GaveDiscount != tt.wantFlag {
				t.Errorf("GaveDiscount = %d, want %d", row.GaveDiscount, tt.wantFlag)
			}
			if (row.DiscountRatio == nil) != (tt.wantRatio == nil) {
				t.Fatalf("DiscountRatio = %v, want %v", row.DiscountRatio, tt.wantRatio)
			}
			if row.DiscountRatio != nil && *row.DiscountRatio != *tt.wantRatio {
				t.Errorf("DiscountRatio = %v, want %v", *row.DiscountRatio, *tt.wantRatio)
			}
		})
	}
}

func TestDeriveYear(t *testing.T) {
	tests := []struct {
		name      string
		startedAt string
		chatID    string
		want      *int
	}{
		{"from timestamp", "2021-03-05T10:00:00Z", "20190412_acme", intPtr(2021)},
		{"from chat id prefix", "", "20190412_acme", intPtr(2019)},
		{"unparseable timestamp falls back", "not a date", "20250101", intPtr(2025)},
		{"prefix not numeric", "", "abcd_acme", nil},
		{"prefix out of range", "", "9999_acme", nil},
		{"prefix below range", "", "1999_acme", nil},
		{"chat id too short", "", "20", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := deriveYear(tt.startedAt, tt.chatID)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("deriveYear(%q, %q) = %v, want %v", tt.startedAt, tt.chatID, got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("deriveYear(%q, %q) = %d, want %d", tt.startedAt, tt.chatID, *got, *tt.want)
			}
		})
	}
}

func TestExtractor_HTMLContentCleaned(t *testing.T) {
	e := newTestExtractor()
	ctx := context.Background()

	chat := model.Chat{
		Group:  "acme",
		ChatID: "20200106_acme",
		Messages: []model.Message{
			{Party: "attacker", Content: `<p>We Will Publish Your Data</p><script>tracker()</script>`},
		},
	}
	row, err := e.ExtractChat(ctx, chat)
	if err != nil {
		t.Fatalf("ExtractChat() error: %v", err)
	}
	if row.Any["leak_threat"] != 1 {
		t.Error("markup content not cleaned before classification")
	}
}

func TestExtractor_CopiesIdentityAndMeta(t *testing.T) {
	e := newTestExtractor()
	ctx := context.Background()

	count := 7
	chat := model.Chat{
		Group:     "acme",
		ChatID:    "20200107_acme",
		StartedAt: "2020-01-07T00:00:00Z",
		Meta: model.ChatMeta{
			MessageCount: &count,
			Paid:         true,
		},
		Messages: []model.Message{
			{Party: "attacker", Content: ""},
		},
	}
	row, err := e.ExtractChat(ctx, chat)
	if err != nil {
		t.Fatalf("ExtractChat() error: %v", err)
	}

	if row.Group != "acme" || row.ChatID != "20200107_acme" {
		t.Errorf("identity fields = %s/%s", row.Group, row.ChatID)
	}
	if row.MessageCount == nil || *row.MessageCount != 7 {
		t.Errorf("MessageCount = %v, want 7", row.MessageCount)
	}
	if !row.Paid {
		t.Error("Paid = false, want true")
	}
	if row.Year == nil || *row.Year != 2020 {
		t.Errorf("Year = %v, want 2020", row.Year)
	}

	// Every label appears even with no classifiable content.
	for _, label := range e.Labels() {
		if _, ok := row.Any[label]; !ok {
			t.Errorf("label %s missing from Any", label)
		}
		if _, ok := row.Count[label]; !ok {
			t.Errorf("label %s missing from Count", label)
		}
	}
}

func ptr(v float64) *float64 { return &v }
func intPtr(v int) *int      { return &v }
