package features

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"

	"github.com/vpenkov/perfidia/internal/model"
	"github.com/vpenkov/perfidia/internal/semantic"
)

// Extractor computes feature rows from chats through a shared classifier.
type Extractor struct {
	classifier *semantic.Classifier
}

// NewExtractor creates an extractor over a classifier
func NewExtractor(classifier *semantic.Classifier) *Extractor {
	return &Extractor{classifier: classifier}
}

// Labels returns the label names in taxonomy order, which is also the
// feature column order.
func (e *Extractor) Labels() []string {
	return e.classifier.Labels()
}

// ExtractChat computes exactly one feature row for one chat. Identical input
// yields an identical row for a fixed classifier.
func (e *Extractor) ExtractChat(ctx context.Context, chat model.Chat) (model.ChatFeatures, error) {
	row := model.ChatFeatures{
		Group:        chat.Group,
		ChatID:       chat.ChatID,
		MessageCount: chat.Meta.MessageCount,
		Year:         deriveYear(chat.StartedAt, chat.ChatID),
		Paid:         chat.Meta.Paid,
		Any:          make(map[string]int, len(e.classifier.Labels())),
		Count:        make(map[string]int, len(e.classifier.Labels())),
	}

	initAmt := ParseAmount(chat.Meta.InitialRansom)
	negoAmt := ParseAmount(chat.Meta.NegotiatedRansom)
	row.InitialRansomUSD = initAmt
	row.NegotiatedRansomUSD = negoAmt

	if initAmt != nil && negoAmt != nil && *negoAmt < *initAmt {
		ratio := (*initAmt - *negoAmt) / *initAmt
		row.GaveDiscount = 1
		row.DiscountRatio = &ratio
	}

	for _, label := range e.classifier.Labels() {
		row.Any[label] = 0
		row.Count[label] = 0
	}

	for _, msg := range chat.Messages {
		if !msg.AttackerAuthored() {
			continue
		}
		flags, err := e.messageFlags(ctx, msg.Content)
		if err != nil {
			return model.ChatFeatures{}, fmt.Errorf("chat %s/%s: %w", chat.Group, chat.ChatID, err)
		}
		// Counts move at message granularity: one increment per message with
		// at least one hit sentence, however many sentences hit.
		for label, hit := range flags {
			if hit {
				row.Any[label] = 1
				row.Count[label]++
			}
		}
	}

	return row, nil
}

// messageFlags ORs sentence-level classifications across one message.
func (e *Extractor) messageFlags(ctx context.Context, content string) (map[string]bool, error) {
	text := strings.ToLower(CleanContent(content))

	agg := make(map[string]bool, len(e.classifier.Labels()))
	for _, label := range e.classifier.Labels() {
		agg[label] = false
	}

	for _, sentence := range semantic.SplitSentences(text) {
		hits, err := e.classifier.Classify(ctx, sentence)
		if err != nil {
			return nil, err
		}
		for label, hit := range hits {
			if hit {
				agg[label] = true
			}
		}
	}

	return agg, nil
}

// deriveYear takes the year from the start timestamp when parseable, else
// from a 4-digit chat id prefix constrained to a plausible range.
func deriveYear(startedAt, chatID string) *int {
	if s := strings.TrimSpace(startedAt); s != "" {
		if t, err := dateparse.ParseAny(s); err == nil {
			year := t.Year()
			return &year
		}
	}

	if len(chatID) >= 4 {
		if year, err := strconv.Atoi(chatID[:4]); err == nil && year >= 2000 && year <= 2030 {
			return &year
		}
	}

	return nil
}
