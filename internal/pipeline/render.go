package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/vpenkov/perfidia/internal/aggregate"
	"github.com/vpenkov/perfidia/internal/model"
)

// scoreColumns is the score table header. Chat-side cells stay empty for
// claim-only groups and vice versa.
var scoreColumns = []string{
	"group",
	"n_chats",
	"n_paid_chats",
	"sample_offer_rate",
	"key_delivery_rate",
	"proof_success_rate",
	"leak_threat_rate",
	"discount_frequency",
	"discount_generosity",
	"deletion_promise_rate",
	"violation_claim_rate",
	"reextortion_behavior_rate",
	"data_resale_admission_rate",
	"total_claims",
	"published_claims",
	"publish_rate",
	"claims_with_deadline",
	"claims_with_deadline_and_publish",
	"on_time_publish_rate",
	"R",
	"T",
	"I",
	"ACI_raw",
	"ACI",
}

// WriteChatFeaturesCSV writes one row per chat with any/count pairs per
// label in taxonomy order
func WriteChatFeaturesCSV(path string, table *aggregate.ChatTable, labels []string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create features: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	if err := writer.Write(aggregate.ChatColumns(labels)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, row := range table.Rows {
		record := []string{
			row.Group,
			row.ChatID,
			formatOptInt(row.MessageCount),
			formatOptInt(row.Year),
			formatOptFloat(row.InitialRansomUSD),
			formatOptFloat(row.NegotiatedRansomUSD),
			strconv.FormatBool(row.Paid),
			strconv.Itoa(row.GaveDiscount),
			formatOptFloat(row.DiscountRatio),
		}
		for _, label := range labels {
			record = append(record,
				strconv.Itoa(row.Any[label]),
				strconv.Itoa(row.Count[label]))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush features: %w", err)
	}
	return file.Close()
}

// WriteScoresCSV writes one row per group with aggregated stats and the
// credibility sub-scores
func WriteScoresCSV(path string, scores []model.CredibilityScore) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create scores: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	if err := writer.Write(scoreColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, sc := range scores {
		record := make([]string, 0, len(scoreColumns))
		record = append(record, sc.Group)

		if chat := sc.Chat; chat != nil {
			record = append(record,
				strconv.Itoa(chat.NChats),
				strconv.Itoa(chat.NPaidChats),
				formatOptFloat(chat.SampleOfferRate),
				formatOptFloat(chat.KeyDeliveryRate),
				formatOptFloat(chat.ProofSuccessRate),
				formatOptFloat(chat.LeakThreatRate),
				formatOptFloat(chat.DiscountFrequency),
				formatOptFloat(chat.DiscountGenerosity),
				formatOptFloat(chat.DeletionPromiseRate),
				formatOptFloat(chat.ViolationClaimRate),
				formatOptFloat(chat.ReextortionBehaviorRate),
				formatOptFloat(chat.DataResaleAdmissionRate),
			)
		} else {
			record = append(record, emptyCells(12)...)
		}

		if claim := sc.Claim; claim != nil {
			record = append(record,
				strconv.Itoa(claim.TotalClaims),
				strconv.Itoa(claim.PublishedClaims),
				formatOptFloat(claim.PublishRate),
				strconv.Itoa(claim.ClaimsWithDeadline),
				strconv.Itoa(claim.ClaimsWithDeadlineAndPublish),
				formatOptFloat(claim.OnTimePublishRate),
			)
		} else {
			record = append(record, emptyCells(6)...)
		}

		record = append(record,
			formatOptFloat(sc.R),
			formatOptFloat(sc.T),
			formatOptFloat(sc.I),
			formatOptFloat(sc.Raw),
			formatOptFloat(sc.Index),
		)

		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush scores: %w", err)
	}
	return file.Close()
}

func formatOptInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func emptyCells(n int) []string {
	return make([]string, n)
}
