// Package aggregate rolls per-chat feature rows and per-claim records up to
// one row per attacker group. Rates distinguish "column absent from the
// input" from "behavior absent in the data": a missing column yields an
// absent rate for every group, never zero.
package aggregate

import (
	"sort"

	"github.com/vpenkov/perfidia/internal/model"
	"github.com/vpenkov/perfidia/internal/stats"
)

// AnyCol names the per-label any-occurrence column.
func AnyCol(label string) string { return "any_" + label }

// CountCol names the per-label occurrence-count column.
func CountCol(label string) string { return "count_" + label }

// ChatColumns returns the full chat feature column list in output order:
// identity and numeric fields first, then any/count pairs per label in
// taxonomy order.
func ChatColumns(labels []string) []string {
	cols := []string{
		"group",
		"chat_id",
		"message_count",
		"year",
		"initial_ransom_usd",
		"negotiated_ransom_usd",
		"paid",
		"gave_discount",
		"discount_ratio",
	}
	for _, label := range labels {
		cols = append(cols, AnyCol(label), CountCol(label))
	}
	return cols
}

// ChatTable is a set of per-chat feature rows plus the set of columns the
// source actually carried. Freshly extracted rows carry every column; a
// table loaded from CSV carries only what its header names, and aggregation
// reports the rest as unavailable.
type ChatTable struct {
	Rows    []model.ChatFeatures
	columns map[string]bool
}

// NewChatTable builds a table from freshly extracted rows, with every column
// for the given label set present.
func NewChatTable(rows []model.ChatFeatures, labels []string) *ChatTable {
	columns := make(map[string]bool)
	for _, col := range ChatColumns(labels) {
		columns[col] = true
	}
	return &ChatTable{Rows: rows, columns: columns}
}

// NewChatTableWithColumns builds a table whose column presence comes from an
// external source, typically a CSV header.
func NewChatTableWithColumns(rows []model.ChatFeatures, columns []string) *ChatTable {
	set := make(map[string]bool, len(columns))
	for _, col := range columns {
		set[col] = true
	}
	return &ChatTable{Rows: rows, columns: set}
}

// Has reports whether the source carried the named column.
func (t *ChatTable) Has(column string) bool {
	return t.columns[column]
}

// GroupChats aggregates the table to one row per group, sorted by group
// name. Calling it twice on the same table yields identical results.
func GroupChats(table *ChatTable) []model.GroupChatStats {
	byGroup := make(map[string][]model.ChatFeatures)
	for _, row := range table.Rows {
		byGroup[row.Group] = append(byGroup[row.Group], row)
	}

	names := make([]string, 0, len(byGroup))
	for name := range byGroup {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]model.GroupChatStats, 0, len(names))
	for _, name := range names {
		rows := byGroup[name]
		n := len(rows)

		row := model.GroupChatStats{
			Group:  name,
			NChats: n,
		}

		if table.Has("paid") {
			for _, r := range rows {
				if r.Paid {
					row.NPaidChats++
				}
			}
		}

		row.SampleOfferRate = labelRate(table, rows, "proof_offer")
		row.KeyDeliveryRate = labelRate(table, rows, "key_delivery")
		row.ProofSuccessRate = proofSuccessRate(table, rows)
		row.LeakThreatRate = labelRate(table, rows, "leak_threat")

		if table.Has("gave_discount") {
			sum := 0
			for _, r := range rows {
				sum += r.GaveDiscount
			}
			row.DiscountFrequency = stats.Ratio(sum, n)
		}

		if table.Has("discount_ratio") {
			ratios := make([]*float64, 0, n)
			for _, r := range rows {
				ratios = append(ratios, r.DiscountRatio)
			}
			row.DiscountGenerosity = stats.Mean(ratios)
		}

		row.DeletionPromiseRate = labelRate(table, rows, "deletion_promise")
		row.ViolationClaimRate = labelRate(table, rows, "violation_claim")
		row.ReextortionBehaviorRate = labelRate(table, rows, "reextortion_behavior")
		row.DataResaleAdmissionRate = labelRate(table, rows, "data_resale_admission")

		out = append(out, row)
	}

	return out
}

// labelRate is the share of chats where the label occurred, absent when the
// source never carried the label's column.
func labelRate(table *ChatTable, rows []model.ChatFeatures, label string) *float64 {
	if !table.Has(AnyCol(label)) {
		return nil
	}
	sum := 0
	for _, r := range rows {
		sum += r.Any[label]
	}
	return stats.Ratio(sum, len(rows))
}

// proofSuccessRate conditions on chats where a proof was offered: among
// those, the share where the victim confirmed the sample worked. Absent when
// either column is missing or no chat in the group had an offer.
func proofSuccessRate(table *ChatTable, rows []model.ChatFeatures) *float64 {
	if !table.Has(AnyCol("proof_success")) || !table.Has(AnyCol("proof_offer")) {
		return nil
	}
	offers := 0
	successes := 0
	for _, r := range rows {
		if r.Any["proof_offer"] != 1 {
			continue
		}
		offers++
		successes += r.Any["proof_success"]
	}
	return stats.Ratio(successes, offers)
}
