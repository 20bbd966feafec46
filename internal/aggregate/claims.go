package aggregate

import (
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/vpenkov/perfidia/internal/model"
	"github.com/vpenkov/perfidia/internal/stats"
)

// GroupClaims aggregates raw claim records to one row per group, sorted by
// group name. A claim counts as published when its publish date string is
// non-empty, parseable or not; on-time rates use only claims where both the
// deadline and the publish date parse.
func GroupClaims(claims []model.Claim) []model.GroupClaimStats {
	byGroup := make(map[string][]model.Claim)
	for _, c := range claims {
		byGroup[c.Group] = append(byGroup[c.Group], c)
	}

	names := make([]string, 0, len(byGroup))
	for name := range byGroup {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]model.GroupClaimStats, 0, len(names))
	for _, name := range names {
		sub := byGroup[name]

		row := model.GroupClaimStats{
			Group:       name,
			TotalClaims: len(sub),
		}

		onTime := 0
		for _, c := range sub {
			if c.Published() {
				row.PublishedClaims++
			}

			deadline := parseDate(c.Deadline)
			if deadline == nil {
				continue
			}
			row.ClaimsWithDeadline++

			publish := parseDate(c.PublishDate)
			if publish == nil {
				continue
			}
			row.ClaimsWithDeadlineAndPublish++
			if !publish.After(*deadline) {
				onTime++
			}
		}

		row.PublishRate = stats.Ratio(row.PublishedClaims, row.TotalClaims)
		if row.ClaimsWithDeadlineAndPublish > 0 {
			row.OnTimePublishRate = stats.Ratio(onTime, row.ClaimsWithDeadlineAndPublish)
		}

		out = append(out, row)
	}

	return out
}

// parseDate leniently parses a date string, nil when empty or unparseable.
func parseDate(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return nil
	}
	return &t
}
