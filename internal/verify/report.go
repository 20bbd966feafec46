package verify

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/vpenkov/perfidia/internal/stats"
)

// GroupReport tallies check outcomes for one group's post URLs
type GroupReport struct {
	Group     string
	Total     int
	Alive     int
	Gone      int
	Blocked   int
	Errors    int
	AliveRate *float64
}

// Report folds per-URL results into per-group tallies sorted by group
func Report(results []CheckResult) []GroupReport {
	byGroup := make(map[string]*GroupReport)
	for _, r := range results {
		rep, ok := byGroup[r.Group]
		if !ok {
			rep = &GroupReport{Group: r.Group}
			byGroup[r.Group] = rep
		}
		rep.Total++
		switch r.Status {
		case StatusAlive:
			rep.Alive++
		case StatusGone:
			rep.Gone++
		case StatusBlocked:
			rep.Blocked++
		default:
			rep.Errors++
		}
	}

	groups := make([]string, 0, len(byGroup))
	for g := range byGroup {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	reports := make([]GroupReport, 0, len(groups))
	for _, g := range groups {
		rep := byGroup[g]
		rep.AliveRate = stats.Ratio(rep.Alive, rep.Total)
		reports = append(reports, *rep)
	}
	return reports
}

// WriteResultsCSV writes per-URL check results to a CSV file
func WriteResultsCSV(path string, results []CheckResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"group", "post_url", "status", "http_status", "error"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range results {
		httpStatus := ""
		if r.HTTPStatus > 0 {
			httpStatus = strconv.Itoa(r.HTTPStatus)
		}
		row := []string{r.Group, r.URL, string(r.Status), httpStatus, r.Error}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return file.Close()
}
