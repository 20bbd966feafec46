package verify

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

func TestReport_GroupTallies(t *testing.T) {
	results := []CheckResult{
		{Group: "lockbit", URL: "http://a", Status: StatusAlive, HTTPStatus: 200},
		{Group: "akira", URL: "http://b", Status: StatusAlive, HTTPStatus: 200},
		{Group: "akira", URL: "http://c", Status: StatusGone, HTTPStatus: 404},
		{Group: "akira", URL: "http://d", Status: StatusBlocked},
		{Group: "akira", URL: "http://e", Status: StatusError, Error: "timeout"},
	}

	reports := Report(results)
	if len(reports) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(reports))
	}

	akira := reports[0]
	if akira.Group != "akira" {
		t.Fatalf("Expected akira first, got %s", akira.Group)
	}
	if akira.Total != 4 || akira.Alive != 1 || akira.Gone != 1 || akira.Blocked != 1 || akira.Errors != 1 {
		t.Errorf("Unexpected tallies: %+v", akira)
	}
	if akira.AliveRate == nil || *akira.AliveRate != 0.25 {
		t.Errorf("Expected alive rate 0.25, got %v", akira.AliveRate)
	}

	lockbit := reports[1]
	if lockbit.Total != 1 || lockbit.Alive != 1 {
		t.Errorf("Unexpected tallies: %+v", lockbit)
	}
	if lockbit.AliveRate == nil || *lockbit.AliveRate != 1.0 {
		t.Errorf("Expected alive rate 1.0, got %v", lockbit.AliveRate)
	}
}

func TestReport_Empty(t *testing.T) {
	if reports := Report(nil); len(reports) != 0 {
		t.Errorf("Expected no reports, got %d", len(reports))
	}
}

func TestWriteResultsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "verify.csv")
	results := []CheckResult{
		{Group: "akira", URL: "http://a/post", Status: StatusAlive, HTTPStatus: 200},
		{Group: "akira", URL: "http://b/post", Status: StatusError, Error: "request failed: timeout"},
	}

	if err := WriteResultsCSV(path, results); err != nil {
		t.Fatalf("WriteResultsCSV failed: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer func() { _ = file.Close() }()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("Expected header and 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "group" || rows[0][3] != "http_status" {
		t.Errorf("Unexpected header: %v", rows[0])
	}
	if rows[1][2] != "alive" || rows[1][3] != "200" {
		t.Errorf("Unexpected alive row: %v", rows[1])
	}
	// A probe that never got an HTTP answer has an empty status cell.
	if rows[2][3] != "" || rows[2][4] == "" {
		t.Errorf("Unexpected error row: %v", rows[2])
	}
}
