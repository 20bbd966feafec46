package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vpenkov/perfidia/internal/pipeline"
	"github.com/vpenkov/perfidia/internal/verify"
)

var (
	verifyClaimsPath  string
	verifyOutput      string
	verifyConcurrency int
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check whether leak-site posts are still being served",
	Long: `Verify probes each claim's post URL and reports whether the post is
still alive, was taken down, or is blocked. Per-URL results go to a
CSV; a per-group summary prints to stdout.

Onion and other darknet URLs need a proxy (http.http_proxy and
http.https_proxy in the config, or the standard environment variables).

Example:
  perfidia verify
  perfidia verify --claims data/claims.jsonl --output data/verify.csv
  perfidia verify --concurrency 50`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyClaimsPath, "claims", "", "claims JSONL path (default: <data-dir>/claims.jsonl)")
	verifyCmd.Flags().StringVar(&verifyOutput, "output", "", "result CSV path (default: <data-dir>/verify.csv)")
	verifyCmd.Flags().IntVar(&verifyConcurrency, "concurrency", 0, "concurrent probes (0 = config default)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if verifyConcurrency > 0 {
		cfg.Verify.Workers = verifyConcurrency
	}

	claimsPath := verifyClaimsPath
	if claimsPath == "" {
		claimsPath = filepath.Join(cfg.DataDir, "claims.jsonl")
	}
	output := verifyOutput
	if output == "" {
		output = filepath.Join(cfg.DataDir, "verify.csv")
	}

	claims, err := pipeline.ReadClaims(claimsPath)
	if err != nil {
		return fmt.Errorf("load claims: %w", err)
	}

	checker := verify.NewChecker(cfg)
	results := checker.Check(context.Background(), claims)

	if err := verify.WriteResultsCSV(output, results); err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	for _, rep := range verify.Report(results) {
		fmt.Printf("%-24s %3d urls: %d alive, %d gone, %d blocked, %d error\n",
			rep.Group, rep.Total, rep.Alive, rep.Gone, rep.Blocked, rep.Errors)
	}
	fmt.Printf("verify: %d urls checked, wrote %s\n", len(results), output)
	return nil
}
