package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vpenkov/perfidia/internal/store"
)

var exportOutputDir string

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the archive out as JSONL files",
	Long: `Export writes every archived record to JSONL, one file per record
type, ready for the features and score stages:

  <dir>/claims.jsonl
  <dir>/chats.jsonl
  <dir>/payments.jsonl

Example:
  perfidia export
  perfidia export --output ./snapshot`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportOutputDir, "output", "", "output directory (default: data dir)")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	dir := exportOutputDir
	if dir == "" {
		dir = cfg.DataDir
	}

	db, err := store.Open(databasePath(cfg))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	exports := []struct {
		name string
		fn   func(context.Context, string) (int, error)
	}{
		{"claims.jsonl", db.ExportClaims},
		{"chats.jsonl", db.ExportChats},
		{"payments.jsonl", db.ExportPayments},
	}

	for _, ex := range exports {
		path := filepath.Join(dir, ex.name)
		n, err := ex.fn(ctx, path)
		if err != nil {
			return fmt.Errorf("export %s: %w", ex.name, err)
		}
		fmt.Printf("%s: %d records\n", path, n)
	}

	return nil
}
