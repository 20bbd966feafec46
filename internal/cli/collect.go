package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vpenkov/perfidia/internal/collect"
	"github.com/vpenkov/perfidia/internal/model"
	"github.com/vpenkov/perfidia/internal/store"
	"github.com/vpenkov/perfidia/internal/util"
)

var (
	collectClaims       bool
	collectNegotiations bool
	collectPayments     bool
	collectNegLimit     int
	collectAPIKey       string
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Pull claims, negotiations, and payments into the local archive",
	Long: `Collect pulls records from the upstream trackers into the local
SQLite archive and mirrors each pull as raw JSONL under <data-dir>/raw/.

Sources:
- ransomware.live pro API: leak-site claims and negotiation transcripts
  (requires an API key via --api-key or RANSOMWARELIVE_API_KEY)
- ransomwhe.re: on-chain ransom payment records

With no source flags, all three sources are collected.

Example:
  perfidia collect
  perfidia collect --negotiations --neg-limit 10
  perfidia collect --claims --payments`,
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)

	// Source toggles
	collectCmd.Flags().BoolVar(&collectClaims, "claims", false, "collect leak-site claims")
	collectCmd.Flags().BoolVar(&collectNegotiations, "negotiations", false, "collect negotiation transcripts")
	collectCmd.Flags().BoolVar(&collectPayments, "payments", false, "collect payment records")

	collectCmd.Flags().IntVar(&collectNegLimit, "neg-limit", 0, "max negotiation groups per run (0 = config default)")
	collectCmd.Flags().StringVar(&collectAPIKey, "api-key", "", "ransomware.live API key (overrides RANSOMWARELIVE_API_KEY)")
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if collectAPIKey != "" {
		cfg.Collect.APIKey = collectAPIKey
	}
	if collectNegLimit > 0 {
		cfg.Collect.GroupLimit = collectNegLimit
	}

	// No toggles means everything.
	all := !collectClaims && !collectNegotiations && !collectPayments
	ctx := context.Background()

	db, err := store.Open(databasePath(cfg))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = db.Close() }()

	if all || collectClaims || collectNegotiations {
		live := collect.NewRansomwareLive(cfg)

		if all || collectClaims {
			if err := pullClaims(ctx, cfg, db, live); err != nil {
				return err
			}
		}
		if all || collectNegotiations {
			if err := pullNegotiations(ctx, cfg, db, live); err != nil {
				return err
			}
		}
	}

	if all || collectPayments {
		if err := pullPayments(ctx, cfg, db); err != nil {
			return err
		}
	}

	return nil
}

func pullClaims(ctx context.Context, cfg *model.Config, db *store.Store, live *collect.RansomwareLive) error {
	claims, err := live.Claims(ctx)
	if err != nil {
		return fmt.Errorf("collect claims: %w", err)
	}

	inserted, err := db.SaveClaims(ctx, claims)
	if err != nil {
		return fmt.Errorf("archive claims: %w", err)
	}

	raw := filepath.Join(cfg.DataDir, "raw", "ransomware_live.jsonl")
	if err := util.WriteJSONL(raw, claims); err != nil {
		return fmt.Errorf("write raw claims: %w", err)
	}

	fmt.Printf("claims: %d fetched, %d new\n", len(claims), inserted)
	return nil
}

func pullNegotiations(ctx context.Context, cfg *model.Config, db *store.Store, live *collect.RansomwareLive) error {
	chats, err := live.Negotiations(ctx)
	if err != nil {
		return fmt.Errorf("collect negotiations: %w", err)
	}

	inserted, err := db.SaveChats(ctx, chats)
	if err != nil {
		return fmt.Errorf("archive chats: %w", err)
	}

	raw := filepath.Join(cfg.DataDir, "raw", "negotiations.jsonl")
	if err := util.WriteJSONL(raw, chats); err != nil {
		return fmt.Errorf("write raw chats: %w", err)
	}

	fmt.Printf("chats: %d fetched, %d new\n", len(chats), inserted)
	return nil
}

func pullPayments(ctx context.Context, cfg *model.Config, db *store.Store) error {
	client := collect.NewRansomwhere(cfg)
	payments, err := client.Payments(ctx)
	if err != nil {
		return fmt.Errorf("collect payments: %w", err)
	}

	inserted, err := db.SavePayments(ctx, payments)
	if err != nil {
		return fmt.Errorf("archive payments: %w", err)
	}

	raw := filepath.Join(cfg.DataDir, "raw", "ransomwhere.jsonl")
	if err := util.WriteJSONL(raw, payments); err != nil {
		return fmt.Errorf("write raw payments: %w", err)
	}

	fmt.Printf("payments: %d addresses, %d new\n", len(payments), inserted)
	return nil
}
