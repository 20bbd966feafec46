// Package store archives collected records in a local SQLite database so
// repeated collect runs accumulate instead of clobbering each other. Records
// are kept as JSON blobs keyed for deduplication; export writes them back
// out as JSONL for the feature and scoring stages.
package store

import (
	"bufio"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vpenkov/perfidia/internal/model"
)

const schema = `CREATE TABLE IF NOT EXISTS claims (
  claim_key TEXT NOT NULL PRIMARY KEY,
  group_name TEXT NOT NULL,
  record TEXT NOT NULL,
  collected_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS chats (
  group_name TEXT NOT NULL,
  chat_id TEXT NOT NULL,
  record TEXT NOT NULL,
  collected_at TEXT NOT NULL,
  PRIMARY KEY (group_name, chat_id)
);
CREATE TABLE IF NOT EXISTS payments (
  source TEXT NOT NULL,
  address TEXT NOT NULL,
  record TEXT NOT NULL,
  collected_at TEXT NOT NULL,
  PRIMARY KEY (source, address)
);`

// Store is a SQLite-backed archive of collected records
type Store struct {
	db *sql.DB
}

// Open creates or opens the archive database at the given path
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveClaims inserts claims that have not been seen before and returns how
// many were new. Claims are events, so the first record for a key wins.
func (s *Store) SaveClaims(ctx context.Context, claims []model.Claim) (int, error) {
	const q = `INSERT INTO claims (claim_key, group_name, record, collected_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(claim_key) DO NOTHING;`

	now := time.Now().UTC().Format(time.RFC3339)
	return s.save(ctx, "claims", q, len(claims), func(stmt *sql.Stmt, i int) error {
		c := claims[i]
		record, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal claim: %w", err)
		}
		_, err = stmt.ExecContext(ctx, claimKey(c), c.Group, string(record), now)
		return err
	})
}

// SaveChats upserts chat transcripts and returns how many were new.
// Transcripts grow between runs, so the latest record replaces the stored one.
func (s *Store) SaveChats(ctx context.Context, chats []model.Chat) (int, error) {
	const q = `INSERT INTO chats (group_name, chat_id, record, collected_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(group_name, chat_id) DO UPDATE SET
  record = excluded.record,
  collected_at = excluded.collected_at;`

	now := time.Now().UTC().Format(time.RFC3339)
	return s.save(ctx, "chats", q, len(chats), func(stmt *sql.Stmt, i int) error {
		c := chats[i]
		record, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal chat: %w", err)
		}
		_, err = stmt.ExecContext(ctx, c.Group, c.ChatID, string(record), now)
		return err
	})
}

// SavePayments upserts payment summaries and returns how many were new.
// Addresses accrue transactions over time, so the latest record wins.
func (s *Store) SavePayments(ctx context.Context, payments []model.Payment) (int, error) {
	const q = `INSERT INTO payments (source, address, record, collected_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(source, address) DO UPDATE SET
  record = excluded.record,
  collected_at = excluded.collected_at;`

	now := time.Now().UTC().Format(time.RFC3339)
	return s.save(ctx, "payments", q, len(payments), func(stmt *sql.Stmt, i int) error {
		p := payments[i]
		record, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal payment: %w", err)
		}
		_, err = stmt.ExecContext(ctx, p.Source, p.Address, string(record), now)
		return err
	})
}

// save runs the inserts in one transaction and derives the new-row count
// from the table size, which stays correct for both conflict styles
func (s *Store) save(ctx context.Context, table, query string, n int, bind func(*sql.Stmt, int) error) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	before, err := countRows(ctx, tx, table)
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := 0; i < n; i++ {
		if err := bind(stmt, i); err != nil {
			return 0, fmt.Errorf("insert into %s: %w", table, err)
		}
	}

	after, err := countRows(ctx, tx, table)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return after - before, nil
}

func countRows(ctx context.Context, tx *sql.Tx, table string) (int, error) {
	var n int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// ExportClaims writes all archived claims to a JSONL file in discovery order
// and returns the record count
func (s *Store) ExportClaims(ctx context.Context, path string) (int, error) {
	return s.export(ctx, path, `SELECT record FROM claims ORDER BY rowid`)
}

// ExportChats writes all archived chats to a JSONL file ordered by group and
// chat id
func (s *Store) ExportChats(ctx context.Context, path string) (int, error) {
	return s.export(ctx, path, `SELECT record FROM chats ORDER BY group_name, chat_id`)
}

// ExportPayments writes all archived payments to a JSONL file ordered by
// source and address
func (s *Store) ExportPayments(ctx context.Context, path string) (int, error) {
	return s.export(ctx, path, `SELECT record FROM payments ORDER BY source, address`)
}

// export streams stored JSON blobs to a file, one per line. The blobs are
// written as stored, so export never re-marshals.
func (s *Store) export(ctx context.Context, path, query string) (int, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	writer := bufio.NewWriter(file)
	count := 0
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return 0, fmt.Errorf("scan record: %w", err)
		}
		if _, err := writer.WriteString(record); err != nil {
			return 0, fmt.Errorf("write %s: %w", path, err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return 0, fmt.Errorf("write %s: %w", path, err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate records: %w", err)
	}

	if err := writer.Flush(); err != nil {
		return 0, fmt.Errorf("flush %s: %w", path, err)
	}
	return count, file.Close()
}

// claimKey derives a stable dedupe key for a claim. The upstream feed has no
// record id, so the identifying fields stand in.
func claimKey(c model.Claim) string {
	h := sha256.Sum256([]byte(strings.Join([]string{
		c.Source, c.Group, c.Victim, c.ClaimDate, c.PostURL,
	}, "|")))
	return hex.EncodeToString(h[:])
}
