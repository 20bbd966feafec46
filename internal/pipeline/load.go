package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/vpenkov/perfidia/internal/aggregate"
	"github.com/vpenkov/perfidia/internal/model"
)

// Negotiation transcripts routinely blow past bufio's default 64KB token
// limit, so the line buffer gets room to grow.
const maxLineBytes = 16 * 1024 * 1024

// ReadChats reads negotiation records from a JSONL file, one chat per line
func ReadChats(path string) ([]model.Chat, error) {
	var chats []model.Chat
	err := readJSONL(path, func(line []byte, lineNo int) error {
		var chat model.Chat
		if err := json.Unmarshal(line, &chat); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		chats = append(chats, chat)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read chats %s: %w", path, err)
	}
	return chats, nil
}

// ReadClaims reads leak-site claim records from a JSONL file
func ReadClaims(path string) ([]model.Claim, error) {
	var claims []model.Claim
	err := readJSONL(path, func(line []byte, lineNo int) error {
		var claim model.Claim
		if err := json.Unmarshal(line, &claim); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		claims = append(claims, claim)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read claims %s: %w", path, err)
	}
	return claims, nil
}

// readJSONL feeds every non-blank line to decode with its 1-based number
func readJSONL(path string, decode func(line []byte, lineNo int) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := decode([]byte(line), lineNo); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan file: %w", err)
	}
	return nil
}

// LoadChatFeaturesCSV reads a chat-feature table back from CSV. The header
// decides which columns exist; aggregation later reports anything missing as
// unavailable rather than zero.
func LoadChatFeaturesCSV(path string) (*aggregate.ChatTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open features: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read features %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read features %s: missing header", path)
	}

	header := records[0]
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[col] = i
	}

	// Labels are recovered from the any_ columns of the header.
	var labels []string
	for _, col := range header {
		if label, ok := strings.CutPrefix(col, "any_"); ok {
			labels = append(labels, label)
		}
	}

	cell := func(record []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	rows := make([]model.ChatFeatures, 0, len(records)-1)
	for n, record := range records[1:] {
		lineNo := n + 2
		row := model.ChatFeatures{
			Group:  cell(record, "group"),
			ChatID: cell(record, "chat_id"),
			Paid:   parseCSVBool(cell(record, "paid")),
			Any:    make(map[string]int, len(labels)),
			Count:  make(map[string]int, len(labels)),
		}

		if row.MessageCount, err = parseOptInt(cell(record, "message_count")); err != nil {
			return nil, fmt.Errorf("line %d: message_count: %w", lineNo, err)
		}
		if row.Year, err = parseOptInt(cell(record, "year")); err != nil {
			return nil, fmt.Errorf("line %d: year: %w", lineNo, err)
		}
		if row.InitialRansomUSD, err = parseOptFloat(cell(record, "initial_ransom_usd")); err != nil {
			return nil, fmt.Errorf("line %d: initial_ransom_usd: %w", lineNo, err)
		}
		if row.NegotiatedRansomUSD, err = parseOptFloat(cell(record, "negotiated_ransom_usd")); err != nil {
			return nil, fmt.Errorf("line %d: negotiated_ransom_usd: %w", lineNo, err)
		}
		if row.DiscountRatio, err = parseOptFloat(cell(record, "discount_ratio")); err != nil {
			return nil, fmt.Errorf("line %d: discount_ratio: %w", lineNo, err)
		}

		flag, err := parseOptInt(cell(record, "gave_discount"))
		if err != nil {
			return nil, fmt.Errorf("line %d: gave_discount: %w", lineNo, err)
		}
		if flag != nil {
			row.GaveDiscount = *flag
		}

		for _, label := range labels {
			anyVal, err := parseOptInt(cell(record, aggregate.AnyCol(label)))
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", lineNo, aggregate.AnyCol(label), err)
			}
			if anyVal != nil {
				row.Any[label] = *anyVal
			}
			countVal, err := parseOptInt(cell(record, aggregate.CountCol(label)))
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", lineNo, aggregate.CountCol(label), err)
			}
			if countVal != nil {
				row.Count[label] = *countVal
			}
		}

		rows = append(rows, row)
	}

	return aggregate.NewChatTableWithColumns(rows, header), nil
}

func parseOptInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseOptFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// parseCSVBool accepts true/True/1 so tables produced by other tooling load
// cleanly. Anything else is false.
func parseCSVBool(s string) bool {
	return strings.EqualFold(s, "true") || s == "1"
}
