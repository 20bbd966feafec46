package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/vpenkov/perfidia/internal/model"
	"github.com/vpenkov/perfidia/internal/util"
	"github.com/vpenkov/perfidia/internal/worker"
)

// SourceRansomwhere tags records collected from the ransomwhe.re export
const SourceRansomwhere = "ransomwhere"

// Ransomwhere is a client for the ransomwhe.re payment tracker
type Ransomwhere struct {
	baseURL    string
	httpClient *http.Client
	limiter    *worker.Limiter
	userAgent  string
}

// NewRansomwhere creates a ransomwhe.re collector from configuration
func NewRansomwhere(cfg *model.Config) *Ransomwhere {
	return &Ransomwhere{
		baseURL: cfg.Collect.RansomwhereURL,
		httpClient: &http.Client{
			Timeout: cfg.HTTP.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy),
			},
		},
		limiter:   worker.NewLimiter(cfg.Collect.RequestsPerSecond, cfg.Collect.Burst),
		userAgent: cfg.HTTP.UserAgent,
	}
}

// paymentEntry is one address row of the ransomwhe.re export
type paymentEntry struct {
	Family       string `json:"family"`
	Address      string `json:"address"`
	Transactions []struct {
		AmountUSD float64 `json:"amountUSD"`
		Time      int64   `json:"time"`
	} `json:"transactions"`
}

// Payments fetches the full export and folds each address's transactions
// into one Payment: summed USD, transaction count, and the earliest
// transaction time. An address with no transactions still yields a row
// with a zero amount.
func (c *Ransomwhere) Payments(ctx context.Context) ([]model.Payment, error) {
	if err := c.limiter.Wait(ctx, c.baseURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/export", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("export: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var wrapper struct {
		Result []paymentEntry `json:"result"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}

	payments := make([]model.Payment, 0, len(wrapper.Result))
	for _, row := range wrapper.Result {
		payments = append(payments, foldPayment(row))
	}

	sort.Slice(payments, func(i, j int) bool {
		if payments[i].Family != payments[j].Family {
			return payments[i].Family < payments[j].Family
		}
		return payments[i].Address < payments[j].Address
	})
	return payments, nil
}

func foldPayment(row paymentEntry) model.Payment {
	address := row.Address
	if address == "" {
		address = "unknown"
	}

	var sum float64
	var firstTx int64
	for _, tx := range row.Transactions {
		sum += tx.AmountUSD
		if firstTx == 0 || (tx.Time > 0 && tx.Time < firstTx) {
			firstTx = tx.Time
		}
	}

	payment := model.Payment{
		Source:    SourceRansomwhere,
		Family:    row.Family,
		Group:     row.Family,
		Address:   address,
		AmountUSD: &sum,
		TxCount:   len(row.Transactions),
	}
	if firstTx > 0 {
		payment.FirstTxAt = time.Unix(firstTx, 0).UTC().Format(time.RFC3339)
	}
	return payment
}
