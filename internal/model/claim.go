package model

import "strings"

// Claim represents one leak-site claim record. Date fields stay raw strings
// at this layer; aggregation parses them leniently and treats unparseable
// values as absent rather than failing the row.
type Claim struct {
	Source      string `json:"source,omitempty"`       // Collector origin (e.g., "ransomware.live")
	Group       string `json:"group"`                  // Attacker group identifier
	Victim      string `json:"victim,omitempty"`       // Victim name or domain where exposed
	Sector      string `json:"sector,omitempty"`       // Victim activity/sector
	Country     string `json:"country,omitempty"`      // Victim country code
	ClaimDate   string `json:"claim_date,omitempty"`   // When the claim was discovered
	PublishDate string `json:"publish_date,omitempty"` // Empty until data is published
	Deadline    string `json:"deadline,omitempty"`     // Payment deadline, rarely supplied
	PostURL     string `json:"post_url,omitempty"`     // Leak-site posting URL
}

// Published reports whether the claim carries any publish marker. A non-empty
// publish string counts even when it fails date parsing; on-time computations
// use the parsed date separately.
func (c Claim) Published() bool {
	return strings.TrimSpace(c.PublishDate) != ""
}

// Payment represents an on-chain payment summary for one receiving address.
// Payments are archived for audit and do not feed the credibility formulas.
type Payment struct {
	Source    string   `json:"source"`
	Family    string   `json:"family,omitempty"` // Malware family as reported upstream
	Group     string   `json:"group,omitempty"`  // Group attribution (family, for now)
	Address   string   `json:"address"`
	FirstTxAt string   `json:"first_tx_at,omitempty"` // RFC 3339 timestamp of the earliest transaction
	AmountUSD *float64 `json:"amount_usd,omitempty"`  // Summed USD value across transactions
	TxCount   int      `json:"tx_count,omitempty"`
}
