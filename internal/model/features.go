package model

// ChatFeatures is one row of the chat-feature table: everything the group
// aggregation needs about a single negotiation. Nil numerics mean absent,
// never zero.
type ChatFeatures struct {
	Group               string
	ChatID              string
	MessageCount        *int
	Year                *int
	InitialRansomUSD    *float64
	NegotiatedRansomUSD *float64
	Paid                bool
	GaveDiscount        int      // 1 when negotiated < initial with both present
	DiscountRatio       *float64 // (initial - negotiated) / initial, else absent

	// Per taxonomy label: Any is the chat-wide 0/1 flag, Count increments once
	// per attacker message containing at least one hit sentence for the label.
	Any   map[string]int
	Count map[string]int
}

// GroupChatStats aggregates the chat-feature rows of one group. A nil rate
// means the source column was absent from the input table, not that the
// behavior never occurred.
type GroupChatStats struct {
	Group                   string
	NChats                  int
	NPaidChats              int
	SampleOfferRate         *float64
	KeyDeliveryRate         *float64
	ProofSuccessRate        *float64 // Conditioned on chats where a proof offer occurred
	LeakThreatRate          *float64
	DiscountFrequency       *float64
	DiscountGenerosity      *float64 // Mean of present discount ratios
	DeletionPromiseRate     *float64
	ViolationClaimRate      *float64
	ReextortionBehaviorRate *float64
	DataResaleAdmissionRate *float64
}

// GroupClaimStats aggregates the claim records of one group.
type GroupClaimStats struct {
	Group                        string
	TotalClaims                  int
	PublishedClaims              int
	PublishRate                  *float64
	ClaimsWithDeadline           int
	ClaimsWithDeadlineAndPublish int
	OnTimePublishRate            *float64 // Absent when no claim has both dates
}

// GroupFeatures is the outer join of the two aggregations for one group.
// A nil side means the group never appeared in that source.
type GroupFeatures struct {
	Group string
	Chat  *GroupChatStats
	Claim *GroupClaimStats
}

// CredibilityScore is the scored row for one group. Sub-scores live in [0,1]
// or are absent; Index is Raw scaled to 0-10.
type CredibilityScore struct {
	GroupFeatures
	R     *float64 // Reliability: does the group deliver working decryption
	T     *float64 // Threat follow-through: do leak threats turn into publication
	I     *float64 // Integrity: absence of post-payment misconduct signals
	Raw   *float64
	Index *float64
}
