package model

import "strings"

// Chat represents one negotiation thread between a ransomware group and a victim
type Chat struct {
	Group     string    `json:"group"`                // Group identifier (e.g., "akira")
	ChatID    string    `json:"chat_id"`              // Unique within a group, often YYYYMMDD-prefixed
	Victim    string    `json:"victim,omitempty"`     // Victim label when the source exposes one
	StartedAt string    `json:"started_at,omitempty"` // Timestamp of the first message, as received
	EndedAt   string    `json:"ended_at,omitempty"`   // Timestamp of the last message, as received
	Messages  []Message `json:"messages"`             // Ordered transcript
	Meta      ChatMeta  `json:"meta"`                 // Ransom metadata from the chat listing
}

// Message represents one turn in a chat. The author role is derived, never
// stored: any party other than "victim" (case-insensitive, after trimming)
// counts as the attacker, including empty or unknown parties.
type Message struct {
	Party   string `json:"party"`
	Content string `json:"content"`
	Time    string `json:"time,omitempty"`
}

// ChatMeta carries the negotiation metadata attached to a chat listing.
// Amounts are free-text strings ("$ 900,000", "N/A") parsed downstream.
type ChatMeta struct {
	MessageCount     *int   `json:"message_count,omitempty"`
	InitialRansom    string `json:"initialransom,omitempty"`
	NegotiatedRansom string `json:"negotiatedransom,omitempty"`
	Paid             bool   `json:"paid,omitempty"` // Absent means false; may undercount paid chats
}

// AttackerAuthored reports whether the message counts toward attacker
// aggregation. Unknown and empty parties count as attacker on purpose.
func (m Message) AttackerAuthored() bool {
	return strings.ToLower(strings.TrimSpace(m.Party)) != "victim"
}
