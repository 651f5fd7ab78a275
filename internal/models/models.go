package models

import "time"

// RoundStatus is the lifecycle state of a betting round.
// Transitions are strictly forward: open -> closed -> settled.
type RoundStatus string

const (
	RoundOpen    RoundStatus = "open"
	RoundClosed  RoundStatus = "closed"
	RoundSettled RoundStatus = "settled"
)

// BetResult is the outcome of a single bet. It stays pending until the
// owning round is settled, then becomes win or lose and never reverts.
type BetResult string

const (
	BetPending BetResult = "pending"
	BetWin     BetResult = "win"
	BetLose    BetResult = "lose"
)

// BetType is a canonical wager category after alias normalization.
type BetType string

const (
	BetRetreat     BetType = "retreat"
	BetHold        BetType = "hold"
	BetUpper       BetType = "upper"
	BetLower       BetType = "lower"
	BetMinus       BetType = "minus"
	BetVenueAliasA BetType = "venue-alias-A"
	BetIntercept   BetType = "intercept"
)

// Venue is a launch site participants bet on. Venues are never hard deleted
// so historical bets keep a resolvable reference.
type Venue struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Aliases     []string  `json:"aliases,omitempty"`
	GroupID     string    `json:"group_id,omitempty"` // LINE group bound to this venue
	RoomLink    string    `json:"room_link"`
	PaymentLink string    `json:"payment_link,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Round is one contest instance accepting wagers, identified by venue plus
// the contest's own firework number.
type Round struct {
	ID             int         `json:"id"`
	VenueID        int         `json:"venue_id"`
	FireworkNumber int         `json:"firework_number"`
	Status         RoundStatus `json:"status"`
	Winners        []string    `json:"winners,omitempty"`

	// Aggregates are computed once at settlement and frozen.
	// They are nil while Status != settled.
	TotalBets    *int   `json:"total_bets,omitempty"`
	TotalRevenue *int64 `json:"total_revenue,omitempty"`
	TotalPayout  *int64 `json:"total_payout,omitempty"`
	Profit       *int64 `json:"profit,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// Bet is a single recorded wager, immutable after creation except for
// Result which settlement sets exactly once.
type Bet struct {
	ID          int       `json:"id"`
	RoundID     int       `json:"round_id"`
	Bettor      string    `json:"bettor"` // stable chat account id
	DisplayName string    `json:"display_name,omitempty"`
	VenueID     int       `json:"venue_id"`
	FireworkID  string    `json:"firework_id,omitempty"`
	BetType     BetType   `json:"bet_type"`
	Amount      int64     `json:"amount"`
	Result      BetResult `json:"result"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// Settlement is the frozen financial outcome of a settled round.
// Profit may be negative; the house losing a round is a valid outcome.
type Settlement struct {
	RoundID      int      `json:"round_id"`
	Winners      []string `json:"winners"`
	TotalBets    int      `json:"total_bets"`
	TotalRevenue int64    `json:"total_revenue"`
	TotalPayout  int64    `json:"total_payout"`
	Profit       int64    `json:"profit"`
}

// RoundAggregates is a consistent snapshot of a round's recorded bets.
type RoundAggregates struct {
	Count int   `json:"count"`
	Sum   int64 `json:"sum"`
}

// InboundEvent is one chat message as delivered by the transport.
// Signature verification has already happened upstream.
type InboundEvent struct {
	Text        string
	Bettor      string
	DisplayName string
	VenueHint   string // chat room / group id the message arrived in
	ReplyTarget string // token to reply into the originating chat
	ReceivedAt  time.Time
}

// WSMessage is a message broadcast to dashboard WebSocket clients.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
