package handlers

// LoginRequest represents an admin login attempt
type LoginRequest struct {
	Password string `json:"password"`
}

// VenueRequest represents a request to create or update a venue
type VenueRequest struct {
	Name        string   `json:"name"`
	Aliases     []string `json:"aliases"`
	GroupID     string   `json:"group_id"`
	RoomLink    string   `json:"room_link"`
	PaymentLink string   `json:"payment_link"`
}

// RoundOpenRequest represents a request to open a betting round
type RoundOpenRequest struct {
	VenueID        int `json:"venue_id"`
	FireworkNumber int `json:"firework_number"`
}

// RoundSettleRequest represents a request to settle a closed round
type RoundSettleRequest struct {
	Winners []string `json:"winners"`
}

// BetRecordRequest represents a request to record a bet manually
type BetRecordRequest struct {
	RoundID     int    `json:"round_id"`
	VenueID     int    `json:"venue_id"`
	Bettor      string `json:"bettor"`
	DisplayName string `json:"display_name"`
	FireworkID  string `json:"firework_id"`
	BetType     string `json:"bet_type"`
	Amount      int64  `json:"amount"`
}

// OperatorsRequest represents a request to replace the operator list
type OperatorsRequest struct {
	Operators []string `json:"operators"`
}

// LogLevelRequest represents a request to change the log level
type LogLevelRequest struct {
	Level string `json:"level"`
}

// HTTPLoggingRequest represents a request to toggle HTTP request logging
type HTTPLoggingRequest struct {
	Enabled bool `json:"enabled"`
}
