package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ekkaluck/bangfai-ledger/internal/logger"
	"github.com/ekkaluck/bangfai-ledger/internal/models"
	"github.com/ekkaluck/bangfai-ledger/internal/services"
)

// --- Venues ---

// handleGetVenues returns all venues, active and inactive
func (h *Handlers) handleGetVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := h.Venue.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, venues)
}

// handleCreateVenue registers a new venue
func (h *Handlers) handleCreateVenue(w http.ResponseWriter, r *http.Request) {
	var req VenueRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	venue, err := h.Venue.Create(r.Context(), services.VenueInput{
		Name:        req.Name,
		Aliases:     req.Aliases,
		GroupID:     req.GroupID,
		RoomLink:    req.RoomLink,
		PaymentLink: req.PaymentLink,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, venue)
}

// handleGetVenue returns one venue by id
func (h *Handlers) handleGetVenue(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	venue, err := h.Venue.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, venue)
}

// handleUpdateVenue changes a venue's fields
func (h *Handlers) handleUpdateVenue(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var req VenueRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	venue, err := h.Venue.Update(r.Context(), id, services.VenueInput{
		Name:        req.Name,
		Aliases:     req.Aliases,
		GroupID:     req.GroupID,
		RoomLink:    req.RoomLink,
		PaymentLink: req.PaymentLink,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, venue)
}

// handleDeactivateVenue flips a venue inactive. Venues are never deleted.
func (h *Handlers) handleDeactivateVenue(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.Venue.Deactivate(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Venue deactivated")
}

// handleVenuePaymentQR renders the venue's payment destination as a QR PNG
func (h *Handlers) handleVenuePaymentQR(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	png, err := h.Venue.PaymentQR(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// --- Rounds ---

// handleGetRounds lists rounds, optionally filtered by venue_id and status
// query parameters
func (h *Handlers) handleGetRounds(w http.ResponseWriter, r *http.Request) {
	var venueID int
	if v := r.URL.Query().Get("venue_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, BadRequest("Invalid venue_id parameter"))
			return
		}
		venueID = id
	}

	var status models.RoundStatus
	if s := r.URL.Query().Get("status"); s != "" {
		switch models.RoundStatus(s) {
		case models.RoundOpen, models.RoundClosed, models.RoundSettled:
			status = models.RoundStatus(s)
		default:
			respondError(w, BadRequest("Invalid status parameter"))
			return
		}
	}

	rounds, err := h.Round.List(r.Context(), venueID, status)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, rounds)
}

// handleOpenRound opens a new round for a venue
func (h *Handlers) handleOpenRound(w http.ResponseWriter, r *http.Request) {
	var req RoundOpenRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	round, err := h.Round.Open(r.Context(), req.VenueID, req.FireworkNumber)
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, round)
}

// handleGetRound returns one round by id
func (h *Handlers) handleGetRound(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	round, err := h.Round.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, round)
}

// handleRoundReport returns a round together with every recorded bet
func (h *Handlers) handleRoundReport(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	report, err := h.Round.Report(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, report)
}

// handleCloseRound stops bet intake on an open round
func (h *Handlers) handleCloseRound(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	round, err := h.Round.Close(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, round)
}

// handleSettleRound settles a closed round against a winner set. Winner
// entries are raw bettor ids; name resolution is a chat-side concern.
func (h *Handlers) handleSettleRound(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var req RoundSettleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	settlement, err := h.Round.Settle(r.Context(), id, req.Winners)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, settlement)
}

// --- Bets ---

// handleGetRoundBets lists every bet recorded against a round
func (h *Handlers) handleGetRoundBets(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	bets, err := h.Ledger.BetsByRound(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, bets)
}

// handleRecordBet records a bet directly, bypassing the chat parsers. Used
// when an operator transcribes a wager taken outside the group chat.
func (h *Handlers) handleRecordBet(w http.ResponseWriter, r *http.Request) {
	var req BetRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	bet, err := h.Ledger.Record(r.Context(), models.Bet{
		RoundID:     req.RoundID,
		VenueID:     req.VenueID,
		Bettor:      req.Bettor,
		DisplayName: req.DisplayName,
		FireworkID:  req.FireworkID,
		BetType:     models.BetType(req.BetType),
		Amount:      req.Amount,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, bet)
}

// --- Settings ---

// handleGetSettings returns every stored setting
func (h *Handlers) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Settings.AllSettings(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, settings)
}

// handleUpdateSettings stores the submitted key/value pairs
func (h *Handlers) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	for key, value := range req {
		if err := h.Settings.SetSetting(r.Context(), key, value); err != nil {
			respondError(w, err)
			return
		}
	}
	respondSuccess(w, "Settings updated")
}

// handleGetOperators returns the chat operator id list
func (h *Handlers) handleGetOperators(w http.ResponseWriter, r *http.Request) {
	ops, err := h.Settings.Operators(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if ops == nil {
		ops = []string{}
	}
	respondOK(w, OperatorsResponse{Operators: ops})
}

// handleSetOperators replaces the chat operator id list
func (h *Handlers) handleSetOperators(w http.ResponseWriter, r *http.Request) {
	var req OperatorsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.Settings.SetOperators(r.Context(), req.Operators); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Operators updated")
}

// --- Logging control ---

// handleGetLogLevel returns the current log level
func (h *Handlers) handleGetLogLevel(w http.ResponseWriter, r *http.Request) {
	respondOK(w, LogLevelResponse{Level: strings.ToLower(h.Log.GetLevel().String())})
}

// handleSetLogLevel changes the log level at runtime
func (h *Handlers) handleSetLogLevel(w http.ResponseWriter, r *http.Request) {
	var req LogLevelRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	h.Log.SetLevel(logger.ParseLevel(req.Level))
	h.Log.Info("Log level changed", "level", req.Level)
	respondSuccess(w, "Log level updated")
}

// handleSetHTTPLogging toggles per-request HTTP logging
func (h *Handlers) handleSetHTTPLogging(w http.ResponseWriter, r *http.Request) {
	var req HTTPLoggingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if req.Enabled {
		h.Log.EnableHTTPLogging()
	} else {
		h.Log.DisableHTTPLogging()
	}
	respondSuccess(w, "HTTP logging updated")
}
