package handlers

import (
	"net/http"

	"github.com/ekkaluck/bangfai-ledger/internal/models"
)

// handleLineWebhook receives LINE messaging events. The transport client
// verifies the channel signature while parsing; a bad signature gets a 400
// so LINE retries nothing. Individual message failures are logged, never
// surfaced, because the webhook must answer 200 for the batch or LINE
// redelivers every event in it.
func (h *Handlers) handleLineWebhook(w http.ResponseWriter, r *http.Request) {
	messages, err := h.Line.ParseWebhook(r)
	if err != nil {
		h.Log.Warn("Webhook rejected", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	for _, msg := range messages {
		if msg.Text == "" {
			continue
		}
		ev := models.InboundEvent{
			Text:        msg.Text,
			Bettor:      msg.UserID,
			DisplayName: h.Line.DisplayName(ctx, msg.GroupID, msg.UserID),
			VenueHint:   msg.GroupID,
			ReplyTarget: msg.ReplyToken,
			ReceivedAt:  msg.ReceivedAt,
		}
		if err := h.Chat.HandleMessage(ctx, ev); err != nil {
			h.Log.Error("Chat message handling failed", "error", err, "bettor", ev.Bettor)
		}
	}

	w.WriteHeader(http.StatusOK)
}
