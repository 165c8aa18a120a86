package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/rentledger/pkg/httpx"
	appsvcs "github.com/ghuser/rentledger/services/rental/application/services"
)

// SettlementRecordResponse is one historical settlement from the read-side
// projection. The projection is fed by domain events, so very recent returns
// may not have landed yet.
type SettlementRecordResponse struct {
	EventID         uuid.UUID `json:"event_id"         example:"123e4567-e89b-12d3-a456-426614174000"`
	ItemID          uint64    `json:"item_id"          example:"1"`
	Renter          uuid.UUID `json:"renter"           example:"550e8400-e29b-41d4-a716-446655440000"`
	RentalFeePaid   uint64    `json:"rental_fee_paid"  example:"500"`
	DepositRefunded uint64    `json:"deposit_refunded" example:"500"`
	LateFeePaid     uint64    `json:"late_fee_paid"    example:"0"`
	SettledAt       time.Time `json:"settled_at"       example:"2024-01-20T10:30:00Z"`
} // @name SettlementRecordResponse

// SettlementsHandler handles GET /items/{id}/settlements requests.
type SettlementsHandler struct {
	svc *appsvcs.Services
}

// NewSettlementsHandler returns a SettlementsHandler backed by the given services.
func NewSettlementsHandler(svc *appsvcs.Services) *SettlementsHandler {
	return &SettlementsHandler{svc: svc}
}

// Execute returns the settlement history for one item, newest first.
//
//	@Summary		Settlement history
//	@Description	Returns past settlements for an item from the read-side projection
//	@Tags			rentals
//	@Produce		json
//	@Param			id	path		int	true	"Item ID"
//	@Success		200	{array}		SettlementRecordResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/items/{id}/settlements [get]
func (h *SettlementsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := itemIDFromRequest(w, r)
	if !ok {
		return
	}

	rows, err := h.svc.History.SettlementsByItem(r.Context(), id)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed to load settlement history")
		return
	}

	out := make([]SettlementRecordResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, SettlementRecordResponse{
			EventID:         row.EventID,
			ItemID:          row.ItemID,
			Renter:          row.Renter,
			RentalFeePaid:   row.RentalFeePaid,
			DepositRefunded: row.DepositRefunded,
			LateFeePaid:     row.LateFeePaid,
			SettledAt:       row.SettledAt,
		})
	}

	httpx.JSON(w, http.StatusOK, out)
}
