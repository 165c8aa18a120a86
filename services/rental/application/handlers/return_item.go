package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ghuser/rentledger/pkg/auth"
	"github.com/ghuser/rentledger/pkg/errhttp"
	"github.com/ghuser/rentledger/pkg/httpx"
	appsvcs "github.com/ghuser/rentledger/services/rental/application/services"
)

// SettlementResponse reports the outcome of a completed return. The fee
// figures are the uncapped economic amounts; the funds actually moved are
// payment_to_owner + deposit_refund.
type SettlementResponse struct {
	ItemID         uint64    `json:"item_id"          example:"1"`
	Owner          uuid.UUID `json:"owner"            example:"123e4567-e89b-12d3-a456-426614174000"`
	Renter         uuid.UUID `json:"renter"           example:"550e8400-e29b-41d4-a716-446655440000"`
	RentalDays     uint64    `json:"rental_days"      example:"5"`
	OverdueDays    uint64    `json:"overdue_days"     example:"0"`
	RentalFee      uint64    `json:"rental_fee_paid"  example:"500"`
	LateFee        uint64    `json:"late_fee_paid"    example:"0"`
	PaymentToOwner uint64    `json:"payment_to_owner" example:"500"`
	DepositRefund  uint64    `json:"deposit_refunded" example:"500"`
} // @name SettlementResponse

// ReturnItemHandler handles POST /items/{id}/return requests.
type ReturnItemHandler struct {
	svc *appsvcs.Services
}

// NewReturnItemHandler returns a ReturnItemHandler backed by the given services.
func NewReturnItemHandler(svc *appsvcs.Services) *ReturnItemHandler {
	return &ReturnItemHandler{svc: svc}
}

// Execute settles the caller's active rental and relists the item.
//
//	@Summary		Return item
//	@Description	Returns a rented item, settling fees from the deposit and refunding the remainder to the renter.
//	@Tags			rentals
//	@Produce		json
//	@Param			id	path		int	true	"Item ID"
//	@Success		200	{object}	SettlementResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/items/{id}/return [post]
func (h *ReturnItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.AccountIDFromCtx(r.Context())
	if err != nil {
		httpx.JSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	id, ok := itemIDFromRequest(w, r)
	if !ok {
		return
	}

	settlement, err := h.svc.Rental.ReturnItem(r.Context(), id, caller)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, SettlementResponse{
		ItemID:         settlement.ItemID,
		Owner:          settlement.Owner,
		Renter:         settlement.Renter,
		RentalDays:     settlement.RentalDays,
		OverdueDays:    settlement.OverdueDays,
		RentalFee:      settlement.RentalFee,
		LateFee:        settlement.LateFee,
		PaymentToOwner: settlement.PaymentToOwner,
		DepositRefund:  settlement.DepositRefund,
	})
}
