package handlers

import (
	"net/http"

	"github.com/ghuser/rentledger/pkg/auth"
	"github.com/ghuser/rentledger/pkg/errhttp"
	"github.com/ghuser/rentledger/pkg/httpx"
	appsvcs "github.com/ghuser/rentledger/services/rental/application/services"
	"github.com/ghuser/rentledger/services/rental/domain/models"
)

// QuoteResponse previews what a return would cost right now, without
// settling anything.
type QuoteResponse struct {
	RentalDays     uint64 `json:"rental_days"      example:"5"`
	OverdueDays    uint64 `json:"overdue_days"     example:"0"`
	RentalFee      uint64 `json:"rental_fee"       example:"500"`
	LateFee        uint64 `json:"late_fee"         example:"0"`
	PaymentToOwner uint64 `json:"payment_to_owner" example:"500"`
	DepositRefund  uint64 `json:"deposit_refund"   example:"500"`
} // @name QuoteResponse

// MyItemsHandler handles GET /items/mine requests.
type MyItemsHandler struct {
	svc *appsvcs.Services
}

// NewMyItemsHandler returns a MyItemsHandler backed by the given services.
func NewMyItemsHandler(svc *appsvcs.Services) *MyItemsHandler {
	return &MyItemsHandler{svc: svc}
}

// Execute returns every item the caller has listed, available or rented out.
//
//	@Summary		My listings
//	@Description	Returns all items owned by the caller
//	@Tags			items
//	@Produce		json
//	@Success		200	{array}		ItemResponse
//	@Failure		401	{object}	ErrorResponse
//	@Router			/items/mine [get]
func (h *MyItemsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.AccountIDFromCtx(r.Context())
	if err != nil {
		httpx.JSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	items := h.svc.Rental.ItemsOwnedBy(r.Context(), caller)
	httpx.JSON(w, http.StatusOK, itemResponses(items))
}

// MyRentalsHandler handles GET /rentals/mine requests.
type MyRentalsHandler struct {
	svc *appsvcs.Services
}

// NewMyRentalsHandler returns a MyRentalsHandler backed by the given services.
func NewMyRentalsHandler(svc *appsvcs.Services) *MyRentalsHandler {
	return &MyRentalsHandler{svc: svc}
}

// Execute returns the items the caller currently holds as renter.
//
//	@Summary		My rentals
//	@Description	Returns the items currently rented by the caller
//	@Tags			rentals
//	@Produce		json
//	@Success		200	{array}		ItemResponse
//	@Failure		401	{object}	ErrorResponse
//	@Router			/rentals/mine [get]
func (h *MyRentalsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.AccountIDFromCtx(r.Context())
	if err != nil {
		httpx.JSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	items := h.svc.Rental.ItemsRentedBy(r.Context(), caller)
	httpx.JSON(w, http.StatusOK, itemResponses(items))
}

// QuoteHandler handles GET /items/{id}/quote requests.
type QuoteHandler struct {
	svc *appsvcs.Services
}

// NewQuoteHandler returns a QuoteHandler backed by the given services.
func NewQuoteHandler(svc *appsvcs.Services) *QuoteHandler {
	return &QuoteHandler{svc: svc}
}

// Execute previews the settlement for an active rental at the current time.
//
//	@Summary		Settlement quote
//	@Description	Previews the fees a return would settle right now. Fails when the item is not rented.
//	@Tags			rentals
//	@Produce		json
//	@Param			id	path		int	true	"Item ID"
//	@Success		200	{object}	QuoteResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/items/{id}/quote [get]
func (h *QuoteHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := itemIDFromRequest(w, r)
	if !ok {
		return
	}

	quote, err := h.svc.Rental.Quote(r.Context(), id)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, QuoteResponse{
		RentalDays:     quote.RentalDays,
		OverdueDays:    quote.OverdueDays,
		RentalFee:      quote.RentalFee,
		LateFee:        quote.LateFee,
		PaymentToOwner: quote.PaymentToOwner,
		DepositRefund:  quote.DepositRefund,
	})
}

func itemResponses(items []models.Item) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, newItemResponse(item))
	}
	return out
}
