package handlers

import (
	"net/http"

	"github.com/ghuser/rentledger/pkg/auth"
	"github.com/ghuser/rentledger/pkg/errhttp"
	"github.com/ghuser/rentledger/pkg/httpx"
	pkgvalidator "github.com/ghuser/rentledger/pkg/validator"
	appsvcs "github.com/ghuser/rentledger/services/rental/application/services"
)

// RentItemRequest is the request body for POST /items/{id}/rental.
// Payment must equal deposit + daily rental price exactly; anything else
// is rejected without moving funds.
type RentItemRequest struct {
	Payment uint64 `json:"payment" validate:"required,gt=0" example:"1100"`
} // @name RentItemRequest

// RentItemHandler handles POST /items/{id}/rental requests.
type RentItemHandler struct {
	svc *appsvcs.Services
}

// NewRentItemHandler returns a RentItemHandler backed by the given services.
func NewRentItemHandler(svc *appsvcs.Services) *RentItemHandler {
	return &RentItemHandler{svc: svc}
}

// Execute rents a listed item for the authenticated caller.
//
//	@Summary		Rent item
//	@Description	Rents a listed item. The payment must equal deposit + daily rental price exactly.
//	@Tags			rentals
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int				true	"Item ID"
//	@Param			request	body		RentItemRequest	true	"Rental payment"
//	@Success		200		{object}	ItemResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		402		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/items/{id}/rental [post]
func (h *RentItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.AccountIDFromCtx(r.Context())
	if err != nil {
		httpx.JSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	id, ok := itemIDFromRequest(w, r)
	if !ok {
		return
	}

	req, ok := pkgvalidator.ValidateRequest[RentItemRequest](w, r)
	if !ok {
		return
	}

	item, err := h.svc.Rental.RentItem(r.Context(), id, caller, req.Payment)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, newItemResponse(item))
}
