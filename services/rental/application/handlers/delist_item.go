package handlers

import (
	"net/http"

	"github.com/ghuser/rentledger/pkg/auth"
	"github.com/ghuser/rentledger/pkg/errhttp"
	"github.com/ghuser/rentledger/pkg/httpx"
	appsvcs "github.com/ghuser/rentledger/services/rental/application/services"
)

// DelistItemHandler handles DELETE /items/{id}/listing requests.
type DelistItemHandler struct {
	svc *appsvcs.Services
}

// NewDelistItemHandler returns a DelistItemHandler backed by the given services.
func NewDelistItemHandler(svc *appsvcs.Services) *DelistItemHandler {
	return &DelistItemHandler{svc: svc}
}

// Execute takes the caller's listed item off the market.
//
//	@Summary		Delist item
//	@Description	Removes the caller's available item from the market. Rented items cannot be delisted until returned.
//	@Tags			items
//	@Produce		json
//	@Param			id	path	int	true	"Item ID"
//	@Success		204
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Router			/items/{id}/listing [delete]
func (h *DelistItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.AccountIDFromCtx(r.Context())
	if err != nil {
		httpx.JSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	id, ok := itemIDFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.svc.Rental.DelistItem(r.Context(), id, caller); err != nil {
		errhttp.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
