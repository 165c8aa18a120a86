package handlers

import (
	"net/http"

	"github.com/ghuser/rentledger/pkg/auth"
	"github.com/ghuser/rentledger/pkg/errhttp"
	"github.com/ghuser/rentledger/pkg/httpx"
	pkgvalidator "github.com/ghuser/rentledger/pkg/validator"
	appsvcs "github.com/ghuser/rentledger/services/rental/application/services"
)

// ListItemRequest is the request body for POST /items.
type ListItemRequest struct {
	Title            string `json:"title"              validate:"required,min=1,max=255" example:"Cordless Drill"`
	DailyRentalPrice uint64 `json:"daily_rental_price" validate:"required,gt=0"          example:"100"`
	Deposit          uint64 `json:"deposit"            validate:"required,gt=0"          example:"1000"`
	MetadataCID      string `json:"metadata_cid"       validate:"required,min=1"         example:"QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"`
} // @name ListItemRequest

// ListItemResponse is returned on successful listing creation.
type ListItemResponse struct {
	ID uint64 `json:"id" example:"1"`
} // @name ListItemResponse

// PostItemHandler handles POST /items requests.
type PostItemHandler struct {
	svc *appsvcs.Services
}

// NewPostItemHandler returns a PostItemHandler backed by the given services.
func NewPostItemHandler(svc *appsvcs.Services) *PostItemHandler {
	return &PostItemHandler{svc: svc}
}

// Execute lists a new item for rent, owned by the authenticated caller.
//
//	@Summary		List item for rent
//	@Description	Creates a new rental listing owned by the caller
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ListItemRequest	true	"Listing request"
//	@Success		201		{object}	ListItemResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/items [post]
func (h *PostItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.AccountIDFromCtx(r.Context())
	if err != nil {
		httpx.JSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	req, ok := pkgvalidator.ValidateRequest[ListItemRequest](w, r)
	if !ok {
		return
	}

	id, err := h.svc.Rental.ListItem(r.Context(), caller, req.Title, req.DailyRentalPrice, req.Deposit, req.MetadataCID)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, ListItemResponse{ID: id})
}
