package handlers

import (
	"net/http"
	"strconv"

	"github.com/ghuser/rentledger/pkg/httpx"
	appsvcs "github.com/ghuser/rentledger/services/rental/application/services"
)

const defaultPageLimit = 50

// ListedItemsResponse is returned by the listings page endpoint. IDs are
// ascending; offset is an absolute position in id-space, not a count of
// listed matches, so pages may come back shorter than limit even when more
// listed items exist at higher ids.
type ListedItemsResponse struct {
	IDs    []uint64 `json:"ids"`
	Offset uint64   `json:"offset" example:"0"`
	Limit  uint64   `json:"limit"  example:"50"`
} // @name ListedItemsResponse

// StatsResponse reports platform-wide counters.
type StatsResponse struct {
	TotalItems    uint64 `json:"total_items"    example:"42"`
	EscrowBalance uint64 `json:"escrow_balance" example:"3300"`
} // @name StatsResponse

// ListItemsHandler handles GET /items requests.
type ListItemsHandler struct {
	svc *appsvcs.Services
}

// NewListItemsHandler returns a ListItemsHandler backed by the given services.
func NewListItemsHandler(svc *appsvcs.Services) *ListItemsHandler {
	return &ListItemsHandler{svc: svc}
}

// Execute returns one page of currently listed item ids.
//
//	@Summary		Browse listings
//	@Description	Returns ids of items currently listed for rent. Offset addresses id-space, not match count.
//	@Tags			items
//	@Produce		json
//	@Param			offset	query		int	false	"Absolute id-space offset"	default(0)
//	@Param			limit	query		int	false	"Maximum ids to return"		default(50)
//	@Success		200		{object}	ListedItemsResponse
//	@Failure		400		{object}	ErrorResponse
//	@Router			/items [get]
func (h *ListItemsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	offset, ok := queryUint(w, r, "offset", 0)
	if !ok {
		return
	}
	limit, ok := queryUint(w, r, "limit", defaultPageLimit)
	if !ok {
		return
	}

	ids := h.svc.Rental.ListedItemIDs(r.Context(), offset, limit)
	if ids == nil {
		ids = []uint64{}
	}

	httpx.JSON(w, http.StatusOK, ListedItemsResponse{
		IDs:    ids,
		Offset: offset,
		Limit:  limit,
	})
}

// StatsHandler handles GET /items/stats requests.
type StatsHandler struct {
	svc *appsvcs.Services
}

// NewStatsHandler returns a StatsHandler backed by the given services.
func NewStatsHandler(svc *appsvcs.Services) *StatsHandler {
	return &StatsHandler{svc: svc}
}

// Execute returns the total item count and the escrow balance.
//
//	@Summary		Platform stats
//	@Description	Returns the number of items ever listed and the funds currently held in escrow
//	@Tags			items
//	@Produce		json
//	@Success		200	{object}	StatsResponse
//	@Router			/items/stats [get]
func (h *StatsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, StatsResponse{
		TotalItems:    h.svc.Rental.TotalItems(r.Context()),
		EscrowBalance: h.svc.Rental.EscrowBalance(r.Context()),
	})
}

// queryUint parses an optional unsigned integer query parameter. Writes a
// 400 response and returns false when the value is present but malformed.
func queryUint(w http.ResponseWriter, r *http.Request, name string, fallback uint64) (uint64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid "+name+" parameter")
		return 0, false
	}
	return v, true
}
