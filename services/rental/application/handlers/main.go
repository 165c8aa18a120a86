// Package handlers contains the HTTP handlers for the rental bounded context.
// Each handler is a small struct around the application services with a single
// Execute method, registered in application/api.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ghuser/rentledger/pkg/httpx"
	"github.com/ghuser/rentledger/services/rental/domain/models"
)

// ErrorResponse is returned on all error responses.
type ErrorResponse struct {
	Error string `json:"error" example:"item does not exist"`
} // @name ErrorResponse

// ItemResponse is the wire representation of a rental item.
type ItemResponse struct {
	ID               uint64     `json:"id"                          example:"1"`
	Title            string     `json:"title"                       example:"Cordless Drill"`
	Owner            uuid.UUID  `json:"owner"                       example:"123e4567-e89b-12d3-a456-426614174000"`
	DailyRentalPrice uint64     `json:"daily_rental_price"          example:"100"`
	Deposit          uint64     `json:"deposit"                     example:"1000"`
	MetadataCID      string     `json:"metadata_cid"                example:"QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"`
	IsListed         bool       `json:"is_listed"                   example:"true"`
	Renter           *uuid.UUID `json:"renter,omitempty"            example:"550e8400-e29b-41d4-a716-446655440000"`
	RentalStartTime  *time.Time `json:"rental_start_time,omitempty" example:"2024-01-15T10:30:00Z"`
} // @name ItemResponse

// newItemResponse converts a domain item snapshot into its wire form.
// Renter and RentalStartTime are omitted when the item is not rented.
func newItemResponse(item models.Item) ItemResponse {
	resp := ItemResponse{
		ID:               item.ID,
		Title:            item.Title,
		Owner:            item.Owner,
		DailyRentalPrice: item.DailyRentalPrice,
		Deposit:          item.Deposit,
		MetadataCID:      item.MetadataCID,
		IsListed:         item.IsListed,
	}
	if item.Rented() {
		renter := item.Renter
		start := item.RentalStartTime
		resp.Renter = &renter
		resp.RentalStartTime = &start
	}
	return resp
}

// itemIDFromRequest parses the {id} route parameter. Writes a 400 response
// and returns false when the parameter is not a positive integer.
func itemIDFromRequest(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid item id")
		return 0, false
	}
	return id, true
}
