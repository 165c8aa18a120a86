// Package errhttp maps domain sentinel errors to HTTP status codes.
// Add a case to mapErrorToStatus for each new domain sentinel error.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/ghuser/rentledger/pkg/httpx"
	rentaldomain "github.com/ghuser/rentledger/services/rental/domain"
)

// WriteError maps err to an HTTP status code and writes a JSON error response.
// Uses errors.Is() so wrapped sentinel errors are matched correctly.
// Defaults to 500 Internal Server Error for unrecognized errors.
func WriteError(w http.ResponseWriter, err error) {
	httpx.JSONError(w, mapErrorToStatus(err), err.Error())
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, rentaldomain.ErrInvalidTitle),
		errors.Is(err, rentaldomain.ErrInvalidPrice),
		errors.Is(err, rentaldomain.ErrInvalidDeposit),
		errors.Is(err, rentaldomain.ErrInvalidMetadata):
		return http.StatusUnprocessableEntity // 422
	case errors.Is(err, rentaldomain.ErrInvalidAccount):
		return http.StatusUnauthorized
	case errors.Is(err, rentaldomain.ErrItemNotFound):
		return http.StatusNotFound // 404
	case errors.Is(err, rentaldomain.ErrItemNotListed):
		return http.StatusConflict // 409
	case errors.Is(err, rentaldomain.ErrNotOwner),
		errors.Is(err, rentaldomain.ErrNotCurrentRenter),
		errors.Is(err, rentaldomain.ErrOwnItemRental):
		return http.StatusForbidden // 403
	case errors.Is(err, rentaldomain.ErrIncorrectPayment):
		return http.StatusPaymentRequired // 402
	case errors.Is(err, rentaldomain.ErrReentrantCall):
		return http.StatusLocked // 423
	default:
		return http.StatusInternalServerError // 500
	}
}
