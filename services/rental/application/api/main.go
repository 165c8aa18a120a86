package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/ghuser/rentledger/pkg/app"
	"github.com/ghuser/rentledger/pkg/auth"
	"github.com/ghuser/rentledger/services/rental/application/handlers"
	appsvcs "github.com/ghuser/rentledger/services/rental/application/services"
)

// RentalRoutes registers rental endpoints on the provided chi router.
// Browsing endpoints are public; anything that identifies or acts on behalf
// of a caller requires a session.
func RentalRoutes(r chi.Router, a *app.Application) {
	svcs := appsvcs.New(a)

	r.Route("/items", func(r chi.Router) {
		// Public read surface.
		r.Get("/", handlers.NewListItemsHandler(svcs).Execute)
		r.Get("/stats", handlers.NewStatsHandler(svcs).Execute)
		r.Get("/{id}", handlers.NewGetItemHandler(svcs).Execute)
		r.Get("/{id}/quote", handlers.NewQuoteHandler(svcs).Execute)
		r.Get("/{id}/settlements", handlers.NewSettlementsHandler(svcs).Execute)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(a.SessionStore, a.Logger))
			r.Post("/", handlers.NewPostItemHandler(svcs).Execute)
			r.Get("/mine", handlers.NewMyItemsHandler(svcs).Execute)
			r.Delete("/{id}/listing", handlers.NewDelistItemHandler(svcs).Execute)
			r.Post("/{id}/rental", handlers.NewRentItemHandler(svcs).Execute)
			r.Post("/{id}/return", handlers.NewReturnItemHandler(svcs).Execute)
		})
	})

	r.Route("/rentals", func(r chi.Router) {
		r.Use(auth.RequireAuth(a.SessionStore, a.Logger))
		r.Get("/mine", handlers.NewMyRentalsHandler(svcs).Execute)
	})
}
