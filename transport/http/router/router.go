package router

import (
	"tutorhub/internal/handlers/booking"
	"tutorhub/internal/handlers/ops"
	"tutorhub/internal/handlers/provider"
	"tutorhub/internal/handlers/session"

	"github.com/go-chi/chi/v5"
)

type DomainHandlers struct {
	Booking  booking.Handler
	Session  session.Handler
	Provider provider.Handler
	Ops      ops.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
}

func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		r.DomainHandlers.Booking.Router(routerGroup)
		r.DomainHandlers.Session.Router(routerGroup)
		r.DomainHandlers.Provider.Router(routerGroup)
		r.DomainHandlers.Ops.Router(routerGroup)
	})
}

func New(domainHandlers DomainHandlers) Router {
	return Router{
		DomainHandlers: domainHandlers,
	}
}
