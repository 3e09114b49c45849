package router

import (
	"github.com/go-chi/chi/v5"

	"kbox/internal/handlers/auth"
	"kbox/internal/handlers/booking"
	"kbox/internal/handlers/payment"
	"kbox/internal/handlers/promotion"
	"kbox/internal/handlers/room"
	"kbox/internal/handlers/user"
)

type DomainHandlers struct {
	Auth      auth.Handler
	User      user.Handler
	Room      room.Handler
	Promotion promotion.Handler
	Booking   booking.Handler
	Payment   payment.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
}

func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		r.DomainHandlers.Auth.Router(routerGroup)
		r.DomainHandlers.User.Router(routerGroup)
		r.DomainHandlers.Room.Router(routerGroup)
		r.DomainHandlers.Promotion.Router(routerGroup)
		r.DomainHandlers.Booking.Router(routerGroup)
		r.DomainHandlers.Payment.Router(routerGroup)
	})
}

func New(domainHandlers DomainHandlers) Router {
	return Router{
		DomainHandlers: domainHandlers,
	}
}
