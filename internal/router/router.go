package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/stylebook/backend/api/handler"
)

type Handlers struct {
	Booking *apiHandler.BookingHandler
	Health  *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Booking lifecycle
	r.POST("/api/v1/bookings", authMiddleware(handlers.Booking.Create))
	r.GET("/api/v1/bookings/{id}", authMiddleware(handlers.Booking.Get))
	r.POST("/api/v1/bookings/{id}/accept", authMiddleware(handlers.Booking.Accept))
	r.POST("/api/v1/bookings/{id}/confirm-payment", authMiddleware(handlers.Booking.ConfirmPayment))
	r.POST("/api/v1/bookings/{id}/start", authMiddleware(handlers.Booking.Start))
	r.POST("/api/v1/bookings/{id}/complete", authMiddleware(handlers.Booking.Complete))
	r.POST("/api/v1/bookings/{id}/cancel", authMiddleware(handlers.Booking.Cancel))
	r.POST("/api/v1/bookings/{id}/no-show", authMiddleware(handlers.Booking.NoShow))

	return r
}
