package routes

import (
	"net/http"
	"time"

	"slotwise/handlers"
	"slotwise/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups the handlers the router wires up.
type HandlerBundle struct {
	Booking      *handlers.BookingHandler
	Payment      *handlers.PaymentHandler
	Webhook      *handlers.WebhookHandler
	Availability *handlers.AvailabilityHandler
	Health       gin.HandlerFunc
	JWTSecret    string
}

// Register attaches every endpoint to the router.
func Register(r *gin.Engine, hb *HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", handlers.SignatureHeader},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}))

	r.GET("/healthz", hb.Health)

	api := r.Group("/api")

	// The gateway signs its deliveries; no bearer auth on this route.
	api.POST("/webhooks/gateway", hb.Webhook.Handle)

	api.GET("/resources/:id/availability", hb.Availability.Get)

	authed := api.Group("")
	authed.Use(middleware.IdentityMiddleware(hb.JWTSecret))
	{
		authed.POST("/bookings", hb.Booking.Create)
		authed.GET("/bookings/:id", hb.Booking.Get)
		authed.DELETE("/bookings/:id", hb.Booking.Cancel)
		authed.POST("/bookings/:id/consent", hb.Booking.AttachConsent)
		authed.POST("/bookings/confirm", hb.Payment.Confirm)
		authed.GET("/businesses/:id/bookings", hb.Booking.ListForBusiness)
		authed.POST("/payments/create-intent", hb.Payment.CreateIntent)
	}
}
