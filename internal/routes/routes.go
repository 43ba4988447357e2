package routes

import (
	"time"

	"mercato_back_end/internal/config"
	"mercato_back_end/internal/handlers/checkout"
	"mercato_back_end/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes monte les endpoints checkout sur le moteur Gin
func RegisterRoutes(r *gin.Engine, cfg *config.Config, h *checkout.Handler) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Stripe-Signature"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	co := r.Group("/checkout")
	{
		co.POST("/create-session", h.CreateSession)
		co.POST("/cart/summary", h.CartSummary)
		co.POST("/webhook", h.Webhook)
		co.GET("/orders", h.Orders)
		co.GET("/products", h.Products)

		// Remboursement réservé aux administrateurs
		co.POST("/refund", middleware.AuthRequired(cfg), middleware.RequireAdmin, h.Refund)
	}
}
