package checkout

import (
	"log"
	"net/http"
	"strconv"

	"mercato_back_end/internal/service"

	"github.com/gin-gonic/gin"
)

// Refund rembourse intégralement une commande payée et restitue le stock.
// Réservé aux administrateurs.
func (h *Handler) Refund(c *gin.Context) {
	if h.Service.Config.StripeSecretKey == "" {
		log.Println("❌ STRIPE_SECRET_KEY manquante")
		c.JSON(http.StatusInternalServerError, gin.H{"error": service.ErrStripeNotConfigured.Error()})
		return
	}

	orderID, err := strconv.ParseInt(c.Query("orderId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderId invalide"})
		return
	}

	order, err := h.Service.RefundOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("💰 Commande %d remboursée (refund %s)", order.ID, order.RefundID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Remboursement effectué avec succès",
		"orderId": order.ID,
	})
}
