package checkout

import (
	"errors"
	"log"
	"net/http"

	"mercato_back_end/internal/payments"

	"github.com/gin-gonic/gin"
)

// Webhook reçoit les notifications du prestataire de paiement. Un 200
// acquitte l'événement, tout autre statut provoque une relivraison.
func (h *Handler) Webhook(c *gin.Context) {
	const maxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	payload, err := c.GetRawData()
	if err != nil {
		log.Println("❌ Lecture payload échouée:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Échec lecture body"})
		return
	}

	err = h.Service.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if errors.Is(err, payments.ErrSignature) {
		log.Println("❌ Signature de webhook invalide")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
		return
	}
	if err != nil {
		// Réponse non-200 : le prestataire retentera la livraison
		log.Printf("❌ Traitement du webhook échoué : %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Traitement échoué"})
		return
	}

	c.Status(http.StatusOK)
}
