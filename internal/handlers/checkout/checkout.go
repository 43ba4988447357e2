package checkout

import (
	"errors"
	"log"
	"net/http"

	"mercato_back_end/internal/models"
	"mercato_back_end/internal/service"

	"github.com/gin-gonic/gin"
)

// Handler regroupe les endpoints checkout autour du service métier.
type Handler struct {
	Service *service.Service
}

func New(s *service.Service) *Handler {
	return &Handler{Service: s}
}

// CreateSession crée la commande Pending et la session de paiement hébergée
func (h *Handler) CreateSession(c *gin.Context) {
	if h.Service.Config.StripeSecretKey == "" {
		log.Println("❌ STRIPE_SECRET_KEY manquante")
		c.JSON(http.StatusInternalServerError, gin.H{"error": service.ErrStripeNotConfigured.Error()})
		return
	}

	var req struct {
		CustomerEmail string            `json:"customerEmail" binding:"required,email"`
		Items         []models.CartItem `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide", "details": err.Error()})
		return
	}

	url, err := h.Service.CreateCheckoutSession(c.Request.Context(), req.CustomerEmail, req.Items)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("💳 Session de paiement créée pour %s", req.CustomerEmail)
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// CartSummary calcule le total d'un panier sans rien persister. Le corps est
// le tableau de lignes lui-même, sans enveloppe.
func (h *Handler) CartSummary(c *gin.Context) {
	var items []models.CartItem
	if err := c.ShouldBindJSON(&items); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide", "details": err.Error()})
		return
	}

	total, err := h.Service.CartSummary(c.Request.Context(), items)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"total": total.InexactFloat64()})
}

// Orders renvoie l'historique des commandes d'un client, en tableau nu
func (h *Handler) Orders(c *gin.Context) {
	email := c.Query("customerEmail")

	orders, err := h.Service.OrdersByEmail(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

// Products liste le catalogue avec le stock courant, en tableau nu
func (h *Handler) Products(c *gin.Context) {
	products, err := h.Service.Products(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, products)
}

// respondError traduit la taxonomie d'erreurs du service en statuts HTTP
func respondError(c *gin.Context, err error) {
	var upstream *service.UpstreamError

	switch {
	case service.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrOrderNotFound), errors.Is(err, service.ErrCustomerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &upstream):
		log.Printf("❌ Erreur prestataire de paiement : %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": upstream.Error()})
	default:
		log.Printf("❌ Erreur interne : %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
	}
}
