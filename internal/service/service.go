package service

import (
	"mercato_back_end/internal/cache"
	"mercato_back_end/internal/config"
	"mercato_back_end/internal/models"
	"mercato_back_end/internal/payments"
	"mercato_back_end/internal/repository"
)

// Mailer envoie la confirmation de commande. Optionnel : un échec d'envoi est
// journalisé mais n'affecte jamais la réconciliation du paiement.
type Mailer interface {
	SendOrderConfirmation(order models.Order, items []models.OrderItem, productNames map[int64]string, email string) error
}

// Service porte les quatre orchestrateurs : checkout, réconciliation webhook,
// registre de stock et remboursement. Le store est l'unique source de vérité ;
// chaque opération multi-écritures passe par une transaction du store.
type Service struct {
	Store   repository.Store
	Gateway payments.Gateway
	Config  *config.Config
	Cache   *cache.ProductCache // optionnel
	Mailer  Mailer              // optionnel
}
