package service

import (
	"context"
	"errors"

	"mercato_back_end/internal/models"
	"mercato_back_end/internal/repository"
)

// reserveAndCommitStock revalide puis décrémente le stock de chaque article,
// tout ou rien : si un seul produit manque de stock, rien n'est modifié.
// Doit être appelé dans la transaction qui verrouille la commande ; c'est le
// garde PaymentStatus != Paid de l'appelant qui garantit l'exécution au plus
// une fois par commande.
func (s *Service) reserveAndCommitStock(ctx context.Context, items []models.CartItem) error {
	for _, it := range items {
		p, err := s.Store.GetProduct(ctx, it.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			return &ProductNotFoundError{ProductID: it.ProductID}
		}
		if err != nil {
			return err
		}
		if p.Quantity < it.Quantity {
			return &InsufficientStockError{ProductID: it.ProductID, Available: p.Quantity, Requested: it.Quantity}
		}
	}

	for _, it := range items {
		if err := s.Store.AdjustProductQuantity(ctx, it.ProductID, -it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// restoreStock ré-crédite chaque ligne de la commande à son produit
func (s *Service) restoreStock(ctx context.Context, orderID int64) error {
	items, err := s.Store.ItemsByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	for _, it := range items {
		if err := s.Store.AdjustProductQuantity(ctx, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}
