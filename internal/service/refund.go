package service

import (
	"context"
	"errors"
	"log"
	"time"

	"mercato_back_end/internal/models"
	"mercato_back_end/internal/repository"
)

// RefundOrder rembourse intégralement une commande payée et restitue le
// stock. Une commande déjà remboursée renvoie ErrAlreadyRefunded, jamais un
// second appel au prestataire.
func (s *Service) RefundOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.Store.GetOrder(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if order.PaymentStatus == models.PaymentRefunded {
		return nil, ErrAlreadyRefunded
	}
	if order.PaymentStatus != models.PaymentPaid {
		return nil, ErrNotRefundable
	}
	if order.PaymentIntentID == "" {
		return nil, ErrNoPaymentIntent
	}

	refundID, err := s.Gateway.CreateRefund(ctx, order.PaymentIntentID)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	log.Printf("💰 Remboursement Stripe créé : %s (commande %d)", refundID, orderID)

	err = s.Store.WithTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.Store.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		// Une course avec un autre remboursement du même ordre se
		// résout ici : le second ne réécrit rien
		if locked.PaymentStatus == models.PaymentRefunded {
			order = locked
			return nil
		}

		now := time.Now().UTC()
		locked.OrderStatus = models.OrderRefunded
		locked.PaymentStatus = models.PaymentRefunded
		locked.RefundID = refundID
		locked.RefundedAt = &now
		if err := s.Store.UpdateOrder(ctx, locked); err != nil {
			return err
		}
		if err := s.restoreStock(ctx, orderID); err != nil {
			return err
		}
		order = locked
		return nil
	})
	if err != nil {
		// Le remboursement existe chez Stripe mais pas chez nous :
		// l'identifiant dans le journal permet la réconciliation manuelle
		log.Printf("❌ CRITIQUE : remboursement %s effectué mais état local non enregistré (commande %d) : %v", refundID, orderID, err)
		return nil, err
	}

	s.Cache.Invalidate(ctx)
	log.Printf("✅ Commande %d remboursée, stock restitué", orderID)
	return order, nil
}
