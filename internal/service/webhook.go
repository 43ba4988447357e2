package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"mercato_back_end/internal/models"
	"mercato_back_end/internal/payments"
	"mercato_back_end/internal/repository"
)

// HandleWebhook vérifie la signature puis traite l'événement. Une signature
// invalide interrompt tout avant la moindre lecture du payload métier.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.Gateway.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}
	return s.HandleEvent(ctx, event)
}

// HandleEvent dirige l'événement vérifié vers la bonne transition d'état.
// Idempotent sous livraison au-moins-une-fois, tolérant au désordre :
// payment_intent.succeeded peut arriver avant checkout.session.completed,
// seul le premier fait autorité pour le stock et le statut Paid.
func (s *Service) HandleEvent(ctx context.Context, event *payments.Event) error {
	log.Printf("📥 Événement reçu : %s", event.Type)

	switch event.Type {
	case payments.EventCheckoutSessionCompleted:
		return s.handleSessionCompleted(ctx, event)
	case payments.EventPaymentIntentSucceeded:
		return s.handleIntentSucceeded(ctx, event)
	default:
		log.Printf("ℹ️ Événement ignoré : %s", event.Type)
		return nil
	}
}

// handleSessionCompleted passe la commande en Processing. Signal
// intermédiaire, jamais autoritaire : aucun stock n'est touché ici.
func (s *Service) handleSessionCompleted(ctx context.Context, event *payments.Event) error {
	orderID, err := strconv.ParseInt(event.ClientReferenceID, 10, 64)
	if err != nil {
		log.Printf("⚠️ checkout.session.completed sans client_reference_id exploitable : %q", event.ClientReferenceID)
		return nil
	}

	return s.Store.WithTransaction(ctx, func(ctx context.Context) error {
		order, err := s.Store.LockOrder(ctx, orderID)
		if errors.Is(err, repository.ErrNotFound) {
			log.Printf("⚠️ Session complétée pour une commande inconnue : %d", orderID)
			return nil
		}
		if err != nil {
			return err
		}

		if order.OrderStatus == models.OrderPaid {
			// Le payment_intent.succeeded est déjà passé, on ne régresse pas
			return nil
		}

		order.OrderStatus = models.OrderProcessing
		order.PaymentStatus = models.PaymentProcessing
		return s.Store.UpdateOrder(ctx, order)
	})
}

// handleIntentSucceeded est le seul chemin qui marque une commande Paid et
// décrémente le stock. Le verrou sur la ligne de commande rend le garde
// PaymentStatus != Paid atomique avec la décrémentation : un doublon livré en
// parallèle attend le commit du premier puis ne fait rien.
func (s *Service) handleIntentSucceeded(ctx context.Context, event *payments.Event) error {
	orderID, err := strconv.ParseInt(event.Metadata["orderId"], 10, 64)
	if err != nil {
		log.Printf("⚠️ payment_intent.succeeded sans orderId exploitable dans les métadonnées")
		return nil
	}

	var paidOrder *models.Order

	err = s.Store.WithTransaction(ctx, func(ctx context.Context) error {
		order, err := s.Store.LockOrder(ctx, orderID)
		if errors.Is(err, repository.ErrNotFound) {
			log.Printf("⚠️ Paiement confirmé pour une commande inconnue : %d", orderID)
			return nil
		}
		if err != nil {
			return err
		}

		if order.PaymentStatus == models.PaymentPaid {
			log.Printf("🔁 Commande %d déjà payée, événement dupliqué ignoré", orderID)
			return nil
		}

		// Le panier revient par les métadonnées de l'intent : c'est le
		// seul moyen de savoir quoi décrémenter
		var items []models.CartItem
		if err := json.Unmarshal([]byte(event.Metadata["items"]), &items); err != nil {
			return err
		}

		// Le stock doit passer avant le statut : pas de décrément, pas
		// de commande payée
		if err := s.reserveAndCommitStock(ctx, items); err != nil {
			return err
		}

		now := time.Now().UTC()
		order.PaymentIntentID = event.PaymentIntentID
		order.OrderStatus = models.OrderPaid
		order.PaymentStatus = models.PaymentPaid
		order.PaidAt = &now
		if err := s.Store.UpdateOrder(ctx, order); err != nil {
			return err
		}

		paidOrder = order
		return nil
	})
	if err != nil {
		return err
	}

	if paidOrder != nil {
		s.Cache.Invalidate(ctx)
		log.Printf("✅ Commande %d payée (intent %s)", paidOrder.ID, paidOrder.PaymentIntentID)
		s.sendConfirmation(*paidOrder)
	}
	return nil
}

// sendConfirmation envoie l'e-mail de confirmation en tâche de fond. Tout
// échec est journalisé et n'affecte jamais la réponse au prestataire.
func (s *Service) sendConfirmation(order models.Order) {
	if s.Mailer == nil {
		return
	}

	ctx := context.Background()
	customer, err := s.Store.GetCustomer(ctx, order.CustomerID)
	if err != nil {
		log.Printf("❌ Client %d introuvable pour l'e-mail de confirmation : %v", order.CustomerID, err)
		return
	}
	items, err := s.Store.ItemsByOrder(ctx, order.ID)
	if err != nil {
		log.Printf("❌ Lignes de la commande %d introuvables pour l'e-mail : %v", order.ID, err)
		return
	}
	names := make(map[int64]string, len(items))
	for _, it := range items {
		if p, err := s.Store.GetProduct(ctx, it.ProductID); err == nil {
			names[it.ProductID] = p.Name
		}
	}

	go func() {
		if err := s.Mailer.SendOrderConfirmation(order, items, names, customer.Email); err != nil {
			log.Printf("❌ Erreur envoi e-mail de confirmation : %v", err)
		} else {
			log.Printf("📧 E-mail de confirmation envoyé à %s", customer.Email)
		}
	}()
}
