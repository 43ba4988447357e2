package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"mercato_back_end/internal/models"
	"mercato_back_end/internal/payments"
	"mercato_back_end/internal/repository"

	"github.com/shopspring/decimal"
)

var cent = decimal.NewFromInt(100)

// toMinorUnits convertit un montant en unité majeure (50.00) vers l'unité
// mineure attendue par Stripe (5000), arrondi au centime le plus proche
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(cent).Round(0).IntPart()
}

// CreateCheckoutSession valide le panier, crée client + commande + lignes dans
// une transaction, demande la session de paiement hébergée et ne valide la
// transaction qu'une fois la session obtenue. Retourne l'URL de paiement.
//
// La vérification de stock faite ici est purement indicative : aucun verrou
// n'est pris, le stock n'est réellement décrémenté qu'à la confirmation du
// paiement par webhook.
func (s *Service) CreateCheckoutSession(ctx context.Context, customerEmail string, items []models.CartItem) (string, error) {
	if customerEmail == "" {
		return "", ErrEmailRequired
	}
	if len(items) == 0 {
		return "", ErrEmptyCart
	}

	for _, it := range items {
		if it.Quantity <= 0 {
			return "", &InvalidQuantityError{ProductID: it.ProductID}
		}
		p, err := s.Store.GetProduct(ctx, it.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			return "", &ProductNotFoundError{ProductID: it.ProductID}
		}
		if err != nil {
			return "", err
		}
		if p.Quantity < it.Quantity {
			return "", &InsufficientStockError{ProductID: it.ProductID, Available: p.Quantity, Requested: it.Quantity}
		}
	}

	var checkoutURL string

	err := s.Store.WithTransaction(ctx, func(ctx context.Context) error {
		customer, err := s.getOrCreateCustomer(ctx, customerEmail)
		if err != nil {
			return err
		}

		orderNumber, err := s.Store.NextOrderNumber(ctx)
		if err != nil {
			return err
		}

		order := &models.Order{
			OrderNumber:   orderNumber,
			CustomerID:    customer.ID,
			CreatedAt:     time.Now().UTC(),
			OrderStatus:   models.OrderPending,
			PaymentStatus: models.PaymentPending,
			TotalAmount:   decimal.Zero,
		}
		if err := s.Store.CreateOrder(ctx, order); err != nil {
			return err
		}

		// Prix unitaire figé au prix catalogue courant, nom retenu pour
		// les lignes Stripe
		productNames := make(map[int64]string, len(items))
		for _, it := range items {
			p, err := s.Store.GetProduct(ctx, it.ProductID)
			if errors.Is(err, repository.ErrNotFound) {
				return &ProductNotFoundError{ProductID: it.ProductID}
			}
			if err != nil {
				return err
			}
			productNames[p.ID] = p.Name
			if err := s.Store.CreateOrderItem(ctx, &models.OrderItem{
				OrderID:   order.ID,
				ProductID: p.ID,
				Quantity:  it.Quantity,
				UnitPrice: p.Price,
			}); err != nil {
				return err
			}
		}

		// Total recalculé depuis les lignes persistées, jamais depuis la
		// requête : on ne fait pas confiance aux prix côté client
		persisted, err := s.Store.ItemsByOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		total := decimal.Zero
		lines := make([]payments.LineItem, 0, len(persisted))
		for _, it := range persisted {
			total = total.Add(it.Total())
			lines = append(lines, payments.LineItem{
				Name:       productNames[it.ProductID],
				UnitAmount: toMinorUnits(it.UnitPrice),
				Quantity:   it.Quantity,
			})
		}
		order.TotalAmount = total

		// Le panier est recopié dans les métadonnées : le webhook n'a que
		// ce canal pour retrouver les quantités à décrémenter
		cartJSON, err := json.Marshal(items)
		if err != nil {
			return err
		}

		sess, err := s.Gateway.CreateCheckoutSession(ctx, payments.SessionRequest{
			CustomerEmail:     customerEmail,
			ClientReferenceID: strconv.FormatInt(order.ID, 10),
			SuccessURL:        s.Config.SuccessURL(),
			CancelURL:         s.Config.CancelURL(),
			LineItems:         lines,
			Metadata: map[string]string{
				"orderId":    strconv.FormatInt(order.ID, 10),
				"customerId": strconv.FormatInt(customer.ID, 10),
				"items":      string(cartJSON),
			},
		})
		if err != nil {
			// Rollback : rien ne doit rester d'une commande sans session
			return &UpstreamError{Err: err}
		}

		order.StripeSessionID = sess.ID
		order.PaymentIntentID = sess.PaymentIntentID
		if err := s.Store.UpdateOrder(ctx, order); err != nil {
			return err
		}

		checkoutURL = sess.URL
		return nil
	})
	if err != nil {
		return "", err
	}

	return checkoutURL, nil
}

// CartSummary calcule le total du panier aux prix catalogue, arrondi à deux
// décimales. Aucune écriture.
func (s *Service) CartSummary(ctx context.Context, items []models.CartItem) (decimal.Decimal, error) {
	if len(items) == 0 {
		return decimal.Zero, ErrEmptyCart
	}

	total := decimal.Zero
	for _, it := range items {
		if it.Quantity <= 0 {
			return decimal.Zero, &InvalidQuantityError{ProductID: it.ProductID}
		}
		p, err := s.Store.GetProduct(ctx, it.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			return decimal.Zero, &ProductNotFoundError{ProductID: it.ProductID}
		}
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(it.Quantity)))
	}

	return total.Round(2), nil
}

// getOrCreateCustomer : un client par e-mail distinct, comparaison sensible à
// la casse, jamais supprimé
func (s *Service) getOrCreateCustomer(ctx context.Context, email string) (*models.Customer, error) {
	customer, err := s.Store.GetCustomerByEmail(ctx, email)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	customer = &models.Customer{Email: email}
	if err := s.Store.CreateCustomer(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}
