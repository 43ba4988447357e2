package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/checkout/session"
	"github.com/stripe/stripe-go/v83/refund"
	"github.com/stripe/stripe-go/v83/webhook"
)

// StripeGateway implémente Gateway sur l'API Stripe (sessions Checkout
// hébergées, remboursements, vérification de signature des webhooks)
type StripeGateway struct {
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{webhookSecret: webhookSecret}
}

var _ Gateway = (*StripeGateway)(nil)

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.LineItems))
	for _, li := range req.LineItems {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String("usd"),
				UnitAmount: stripe.Int64(li.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(li.Name),
				},
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String("payment"),
		CustomerEmail:      stripe.String(req.CustomerEmail),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		ClientReferenceID:  stripe.String(req.ClientReferenceID),
		LineItems:          lineItems,
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: req.Metadata,
		},
	}
	params.Context = ctx

	s, err := session.New(params)
	if err != nil {
		return nil, err
	}

	out := &Session{ID: s.ID, URL: s.URL}
	// L'intent n'existe pas toujours tant que la session n'est pas complétée
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}

	log.Printf("💳 Session Checkout créée : %s (commande %s)", s.ID, req.ClientReferenceID)
	return out, nil
}

func (g *StripeGateway) CreateRefund(ctx context.Context, paymentIntentID string) (string, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
		Reason:        stripe.String("requested_by_customer"),
		// Pas de montant : Stripe rembourse l'intégralité
	}
	params.Context = ctx
	// Clé d'idempotence : les retries réseau du client Stripe réutilisent
	// la même requête au lieu de créer un second remboursement
	params.IdempotencyKey = stripe.String(uuid.NewString())

	r, err := refund.New(params)
	if err != nil {
		return "", err
	}

	log.Printf("💰 Remboursement Stripe créé : %s (intent %s)", r.ID, paymentIntentID)
	return r.ID, nil
}

func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*Event, error) {
	if g.webhookSecret == "" || signature == "" {
		return nil, ErrSignature
	}

	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignature, err)
	}

	out := &Event{Type: string(event.Type)}

	switch out.Type {
	case EventCheckoutSessionCompleted:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, err
		}
		out.SessionID = s.ID
		out.ClientReferenceID = s.ClientReferenceID
	case EventPaymentIntentSucceeded:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, err
		}
		out.PaymentIntentID = pi.ID
		out.Metadata = pi.Metadata
	}

	return out, nil
}
