package payments

import (
	"context"
	"errors"
)

// Types d'événements webhook pris en charge. Tout autre type est journalisé
// puis ignoré.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventPaymentIntentSucceeded   = "payment_intent.succeeded"
)

// ErrSignature : signature absente, secret absent ou vérification échouée.
// Le payload ne doit alors jamais être traité.
var ErrSignature = errors.New("signature webhook invalide")

type LineItem struct {
	Name string
	// Montant en centimes (unité monétaire mineure)
	UnitAmount int64
	Quantity   int64
}

type SessionRequest struct {
	CustomerEmail     string
	ClientReferenceID string
	SuccessURL        string
	CancelURL         string
	LineItems         []LineItem
	Metadata          map[string]string
}

type Session struct {
	ID              string
	URL             string
	PaymentIntentID string
}

// Event est la forme neutre d'un événement webhook vérifié
type Event struct {
	Type              string            `json:"type"`
	SessionID         string            `json:"sessionId,omitempty"`
	ClientReferenceID string            `json:"clientReferenceId,omitempty"`
	PaymentIntentID   string            `json:"paymentIntentId,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// Gateway abstrait le prestataire de paiement : Stripe en production, un mock
// signé HMAC dans les tests
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error)
	// CreateRefund rembourse l'intégralité du paiement et retourne l'id du
	// remboursement côté prestataire
	CreateRefund(ctx context.Context, paymentIntentID string) (string, error)
	// ParseWebhook vérifie la signature puis décode l'événement
	ParseWebhook(payload []byte, signature string) (*Event, error)
}
