package service

import (
	"errors"
	"fmt"
)

// Erreurs de validation : 400, aucun état modifié
var (
	ErrEmptyCart       = errors.New("le panier doit contenir au moins un article")
	ErrEmailRequired   = errors.New("l'e-mail du client est requis")
	ErrNotRefundable   = errors.New("seules les commandes payées peuvent être remboursées")
	ErrNoPaymentIntent = errors.New("aucun payment intent disponible pour le remboursement")
	ErrAlreadyRefunded = errors.New("commande déjà remboursée")
)

// Introuvables : 404
var (
	ErrOrderNotFound    = errors.New("commande introuvable")
	ErrCustomerNotFound = errors.New("client introuvable")
)

// ErrStripeNotConfigured : 500, distinct d'une erreur interne pour que
// l'exploitant sache qu'il manque une variable d'environnement
var ErrStripeNotConfigured = errors.New("clé secrète Stripe non configurée : définir STRIPE_SECRET_KEY")

type InvalidQuantityError struct {
	ProductID int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantité invalide pour le produit %d : elle doit être supérieure à zéro", e.ProductID)
}

type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("produit introuvable: %d", e.ProductID)
}

type InsufficientStockError struct {
	ProductID int64
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuffisant pour le produit %d : disponible %d, demandé %d",
		e.ProductID, e.Available, e.Requested)
}

// UpstreamError : le prestataire de paiement a rejeté l'appel. 502, et la
// transaction locale en cours est annulée.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return "erreur du prestataire de paiement : " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsValidation indique si err relève de la taxonomie "erreur de validation"
func IsValidation(err error) bool {
	var iq *InvalidQuantityError
	var pnf *ProductNotFoundError
	var ins *InsufficientStockError
	return errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrEmailRequired) ||
		errors.Is(err, ErrNotRefundable) ||
		errors.Is(err, ErrNoPaymentIntent) ||
		errors.Is(err, ErrAlreadyRefunded) ||
		errors.As(err, &iq) ||
		errors.As(err, &pnf) ||
		errors.As(err, &ins)
}
