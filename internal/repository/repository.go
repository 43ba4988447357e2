package repository

import (
	"context"
	"errors"

	"mercato_back_end/internal/models"
)

// ErrNotFound est renvoyé quand une entité n'existe pas
var ErrNotFound = errors.New("not found")

// ProductRepository : lecture du catalogue + ajustement du stock.
// Le stock n'est modifié que par le Stock Ledger (confirmation de paiement
// ou remboursement), jamais au moment du checkout.
type ProductRepository interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	AdjustProductQuantity(ctx context.Context, id int64, delta int64) error
}

// CustomerRepository : get-or-create par e-mail (sensible à la casse)
type CustomerRepository interface {
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
	CreateCustomer(ctx context.Context, c *models.Customer) error
}

// OrderRepository : création et mutation des commandes et de leurs lignes
type OrderRepository interface {
	// NextOrderNumber = max(id) + 1001, la première commande porte le numéro 1001
	NextOrderNumber(ctx context.Context) (int64, error)
	CreateOrder(ctx context.Context, o *models.Order) error
	CreateOrderItem(ctx context.Context, it *models.OrderItem) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	// LockOrder lit la commande en la verrouillant jusqu'à la fin de la
	// transaction courante (SELECT ... FOR UPDATE côté Postgres), pour que le
	// garde PaymentStatus != Paid soit atomique avec la décrémentation du stock
	LockOrder(ctx context.Context, id int64) (*models.Order, error)
	UpdateOrder(ctx context.Context, o *models.Order) error
	OrdersByCustomer(ctx context.Context, customerID int64) ([]models.Order, error)
	ItemsByOrder(ctx context.Context, orderID int64) ([]models.OrderItem, error)
}

// TxManager exécute fn dans une transaction ; toute erreur annule l'ensemble
// des écritures faites via le contexte transmis à fn
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store regroupe les dépôts et la gestion de transaction derrière une seule
// implémentation (Postgres en production, mémoire dans les tests)
type Store interface {
	ProductRepository
	CustomerRepository
	OrderRepository
	TxManager
}
