package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Statut de la commande (cycle de vie côté boutique)
type OrderStatus string

const (
	OrderPending    OrderStatus = "Pending"
	OrderProcessing OrderStatus = "Processing"
	OrderPaid       OrderStatus = "Paid"
	OrderFailed     OrderStatus = "Failed"
	OrderRefunded   OrderStatus = "Refunded"
)

// Statut du paiement (cycle de vie côté Stripe), avec Cancelled en plus
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "Pending"
	PaymentProcessing PaymentStatus = "Processing"
	PaymentPaid       PaymentStatus = "Paid"
	PaymentFailed     PaymentStatus = "Failed"
	PaymentRefunded   PaymentStatus = "Refunded"
	PaymentCancelled  PaymentStatus = "Cancelled"
)

type Order struct {
	ID              int64           `json:"id"`
	OrderNumber     int64           `json:"orderNumber"`
	CustomerID      int64           `json:"customerId"`
	CreatedAt       time.Time       `json:"createdAt"`
	OrderStatus     OrderStatus     `json:"orderStatus"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	StripeSessionID string          `json:"-"`
	PaymentIntentID string          `json:"-"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	PaidAt          *time.Time      `json:"paidAt"`
	RefundID        string          `json:"-"`
	RefundedAt      *time.Time      `json:"refundedAt"`
}

type OrderItem struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"orderId"`
	ProductID int64           `json:"productId"`
	Quantity  int64           `json:"quantity"`
	// Prix unitaire figé au moment de la commande, pas le prix catalogue courant
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Total d'une ligne = quantité × prix unitaire figé
func (i OrderItem) Total() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}
